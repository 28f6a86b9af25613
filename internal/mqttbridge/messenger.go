package mqttbridge

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	qos             = 0
	connectTimeout  = 10 * time.Second
	disconnectQuiet = 250 // ms
)

var errConnectTimeout = errors.New("mqtt connect timed out")

// Messenger is the broker surface the bridge needs.
type Messenger interface {
	Publish(topic string, retained bool, payload []byte) error
	Subscribe(topic string, handler func(topic string, payload []byte, retained bool)) error
	Disconnect()
}

// Config describes the broker connection.
type Config struct {
	Broker      string
	Username    string
	Password    string
	ClientID    string
	TopicPrefix string
}

type pahoMessenger struct {
	client mqtt.Client
}

func (m *pahoMessenger) Publish(topic string, retained bool, payload []byte) error {
	token := m.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

func (m *pahoMessenger) Subscribe(topic string, handler func(string, []byte, bool)) error {
	token := m.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload(), msg.Retained())
	})
	token.Wait()
	return token.Error()
}

func (m *pahoMessenger) Disconnect() { m.client.Disconnect(disconnectQuiet) }

// newClientOptions sets the last will on the availability topic and runs
// onConnect after every (re)connect.
func newClientOptions(cfg Config, availability string, onConnect func()) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetWill(availability, payloadOffline, qos, true)
	opts.SetOnConnectHandler(func(mqtt.Client) { onConnect() })
	return opts
}

func connect(client mqtt.Client) error {
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errConnectTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}
