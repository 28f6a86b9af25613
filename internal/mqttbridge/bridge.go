// Package mqttbridge publishes every switch to an MQTT broker using Home
// Assistant discovery and routes ON/OFF commands back to the switches.
package mqttbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"heatzy_bridge/internal/bridge"
	"heatzy_bridge/internal/logger"
	"heatzy_bridge/internal/service"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	payloadOn      = "ON"
	payloadOff     = "OFF"
	payloadOnline  = "online"
	payloadOffline = "offline"

	discoveryPrefix = "homeassistant"
	uniquePrefix    = "heatzy_"
	commandTimeout  = 30 * time.Second
	changeBuffer    = 64
)

// Switches is the part of the switch service the bridge drives.
type Switches interface {
	List(ctx context.Context) []service.SwitchView
	Set(ctx context.Context, id string, on bool) (service.SwitchView, error)
}

// Notifier streams endpoint changes.
type Notifier interface {
	Subscribe(buffer int) (<-chan bridge.Change, func())
}

// Bridge mirrors the switches onto MQTT topics under a prefix:
//
//	<prefix>/status              online/offline, retained
//	<prefix>/switch/<id>/state   ON/OFF, retained
//	<prefix>/switch/<id>/set     commands
type Bridge struct {
	m        Messenger
	prefix   string
	switches Switches
	notifier Notifier
	log      *logger.Logger
}

// New returns a bridge publishing through m.
func New(m Messenger, prefix string, switches Switches, notifier Notifier, log *logger.Logger) *Bridge {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "heatzy"
	}
	return &Bridge{
		m:        m,
		prefix:   prefix,
		switches: switches,
		notifier: notifier,
		log:      logger.OrNop(log),
	}
}

// Connect dials the broker described by cfg and announces every switch
// after each (re)connect.
func Connect(cfg Config, switches Switches, notifier Notifier, log *logger.Logger) (*Bridge, error) {
	b := New(nil, cfg.TopicPrefix, switches, notifier, log)
	opts := newClientOptions(cfg, b.availabilityTopic(), func() {
		if err := b.Announce(context.Background()); err != nil {
			b.log.Errorw("mqtt_announce_failed", "err", err)
		}
	})
	client := mqtt.NewClient(opts)
	b.m = &pahoMessenger{client: client}
	if err := connect(client); err != nil {
		return nil, err
	}
	b.log.Infow("mqtt_connected", "broker", cfg.Broker, "prefix", b.prefix)
	return b, nil
}

func (b *Bridge) availabilityTopic() string { return b.prefix + "/status" }
func (b *Bridge) stateTopic(id string) string { return b.prefix + "/switch/" + id + "/state" }
func (b *Bridge) commandTopic(id string) string { return b.prefix + "/switch/" + id + "/set" }
func discoveryTopic(id string) string {
	return discoveryPrefix + "/switch/" + uniquePrefix + id + "/config"
}

// Announce marks the bridge online, publishes discovery and state for every
// switch and subscribes to the command topics.
func (b *Bridge) Announce(ctx context.Context) error {
	if err := b.m.Publish(b.availabilityTopic(), true, []byte(payloadOnline)); err != nil {
		return fmt.Errorf("publish availability: %w", err)
	}
	for _, sv := range b.switches.List(ctx) {
		if err := b.publishSwitch(sv.ID, sv.Name, sv.DeviceID, sv.DeviceName, sv.On); err != nil {
			return err
		}
	}
	if err := b.m.Subscribe(b.prefix+"/switch/+/set", b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	return nil
}

// Run forwards endpoint changes to the broker until ctx is cancelled, then
// marks the bridge offline and disconnects.
func (b *Bridge) Run(ctx context.Context) {
	changes, cancel := b.notifier.Subscribe(changeBuffer)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			b.Close()
			return
		case ch, ok := <-changes:
			if !ok {
				return
			}
			if err := b.apply(ch); err != nil {
				b.log.Warnw("mqtt_publish_failed", "endpoint_id", ch.EndpointID, "kind", ch.Kind, "err", err)
			}
		}
	}
}

// Close publishes the offline marker and disconnects.
func (b *Bridge) Close() {
	if err := b.m.Publish(b.availabilityTopic(), true, []byte(payloadOffline)); err != nil {
		b.log.Warnw("mqtt_offline_publish_failed", "err", err)
	}
	b.m.Disconnect()
	b.log.Infow("mqtt_disconnected")
}

func (b *Bridge) apply(ch bridge.Change) error {
	switch ch.Kind {
	case bridge.ChangeAdded:
		return b.publishSwitch(ch.EndpointID, ch.Name, ch.DeviceID, "", ch.On)
	case bridge.ChangeRemoved:
		if err := b.m.Publish(discoveryTopic(ch.EndpointID), true, nil); err != nil {
			return err
		}
		return b.m.Publish(b.stateTopic(ch.EndpointID), true, nil)
	default:
		return b.publishState(ch.EndpointID, ch.On)
	}
}

func (b *Bridge) publishSwitch(id, name, deviceID, deviceName string, on bool) error {
	payload, err := json.Marshal(b.discovery(id, name, deviceID, deviceName))
	if err != nil {
		return fmt.Errorf("marshal discovery: %w", err)
	}
	if err := b.m.Publish(discoveryTopic(id), true, payload); err != nil {
		return fmt.Errorf("publish discovery for %s: %w", name, err)
	}
	return b.publishState(id, on)
}

func (b *Bridge) publishState(id string, on bool) error {
	state := payloadOff
	if on {
		state = payloadOn
	}
	return b.m.Publish(b.stateTopic(id), true, []byte(state))
}

func (b *Bridge) discovery(id, name, deviceID, deviceName string) map[string]any {
	dev := map[string]any{
		"identifiers":  []string{uniquePrefix + deviceID},
		"manufacturer": "Heatzy",
	}
	if deviceName != "" {
		dev["name"] = deviceName
	}
	return map[string]any{
		"name":               name,
		"unique_id":          uniquePrefix + id,
		"command_topic":      b.commandTopic(id),
		"state_topic":        b.stateTopic(id),
		"availability_topic": b.availabilityTopic(),
		"payload_on":         payloadOn,
		"payload_off":        payloadOff,
		"optimistic":         false,
		"retain":             false,
		"device":             dev,
	}
}

func (b *Bridge) handleCommand(topic string, payload []byte, retained bool) {
	if retained {
		return
	}
	id, ok := b.commandID(topic)
	if !ok {
		b.log.Debugw("mqtt_command_ignored", "topic", topic)
		return
	}

	var on bool
	switch strings.ToUpper(strings.TrimSpace(string(payload))) {
	case payloadOn:
		on = true
	case payloadOff:
	default:
		b.log.Warnw("mqtt_command_invalid_payload", "topic", topic, "payload", string(payload))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	sv, err := b.switches.Set(ctx, id, on)
	if err != nil {
		b.log.Errorw("mqtt_command_failed", "endpoint_id", id, "on", on, "err", err)
		if sv.ID == "" {
			return
		}
	}
	// The reported state may differ from the command after a failure.
	if err := b.publishState(id, sv.On); err != nil {
		b.log.Warnw("mqtt_publish_failed", "endpoint_id", id, "err", err)
	}
}

// commandID extracts <id> from <prefix>/switch/<id>/set.
func (b *Bridge) commandID(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, b.prefix+"/switch/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/set")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
