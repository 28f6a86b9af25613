// @title        Heatzy Bridge API
// @version      1.0
// @description  Exposes every (device, mode) pair of a Heatzy account as an on/off switch.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"heatzy_bridge/internal/bridge"
	"heatzy_bridge/internal/cache"
	"heatzy_bridge/internal/config"
	"heatzy_bridge/internal/gizwits"
	"heatzy_bridge/internal/handlers"
	"heatzy_bridge/internal/logger"
	"heatzy_bridge/internal/mqttbridge"
	"heatzy_bridge/internal/repository"
	"heatzy_bridge/internal/repository/db"
	"heatzy_bridge/internal/server"
	"heatzy_bridge/internal/service"
	"heatzy_bridge/internal/session"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var version = "dev"

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:           "heatzy-bridge",
	Short:         "Expose Heatzy pilot wire heaters as on/off switches",
	Long:          "Bridges a Heatzy (Gizwits) account to HTTP, WebSocket and MQTT hosts. Every selected mode of every device becomes a switch.",
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge (default)",
	RunE:  runServe,
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Log in once and print the devices bound to the account",
	RunE:  runDevices,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default configs/config.yml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before HEATZY_* lookups")
	rootCmd.AddCommand(serveCmd, devicesCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, nil, err
	}
	log := logger.Get(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		return nil, log, err
	}
	return cfg, log, nil
}

func newClient(cfg *config.Config) *gizwits.Client {
	return gizwits.NewClient(cfg.Heatzy.BaseURL, cfg.Heatzy.ApplicationID, cfg.Heatzy.RequestTimeout)
}

func newSession(cfg *config.Config, client *gizwits.Client, log *logger.Logger) *session.Manager {
	return session.NewManager(client, session.Config{
		Username:          cfg.Heatzy.Username,
		Password:          cfg.Heatzy.Password,
		HonorVendorExpiry: cfg.Session.HonorVendorExpiry,
	}, log)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	modes, _ := cfg.SelectedModes()

	sqlDB, err := openDB(cfg, log)
	if err != nil {
		return fmt.Errorf("init sqlite: %w", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("sqlite_close_failed", "err", cerr)
		}
	}()

	repos := repository.NewRepository(sqlDB)
	client := newClient(cfg)
	sessions := newSession(cfg, client, log)

	platform := bridge.NewPlatform(bridge.Options{
		Tokens: sessions,
		Client: client,
		Cache:  cache.New(cfg.Cache.Freshness),
		Store:  repos.Endpoints,
		Events: repos.EventRepo,
		Modes:  modes,
		Schedule: bridge.Schedule{
			Interval:  cfg.Polling.Interval,
			JitterMin: cfg.Polling.JitterMin,
			JitterMax: cfg.Polling.JitterMax,
		},
		SyncInterval: cfg.Sync.Interval,
		Log:          log,
	})

	key, err := signingKey(cfg, log)
	if err != nil {
		return err
	}
	services := service.NewService(repos, platform, sessions, service.AuthOptions{
		SigningKey: key,
		TokenTTL:   cfg.Auth.TokenTTL,
	})
	apiHandler := handlers.NewHandler(services, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := platform.Start(ctx); err != nil {
		return err
	}

	if cfg.MQTT.Enabled {
		mb, err := mqttbridge.Connect(mqttbridge.Config{
			Broker:      cfg.MQTT.Broker,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}, services.Switches, services.Notifications, log)
		if err != nil {
			log.Errorw("mqtt_connect_failed", "broker", cfg.MQTT.Broker, "err", err)
		} else {
			go mb.Run(ctx)
		}
	}

	srv := server.New(cfg.Port, apiHandler.InitRoutes())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()
	log.Infow("http_server_started", "addr", srv.Addr(), "version", version)

	select {
	case err := <-errCh:
		stop()
		platform.Stop()
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Infow("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("http_shutdown_failed", "err", err)
	}
	platform.Stop()
	return nil
}

func runDevices(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	client := newClient(cfg)
	sessions := newSession(cfg, client, log)

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.Heatzy.RequestTimeout)
	defer cancel()

	token, err := sessions.Token(ctx)
	if err != nil {
		return err
	}
	devices, err := client.ListDevices(ctx, token)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, d := range devices {
		fmt.Fprintf(out, "%s\t%s\n", d.ID, d.DisplayName())
	}
	if len(devices) == 0 {
		fmt.Fprintln(out, "no devices bound to this account")
	}
	return nil
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	path := cfg.DB.Path
	if path == "" {
		path = "heatzy.db"
		log.Infow("db_path_default", "path", path)
	}
	return db.InitDB(path)
}

// signingKey returns the configured key or a random one valid for this
// process only.
func signingKey(cfg *config.Config, log *logger.Logger) (string, error) {
	if cfg.Auth.SigningKey != "" {
		return cfg.Auth.SigningKey, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating signing key: %w", err)
	}
	log.Warnw("auth_signing_key_generated", "hint", "set auth.signing_key to keep API tokens valid across restarts")
	return hex.EncodeToString(buf), nil
}
