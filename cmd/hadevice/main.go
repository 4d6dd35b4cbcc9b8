// Command hadevice publishes the devices declared in a YAML file to Home Assistant over MQTT discovery and
// acknowledges every command Home Assistant sends them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nlowe/hadevice/config"
	"github.com/nlowe/hadevice/log"
	"github.com/nlowe/hadevice/registry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("hadevice failed", log.Error(err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	log.To(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level, ReplaceAttr: log.ReplaceLevelNames}))
	l := log.ForComponent("main")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg, err := registry.Open(cfg.StateFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := reg.Close(); err != nil {
			l.With(log.Error(err)).Warn("Failed to close registry")
		}
	}()

	ids, err := resolveDeviceIDs(cfg, reg)
	if err != nil {
		return err
	}

	clientID := cfg.MQTT.ClientID
	if clientID == "" {
		if clientID, err = reg.ClientID(); err != nil {
			return err
		}
	}

	c, err := dial(ctx, cfg.MQTT, clientID)
	if err != nil {
		return err
	}

	b := newBridge(ctx, cfg, ids, c)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		l.Info("Marking devices offline")
		if err := b.shutdown(shutdownCtx); err != nil {
			l.With(log.Error(err)).Error("Failed to mark devices offline")
		}

		l.Info("Disconnecting from mqtt")
		if err := c.Disconnect(shutdownCtx); err != nil {
			l.With(log.Error(err)).Error("Failed to disconnect from mqtt")
		}
	}()

	if err = b.watchHomeAssistant(ctx, c); err != nil {
		return err
	}

	l.With(slog.Int("devices", len(ids))).Info("Publishing devices")
	if err = b.publish(ctx); err != nil {
		// Devices that failed are retried the next time Home Assistant comes online.
		l.With(log.Error(err)).Error("Failed to publish devices")
	}

	<-ctx.Done()
	l.Info("Goodbye!")

	return nil
}
