package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nlowe/hadevice/config"
	"github.com/nlowe/hadevice/log"
	"github.com/nlowe/hadevice/mqtt"
	adapter "github.com/nlowe/hadevice/mqtt/adapter/autopaho"
	"github.com/nlowe/hadevice/mqtt/adapter/pahov3"
)

const (
	// sessionExpiryInterval is how long, in seconds, the broker keeps a v5 session after the connection drops.
	sessionExpiryInterval = 60

	reconnectInterval    = 5 * time.Second
	maxReconnectInterval = time.Minute
)

// conn is a connected transport.
type conn interface {
	mqtt.Client
	Disconnect(ctx context.Context) error
}

// dial connects to the broker using the configured protocol.
func dial(ctx context.Context, cfg config.MQTT, clientID string) (conn, error) {
	broker, err := url.Parse(cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("mqtt: parse broker url: %w", err)
	}

	l := log.ForComponent("mqtt").With(
		slog.String("broker", broker.Redacted()),
		slog.String("client_id", clientID),
		slog.String("protocol", string(cfg.Protocol)),
	)
	l.Info("Connecting to mqtt")

	var c conn
	switch cfg.Protocol {
	case config.ProtocolV3:
		v3c, err := pahov3.Dial(ctx, v3Options(broker, cfg, clientID, l))
		if err != nil {
			return nil, err
		}

		c = v3c
	default:
		v5c, err := adapter.Dial(ctx, v5Config(broker, cfg, clientID, l))
		if err != nil {
			return nil, err
		}

		c = v5c
	}

	l.Info("Connected to mqtt")
	return c, nil
}

func v5Config(broker *url.URL, cfg config.MQTT, clientID string, l *slog.Logger) autopaho.ClientConfig {
	return autopaho.ClientConfig{
		ServerUrls: []*url.URL{broker},
		KeepAlive:  uint16(cfg.KeepAlive / time.Second),

		SessionExpiryInterval: sessionExpiryInterval,

		ConnectUsername: cfg.Username,
		ConnectPassword: []byte(cfg.Password),

		OnConnectionUp: func(*autopaho.ConnectionManager, *paho.Connack) {
			l.Info("mqtt connected")
		},
		OnConnectError: func(err error) {
			l.With(log.Error(err)).Error("mqtt connection error")
		},

		ClientConfig: paho.ClientConfig{
			ClientID: clientID,
			OnClientError: func(err error) {
				l.With(log.Error(err)).Error("mqtt client error")
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				l := l.With(slog.Int("reason", int(d.ReasonCode)))
				if d.Properties != nil {
					l = l.With(slog.String("reason_string", d.Properties.ReasonString))
				}

				l.Warn("Disconnected from server")
			},
		},
	}
}

func v3Options(broker *url.URL, cfg config.MQTT, clientID string, l *slog.Logger) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(broker.String())
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(reconnectInterval)
	opts.SetMaxReconnectInterval(maxReconnectInterval)

	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		l.Info("mqtt connected")
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		l.With(log.Error(err)).Warn("mqtt connection lost")
	})

	return opts
}
