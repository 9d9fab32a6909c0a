package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const publishTimeout = 5 * time.Second

// Publisher writes feed messages to the configured topic. It backs the
// simulate command.
type Publisher struct {
	client paho.Client
	cfg    Config
	logger *slog.Logger
}

func NewPublisher(cfg Config, logger *slog.Logger) *Publisher {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "picmon-sim-" + uuid.NewString()
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL())
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	if cfg.ReconnectDelay > 0 {
		opts.SetConnectRetryInterval(cfg.ReconnectDelay)
	}
	opts.SetOnConnectHandler(func(_ paho.Client) {
		logger.Info("mqtt publisher connected", "broker", cfg.Broker, "port", cfg.Port)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt publisher connection lost", "error", err)
	})

	return &Publisher{client: paho.NewClient(opts), cfg: cfg, logger: logger}
}

// Connect waits for the initial connection or ctx.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("mqtt publisher not connected")
	}
	token := p.client.Publish(p.cfg.Topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish timeout for topic %s", p.cfg.Topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.cfg.Topic, err)
	}
	p.logger.Debug("published reading", "topic", p.cfg.Topic, "bytes", len(payload))
	return nil
}

func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
