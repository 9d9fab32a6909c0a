package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/avast/retry-go/v4"
	"github.com/streadway/amqp"
)

const dialAttempts = 3

// Publisher writes feed messages to the topic exchange. It backs the
// simulate command.
type Publisher struct {
	cfg    Config
	logger *slog.Logger
	dial   func(url string, cfg amqp.Config) (*amqp.Connection, error)

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(cfg Config, logger *slog.Logger) *Publisher {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.RoutingKey == "" {
		cfg.RoutingKey = DefaultRoutingKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{cfg: cfg, logger: logger, dial: amqp.DialConfig}
}

func (p *Publisher) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		return nil
	}

	var conn *amqp.Connection
	err := retry.Do(
		func() error {
			c, err := p.dial(p.cfg.URL, amqp.Config{Heartbeat: p.cfg.Heartbeat})
			if err != nil {
				return err
			}
			conn = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(dialAttempts),
		retry.Delay(p.cfg.ReconnectDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Warn("amqp publisher dial failed", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.logger.Info("amqp publisher connected", "exchange", p.cfg.Exchange, "key", p.cfg.RoutingKey)
	return nil
}

func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	ch := p.ch
	p.mu.Unlock()
	if ch == nil {
		return errors.New("amqp publisher not connected")
	}
	err := ch.Publish(p.cfg.Exchange, p.cfg.RoutingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
	if err != nil {
		return fmt.Errorf("publish to %s (key %q): %w", p.cfg.Exchange, p.cfg.RoutingKey, err)
	}
	p.logger.Debug("published reading", "exchange", p.cfg.Exchange, "bytes", len(payload))
	return nil
}

// Close is idempotent.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}
