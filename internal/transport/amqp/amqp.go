// Package amqp subscribes to the live feed through an AMQP topic exchange.
// On RabbitMQ the STOMP destination /topic/plc-monitoring and the MQTT topic
// plc-monitoring both route through amq.topic with key plc-monitoring.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"picmon/internal/transport"
)

const (
	DefaultExchange   = "amq.topic"
	DefaultRoutingKey = "plc-monitoring"
)

type Config struct {
	URL            string
	Exchange       string
	RoutingKey     string
	Tag            string
	Heartbeat      time.Duration
	ReconnectDelay time.Duration
}

type Subscriber struct {
	*transport.Base

	cfg    Config
	runner *transport.Runner
	dial   func(url string, cfg amqp.Config) (*amqp.Connection, error)
}

func NewSubscriber(cfg Config, logger *slog.Logger) *Subscriber {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.RoutingKey == "" {
		cfg.RoutingKey = DefaultRoutingKey
	}
	if cfg.Tag == "" {
		cfg.Tag = uuid.NewString()
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = transport.DefaultHeartbeat
	}
	s := &Subscriber{
		Base: transport.NewBase("amqp", logger),
		cfg:  cfg,
		dial: amqp.DialConfig,
	}
	s.runner = transport.NewRunner(s.Base, cfg.ReconnectDelay, s.session)
	return s
}

func (s *Subscriber) Connect(ctx context.Context) error {
	return s.runner.Start(ctx)
}

// Disconnect cancels the consumer and closes the connection. Idempotent.
func (s *Subscriber) Disconnect() {
	wasActive := s.runner.Active()
	s.runner.Stop()
	if wasActive {
		s.SetStatus(transport.StatusDisconnected)
		s.Logger().Info("amqp subscriber disconnected")
	}
}

func (s *Subscriber) queueName() string {
	return fmt.Sprintf("picmon-%s", s.cfg.Tag)
}

func (s *Subscriber) session(ctx context.Context, ready func()) error {
	conn, err := s.dial(s.cfg.URL, amqp.Config{Heartbeat: s.cfg.Heartbeat})
	if err != nil {
		s.SetStatus(transport.StatusDisconnected)
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			s.Logger().Debug("amqp connection close", "error", err)
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		s.SetStatus(transport.StatusError)
		return fmt.Errorf("amqp channel: %w", err)
	}

	queue, err := ch.QueueDeclare(
		s.queueName(),
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		s.SetStatus(transport.StatusError)
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queue.Name, s.cfg.RoutingKey, s.cfg.Exchange, false, nil); err != nil {
		s.SetStatus(transport.StatusError)
		return fmt.Errorf("bind queue to %s (key %q): %w", s.cfg.Exchange, s.cfg.RoutingKey, err)
	}

	deliveries, err := ch.Consume(queue.Name, s.cfg.Tag, true, true, false, false, nil)
	if err != nil {
		s.SetStatus(transport.StatusError)
		return fmt.Errorf("consume: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	s.SetStatus(transport.StatusConnected)
	s.Logger().Info("consuming", "queue", queue.Name, "exchange", s.cfg.Exchange, "key", s.cfg.RoutingKey)
	ready()

	for {
		select {
		case <-ctx.Done():
			if err := ch.Cancel(s.cfg.Tag, false); err != nil {
				s.Logger().Debug("amqp cancel consumer", "error", err)
			}
			return nil
		case amqpErr, ok := <-closed:
			if ok && amqpErr != nil {
				s.SetStatus(transport.StatusError)
				return fmt.Errorf("amqp connection closed: %w", amqpErr)
			}
			s.SetStatus(transport.StatusDisconnected)
			return transport.ErrSessionEnded
		case d, ok := <-deliveries:
			if !ok {
				s.SetStatus(transport.StatusDisconnected)
				return transport.ErrSessionEnded
			}
			s.Deliver(d.RoutingKey, d.Body)
		}
	}
}
