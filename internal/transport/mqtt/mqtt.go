// Package mqtt subscribes to the live feed over MQTT.
package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"picmon/internal/transport"
)

const DefaultTopic = "plc-monitoring"

type Config struct {
	Broker         string
	Port           int
	Topic          string
	ClientID       string
	Username       string
	Password       string
	Heartbeat      time.Duration
	ReconnectDelay time.Duration
}

// BrokerURL returns the tcp:// address paho dials.
func (c Config) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.Broker, c.Port)
}

type Subscriber struct {
	*transport.Base

	client    paho.Client
	cfg       Config
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewSubscriber(cfg Config, logger *slog.Logger) *Subscriber {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "picmon-" + uuid.NewString()
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = transport.DefaultHeartbeat
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = transport.DefaultReconnectDelay
	}

	s := &Subscriber{
		Base:   transport.NewBase("mqtt", logger),
		cfg:    cfg,
		stopCh: make(chan struct{}),
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
	opts.SetConnectRetryInterval(cfg.ReconnectDelay)
	opts.SetMaxReconnectInterval(cfg.ReconnectDelay)

	opts.SetKeepAlive(cfg.Heartbeat)
	opts.SetPingTimeout(cfg.Heartbeat)

	// Subscribing here also restores the subscription after an auto-reconnect.
	opts.SetOnConnectHandler(func(c paho.Client) {
		s.setConnected(true)
		s.Logger().Info("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
		if err := s.subscribe(c); err != nil {
			s.Logger().Error("mqtt subscribe failed", "topic", cfg.Topic, "error", err)
			s.SetStatus(transport.StatusError)
			return
		}
		s.SetStatus(transport.StatusConnected)
	})

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		s.setConnected(false)
		s.Logger().Warn("mqtt connection lost", "error", err)
		s.SetStatus(transport.StatusDisconnected)
	})

	opts.SetReconnectingHandler(func(_ paho.Client, _ *paho.ClientOptions) {
		s.Logger().Debug("mqtt reconnecting", "broker", cfg.Broker)
	})

	s.client = paho.NewClient(opts)
	return s
}

// Connect waits for the initial connection, respecting ctx and Disconnect.
// paho keeps retrying in the background after ctx ends.
func (s *Subscriber) Connect(ctx context.Context) error {
	select {
	case <-s.stopCh:
		return transport.ErrStopped
	default:
	}

	if s.IsConnected() {
		return nil
	}

	token := s.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				s.SetStatus(transport.StatusError)
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return transport.ErrStopped
		default:
		}
	}
}

func (s *Subscriber) subscribe(c paho.Client) error {
	topic := s.cfg.Topic
	qos := byte(1)

	token := c.Subscribe(topic, qos, func(_ paho.Client, msg paho.Message) {
		s.Deliver(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	s.Logger().Info("subscribed to mqtt topic", "topic", topic, "qos", qos)
	return nil
}

func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect unsubscribes and closes the MQTT connection. Idempotent.
func (s *Subscriber) Disconnect() {
	first := false
	s.stopOnce.Do(func() {
		close(s.stopCh)
		first = true
	})
	if !first {
		return
	}

	if s.IsConnected() {
		token := s.client.Unsubscribe(s.cfg.Topic)
		token.WaitTimeout(2 * time.Second)
	}
	s.client.Disconnect(250)

	s.setConnected(false)
	s.SetStatus(transport.StatusDisconnected)
	s.Logger().Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
