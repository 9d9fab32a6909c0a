// Package stomp subscribes to the live feed over STOMP on a SockJS
// websocket endpoint.
package stomp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gostomp "github.com/go-stomp/stomp/v3"
	"github.com/gorilla/websocket"

	"picmon/internal/transport"
)

const (
	DefaultEndpoint = "/ws"
	DefaultTopic    = "/topic/plc-monitoring"

	teardownTimeout = 2 * time.Second
)

type Config struct {
	// BaseURL is the backend origin, e.g. http://localhost:8080.
	BaseURL        string
	Endpoint       string
	Topic          string
	Heartbeat      time.Duration
	ReconnectDelay time.Duration
	HTTPClient     *http.Client
}

type Subscriber struct {
	*transport.Base

	cfg    Config
	dialer *websocket.Dialer
	runner *transport.Runner
}

func NewSubscriber(cfg Config, logger *slog.Logger) *Subscriber {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = transport.DefaultHeartbeat
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	s := &Subscriber{
		Base: transport.NewBase("stomp", logger),
		cfg:  cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
	}
	s.runner = transport.NewRunner(s.Base, cfg.ReconnectDelay, s.session)
	return s
}

// Connect starts the session loop and waits for the first subscription.
func (s *Subscriber) Connect(ctx context.Context) error {
	return s.runner.Start(ctx)
}

// Disconnect unsubscribes and closes the connection. Idempotent.
func (s *Subscriber) Disconnect() {
	wasActive := s.runner.Active()
	s.runner.Stop()
	if wasActive {
		s.SetStatus(transport.StatusDisconnected)
		s.Logger().Info("stomp subscriber disconnected")
	}
}

func (s *Subscriber) session(ctx context.Context, ready func()) error {
	endpoint, err := resolveEndpoint(ctx, s.cfg.HTTPClient, s.cfg.BaseURL, s.cfg.Endpoint)
	if err != nil {
		s.SetStatus(transport.StatusDisconnected)
		return err
	}

	ws, _, err := s.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		s.SetStatus(transport.StatusDisconnected)
		return fmt.Errorf("websocket dial %s: %w", endpoint, err)
	}
	rwc := newWSConn(ws)

	conn, err := gostomp.Connect(rwc,
		gostomp.ConnOpt.Host(hostOf(endpoint)),
		gostomp.ConnOpt.HeartBeat(s.cfg.Heartbeat, s.cfg.Heartbeat),
	)
	if err != nil {
		_ = rwc.Close()
		s.SetStatus(transport.StatusError)
		return fmt.Errorf("stomp connect: %w", err)
	}

	sub, err := conn.Subscribe(s.cfg.Topic, gostomp.AckAuto)
	if err != nil {
		_ = conn.MustDisconnect()
		s.SetStatus(transport.StatusError)
		return fmt.Errorf("subscribe %s: %w", s.cfg.Topic, err)
	}

	s.SetStatus(transport.StatusConnected)
	s.Logger().Info("subscribed", "endpoint", endpoint, "destination", s.cfg.Topic)
	ready()

	for {
		select {
		case <-ctx.Done():
			s.teardown(conn, sub)
			return nil
		case msg, ok := <-sub.C:
			if !ok {
				_ = conn.MustDisconnect()
				s.SetStatus(transport.StatusDisconnected)
				return transport.ErrSessionEnded
			}
			if msg.Err != nil {
				// The broker reported an error; the connection closes on its own.
				s.Logger().Error("stomp error frame", "error", msg.Err)
				s.SetStatus(transport.StatusError)
				continue
			}
			s.Deliver(msg.Destination, msg.Body)
		}
	}
}

func (s *Subscriber) teardown(conn *gostomp.Conn, sub *gostomp.Subscription) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if sub.Active() {
			if err := sub.Unsubscribe(); err != nil {
				s.Logger().Debug("unsubscribe", "error", err)
			}
		}
		if err := conn.Disconnect(); err != nil {
			s.Logger().Debug("stomp disconnect", "error", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(teardownTimeout):
		s.Logger().Warn("stomp disconnect timed out, closing connection")
		_ = conn.MustDisconnect()
	}
}

func hostOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "/"
	}
	return u.Hostname()
}
