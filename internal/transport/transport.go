// Package transport defines the live-feed subscriber contract shared by the
// STOMP, MQTT and AMQP adapters.
package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"picmon/internal/modules/monitoring/types"
)

// Status is the connection state shown on the dashboard badge.
type Status string

const (
	StatusConnecting   Status = "Connecting..."
	StatusConnected    Status = "Connected"
	StatusDisconnected Status = "Disconnected"
	StatusError        Status = "Error"
)

type MessageHandler func(reading types.Reading) error

type StatusHandler func(status Status)

// Observer receives feed events, typically for metrics.
type Observer interface {
	MessageReceived(transport string)
	MessageDropped(transport string, reason string)
	StatusChanged(transport string, status string)
}

type Subscriber interface {
	SetMessageHandler(handler MessageHandler)
	SetStatusHandler(handler StatusHandler)
	SetObserver(observer Observer)
	SetLocation(loc *time.Location)
	// Connect starts the subscriber and waits for the first connection
	// attempt. Reconnection continues in the background after a failure.
	Connect(ctx context.Context) error
	// Disconnect releases the subscription and closes the connection.
	// It is idempotent.
	Disconnect()
	Status() Status
}

// Base carries the handler plumbing common to every adapter.
type Base struct {
	name   string
	logger *slog.Logger

	mu        sync.RWMutex
	status    Status
	onMessage MessageHandler
	onStatus  StatusHandler
	observer  Observer
	loc       *time.Location
}

func NewBase(name string, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{
		name:   name,
		logger: logger.With("transport", name),
		status: StatusConnecting,
	}
}

func (b *Base) Name() string { return b.name }

func (b *Base) Logger() *slog.Logger { return b.logger }

func (b *Base) SetMessageHandler(handler MessageHandler) {
	b.mu.Lock()
	b.onMessage = handler
	b.mu.Unlock()
}

func (b *Base) SetStatusHandler(handler StatusHandler) {
	b.mu.Lock()
	b.onStatus = handler
	b.mu.Unlock()
}

func (b *Base) SetObserver(observer Observer) {
	b.mu.Lock()
	b.observer = observer
	b.mu.Unlock()
}

// SetLocation sets the zone used for timestamps that carry none.
func (b *Base) SetLocation(loc *time.Location) {
	b.mu.Lock()
	b.loc = loc
	b.mu.Unlock()
}

func (b *Base) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// SetStatus records st and notifies the status handler when it changed.
func (b *Base) SetStatus(st Status) {
	b.mu.Lock()
	changed := b.status != st
	b.status = st
	handler := b.onStatus
	observer := b.observer
	b.mu.Unlock()

	if !changed {
		return
	}
	b.logger.Info("connection status changed", "status", string(st))
	if observer != nil {
		observer.StatusChanged(b.name, string(st))
	}
	if handler != nil {
		handler(st)
	}
}

// Deliver decodes one payload and passes it to the message handler.
// Undecodable payloads are logged and dropped.
func (b *Base) Deliver(source string, payload []byte) {
	b.mu.RLock()
	handler := b.onMessage
	observer := b.observer
	loc := b.loc
	b.mu.RUnlock()

	b.logger.Debug("received message", "source", source, "size", len(payload))

	reading, err := DecodeReading(payload, loc)
	if err != nil {
		b.logger.Warn("failed to parse reading",
			"source", source,
			"error", err,
			"payload", string(payload),
		)
		if observer != nil {
			observer.MessageDropped(b.name, "decode")
		}
		return
	}
	if observer != nil {
		observer.MessageReceived(b.name)
	}

	if handler == nil {
		return
	}
	if err := handler(reading); err != nil {
		b.logger.Error("message handler failed",
			"source", source,
			"station_id", reading.StationID,
			"error", err,
		)
		return
	}
	b.logger.Debug("processed reading",
		"station_id", reading.StationID,
		"ts", reading.Timestamp,
	)
}
