package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_defaults(t *testing.T) {
	p := NewPublisher(Config{URL: "amqp://localhost"}, nil)

	assert.Equal(t, DefaultExchange, p.cfg.Exchange)
	assert.Equal(t, DefaultRoutingKey, p.cfg.RoutingKey)
	assert.NotNil(t, p.logger)
}

func TestPublisher_dialGivesUp(t *testing.T) {
	p := NewPublisher(Config{URL: "amqp://unused", ReconnectDelay: time.Millisecond}, discardLogger())
	refused := errors.New("connection refused")
	dials := 0
	p.dial = func(string, amqp.Config) (*amqp.Connection, error) {
		dials++
		return nil, refused
	}

	err := p.Connect(context.Background())

	require.ErrorIs(t, err, refused)
	assert.Equal(t, dialAttempts, dials)
}

func TestPublisher_notConnected(t *testing.T) {
	p := NewPublisher(Config{}, discardLogger())

	assert.EqualError(t, p.Publish(context.Background(), []byte("{}")), "amqp publisher not connected")
	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, nil), context.Canceled)
}
