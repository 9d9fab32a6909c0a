package mqtt

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_defaults(t *testing.T) {
	p := NewPublisher(Config{Broker: "localhost", Port: 1883}, nil)

	assert.Equal(t, DefaultTopic, p.cfg.Topic)
	assert.True(t, strings.HasPrefix(p.cfg.ClientID, "picmon-sim-"))
}

func TestPublisher_ConnectRespectsContext(t *testing.T) {
	p := NewPublisher(Config{Broker: "127.0.0.1", Port: closedPort(t), ReconnectDelay: 50 * time.Millisecond}, discardLogger())
	t.Cleanup(func() { _ = p.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := p.Connect(ctx)

	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublisher_PublishRequiresConnection(t *testing.T) {
	p := NewPublisher(Config{Broker: "127.0.0.1", Port: closedPort(t)}, discardLogger())

	err := p.Publish(context.Background(), []byte("{}"))

	assert.EqualError(t, err, "mqtt publisher not connected")
	assert.NoError(t, p.Close())
}
