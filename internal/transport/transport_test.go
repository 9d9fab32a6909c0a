package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picmon/internal/modules/monitoring/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingObserver struct {
	mu       sync.Mutex
	received int
	dropped  []string
	statuses []string
}

func (o *recordingObserver) MessageReceived(string) {
	o.mu.Lock()
	o.received++
	o.mu.Unlock()
}

func (o *recordingObserver) MessageDropped(_ string, reason string) {
	o.mu.Lock()
	o.dropped = append(o.dropped, reason)
	o.mu.Unlock()
}

func (o *recordingObserver) StatusChanged(_ string, status string) {
	o.mu.Lock()
	o.statuses = append(o.statuses, status)
	o.mu.Unlock()
}

func TestDecodeReading(t *testing.T) {
	t.Run("decodes wrapped fields", func(t *testing.T) {
		payload := `{"ID":[556],"Pack A":[1],"Pack B":[2],"Pack C":[3],"Gross Weight":[12.345],"Reject Weight":[0.5],"ts":"2024-01-01T00:00:00Z"}`

		r, err := DecodeReading([]byte(payload), nil)

		require.NoError(t, err)
		assert.Equal(t, 556, r.StationID)
		assert.Equal(t, 1.0, r.PackA)
		assert.Equal(t, 3.0, r.PackC)
		assert.Equal(t, 12.345, r.GrossWeight)
		assert.Equal(t, 0.5, r.RejectWeight)
		assert.Equal(t, "2024-01-01T00:00:00Z", r.Timestamp)
		assert.True(t, r.Time.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("missing numeric fields decode as zero", func(t *testing.T) {
		r, err := DecodeReading([]byte(`{"ID":[331],"Gross Weight":[],"ts":"2024-01-01T00:00:00Z"}`), nil)

		require.NoError(t, err)
		assert.Equal(t, 331, r.StationID)
		assert.Zero(t, r.GrossWeight)
		assert.Zero(t, r.PackA)
	})

	t.Run("rejects missing ID", func(t *testing.T) {
		_, err := DecodeReading([]byte(`{"Gross Weight":[1],"ts":"2024-01-01T00:00:00Z"}`), nil)
		assert.ErrorIs(t, err, ErrMissingStationID)

		_, err = DecodeReading([]byte(`{"ID":[],"ts":"2024-01-01T00:00:00Z"}`), nil)
		assert.ErrorIs(t, err, ErrMissingStationID)
	})

	t.Run("rejects missing or bad ts", func(t *testing.T) {
		_, err := DecodeReading([]byte(`{"ID":[1]}`), nil)
		assert.ErrorIs(t, err, ErrMissingTimestamp)

		_, err = DecodeReading([]byte(`{"ID":[1],"ts":"soon"}`), nil)
		assert.ErrorIs(t, err, types.ErrInvalidTimestamp)
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		_, err := DecodeReading([]byte(`{"ID":`), nil)
		assert.Error(t, err)
	})
}

func TestEncodeReading_roundTripsThroughDecode(t *testing.T) {
	in := types.Reading{StationID: 789, PackA: 4, GrossWeight: 7.25, Timestamp: "2024-05-06T07:08:09Z"}

	payload, err := EncodeReading(in)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"Gross Weight":[7.25]`)

	out, err := DecodeReading(payload, nil)
	require.NoError(t, err)
	assert.Equal(t, 789, out.StationID)
	assert.Equal(t, 7.25, out.GrossWeight)
}

func TestBase_Deliver(t *testing.T) {
	b := NewBase("test", discardLogger())
	obs := &recordingObserver{}
	b.SetObserver(obs)

	var got []types.Reading
	b.SetMessageHandler(func(r types.Reading) error {
		got = append(got, r)
		return nil
	})

	b.Deliver("topic", []byte(`not json`))
	b.Deliver("topic", []byte(`{"ID":[556],"Gross Weight":[1.5],"ts":"2024-01-01T00:00:00Z"}`))
	b.Deliver("topic", []byte(`{"Gross Weight":[1.5],"ts":"2024-01-01T00:00:00Z"}`))

	require.Len(t, got, 1)
	assert.Equal(t, 556, got[0].StationID)
	assert.Equal(t, 1, obs.received)
	assert.Equal(t, []string{"decode", "decode"}, obs.dropped)
}

func TestBase_DeliverHandlerErrorDoesNotPanic(t *testing.T) {
	b := NewBase("test", discardLogger())
	b.SetMessageHandler(func(types.Reading) error { return errors.New("boom") })

	assert.NotPanics(t, func() {
		b.Deliver("topic", []byte(`{"ID":[1],"ts":"2024-01-01T00:00:00Z"}`))
	})
}

func TestBase_SetStatus(t *testing.T) {
	b := NewBase("test", discardLogger())
	obs := &recordingObserver{}
	b.SetObserver(obs)
	var seen []Status
	b.SetStatusHandler(func(s Status) { seen = append(seen, s) })

	assert.Equal(t, StatusConnecting, b.Status())

	b.SetStatus(StatusConnected)
	b.SetStatus(StatusConnected)
	b.SetStatus(StatusError)
	b.SetStatus(StatusDisconnected)

	assert.Equal(t, []Status{StatusConnected, StatusError, StatusDisconnected}, seen)
	assert.Equal(t, []string{"Connected", "Error", "Disconnected"}, obs.statuses)
	assert.Equal(t, StatusDisconnected, b.Status())
}

func TestRunner_reconnectsWithFixedDelay(t *testing.T) {
	b := NewBase("test", discardLogger())
	var attempts atomic.Int32
	failure := errors.New("dial failed")

	r := NewRunner(b, 10*time.Millisecond, func(ctx context.Context, ready func()) error {
		if attempts.Add(1) < 3 {
			return failure
		}
		ready()
		<-ctx.Done()
		return nil
	})

	err := r.Start(context.Background())
	require.ErrorIs(t, err, failure, "first attempt result is reported")
	assert.True(t, r.Active())

	require.Eventually(t, func() bool { return attempts.Load() == 3 }, 2*time.Second, 5*time.Millisecond)

	r.Stop()
	r.Stop()
	assert.False(t, r.Active())
	assert.EqualValues(t, 3, attempts.Load())
}

func TestRunner_readyOnFirstAttempt(t *testing.T) {
	b := NewBase("test", discardLogger())
	r := NewRunner(b, time.Second, func(ctx context.Context, ready func()) error {
		ready()
		<-ctx.Done()
		return nil
	})

	require.NoError(t, r.Start(context.Background()))
	assert.ErrorIs(t, r.Start(context.Background()), ErrAlreadyStarted)
	r.Stop()
	assert.ErrorIs(t, r.Start(context.Background()), ErrStopped)
}

func TestRunner_startRespectsContext(t *testing.T) {
	b := NewBase("test", discardLogger())
	r := NewRunner(b, time.Second, func(ctx context.Context, ready func()) error {
		<-ctx.Done()
		return nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Start(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	r.Stop()
}

func TestRunner_stopBeforeStart(t *testing.T) {
	r := NewRunner(NewBase("test", discardLogger()), 0, func(context.Context, func()) error { return nil })
	assert.NotPanics(t, r.Stop)
}
