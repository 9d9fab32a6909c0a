// Package simulator generates plausible PIC readings and publishes them on
// the live feed, for running the dashboard without plant hardware.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"picmon/internal/modules/monitoring/types"
	"picmon/internal/transport"
)

const (
	baseGross  = 25.0
	grossDrift = 1.5
)

type Publisher interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, payload []byte) error
	Close() error
}

// Generator produces one reading per station per tick, with the gross weight
// drifting around a per-station baseline.
type Generator struct {
	stations []int
	rng      *rand.Rand
	gross    map[int]float64
	now      func() time.Time
}

func NewGenerator(stations []int, seed uint64) *Generator {
	g := &Generator{
		stations: append([]int(nil), stations...),
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		gross:    make(map[int]float64, len(stations)),
		now:      time.Now,
	}
	for i, id := range g.stations {
		g.gross[id] = baseGross + float64(i)*5
	}
	return g
}

// Read returns the next reading for station.
func (g *Generator) Read(station int) types.Reading {
	gross := g.gross[station] + (g.rng.Float64()*2-1)*grossDrift
	if gross < 0 {
		gross = 0
	}
	g.gross[station] = gross
	at := g.now().UTC().Truncate(time.Millisecond)
	return types.Reading{
		StationID:    station,
		PackA:        float64(g.rng.IntN(10)),
		PackB:        float64(g.rng.IntN(10)),
		PackC:        float64(g.rng.IntN(10)),
		GrossWeight:  gross,
		RejectWeight: g.rng.Float64() * 2,
		Timestamp:    at.Format(time.RFC3339Nano),
		Time:         at,
	}
}

func (g *Generator) Stations() []int { return g.stations }

type Options struct {
	Interval time.Duration
	// Count stops the run after this many ticks; zero runs until ctx ends.
	Count int
}

// Run connects pub and publishes one reading per station every interval
// until ctx is done. Publish failures are logged and the run continues.
func Run(ctx context.Context, pub Publisher, gen *Generator, opts Options, logger *slog.Logger) error {
	if opts.Interval <= 0 {
		return fmt.Errorf("simulator interval must be positive, got %s", opts.Interval)
	}
	if len(gen.Stations()) == 0 {
		return errors.New("simulator has no stations")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := pub.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := pub.Close(); err != nil {
			logger.Warn("simulator publisher close", "error", err)
		}
	}()

	logger.Info("simulator started", "stations", gen.Stations(), "interval", opts.Interval)

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	ticks := 0
	for {
		publishTick(ctx, pub, gen, logger)
		ticks++
		if opts.Count > 0 && ticks >= opts.Count {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func publishTick(ctx context.Context, pub Publisher, gen *Generator, logger *slog.Logger) {
	for _, id := range gen.Stations() {
		payload, err := transport.EncodeReading(gen.Read(id))
		if err != nil {
			logger.Error("encode reading", "station", id, "error", err)
			continue
		}
		if err := pub.Publish(ctx, payload); err != nil {
			logger.Warn("publish reading failed", "station", id, "error", err)
		}
	}
}
