package history

import (
	"context"
	"log/slog"
	"time"

	"picmon/internal/modules/monitoring/types"
)

const DefaultInterval = 60 * time.Second

type Fetcher interface {
	Fetch(ctx context.Context) []types.Record
}

// Sink receives each fetched list.
type Sink interface {
	ReplaceRecords(records []types.Record)
}

type Poller struct {
	fetcher  Fetcher
	sink     Sink
	interval time.Duration
	max      int
	logger   *slog.Logger
}

func NewPoller(fetcher Fetcher, sink Sink, interval time.Duration, max int, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{fetcher: fetcher, sink: sink, interval: interval, max: max, logger: logger}
}

// Run fetches immediately and then once per interval until ctx is done.
// A result that arrives after ctx is done is discarded.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("history poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	records := p.fetcher.Fetch(ctx)
	if ctx.Err() != nil {
		p.logger.Debug("discarding history fetched after shutdown", "records", len(records))
		return
	}
	if p.max > 0 && len(records) > p.max {
		records = records[:p.max]
	}
	p.sink.ReplaceRecords(records)
}
