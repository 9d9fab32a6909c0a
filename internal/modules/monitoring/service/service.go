// Package service connects the live feed, the in-memory dashboard state and
// the optional reading archive.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"picmon/internal/modules/monitoring/live"
	"picmon/internal/modules/monitoring/repository"
	"picmon/internal/modules/monitoring/types"
	"picmon/internal/transport"
)

var ErrArchiveDisabled = errors.New("reading archive is disabled")

const archiveTimeout = 2 * time.Second

// ArchiveRecorder is told about failed archive writes.
type ArchiveRecorder interface {
	ArchiveFailed()
}

// MonitoringService is what the HTTP layer reads from.
type MonitoringService interface {
	Snapshot() live.Snapshot
	Status() transport.Status
	Location() *time.Location
	Readings(ctx context.Context, stationID int, from, to time.Time, limit, offset int) ([]types.Reading, int, error)
	ArchivedStations(ctx context.Context) ([]types.ArchivedStation, error)
}

type Service struct {
	state    *live.State
	archive  repository.ArchiveRepository
	logger   *slog.Logger
	recorder ArchiveRecorder

	mu  sync.RWMutex
	sub transport.Subscriber
}

// NewService returns a service; archive may be nil.
func NewService(state *live.State, archive repository.ArchiveRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{state: state, archive: archive, logger: logger}
}

func (s *Service) SetArchiveRecorder(r ArchiveRecorder) {
	s.recorder = r
}

// Register routes the subscriber's readings into the service. Call it before
// Connect so no early message is lost.
func (s *Service) Register(sub transport.Subscriber) {
	sub.SetMessageHandler(s.HandleReading)
	sub.SetLocation(s.state.Location())
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
}

// HandleReading applies r to the dashboard state and archives it. An archive
// failure is logged and does not reject the reading.
func (s *Service) HandleReading(r types.Reading) error {
	s.state.Apply(r)
	s.logger.Debug("reading applied", "station_id", r.StationID, "gross_weight", r.GrossWeight, "ts", r.Timestamp)

	if s.archive == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := s.archive.InsertReading(ctx, r); err != nil {
		s.logger.Error("failed to archive reading", "station_id", r.StationID, "error", err)
		if s.recorder != nil {
			s.recorder.ArchiveFailed()
		}
	}
	return nil
}

func (s *Service) Snapshot() live.Snapshot {
	return s.state.Snapshot()
}

func (s *Service) Location() *time.Location {
	return s.state.Location()
}

func (s *Service) Status() transport.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sub == nil {
		return transport.StatusDisconnected
	}
	return s.sub.Status()
}

// Readings returns one page of archived readings, newest first, with the
// total number matching the window.
func (s *Service) Readings(ctx context.Context, stationID int, from, to time.Time, limit, offset int) ([]types.Reading, int, error) {
	if s.archive == nil {
		return nil, 0, ErrArchiveDisabled
	}
	total, err := s.archive.GetReadingsCount(ctx, stationID, from, to)
	if err != nil {
		return nil, 0, err
	}
	readings, err := s.archive.GetReadings(ctx, stationID, from, to, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return readings, total, nil
}

func (s *Service) ArchivedStations(ctx context.Context) ([]types.ArchivedStation, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.GetStations(ctx)
}
