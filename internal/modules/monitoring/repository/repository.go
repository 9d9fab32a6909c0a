// Package repository archives live readings in SQLite.
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"picmon/internal/modules/monitoring/types"
)

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/get-readings.sql
var getReadingsSQL string

//go:embed sql/get-readings-count.sql
var getReadingsCountSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

// TimeLayout is fixed width so timestamps compare correctly as text.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type ArchiveRepository interface {
	InsertReading(ctx context.Context, r types.Reading) error
	GetReadings(ctx context.Context, stationID int, from, to time.Time, limit, offset int) ([]types.Reading, error)
	GetReadingsCount(ctx context.Context, stationID int, from, to time.Time) (int, error)
	GetStations(ctx context.Context) ([]types.ArchivedStation, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ArchiveRepository {
	return &repositoryImpl{db: db}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func (r *repositoryImpl) InsertReading(ctx context.Context, rd types.Reading) error {
	if rd.Time.IsZero() {
		return fmt.Errorf("insert reading for station %d: %w", rd.StationID, types.ErrInvalidTimestamp)
	}
	_, err := r.db.ExecContext(ctx, insertReadingSQL,
		rd.StationID,
		rd.PackA, rd.PackB, rd.PackC,
		rd.GrossWeight, rd.RejectWeight,
		formatTime(rd.Time), rd.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (r *repositoryImpl) GetReadings(ctx context.Context, stationID int, from, to time.Time, limit, offset int) ([]types.Reading, error) {
	rows, err := r.db.QueryContext(ctx, getReadingsSQL, stationID, formatTime(from), formatTime(to), limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()

	out := []types.Reading{}
	for rows.Next() {
		var (
			rd types.Reading
			ts string
		)
		if err := rows.Scan(&rd.StationID, &rd.PackA, &rd.PackB, &rd.PackC,
			&rd.GrossWeight, &rd.RejectWeight, &ts, &rd.Timestamp); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		rd.Time = t
		if rd.Timestamp == "" {
			rd.Timestamp = ts
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetReadingsCount(ctx context.Context, stationID int, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, getReadingsCountSQL, stationID, formatTime(from), formatTime(to)).Scan(&n)
	return n, err
}

func (r *repositoryImpl) GetStations(ctx context.Context) ([]types.ArchivedStation, error) {
	rows, err := r.db.QueryContext(ctx, getStationsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close stations rows", "error", err)
		}
	}()

	out := []types.ArchivedStation{}
	for rows.Next() {
		var (
			s    types.ArchivedStation
			last string
		)
		if err := rows.Scan(&s.StationID, &s.Readings, &last); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, last)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", last, err)
		}
		s.LastSeen = t
		out = append(out, s)
	}
	return out, rows.Err()
}
