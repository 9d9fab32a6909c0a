package db

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picmon/internal/config"
)

func TestBuildDSN(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "explicit dsn wins",
			cfg:  config.Config{SQLiteDSN: "file::memory:?cache=shared", SQLitePath: "ignored"},
			want: "file::memory:?cache=shared",
		},
		{
			name: "plain path",
			cfg:  config.Config{SQLitePath: filepath.Join(dir, "a", "picmon.db")},
			want: "file:" + filepath.Join(dir, "a", "picmon.db") + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		},
		{
			name: "file uri with query",
			cfg:  config.Config{SQLitePath: "file:picmon.db?mode=rwc"},
			want: "file:picmon.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildDSN(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := buildDSN(config.Config{})
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	for _, level := range []slog.Level{slog.LevelInfo, slog.LevelDebug} {
		t.Run(level.String(), func(t *testing.T) {
			cfg := config.Config{
				LogLevel:           level,
				SQLiteDriver:       "sqlite3",
				SQLitePath:         filepath.Join(t.TempDir(), "archive", "picmon.db"),
				SQLiteMaxOpenConns: 1,
			}
			conn, err := Open(cfg, slog.Default())
			require.NoError(t, err)
			defer func() { assert.NoError(t, Close(conn)) }()

			var ok int
			require.NoError(t, conn.QueryRow(`SELECT 1`).Scan(&ok))
			assert.Equal(t, 1, ok)
		})
	}
}

func TestClose_nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
