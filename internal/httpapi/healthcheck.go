package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"picmon/internal/transport"
	"picmon/internal/utils"
)

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

// StatusSource reports the live feed connection status.
type StatusSource interface {
	Status() transport.Status
}

type healthcheckerImpl struct {
	db   *sql.DB
	feed StatusSource
}

// NewHealthchecker checks the archive database when db is set. The live feed
// status is reported but never fails the check.
func NewHealthchecker(db *sql.DB, feed StatusSource) healthchecker {
	return &healthcheckerImpl{db: db, feed: feed}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		var ok int
		if err := h.db.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
			slog.Error("failed to check database connectivity", "error", err)
			utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
			return
		}
		body["archive"] = "ok"
	}
	if h.feed != nil {
		body["feed"] = string(h.feed.Status())
	}
	utils.WriteJSON(w, http.StatusOK, body)
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB, feed StatusSource) {
	healthchecker := NewHealthchecker(db, feed)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
