package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"picmon/internal/metrics"
)

// NewMux registers the health and metrics endpoints. db and feed may be nil.
func NewMux(db *sql.DB, feed StatusSource, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, feed)
	if gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(gatherer))
	}
	return mux
}
