package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"picmon/internal/config"
)

// Middleware wraps the whole handler chain, e.g. request metrics.
type Middleware func(http.Handler) http.Handler

func NewServer(cfg config.Config, mux *http.ServeMux, logger *slog.Logger, mw ...Middleware) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	var h http.Handler = mux
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(logger, h),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
