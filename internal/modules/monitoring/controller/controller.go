package controller

import (
	"net/http"

	"picmon/internal/modules/monitoring/live"
	"picmon/internal/modules/monitoring/service"
)

type MonitoringController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type monitoringControllerImpl struct {
	service    service.MonitoringService
	palette    live.Palette
	maxRecords int
}

func NewMonitoringController(svc service.MonitoringService, palette live.Palette, maxRecords int) MonitoringController {
	if maxRecords <= 0 {
		maxRecords = live.DefaultMaxRecords
	}
	return &monitoringControllerImpl{service: svc, palette: palette, maxRecords: maxRecords}
}

func (c *monitoringControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleDashboard)
	mux.HandleFunc("GET /partials/status", c.handleStatusPartial)
	mux.HandleFunc("GET /partials/cards", c.handleCardsPartial)
	mux.HandleFunc("GET /partials/chart", c.handleChartPartial)
	mux.HandleFunc("GET /partials/table", c.handleTablePartial)
	mux.HandleFunc("GET /chart.svg", c.handleChartSVG)

	mux.HandleFunc("GET /api/v1/status", c.handleStatus)
	mux.HandleFunc("GET /api/v1/stations", c.handleStations)
	mux.HandleFunc("GET /api/v1/series", c.handleSeries)
	mux.HandleFunc("GET /api/v1/records", c.handleRecords)
	mux.HandleFunc("GET /api/v1/archive/stations", c.handleArchivedStations)
	mux.HandleFunc("GET /api/v1/stations/{id}/readings", c.handleReadings)
}
