package monitoring

import (
	"net/http"

	"picmon/internal/modules/monitoring/controller"
	"picmon/internal/modules/monitoring/live"
	"picmon/internal/modules/monitoring/service"
)

func RegisterFeature(mux *http.ServeMux, svc service.MonitoringService, palette live.Palette, maxRecords int) {
	monitoringController := controller.NewMonitoringController(svc, palette, maxRecords)
	monitoringController.RegisterRoutes(mux)
}
