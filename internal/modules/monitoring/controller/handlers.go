package controller

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"picmon/internal/modules/monitoring/live"
	"picmon/internal/modules/monitoring/service"
	"picmon/internal/modules/monitoring/types"
	"picmon/internal/modules/monitoring/views"
	"picmon/internal/transport"
	"picmon/internal/utils"
)

const htmlContentType = "text/html; charset=utf-8"

func (c *monitoringControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := c.service.Snapshot()
	data := views.BuildDashboard(snap, c.service.Status(), c.palette, c.maxRecords, c.service.Location())

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, data); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteBuffer(w, http.StatusOK, htmlContentType, &buf)
}

func (c *monitoringControllerImpl) handleStatusPartial(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := views.RenderStatusPartial(&buf, views.BuildStatus(c.service.Status())); err != nil {
		slog.Error("status partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteBuffer(w, http.StatusOK, htmlContentType, &buf)
}

func (c *monitoringControllerImpl) handleCardsPartial(w http.ResponseWriter, r *http.Request) {
	data := views.BuildCards(c.service.Snapshot(), c.palette, c.service.Location())

	var buf bytes.Buffer
	if err := views.RenderCardsPartial(&buf, data); err != nil {
		slog.Error("cards partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteBuffer(w, http.StatusOK, htmlContentType, &buf)
}

func (c *monitoringControllerImpl) handleChartPartial(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := views.RenderChartPartial(&buf, views.BuildChart(c.service.Snapshot())); err != nil {
		slog.Error("chart partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteBuffer(w, http.StatusOK, htmlContentType, &buf)
}

func (c *monitoringControllerImpl) handleTablePartial(w http.ResponseWriter, r *http.Request) {
	data := views.BuildTable(c.service.Snapshot(), c.maxRecords, c.service.Location())

	var buf bytes.Buffer
	if err := views.RenderTablePartial(&buf, data); err != nil {
		slog.Error("table partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteBuffer(w, http.StatusOK, htmlContentType, &buf)
}

func (c *monitoringControllerImpl) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := views.RenderChartSVG(&buf, c.service.Snapshot(), c.palette); err != nil {
		slog.Error("chart render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	utils.WriteBuffer(w, http.StatusOK, "image/svg+xml", &buf)
}

type statusResponse struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Version   uint64 `json:"version"`
}

func (c *monitoringControllerImpl) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := c.service.Status()
	utils.WriteJSON(w, http.StatusOK, statusResponse{
		Status:    string(status),
		Connected: status == transport.StatusConnected,
		Version:   c.service.Snapshot().Version,
	})
}

// handleStations returns the latest reading per station, ordered by id.
func (c *monitoringControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	snap := c.service.Snapshot()
	ids := make([]int, 0, len(snap.Latest))
	for id := range snap.Latest {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]types.Reading, 0, len(ids))
	for _, id := range ids {
		out = append(out, snap.Latest[id])
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

type seriesResponse struct {
	Columns []int        `json:"columns"`
	Series  []live.Point `json:"series"`
}

func (c *monitoringControllerImpl) handleSeries(w http.ResponseWriter, r *http.Request) {
	snap := c.service.Snapshot()
	utils.WriteJSON(w, http.StatusOK, seriesResponse{
		Columns: nonNil(snap.Columns),
		Series:  nonNil(snap.Series),
	})
}

func (c *monitoringControllerImpl) handleRecords(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, nonNil(c.service.Snapshot().Records))
}

func (c *monitoringControllerImpl) handleArchivedStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.ArchivedStations(r.Context())
	if err != nil {
		writeArchiveError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

type readingsResponse struct {
	StationID int             `json:"picId"`
	From      any             `json:"from"`
	To        any             `json:"to"`
	Limit     int             `json:"limit"`
	Offset    int             `json:"offset"`
	Total     int             `json:"total"`
	Items     []types.Reading `json:"items"`
}

func (c *monitoringControllerImpl) handleReadings(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "invalid station id")
		return
	}

	q, err := parseReadingsQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := c.service.Readings(r.Context(), id, q.from, q.to, q.limit, q.offset)
	if err != nil {
		writeArchiveError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, readingsResponse{
		StationID: id,
		From:      zeroAsNullTime(q.from),
		To:        zeroAsNullTime(q.to),
		Limit:     q.limit,
		Offset:    q.offset,
		Total:     total,
		Items:     nonNil(items),
	})
}

func writeArchiveError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrArchiveDisabled) {
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	slog.Error("archive query failed", "error", err)
	utils.WriteError(w, http.StatusInternalServerError, "failed to load readings")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
