package controller

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"hawaii-climate/internal/modules/climate/repository"
	"hawaii-climate/internal/modules/climate/types"
	"hawaii-climate/internal/modules/climate/views"
	"hawaii-climate/internal/utils"
)

func (c *climateControllerImpl) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	data := &views.HomeData{Title: homeTitle, Routes: homeRoutes}
	if err := views.RenderHome(&buf, data); err != nil {
		slog.Error("home template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("home: write response failed", "error", err)
	}
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	rows, err := c.repository.GetPrecipitation(r.Context())
	if err != nil {
		slog.Error("precipitation query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load precipitation")
		return
	}
	utils.WriteJSON(w, http.StatusOK, types.ShapePrecipitation(rows))
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	ids, err := c.repository.GetStations(r.Context())
	if err != nil {
		slog.Error("stations query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load stations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, types.ShapeStations(ids))
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	station, rows, err := c.repository.GetMostActiveStationTemperatures(r.Context())
	if errors.Is(err, repository.ErrNoStation) {
		utils.WriteJSON(w, http.StatusNotFound, types.Failure{Failure: noStationMessage})
		return
	}
	if err != nil {
		slog.Error("tobs query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load temperatures")
		return
	}
	slog.Debug("tobs", "station", station, "rows", len(rows))
	utils.WriteJSON(w, http.StatusOK, types.ShapeTemperatures(rows))
}

func (c *climateControllerImpl) handleStatsFrom(w http.ResponseWriter, r *http.Request) {
	c.writeStats(w, r, r.PathValue("start"), "")
}

func (c *climateControllerImpl) handleStatsRange(w http.ResponseWriter, r *http.Request) {
	end := r.PathValue("end")
	if end == "" {
		// "/api/v1.0/{start}/" has an empty end; nothing can match it.
		utils.WriteJSON(w, http.StatusOK, types.ShapeStats(nil))
		return
	}
	c.writeStats(w, r, r.PathValue("start"), end)
}

func (c *climateControllerImpl) writeStats(w http.ResponseWriter, r *http.Request, start, end string) {
	rows, err := c.repository.GetTemperatureStats(r.Context(), start, end)
	if err != nil {
		slog.Error("temperature stats query failed", "start", start, "end", end, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load temperature stats")
		return
	}
	utils.WriteJSON(w, http.StatusOK, types.ShapeStats(rows))
}

func (c *climateControllerImpl) handleEcho(w http.ResponseWriter, r *http.Request) {
	utils.WriteText(w, http.StatusOK, r.PathValue("value"))
}
