package controller

import (
	"net/http"

	"hawaii-climate/internal/modules/climate/repository"
)

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type climateControllerImpl struct {
	repository repository.ClimateRepository
}

func NewClimateController(repository repository.ClimateRepository) ClimateController {
	return &climateControllerImpl{repository: repository}
}

// RegisterRoutes relies on ServeMux precedence: a literal segment always
// beats a wildcard in the same position, so the fixed routes and the echo
// prefix are never read as dates.
func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleHome)
	mux.HandleFunc("GET "+apiPrefix+"/precipitation", c.handlePrecipitation)
	mux.HandleFunc("GET "+apiPrefix+"/stations", c.handleStations)
	mux.HandleFunc("GET "+apiPrefix+"/tobs", c.handleTobs)
	mux.HandleFunc("GET "+apiPrefix+"/echo/{value}", c.handleEcho)
	mux.HandleFunc("GET "+apiPrefix+"/{start}", c.handleStatsFrom)
	mux.HandleFunc("GET "+apiPrefix+"/{start}/{end}", c.handleStatsRange)
}
