package controller

import "hawaii-climate/internal/modules/climate/views"

const (
	apiPrefix = "/api/v1.0"
	homeTitle = "Climate Analysis API"

	noStationMessage = "no station observations available"
)

var homeRoutes = []views.RouteLink{
	{Path: apiPrefix + "/precipitation", Example: apiPrefix + "/precipitation", Description: "precipitation for the last year of data"},
	{Path: apiPrefix + "/stations", Example: apiPrefix + "/stations"},
	{Path: apiPrefix + "/tobs", Example: apiPrefix + "/tobs", Description: "temperatures at the most active station for the last year of data"},
	{Path: apiPrefix + "/{start}", Example: apiPrefix + "/2017-01-01", Description: "TMIN, TAVG, TMAX per date from start"},
	{Path: apiPrefix + "/{start}/{end}", Example: apiPrefix + "/2017-01-01/2017-01-07", Description: "TMIN, TAVG, TMAX per date in [start, end]"},
	{Path: apiPrefix + "/echo/{value}", Example: apiPrefix + "/echo/hello"},
}
