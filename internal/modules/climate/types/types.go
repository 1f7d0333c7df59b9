package types

// PrecipitationRow is one (date, prcp) pair. Prcp is nil where the
// dataset has no reading.
type PrecipitationRow struct {
	Date string
	Prcp *float64
}

type TemperatureRow struct {
	Date string
	Tobs float64
}

// StatsRow is the per-date temperature aggregate.
type StatsRow struct {
	Date string
	Min  float64
	Avg  float64
	Max  float64
}

// PrecipitationMap is the precipitation payload: date to precipitation.
type PrecipitationMap map[string]*float64

type TemperatureObservation struct {
	Date        string  `json:"Date"`
	Temperature float64 `json:"Temperature"`
}

type TemperatureStats struct {
	Date string  `json:"Date"`
	TMIN float64 `json:"TMIN"`
	TAVG float64 `json:"TAVG"`
	TMAX float64 `json:"TMAX"`
}

// Failure is the payload returned when the dataset has no station to
// report on.
type Failure struct {
	Failure string `json:"failure"`
}

// ShapePrecipitation folds rows into a date-keyed map. Several stations
// report for the same date; the row read last wins.
func ShapePrecipitation(rows []PrecipitationRow) PrecipitationMap {
	out := make(PrecipitationMap, len(rows))
	for _, r := range rows {
		out[r.Date] = r.Prcp
	}
	return out
}

func ShapeStations(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func ShapeTemperatures(rows []TemperatureRow) []TemperatureObservation {
	out := make([]TemperatureObservation, 0, len(rows))
	for _, r := range rows {
		out = append(out, TemperatureObservation{Date: r.Date, Temperature: r.Tobs})
	}
	return out
}

func ShapeStats(rows []StatsRow) []TemperatureStats {
	out := make([]TemperatureStats, 0, len(rows))
	for _, r := range rows {
		out = append(out, TemperatureStats{Date: r.Date, TMIN: r.Min, TAVG: r.Avg, TMAX: r.Max})
	}
	return out
}
