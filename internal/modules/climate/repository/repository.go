package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hawaii-climate/internal/metrics"
	"hawaii-climate/internal/modules/climate/types"
)

//go:embed sql/get-latest-date.sql
var getLatestDateSQL string

//go:embed sql/get-precipitation.sql
var getPrecipitationSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-most-active-station.sql
var getMostActiveStationSQL string

//go:embed sql/get-station-temperatures.sql
var getStationTemperaturesSQL string

//go:embed sql/get-temperature-stats.sql
var getTemperatureStatsSQL string

//go:embed sql/get-temperature-stats-range.sql
var getTemperatureStatsRangeSQL string

const (
	dateLayout = "2006-01-02"
	// lookbackDays is the window, counted back from the latest stored
	// date, for the precipitation and tobs queries.
	lookbackDays = 365
)

// ErrNoStation is returned when the measurement table has no rows, so no
// station can be the most active one.
var ErrNoStation = errors.New("no station observations")

type ClimateRepository interface {
	GetPrecipitation(ctx context.Context) ([]types.PrecipitationRow, error)
	GetStations(ctx context.Context) ([]string, error)
	// GetMostActiveStationTemperatures picks the station with the most
	// rows (ties go to the lowest identifier) and returns its readings
	// inside the lookback window, oldest first.
	GetMostActiveStationTemperatures(ctx context.Context) (string, []types.TemperatureRow, error)
	// GetTemperatureStats aggregates tobs per date from start on; a
	// non-empty end bounds the range inclusively.
	GetTemperatureStats(ctx context.Context, start, end string) ([]types.StatsRow, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ClimateRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetPrecipitation(ctx context.Context) ([]types.PrecipitationRow, error) {
	var out []types.PrecipitationRow
	err := r.session(ctx, "precipitation", func(tx *sql.Tx) (int, error) {
		cutoff, ok, err := latestCutoff(ctx, tx)
		if err != nil || !ok {
			return 0, err
		}
		out, err = queryRows(ctx, tx, getPrecipitationSQL, func(rows *sql.Rows) (types.PrecipitationRow, error) {
			var rec types.PrecipitationRow
			var prcp sql.NullFloat64
			if err := rows.Scan(&rec.Date, &prcp); err != nil {
				return rec, err
			}
			if prcp.Valid {
				v := prcp.Float64
				rec.Prcp = &v
			}
			return rec, nil
		}, cutoff)
		return len(out), err
	})
	return out, err
}

func (r *repositoryImpl) GetStations(ctx context.Context) ([]string, error) {
	var out []string
	err := r.session(ctx, "stations", func(tx *sql.Tx) (int, error) {
		var err error
		out, err = queryRows(ctx, tx, getStationsSQL, func(rows *sql.Rows) (string, error) {
			var id string
			err := rows.Scan(&id)
			return id, err
		})
		return len(out), err
	})
	return out, err
}

func (r *repositoryImpl) GetMostActiveStationTemperatures(ctx context.Context) (string, []types.TemperatureRow, error) {
	var (
		station string
		out     []types.TemperatureRow
	)
	err := r.session(ctx, "tobs", func(tx *sql.Tx) (int, error) {
		err := tx.QueryRowContext(ctx, getMostActiveStationSQL).Scan(&station)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNoStation
		}
		if err != nil {
			return 0, fmt.Errorf("most active station: %w", err)
		}

		cutoff, ok, err := latestCutoff(ctx, tx)
		if err != nil || !ok {
			return 0, err
		}
		out, err = queryRows(ctx, tx, getStationTemperaturesSQL, func(rows *sql.Rows) (types.TemperatureRow, error) {
			var rec types.TemperatureRow
			err := rows.Scan(&rec.Date, &rec.Tobs)
			return rec, err
		}, station, cutoff)
		return len(out), err
	})
	if err != nil {
		return "", nil, err
	}
	return station, out, nil
}

func (r *repositoryImpl) GetTemperatureStats(ctx context.Context, start, end string) ([]types.StatsRow, error) {
	query, args := getTemperatureStatsSQL, []any{start}
	op := "stats_start"
	if end != "" {
		query, args = getTemperatureStatsRangeSQL, []any{start, end}
		op = "stats_range"
	}

	var out []types.StatsRow
	err := r.session(ctx, op, func(tx *sql.Tx) (int, error) {
		var err error
		out, err = queryRows(ctx, tx, query, func(rows *sql.Rows) (types.StatsRow, error) {
			var rec types.StatsRow
			err := rows.Scan(&rec.Date, &rec.Min, &rec.Avg, &rec.Max)
			return rec, err
		}, args...)
		return len(out), err
	})
	return out, err
}

// session runs fn inside a read-only transaction that is always released
// before session returns. fn reports how many rows it produced.
func (r *repositoryImpl) session(ctx context.Context, op string, fn func(tx *sql.Tx) (int, error)) error {
	start := time.Now()
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		metrics.ObserveQuery(op, start, 0, err)
		return fmt.Errorf("%s: begin session: %w", op, err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("release session", "op", op, "error", err)
		}
	}()

	n, err := fn(tx)
	if errors.Is(err, ErrNoStation) {
		metrics.ObserveQuery(op, start, 0, nil)
		return err
	}
	metrics.ObserveQuery(op, start, n, err)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// latestCutoff returns the first date inside the lookback window. ok is
// false when the table is empty.
func latestCutoff(ctx context.Context, tx *sql.Tx) (cutoff string, ok bool, err error) {
	var latest sql.NullString
	if err := tx.QueryRowContext(ctx, getLatestDateSQL).Scan(&latest); err != nil {
		return "", false, fmt.Errorf("latest date: %w", err)
	}
	if !latest.Valid {
		return "", false, nil
	}
	cutoff, err = CutoffDate(latest.String)
	if err != nil {
		return "", false, err
	}
	return cutoff, true, nil
}

// CutoffDate returns latest minus the lookback window, formatted as an
// ISO date so it compares lexically against stored dates.
func CutoffDate(latest string) (string, error) {
	t, err := time.Parse(dateLayout, latest)
	if err != nil {
		return "", fmt.Errorf("parse latest date %q: %w", latest, err)
	}
	return t.AddDate(0, 0, -lookbackDays).Format(dateLayout), nil
}

func queryRows[T any](ctx context.Context, tx *sql.Tx, query string, scan func(*sql.Rows) (T, error), args ...any) ([]T, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close rows", "error", err)
		}
	}()
	var out []T
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
