package repository

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"sort"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"hawaii-climate/internal/schema"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// one connection, or every pooled connection gets its own empty :memory: db
	db.SetMaxOpenConns(1)
	if err := schema.Create(context.Background(), db); err != nil {
		_ = db.Close()
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return db
}

// seedHawaii loads a small slice of the Hawaii dataset. Latest date is
// 2017-08-23; USC00519281 has the most rows.
func seedHawaii(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO station (station, name) VALUES
		('USC00519397', 'WAIKIKI 717.2, HI US'),
		('USC00519281', 'WAIHEE 837.5, HI US'),
		('USC00513117', 'KANEOHE 838.1, HI US');

		INSERT INTO measurement (station, date, prcp, tobs) VALUES
		('USC00519397', '2016-08-22', 0.40, 78.0),
		('USC00519397', '2016-08-23', 0.00, 81.0),
		('USC00519397', '2017-01-01', 0.00, 66.0),
		('USC00519397', '2017-08-23', 0.00, 81.0),
		('USC00513117', '2017-01-01', 0.29, 62.0),
		('USC00513117', '2017-08-22', NULL, 76.0),
		('USC00519281', '2016-08-22', 0.30, 77.0),
		('USC00519281', '2016-08-23', 1.79, 77.0),
		('USC00519281', '2017-01-01', 0.03, 72.0),
		('USC00519281', '2017-03-15', 0.00, 71.0),
		('USC00519281', '2017-08-18', 0.06, 79.0),
		('USC00519281', '2010-01-01', 0.15, 70.0);
	`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestNewRepository(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	if repo == nil {
		t.Fatal("NewRepository returned nil")
	}
}

func TestGetPrecipitation_LastYearFromLatestDate(t *testing.T) {
	db := setupTestDB(t)
	seedHawaii(t, db)
	repo := NewRepository(db)

	rows, err := repo.GetPrecipitation(context.Background())
	if err != nil {
		t.Fatalf("GetPrecipitation: %v", err)
	}
	if len(rows) != 9 {
		t.Fatalf("GetPrecipitation: got %d rows, want 9", len(rows))
	}
	for _, r := range rows {
		if r.Date < "2016-08-23" {
			t.Errorf("row %s is before cutoff 2016-08-23", r.Date)
		}
	}
}

func TestGetPrecipitation_NullPreserved(t *testing.T) {
	db := setupTestDB(t)
	seedHawaii(t, db)
	repo := NewRepository(db)

	rows, err := repo.GetPrecipitation(context.Background())
	if err != nil {
		t.Fatalf("GetPrecipitation: %v", err)
	}
	found := false
	for _, r := range rows {
		if r.Date == "2017-08-22" {
			found = true
			if r.Prcp != nil {
				t.Errorf("2017-08-22 prcp = %v, want nil", *r.Prcp)
			}
		}
	}
	if !found {
		t.Fatal("2017-08-22 row missing")
	}
}

func TestGetPrecipitation_Empty(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	rows, err := repo.GetPrecipitation(context.Background())
	if err != nil {
		t.Fatalf("GetPrecipitation on empty table: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("GetPrecipitation: got %d rows, want 0", len(rows))
	}
}

func TestGetStations_Distinct(t *testing.T) {
	db := setupTestDB(t)
	seedHawaii(t, db)
	repo := NewRepository(db)

	stations, err := repo.GetStations(context.Background())
	if err != nil {
		t.Fatalf("GetStations: %v", err)
	}
	sort.Strings(stations)
	want := []string{"USC00513117", "USC00519281", "USC00519397"}
	if !reflect.DeepEqual(stations, want) {
		t.Fatalf("GetStations = %v, want %v", stations, want)
	}
}

func TestGetStations_FromMeasurementNotStationTable(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.Exec(`INSERT INTO station (station, name) VALUES ('USC00511918', 'HONOLULU OBSERVATORY 702.2, HI US')`); err != nil {
		t.Fatalf("insert station: %v", err)
	}
	repo := NewRepository(db)

	stations, err := repo.GetStations(context.Background())
	if err != nil {
		t.Fatalf("GetStations: %v", err)
	}
	if len(stations) != 0 {
		t.Fatalf("GetStations = %v, want none (station has no measurements)", stations)
	}
}

func TestGetMostActiveStationTemperatures(t *testing.T) {
	db := setupTestDB(t)
	seedHawaii(t, db)
	repo := NewRepository(db)

	station, rows, err := repo.GetMostActiveStationTemperatures(context.Background())
	if err != nil {
		t.Fatalf("GetMostActiveStationTemperatures: %v", err)
	}
	if station != "USC00519281" {
		t.Fatalf("station = %q, want USC00519281", station)
	}
	var dates []string
	for _, r := range rows {
		dates = append(dates, r.Date)
	}
	// 2016-08-22 and 2010-01-01 fall outside the window
	want := []string{"2016-08-23", "2017-01-01", "2017-03-15", "2017-08-18"}
	if !reflect.DeepEqual(dates, want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
	if rows[0].Tobs != 77.0 || rows[3].Tobs != 79.0 {
		t.Errorf("tobs = %v, %v; want 77, 79", rows[0].Tobs, rows[3].Tobs)
	}
}

func TestGetMostActiveStationTemperatures_WindowUsesGlobalLatestDate(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.Exec(`
		INSERT INTO measurement (station, date, prcp, tobs) VALUES
		('USC00519281', '2016-06-01', 0, 70.0),
		('USC00519281', '2016-07-01', 0, 71.0),
		('USC00519397', '2017-08-23', 0, 80.0);
	`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	repo := NewRepository(db)

	station, rows, err := repo.GetMostActiveStationTemperatures(context.Background())
	if err != nil {
		t.Fatalf("GetMostActiveStationTemperatures: %v", err)
	}
	if station != "USC00519281" {
		t.Fatalf("station = %q, want USC00519281", station)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %v, want none: station's readings predate 2016-08-23", rows)
	}
}

func TestGetMostActiveStationTemperatures_TieGoesToLowestID(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.Exec(`
		INSERT INTO measurement (station, date, prcp, tobs) VALUES
		('USC00519523', '2017-08-22', 0, 82.0),
		('USC00519523', '2017-08-23', 0, 82.0),
		('USC00516128', '2017-08-22', 0, 76.0),
		('USC00516128', '2017-08-23', 0, 76.0);
	`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	repo := NewRepository(db)

	for i := 0; i < 3; i++ {
		station, _, err := repo.GetMostActiveStationTemperatures(context.Background())
		if err != nil {
			t.Fatalf("GetMostActiveStationTemperatures: %v", err)
		}
		if station != "USC00516128" {
			t.Fatalf("station = %q, want USC00516128", station)
		}
	}
}

func TestGetMostActiveStationTemperatures_NoData(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	station, rows, err := repo.GetMostActiveStationTemperatures(context.Background())
	if !errors.Is(err, ErrNoStation) {
		t.Fatalf("err = %v, want ErrNoStation", err)
	}
	if station != "" || rows != nil {
		t.Fatalf("got station=%q rows=%v, want zero values", station, rows)
	}
}

func TestGetTemperatureStats_FromStart(t *testing.T) {
	db := setupTestDB(t)
	seedHawaii(t, db)
	repo := NewRepository(db)

	stats, err := repo.GetTemperatureStats(context.Background(), "2017-01-01", "")
	if err != nil {
		t.Fatalf("GetTemperatureStats: %v", err)
	}
	var dates []string
	for _, s := range stats {
		dates = append(dates, s.Date)
	}
	want := []string{"2017-01-01", "2017-03-15", "2017-08-18", "2017-08-22", "2017-08-23"}
	if !reflect.DeepEqual(dates, want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
	first := stats[0]
	if first.Min != 62 || first.Max != 72 || first.Avg != (66.0+62.0+72.0)/3 {
		t.Errorf("2017-01-01 = %+v, want min 62 avg 66.67 max 72", first)
	}
	for _, s := range stats {
		if !(s.Min <= s.Avg && s.Avg <= s.Max) {
			t.Errorf("%s: min %v avg %v max %v out of order", s.Date, s.Min, s.Avg, s.Max)
		}
	}
}

func TestGetTemperatureStats_Range(t *testing.T) {
	db := setupTestDB(t)
	seedHawaii(t, db)
	repo := NewRepository(db)

	stats, err := repo.GetTemperatureStats(context.Background(), "2016-08-23", "2017-01-01")
	if err != nil {
		t.Fatalf("GetTemperatureStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(stats), stats)
	}
	if stats[0].Date != "2016-08-23" || stats[1].Date != "2017-01-01" {
		t.Fatalf("dates = %s, %s", stats[0].Date, stats[1].Date)
	}
	if stats[0].Min != 77 || stats[0].Max != 81 || stats[0].Avg != 79 {
		t.Errorf("2016-08-23 = %+v, want 77/79/81", stats[0])
	}
}

func TestGetTemperatureStats_EmptyOutcomes(t *testing.T) {
	db := setupTestDB(t)
	seedHawaii(t, db)
	repo := NewRepository(db)

	tests := []struct {
		name       string
		start, end string
	}{
		{name: "start after end", start: "2017-08-23", end: "2016-08-23"},
		{name: "start after latest date", start: "2018-01-01"},
		{name: "malformed start sorts after every date", start: "banana"},
		{name: "range with no rows", start: "2011-01-01", end: "2011-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := repo.GetTemperatureStats(context.Background(), tt.start, tt.end)
			if err != nil {
				t.Fatalf("GetTemperatureStats: %v", err)
			}
			if len(stats) != 0 {
				t.Fatalf("got %d rows, want 0", len(stats))
			}
		})
	}
}

func TestRepository_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	seedHawaii(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.GetTemperatureStats(ctx, "2016-01-01", "2017-12-31")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := repo.GetTemperatureStats(ctx, "2016-01-01", "2017-12-31")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ:\n%+v\n%+v", first, second)
	}
}

func TestRepository_DatastoreFaultIsWrapped(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = db.Close()
	repo := NewRepository(db)

	_, err = repo.GetStations(context.Background())
	if err == nil {
		t.Fatal("GetStations on closed db: err = nil")
	}
	if !strings.HasPrefix(err.Error(), "stations:") {
		t.Errorf("err = %q, want stations: prefix", err)
	}
}

func TestRepository_MissingTableIsFault(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewRepository(db)

	if _, err := repo.GetTemperatureStats(context.Background(), "2017-01-01", ""); err == nil {
		t.Fatal("query against missing table: err = nil")
	}
}

func TestRepository_CanceledContext(t *testing.T) {
	db := setupTestDB(t)
	seedHawaii(t, db)
	repo := NewRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.GetPrecipitation(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCutoffDate(t *testing.T) {
	tests := []struct {
		latest string
		want   string
	}{
		{latest: "2017-08-23", want: "2016-08-23"},
		// 2016 is a leap year, so 365 days back lands one day later
		{latest: "2016-08-23", want: "2015-08-24"},
		{latest: "2017-01-01", want: "2016-01-02"},
	}
	for _, tt := range tests {
		got, err := CutoffDate(tt.latest)
		if err != nil {
			t.Fatalf("CutoffDate(%q): %v", tt.latest, err)
		}
		if got != tt.want {
			t.Errorf("CutoffDate(%q) = %q, want %q", tt.latest, got, tt.want)
		}
	}
}

func TestCutoffDate_Malformed(t *testing.T) {
	for _, in := range []string{"", "2017-8-23", "23/08/2017", "2017-08-23 00:00:00"} {
		if _, err := CutoffDate(in); err == nil {
			t.Errorf("CutoffDate(%q) err = nil, want non-nil", in)
		}
	}
}
