package httpapi

import (
	"database/sql"
	"net/http"

	"hawaii-climate/internal/metrics"
)

// NewMux returns a mux with the operational routes. Feature modules add
// their own routes on top.
func NewMux(db *sql.DB) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}
