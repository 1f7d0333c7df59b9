package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"hawaii-climate/internal/config"
	db "hawaii-climate/internal/db"
	httpapi "hawaii-climate/internal/httpapi"
	climate "hawaii-climate/internal/modules/climate"
	climateviews "hawaii-climate/internal/modules/climate/views"
	"hawaii-climate/internal/schema"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"dbPath", cfg.Path,
		"dbDSNSet", cfg.DSN != "",
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"logSQL", cfg.LogSQL,
	)
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := schema.Verify(ctx, dbConn); err != nil {
		return fmt.Errorf("dataset schema: %w", err)
	}
	slog.Info("dataset verified")

	if err := climateviews.LoadTemplates(); err != nil {
		return err
	}
	mux := httpapi.NewMux(dbConn)
	climate.RegisterFeature(mux, dbConn)

	return serve(ctx, cfg, httpapi.NewServer(cfg, mux))
}

// serve runs srv until ctx is done, then drains in-flight requests for at
// most cfg.ShutdownTimeout.
func serve(ctx context.Context, cfg config.Config, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err := <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
