// Command climatedb prepares and inspects climate dataset files.
//
//	climatedb init   create the declared tables in SQLITE_PATH (new file allowed)
//	climatedb check  verify SQLITE_PATH against the declared tables
//	climatedb ddl    print the declared schema
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"hawaii-climate/internal/config"
	"hawaii-climate/internal/db"
	"hawaii-climate/internal/schema"
)

const usage = `usage: %s <command>
  init   create the declared tables in SQLITE_PATH
  check  verify SQLITE_PATH against the declared tables
  ddl    print the declared schema
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "env file: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "init":
		err = initDataset(ctx, datasetPath())
	case "check":
		err = checkDataset(ctx)
	case "ddl":
		fmt.Print(schema.DDL())
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func datasetPath() string {
	p := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if p == "" {
		p = "Resources/hawaii.sqlite"
	}
	return filepath.Clean(p)
}

// initDataset is the only write path in the repository. It opens the file
// read-write, creating it when absent.
func initDataset(ctx context.Context, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()
	if err := schema.Create(ctx, conn); err != nil {
		return err
	}
	fmt.Printf("schema ready in %s\n", path)
	return nil
}

func checkDataset(ctx context.Context) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()
	if err := schema.Verify(ctx, conn); err != nil {
		return err
	}
	fmt.Println("dataset ok")
	return nil
}
