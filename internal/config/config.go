package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	AppEnv   string `validate:"oneof=dev prod"`
	LogLevel slog.Level
	HTTPAddr string `validate:"required"`

	HTTPReadTimeout  time.Duration `validate:"gte=0"`
	HTTPWriteTimeout time.Duration `validate:"gte=0"`
	ShutdownTimeout  time.Duration `validate:"gt=0"`

	// Driver is the database/sql driver name. Only sqlite3 is registered.
	Driver string `validate:"oneof=sqlite3"`
	// DSN overrides Path when set and is passed to the driver untouched.
	DSN string
	// Path is the dataset file, opened read-only. It must already exist.
	Path            string `validate:"required_without=DSN"`
	MaxOpenConns    int    `validate:"gte=0"`
	MaxIdleConns    int    `validate:"gte=0"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`

	// LogSQL wraps the driver so every statement is logged at debug level.
	LogSQL bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func LoadFromEnv() (Config, error) {
	appEnv := getenv("APP_ENV", "dev")

	level, err := parseLogLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := parseDuration("HTTP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := parseDuration("HTTP_WRITE_TIMEOUT", "30s")
	if err != nil {
		return Config{}, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}

	maxOpenConns, err := parseInt("DB_MAX_OPEN_CONNS", "4")
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := parseInt("DB_MAX_IDLE_CONNS", "2")
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := parseDuration("DB_CONN_MAX_LIFETIME", "0s")
	if err != nil {
		return Config{}, err
	}

	logSQLStr := getenv("LOG_SQL", "false")
	logSQL, err := strconv.ParseBool(logSQLStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_SQL %q: %w", logSQLStr, err)
	}

	cfg := Config{
		AppEnv:           appEnv,
		LogLevel:         level,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		HTTPReadTimeout:  readTimeout,
		HTTPWriteTimeout: writeTimeout,
		ShutdownTimeout:  shutdownTimeout,
		Driver:           getenv("DB_DRIVER", "sqlite3"),
		DSN:              strings.TrimSpace(os.Getenv("DB_DSN")),
		Path:             getenv("SQLITE_PATH", "Resources/hawaii.sqlite"),
		MaxOpenConns:     maxOpenConns,
		MaxIdleConns:     maxIdleConns,
		ConnMaxLifetime:  connMaxLifetime,
		LogSQL:           logSQL,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags and reports the first offending field
// by its environment variable name.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return fmt.Errorf("config: %w", err)
	}
	fe := verrs[0]
	return fmt.Errorf("invalid %s %q (rule: %s)", envName(fe.Field()), fmt.Sprint(fe.Value()), ruleText(fe))
}

var envNames = map[string]string{
	"AppEnv":           "APP_ENV",
	"HTTPAddr":         "HTTP_ADDR",
	"HTTPReadTimeout":  "HTTP_READ_TIMEOUT",
	"HTTPWriteTimeout": "HTTP_WRITE_TIMEOUT",
	"ShutdownTimeout":  "SHUTDOWN_TIMEOUT",
	"Driver":           "DB_DRIVER",
	"Path":             "SQLITE_PATH",
	"MaxOpenConns":     "DB_MAX_OPEN_CONNS",
	"MaxIdleConns":     "DB_MAX_IDLE_CONNS",
	"ConnMaxLifetime":  "DB_CONN_MAX_LIFETIME",
}

func envName(field string) string {
	if n, ok := envNames[field]; ok {
		return n
	}
	return field
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func parseInt(key, def string) (int, error) {
	s := getenv(key, def)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	s := getenv(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
