// Package config loads odds-alchemist settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Sink kinds accepted by SINK.
const (
	SinkDryRun   = "dryrun"
	SinkSheets   = "sheets"
	SinkPostgres = "postgres"
	SinkRedis    = "redis"
	SinkFile     = "file"
)

// Config holds all application configuration.
type Config struct {
	// Server
	Debug bool
	Port  string

	// Source page and destination range.
	TargetURL  string
	SheetRange string

	Fetch   FetchConfig
	Extract ExtractConfig
	Sink    SinkConfig
}

// FetchConfig controls the page fetcher.
type FetchConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// ExtractConfig selects the row classification strategy and its hooks.
type ExtractConfig struct {
	Strategy    string
	RowSelector string
	Sentinels   []string

	SelectorRow    string
	SelectorNumber string
	SelectorName   string
	SelectorWin    string
	SelectorPlace  string
}

// SinkConfig holds settings for every supported sink; Kind picks one.
type SinkConfig struct {
	Kind string

	// Google Sheets
	SpreadsheetID   string
	CredentialsFile string

	// PostgreSQL – either set DatabaseURL directly, or the individual fields.
	DatabaseURL string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string
	DBSSLMode   string

	// Redis streams
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StreamPrefix  string

	// CSV files
	DataDir string
}

// Load reads configuration from envFile (or .env when empty) and then from
// environment variables. A missing default .env is fine; a missing explicit
// envFile is an error.
func Load(envFile string) (*Config, error) {
	v, err := newViper(envFile)
	if err != nil {
		return nil, err
	}

	// Defaults
	v.SetDefault("DEBUG", false)
	v.SetDefault("PORT", ":8080")
	v.SetDefault("SHEET_RANGE", "Sheet1!A:F")
	v.SetDefault("FETCH_TIMEOUT", "5s")
	v.SetDefault("USER_AGENT", "Mozilla/5.0")
	v.SetDefault("EXTRACT_STRATEGY", "pattern")
	v.SetDefault("ROW_SELECTOR", "tr")
	v.SetDefault("NO_ODDS_SENTINELS", "---")
	v.SetDefault("SINK", SinkDryRun)
	v.SetDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json")
	v.SetDefault("DB_USER", "odds")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "odds")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_STREAM_PREFIX", "odds.raw")
	v.SetDefault("DATA_DIR", "~/.local/share/odds-alchemist")

	timeout, err := time.ParseDuration(v.GetString("FETCH_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid FETCH_TIMEOUT %q: %w", v.GetString("FETCH_TIMEOUT"), err)
	}

	cfg := &Config{
		Debug:      v.GetBool("DEBUG"),
		Port:       v.GetString("PORT"),
		TargetURL:  v.GetString("TARGET_URL"),
		SheetRange: v.GetString("SHEET_RANGE"),
		Fetch: FetchConfig{
			Timeout:   timeout,
			UserAgent: v.GetString("USER_AGENT"),
		},
		Extract: ExtractConfig{
			Strategy:       strings.ToLower(strings.TrimSpace(v.GetString("EXTRACT_STRATEGY"))),
			RowSelector:    v.GetString("ROW_SELECTOR"),
			Sentinels:      ParseSentinels(v.GetString("NO_ODDS_SENTINELS")),
			SelectorRow:    v.GetString("SELECTOR_ROW"),
			SelectorNumber: v.GetString("SELECTOR_NUMBER"),
			SelectorName:   v.GetString("SELECTOR_NAME"),
			SelectorWin:    v.GetString("SELECTOR_WIN"),
			SelectorPlace:  v.GetString("SELECTOR_PLACE"),
		},
		Sink: SinkConfig{
			Kind:            strings.ToLower(strings.TrimSpace(v.GetString("SINK"))),
			SpreadsheetID:   v.GetString("GOOGLE_SHEETS_SPREADSHEET_ID"),
			CredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
			DatabaseURL:     v.GetString("DATABASE_URL"),
			DBUser:          v.GetString("DB_USER"),
			DBPass:          v.GetString("DB_PASS"),
			DBHost:          v.GetString("DB_HOST"),
			DBPort:          v.GetString("DB_PORT"),
			DBName:          v.GetString("DB_NAME"),
			DBSSLMode:       v.GetString("DB_SSLMODE"),
			RedisAddr:       v.GetString("REDIS_ADDR"),
			RedisPassword:   v.GetString("REDIS_PASSWORD"),
			RedisDB:         v.GetInt("REDIS_DB"),
			StreamPrefix:    v.GetString("REDIS_STREAM_PREFIX"),
			DataDir:         v.GetString("DATA_DIR"),
		},
	}

	return cfg, nil
}

// Validate checks that the selected strategy and sink have what they need.
func (c *Config) Validate() error {
	var errs []error

	switch c.Extract.Strategy {
	case "pattern", "selector", "auto":
	default:
		errs = append(errs, fmt.Errorf("config: unknown EXTRACT_STRATEGY %q", c.Extract.Strategy))
	}

	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("config: FETCH_TIMEOUT must be positive"))
	}

	switch c.Sink.Kind {
	case SinkDryRun:
	case SinkSheets:
		if c.Sink.SpreadsheetID == "" {
			errs = append(errs, errors.New("config: GOOGLE_SHEETS_SPREADSHEET_ID must be set for the sheets sink"))
		}
		if c.Sink.CredentialsFile == "" {
			errs = append(errs, errors.New("config: GOOGLE_CREDENTIALS_FILE must be set for the sheets sink"))
		}
	case SinkPostgres:
		if c.Sink.DatabaseURL == "" && c.Sink.DBPass == "" {
			errs = append(errs, errors.New("config: DATABASE_URL or DB_PASS must be set for the postgres sink"))
		}
	case SinkRedis:
		if c.Sink.RedisAddr == "" {
			errs = append(errs, errors.New("config: REDIS_ADDR must be set for the redis sink"))
		}
	case SinkFile:
		if c.Sink.DataDir == "" {
			errs = append(errs, errors.New("config: DATA_DIR must be set for the file sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown SINK %q", c.Sink.Kind))
	}

	return errors.Join(errs...)
}

// PostgresDSN returns the full PostgreSQL connection string.
// DATABASE_URL takes precedence over individual fields.
func (c SinkConfig) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPass,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// ParseSentinels splits a comma-separated sentinel list, dropping blanks.
func ParseSentinels(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func newViper(envFile string) (*viper.Viper, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("config: loading .env: %w", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	return v, nil
}
