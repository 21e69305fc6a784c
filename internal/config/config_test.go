package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != ":8080" {
		t.Errorf("Port = %q, want :8080", cfg.Port)
	}
	if cfg.SheetRange != "Sheet1!A:F" {
		t.Errorf("SheetRange = %q, want Sheet1!A:F", cfg.SheetRange)
	}
	if cfg.Fetch.Timeout != 5*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 5s", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.UserAgent != "Mozilla/5.0" {
		t.Errorf("Fetch.UserAgent = %q", cfg.Fetch.UserAgent)
	}
	if cfg.Extract.Strategy != "pattern" {
		t.Errorf("Extract.Strategy = %q, want pattern", cfg.Extract.Strategy)
	}
	if cfg.Extract.RowSelector != "tr" {
		t.Errorf("Extract.RowSelector = %q, want tr", cfg.Extract.RowSelector)
	}
	if len(cfg.Extract.Sentinels) != 1 || cfg.Extract.Sentinels[0] != "---" {
		t.Errorf("Extract.Sentinels = %v, want [---]", cfg.Extract.Sentinels)
	}
	if cfg.Sink.Kind != SinkDryRun {
		t.Errorf("Sink.Kind = %q, want dryrun", cfg.Sink.Kind)
	}
	if cfg.Sink.StreamPrefix != "odds.raw" {
		t.Errorf("Sink.StreamPrefix = %q, want odds.raw", cfg.Sink.StreamPrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DEBUG", "true")
	t.Setenv("SINK", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("FETCH_TIMEOUT", "2s")
	t.Setenv("NO_ODDS_SENTINELS", "---, 取消 ,")
	t.Setenv("EXTRACT_STRATEGY", " AUTO ")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.Sink.Kind != SinkRedis {
		t.Errorf("Sink.Kind = %q, want redis", cfg.Sink.Kind)
	}
	if cfg.Sink.RedisDB != 3 {
		t.Errorf("Sink.RedisDB = %d, want 3", cfg.Sink.RedisDB)
	}
	if cfg.Fetch.Timeout != 2*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 2s", cfg.Fetch.Timeout)
	}
	if got := strings.Join(cfg.Extract.Sentinels, "|"); got != "---|取消" {
		t.Errorf("Extract.Sentinels = %q", got)
	}
	if cfg.Extract.Strategy != "auto" {
		t.Errorf("Extract.Strategy = %q, want auto", cfg.Extract.Strategy)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "odds.env")
	content := "TARGET_URL=https://example.com/odds\nSHEET_RANGE=Race1!A:F\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("TARGET_URL")
		os.Unsetenv("SHEET_RANGE")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TargetURL != "https://example.com/odds" {
		t.Errorf("TargetURL = %q", cfg.TargetURL)
	}
	if cfg.SheetRange != "Race1!A:F" {
		t.Errorf("SheetRange = %q", cfg.SheetRange)
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Load() with missing env file should fail")
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FETCH_TIMEOUT", "soon")

	if _, err := Load(""); err == nil {
		t.Error("Load() with invalid FETCH_TIMEOUT should fail")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Fetch:   FetchConfig{Timeout: time.Second},
			Extract: ExtractConfig{Strategy: "pattern"},
			Sink:    SinkConfig{Kind: SinkDryRun},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "dryrun ok", mutate: func(c *Config) {}},
		{name: "unknown strategy", mutate: func(c *Config) { c.Extract.Strategy = "magic" }, wantErr: "EXTRACT_STRATEGY"},
		{name: "zero timeout", mutate: func(c *Config) { c.Fetch.Timeout = 0 }, wantErr: "FETCH_TIMEOUT"},
		{name: "unknown sink", mutate: func(c *Config) { c.Sink.Kind = "ftp" }, wantErr: "SINK"},
		{name: "sheets without id", mutate: func(c *Config) {
			c.Sink.Kind = SinkSheets
			c.Sink.CredentialsFile = "credentials.json"
		}, wantErr: "GOOGLE_SHEETS_SPREADSHEET_ID"},
		{name: "sheets ok", mutate: func(c *Config) {
			c.Sink.Kind = SinkSheets
			c.Sink.SpreadsheetID = "abc"
			c.Sink.CredentialsFile = "credentials.json"
		}},
		{name: "postgres without credentials", mutate: func(c *Config) { c.Sink.Kind = SinkPostgres }, wantErr: "DATABASE_URL"},
		{name: "postgres with url", mutate: func(c *Config) {
			c.Sink.Kind = SinkPostgres
			c.Sink.DatabaseURL = "postgres://localhost/odds"
		}},
		{name: "redis without addr", mutate: func(c *Config) { c.Sink.Kind = SinkRedis }, wantErr: "REDIS_ADDR"},
		{name: "file without dir", mutate: func(c *Config) { c.Sink.Kind = SinkFile }, wantErr: "DATA_DIR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	c := SinkConfig{
		DBUser:    "odds",
		DBPass:    "secret",
		DBHost:    "db",
		DBPort:    "5433",
		DBName:    "races",
		DBSSLMode: "disable",
	}
	want := "postgres://odds:secret@db:5433/races?sslmode=disable"
	if got := c.PostgresDSN(); got != want {
		t.Errorf("PostgresDSN() = %q, want %q", got, want)
	}

	c.DatabaseURL = "postgres://override/odds"
	if got := c.PostgresDSN(); got != c.DatabaseURL {
		t.Errorf("PostgresDSN() = %q, want DATABASE_URL", got)
	}
}

func TestParseSentinels(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"---", 1},
		{"---,取消", 2},
		{" , ,", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := ParseSentinels(tt.in); len(got) != tt.want {
			t.Errorf("ParseSentinels(%q) = %v, want %d entries", tt.in, got, tt.want)
		}
	}
}
