package configuration

import (
	"golang.org/x/crypto/bcrypt"
	"os"
	"path/filepath"
	"pricewatch/internal/logger"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetConfigDefaults(t *testing.T) {
	path := writeFile(t, "config.toml", `fetch_data_interval = "1h"`)
	c, err := GetConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.ServerAddress != "localhost:8888" || c.DatabaseURI != "sqlite://pricewatch.db" || c.DefaultCurrency != "USD" {
		t.Errorf("defaults = %+v", c)
	}
	if c.ScrapeTimeout != 30*time.Second || c.ScrapeWorkers != 4 || c.LogLevel != logger.LevelInfo {
		t.Errorf("defaults = %+v", c)
	}
	if c.ChartLocation != time.UTC || c.AuthEnabled() {
		t.Errorf("chart location = %v, auth = %v", c.ChartLocation, c.AuthEnabled())
	}
}

func TestGetConfigFileAndEnv(t *testing.T) {
	path := writeFile(t, "config.toml", `
server_address = "0.0.0.0:9000"
fetch_data_interval = "6h"
scrape_workers = 2
log_level = "debug"
default_currency = "eur"
chart_timezone = "Europe/Berlin"
`)
	envFile := writeFile(t, ".env", "PRICEWATCH_SCRAPE_TIMEOUT=5s\n")
	t.Setenv("PRICEWATCH_SERVER_ADDRESS", "127.0.0.1:7000")
	t.Setenv("PRICEWATCH_SCRAPE_WORKERS", "8")

	c, err := GetConfig(path, envFile, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	os.Unsetenv("PRICEWATCH_SCRAPE_TIMEOUT")

	if c.ServerAddress != "127.0.0.1:7000" || c.ScrapeWorkers != 8 || c.ScrapeTimeout != 5*time.Second {
		t.Errorf("overrides = %+v", c)
	}
	if c.FetchDataInterval != 6*time.Hour || c.LogLevel != logger.LevelDebug || c.DefaultCurrency != "EUR" {
		t.Errorf("file values = %+v", c)
	}
	if c.ChartLocation.String() != "Europe/Berlin" {
		t.Errorf("chart location = %v", c.ChartLocation)
	}
}

func TestGetConfigAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("PRICEWATCH_AUTH_SECRET_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("PRICEWATCH_AUTH_PASSWORD_HASH", string(hash))
	t.Setenv("PRICEWATCH_FETCH_DATA_INTERVAL", "1m")

	c, err := GetConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if !c.AuthEnabled() || bcrypt.CompareHashAndPassword(c.AuthPasswordHash, []byte("hunter2")) != nil {
		t.Errorf("auth config = %+v", c)
	}
}

func TestGetConfigErrors(t *testing.T) {
	tests := []struct {
		name, toml string
	}{
		{"missing interval", `server_address = "x"`},
		{"short interval", `fetch_data_interval = "10s"`},
		{"bad interval", `fetch_data_interval = "soon"`},
		{"bad timeout", "fetch_data_interval = \"1h\"\nscrape_timeout = \"-1s\""},
		{"bad level", "fetch_data_interval = \"1h\"\nlog_level = \"loud\""},
		{"bad timezone", "fetch_data_interval = \"1h\"\nchart_timezone = \"Mars/Olympus\""},
		{"half auth", "fetch_data_interval = \"1h\"\nauth_secret_key = \"k\""},
		{"bad hash", "fetch_data_interval = \"1h\"\nauth_secret_key = \"k\"\nauth_password_hash = \"plain\""},
		{"telegram without chat", "fetch_data_interval = \"1h\"\ntelegram_bot_token = \"t\""},
		{"negative workers", "fetch_data_interval = \"1h\"\nscrape_workers = -1"},
	}
	for _, tt := range tests {
		if _, err := GetConfig(writeFile(t, "config.toml", tt.toml)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
	if _, err := GetConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("missing file: expected error")
	}
}
