package configuration

import (
	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"io/fs"
	"os"
	"pricewatch/internal/logger"
	"strconv"
	"strings"
	"time"
)

const EnvPrefix = "PRICEWATCH_"

type Config struct {
	ServerAddress     string
	DatabaseURI       string
	RedisAddress      string
	FetchDataInterval time.Duration
	ScrapeTimeout     time.Duration
	ScrapeWorkers     int
	DefaultCurrency   string
	DefaultWebhookURL string
	LogLevel          logger.Level
	LogToFile         bool
	// AuthSecretKey is nil when API auth is disabled.
	AuthSecretKey    jwk.Key
	AuthPasswordHash []byte
	TelegramBotToken string
	TelegramChatID   int64
	ChartLocation    *time.Location
}

type tomlConfig struct {
	ServerAddress     string `toml:"server_address"`
	DatabaseURI       string `toml:"database_uri"`
	RedisAddress      string `toml:"redis_address"`
	FetchDataInterval string `toml:"fetch_data_interval"`
	ScrapeTimeout     string `toml:"scrape_timeout"`
	ScrapeWorkers     int    `toml:"scrape_workers"`
	DefaultCurrency   string `toml:"default_currency"`
	DefaultWebhookURL string `toml:"default_webhook_url"`
	LogLevel          string `toml:"log_level"`
	LogToFile         bool   `toml:"log_to_file"`
	AuthSecretKey     string `toml:"auth_secret_key"`
	AuthPasswordHash  string `toml:"auth_password_hash"`
	TelegramBotToken  string `toml:"telegram_bot_token"`
	TelegramChatID    int64  `toml:"telegram_chat_id"`
	ChartTimezone     string `toml:"chart_timezone"`
}

// applyEnv overrides tc with PRICEWATCH_<KEY> variables, e.g. PRICEWATCH_DATABASE_URI.
func (tc *tomlConfig) applyEnv() error {
	strs := map[string]*string{
		"server_address":      &tc.ServerAddress,
		"database_uri":        &tc.DatabaseURI,
		"redis_address":       &tc.RedisAddress,
		"fetch_data_interval": &tc.FetchDataInterval,
		"scrape_timeout":      &tc.ScrapeTimeout,
		"default_currency":    &tc.DefaultCurrency,
		"default_webhook_url": &tc.DefaultWebhookURL,
		"log_level":           &tc.LogLevel,
		"auth_secret_key":     &tc.AuthSecretKey,
		"auth_password_hash":  &tc.AuthPasswordHash,
		"telegram_bot_token":  &tc.TelegramBotToken,
		"chart_timezone":      &tc.ChartTimezone,
	}
	for key, dst := range strs {
		if v, ok := lookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := lookupEnv("scrape_workers"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "failed to parse %sSCRAPE_WORKERS", EnvPrefix)
		}
		tc.ScrapeWorkers = n
	}
	if v, ok := lookupEnv("log_to_file"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "failed to parse %sLOG_TO_FILE", EnvPrefix)
		}
		tc.LogToFile = b
	}
	if v, ok := lookupEnv("telegram_chat_id"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "failed to parse %sTELEGRAM_CHAT_ID", EnvPrefix)
		}
		tc.TelegramChatID = id
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	return os.LookupEnv(EnvPrefix + strings.ToUpper(key))
}

// GetConfig reads the TOML file at path (skipped when empty), then the .env files (missing ones are ignored),
// then PRICEWATCH_* environment variables, which win over the file.
func GetConfig(path string, envFiles ...string) (*Config, error) {
	var tc tomlConfig
	if path != "" {
		if _, err := toml.DecodeFile(path, &tc); err != nil {
			return nil, errors.Wrapf(err, "failed to decode toml file with path: %s", path)
		}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "failed to load env file: %s", f)
		}
	}
	if err := tc.applyEnv(); err != nil {
		return nil, err
	}
	return tc.build()
}

func (tc tomlConfig) build() (*Config, error) {
	c := &Config{
		ServerAddress:     tc.ServerAddress,
		DatabaseURI:       tc.DatabaseURI,
		RedisAddress:      tc.RedisAddress,
		ScrapeWorkers:     tc.ScrapeWorkers,
		DefaultCurrency:   strings.ToUpper(strings.TrimSpace(tc.DefaultCurrency)),
		DefaultWebhookURL: strings.TrimSpace(tc.DefaultWebhookURL),
		LogToFile:         tc.LogToFile,
		TelegramBotToken:  tc.TelegramBotToken,
		TelegramChatID:    tc.TelegramChatID,
	}

	if c.ServerAddress == "" {
		c.ServerAddress = "localhost:8888"
	}
	if c.DatabaseURI == "" {
		c.DatabaseURI = "sqlite://pricewatch.db"
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = "USD"
	}
	if c.ScrapeWorkers == 0 {
		c.ScrapeWorkers = 4
	}
	if c.ScrapeWorkers < 0 {
		return nil, errors.Errorf("scrape_workers must be positive, got %d", c.ScrapeWorkers)
	}

	if tc.FetchDataInterval == "" {
		return nil, errors.New("fetch_data_interval is not set")
	}
	var err error
	c.FetchDataInterval, err = time.ParseDuration(tc.FetchDataInterval)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse fetch_data_interval: %s", tc.FetchDataInterval)
	}
	if c.FetchDataInterval < 15*time.Second {
		return nil, errors.Errorf("fetch_data_interval too short (%v), minimum interval: 15s", c.FetchDataInterval)
	}

	c.ScrapeTimeout = 30 * time.Second
	if tc.ScrapeTimeout != "" {
		if c.ScrapeTimeout, err = time.ParseDuration(tc.ScrapeTimeout); err != nil {
			return nil, errors.Wrapf(err, "failed to parse scrape_timeout: %s", tc.ScrapeTimeout)
		}
		if c.ScrapeTimeout <= 0 {
			return nil, errors.Errorf("scrape_timeout must be positive, got %v", c.ScrapeTimeout)
		}
	}

	c.LogLevel = logger.LevelInfo
	if tc.LogLevel != "" {
		if c.LogLevel, err = logger.ParseLevel(tc.LogLevel); err != nil {
			return nil, errors.Wrap(err, "failed to parse log_level")
		}
	}

	tz := tc.ChartTimezone
	if tz == "" {
		tz = "UTC"
	}
	if c.ChartLocation, err = time.LoadLocation(tz); err != nil {
		return nil, errors.Wrapf(err, "failed to load chart_timezone: %s", tz)
	}

	if (tc.AuthSecretKey == "") != (tc.AuthPasswordHash == "") {
		return nil, errors.New("auth_secret_key and auth_password_hash must be set together")
	}
	if tc.AuthSecretKey != "" {
		if c.AuthSecretKey, err = jwk.FromRaw([]byte(tc.AuthSecretKey)); err != nil {
			return nil, errors.Wrap(err, "failed to create key from auth_secret_key")
		}
		if _, err = bcrypt.Cost([]byte(tc.AuthPasswordHash)); err != nil {
			return nil, errors.Wrap(err, "auth_password_hash is not a bcrypt hash")
		}
		c.AuthPasswordHash = []byte(tc.AuthPasswordHash)
	}

	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		return nil, errors.New("telegram_chat_id is required with telegram_bot_token")
	}
	return c, nil
}

func (c *Config) AuthEnabled() bool {
	return c.AuthSecretKey != nil
}
