package main

import (
	"context"
	"flag"
	"github.com/pkg/errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"pricewatch/internal/cache"
	"pricewatch/internal/client"
	"pricewatch/internal/configuration"
	"pricewatch/internal/database"
	"pricewatch/internal/logger"
	"pricewatch/internal/server"
	"pricewatch/internal/tracker"
	"syscall"
	"time"
	_ "time/tzdata"
)

func main() {
	if err := runApp(); err != nil {
		os.Exit(1)
	}
}

func runApp() error {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	appContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logOutput := io.Writer(os.Stdout)
	appLogger := logger.NewLogger(logger.LevelInfo, logOutput)

	defer func() {
		if r := recover(); r != nil {
			appLogger.Errorf("APPLICATION CRASHED: %+v", r)
		}
	}()

	config, err := configuration.GetConfig(*configPath, *envFile)
	if err != nil {
		appLogger.Error("Error getting configuration from", *configPath+":", err)
		return err
	}

	if config.LogToFile {
		logFile, err := os.OpenFile("pricewatch.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			appLogger.Error("Error opening log file:", err)
			return err
		}
		defer func() {
			if err := logFile.Close(); err != nil {
				appLogger.Error("Error closing log file:", err)
			}
		}()
		logOutput = io.MultiWriter(logOutput, logFile)
	}
	appLogger = logger.NewLogger(config.LogLevel, logOutput)
	appLogger.Debugf("Config: server: %s, database: %s, redis: %s, interval: %s, workers: %d, auth: %t",
		config.ServerAddress, config.DatabaseURI, config.RedisAddress, config.FetchDataInterval,
		config.ScrapeWorkers, config.AuthEnabled())

	appLogger.Info("Opening DB at", config.DatabaseURI)
	store, err := database.Open(appContext, config.DatabaseURI)
	if err != nil {
		appLogger.Error("Error opening DB:", err)
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			appLogger.Error("Error closing DB:", err)
		}
	}()

	var status tracker.StatusStore = cache.NewMemoryStatus()
	if config.RedisAddress != "" {
		appLogger.Info("Connecting to Redis at", config.RedisAddress)
		redisStatus, err := cache.NewRedisStatus(appContext, config.RedisAddress, appLogger)
		if err != nil {
			appLogger.Warn("Error connecting to Redis, keeping scrape status in memory:", err)
		} else {
			defer func() {
				if err := redisStatus.Close(); err != nil {
					appLogger.Error("Error closing Redis:", err)
				}
			}()
			status = redisStatus
		}
	}

	httpClient := client.New(config.ScrapeTimeout, appLogger)
	notifier := client.FanOut{client.Webhook{Client: httpClient}}
	if config.TelegramBotToken != "" {
		tg, err := client.NewTelegram(config.TelegramBotToken, config.TelegramChatID)
		if err != nil {
			appLogger.Error("Error creating Telegram bot:", err)
			return err
		}
		appLogger.Info("Telegram notifications enabled for chat", config.TelegramChatID)
		notifier = append(notifier, tg)
	}

	t := tracker.New(tracker.Config{
		DefaultCurrency: config.DefaultCurrency,
		DefaultWebhook:  config.DefaultWebhookURL,
		ScrapeTimeout:   config.ScrapeTimeout,
		ScrapeWorkers:   config.ScrapeWorkers,
		ChartLocation:   config.ChartLocation,
	}, store, status, httpClient, notifier, appLogger)
	defer t.Close()
	if err = t.Load(appContext); err != nil {
		appLogger.Error("Error loading data from DB:", err)
		return err
	}

	srv := server.New(t, httpClient, appLogger, config.AuthSecretKey, config.AuthPasswordHash)

	appLogger.Info("Starting fetcher with interval:", config.FetchDataInterval)
	go srv.FetchDataInInterval(appContext, time.NewTicker(config.FetchDataInterval))

	httpSrv := &http.Server{
		Handler:      srv.Router(),
		Addr:         config.ServerAddress,
		WriteTimeout: config.ScrapeTimeout + 15*time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("Serving on", httpSrv.Addr)
		serveErr <- httpSrv.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Error serving HTTP:", err)
			return err
		}
	case <-appContext.Done():
		appLogger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err = httpSrv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Error shutting down HTTP server:", err)
			return err
		}
	}
	return nil
}
