package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/couchcryptid/crop-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/crop-risk-service/internal/adapter/kafka"
	openaiadapter "github.com/couchcryptid/crop-risk-service/internal/adapter/openai"
	"github.com/couchcryptid/crop-risk-service/internal/adapter/openweather"
	"github.com/couchcryptid/crop-risk-service/internal/adapter/sqlite"
	"github.com/couchcryptid/crop-risk-service/internal/adapter/telegram"
	"github.com/couchcryptid/crop-risk-service/internal/chat"
	"github.com/couchcryptid/crop-risk-service/internal/config"
	"github.com/couchcryptid/crop-risk-service/internal/domain"
	"github.com/couchcryptid/crop-risk-service/internal/observability"
	"github.com/couchcryptid/crop-risk-service/internal/pipeline"
	"github.com/couchcryptid/crop-risk-service/internal/scheduler"
)

// sessionSweepSchedule is how often idle chat sessions are evicted.
const sessionSweepSchedule = "@every 5m"

// readinessFunc adapts a function to sharedobs.ReadinessChecker.
type readinessFunc func(ctx context.Context) error

func (f readinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	profiles := domain.DefaultProfileStore()

	// Initialize weather provider (feature-flagged via OPENWEATHER_API_KEY).
	var (
		weather domain.WeatherProvider
		cached  *openweather.CachedProvider
	)
	if cfg.WeatherEnabled() {
		client := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.WeatherTimeout, metrics, logger)
		cached = openweather.NewCachedProvider(client, cfg.WeatherCacheSize, cfg.WeatherCacheTTL, nil, metrics)
		weather = cached
		metrics.WeatherEnabled.Set(1)
		logger.Info("openweather enabled", "cache_size", cfg.WeatherCacheSize, "cache_ttl", cfg.WeatherCacheTTL, "timeout", cfg.WeatherTimeout)
	} else {
		logger.Info("openweather disabled, assessments will carry no risk or outlook")
	}

	assessor := domain.NewAssessor(profiles, weather, domain.AssessorConfig{
		DefaultCity:  cfg.DefaultCity,
		ForecastDays: cfg.ForecastDays,
	}, logger)

	// Assessment history (disabled with an empty DB_PATH).
	var repo *sqlite.Repository
	if cfg.DBPath != "" {
		repo, err = sqlite.NewRepository(cfg.DBPath)
		if err != nil {
			logger.Error("failed to open assessment history", "path", cfg.DBPath, "error", err)
			os.Exit(1)
		}
		logger.Info("assessment history enabled", "path", cfg.DBPath)
	}

	// Chat assistant (feature-flagged via OPENAI_API_KEY).
	var assistant *chat.Assistant
	if cfg.ChatEnabled() {
		completer := openaiadapter.NewCompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
		assistant = chat.NewAssistant(completer, chat.NewSessionStore(cfg.ChatSessionTTL, nil), profiles, metrics, logger)
		logger.Info("chat assistant enabled", "model", cfg.OpenAIModel, "session_ttl", cfg.ChatSessionTTL)
	} else {
		logger.Info("chat assistant disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Detection pipeline: Kafka source -> assess -> Kafka sink + history.
	var (
		ready  sharedobs.ReadinessChecker = readinessFunc(func(context.Context) error { return nil })
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		p      *pipeline.Pipeline
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		loader := pipeline.NewFanoutLoader().Add("kafka", writer)
		if repo != nil {
			loader.Add("sqlite", repo)
		}
		p = pipeline.New(reader, pipeline.NewTransformer(assessor, logger), loader, logger, metrics, cfg.BatchSize)
		ready = p
	} else if repo != nil {
		ready = readinessFunc(repo.Ping)
	}

	// Scheduled jobs.
	sched := scheduler.New(logger)
	if cached != nil && len(cfg.WatchCities) > 0 {
		refresher := scheduler.NewForecastRefresher(cached, cfg.WatchCities, metrics, logger)
		if err := sched.Add(cfg.RefreshSchedule, "forecast-refresh", refresher.RefreshAll); err != nil {
			logger.Error("failed to schedule forecast refresh", "error", err)
			os.Exit(1)
		}
	}
	if assistant != nil {
		sessions := assistant.Sessions()
		err := sched.Add(sessionSweepSchedule, "chat-session-sweep", func(context.Context) error {
			if n := sessions.EvictIdle(); n > 0 {
				logger.Debug("evicted idle chat sessions", "count", n)
			}
			return nil
		})
		if err != nil {
			logger.Error("failed to schedule session sweep", "error", err)
			os.Exit(1)
		}
	}

	api := httpadapter.NewAPI(httpadapter.Dependencies{
		Profiles:    profiles,
		Assessor:    assessor,
		Weather:     weather,
		History:     historyStore(repo),
		Assistant:   assistant,
		Metrics:     metrics,
		DefaultCity: cfg.DefaultCity,
	}, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, api, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start detection pipeline.
	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	// Start Telegram bot.
	if cfg.TelegramBotToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramBotToken, telegram.NewHandler(profiles, assessor, assistant, logger), logger)
		if err != nil {
			logger.Error("telegram bot disabled", "error", err)
		} else {
			go func() {
				if err := bot.Run(ctx); err != nil {
					logger.Error("telegram bot error", "error", err)
				}
			}()
		}
	}

	if sched.Len() > 0 {
		sched.Start()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler stop error", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if repo != nil {
		if err := repo.Close(); err != nil {
			logger.Error("assessment history close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// historyStore avoids handing the API a typed nil interface.
func historyStore(repo *sqlite.Repository) httpadapter.AssessmentStore {
	if repo == nil {
		return nil
	}
	return repo
}
