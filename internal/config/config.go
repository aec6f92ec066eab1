package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	KafkaEnabled     bool
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// OpenWeatherMap configuration. Weather lookups are disabled without an API key.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	WeatherTimeout     time.Duration
	WeatherCacheSize   int
	WeatherCacheTTL    time.Duration

	// Assessment defaults.
	DefaultCity  string
	ForecastDays int

	// Forecast cache warming.
	WatchCities     []string
	RefreshSchedule string

	// DBPath is the SQLite assessment history file. Empty disables history.
	DBPath string

	// Chat assistant. The assistant is disabled without an API key.
	OpenAIAPIKey   string
	OpenAIModel    string
	ChatSessionTTL time.Duration

	// TelegramBotToken enables the Telegram bot when set.
	TelegramBotToken string
}

// maxForecastDays is the horizon of the OpenWeatherMap 5 day / 3 hour forecast.
const maxForecastDays = 5

// Load reads configuration from environment variables, applying defaults where
// unset. Variables from a .env file (ENV_FILE, default ".env") are loaded first
// and never override variables already present in the environment.
func Load() (*Config, error) {
	if err := loadDotEnv(sharedcfg.EnvOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED", true)
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parseDuration("WEATHER_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	weatherCacheTTL, err := parseDuration("WEATHER_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	chatSessionTTL, err := parseDuration("CHAT_SESSION_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	weatherCacheSize, err := parsePositiveInt("WEATHER_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	forecastDays, err := parsePositiveInt("FORECAST_DAYS", maxForecastDays)
	if err != nil {
		return nil, err
	}
	if forecastDays > maxForecastDays {
		return nil, fmt.Errorf("invalid FORECAST_DAYS: must be at most %d", maxForecastDays)
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "plant-detections"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "risk-assessments"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "crop-risk-service"),
		KafkaEnabled:       kafkaEnabled,
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"), "/"),
		WeatherTimeout:     weatherTimeout,
		WeatherCacheSize:   weatherCacheSize,
		WeatherCacheTTL:    weatherCacheTTL,

		DefaultCity:  sharedcfg.EnvOrDefault("DEFAULT_CITY", "Thane"),
		ForecastDays: forecastDays,

		WatchCities:     parseList(os.Getenv("WATCH_CITIES")),
		RefreshSchedule: sharedcfg.EnvOrDefault("REFRESH_SCHEDULE", "0 * * * *"),

		DBPath: sharedcfg.EnvOrDefault("DB_PATH", "data/assessments.db"),

		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    sharedcfg.EnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		ChatSessionTTL: chatSessionTTL,

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.DefaultCity == "" {
		return nil, errors.New("DEFAULT_CITY is required")
	}

	return cfg, nil
}

// WeatherEnabled reports whether an OpenWeatherMap API key is configured.
func (c *Config) WeatherEnabled() bool {
	return c.OpenWeatherAPIKey != ""
}

// ChatEnabled reports whether an OpenAI API key is configured.
func (c *Config) ChatEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
