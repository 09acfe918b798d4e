package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL  string
	DiscordToken string
	// vacío = comandos globales; con ID se registran sólo en ese guild (dev)
	DiscordGuild  string
	CommandPrefix string
	HTTPAddr      string // opcional, default :8080

	AudioServerURL      string
	AudioServerPassword string
	AudioEventsSecret   string

	StoreTimeout     time.Duration
	CommandTimeout   time.Duration
	QueueDeleteBatch int
	QueueCacheSize   int
	QueueCacheTTL    time.Duration

	// se muestran cuando un guild no está en la allowlist
	AccessContact string
	SelfHostURL   string

	LogLevel  slog.Level
	LogFormat string // json | text
}

func Load() (Config, error) {
	var missing []string
	req := func(k string) string {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			missing = append(missing, k)
		}
		return v
	}

	cfg := Config{
		DatabaseURL:         req("DATABASE_URL"),
		DiscordToken:        req("DISCORD_BOT_TOKEN"),
		AudioServerURL:      req("AUDIO_SERVER_URL"),
		DiscordGuild:        os.Getenv("DISCORD_GUILD_ID"),
		CommandPrefix:       getEnvDefault("COMMAND_PREFIX", "!"),
		HTTPAddr:            getEnvDefault("HTTP_ADDR", ":8080"),
		AudioServerPassword: os.Getenv("AUDIO_SERVER_PASSWORD"),
		AudioEventsSecret:   os.Getenv("AUDIO_EVENTS_SECRET"),
		AccessContact:       getEnvDefault("ACCESS_CONTACT", "the bot owner"),
		SelfHostURL:         os.Getenv("SELF_HOST_URL"),
		LogFormat:           getEnvDefault("LOG_FORMAT", "text"),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("faltan env: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.StoreTimeout, err = getEnvDuration("STORE_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CommandTimeout, err = getEnvDuration("COMMAND_TIMEOUT", 12*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.QueueCacheTTL, err = getEnvDuration("QUEUE_CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.QueueDeleteBatch, err = getEnvInt("QUEUE_DELETE_BATCH", 25); err != nil {
		return Config{}, err
	}
	if cfg.QueueCacheSize, err = getEnvInt("QUEUE_CACHE_SIZE", 1000); err != nil {
		return Config{}, err
	}
	if cfg.LogLevel, err = parseLogLevel(getEnvDefault("LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return Config{}, fmt.Errorf("LOG_FORMAT: formato %q inválido (json, text)", cfg.LogFormat)
	}
	if len([]rune(cfg.CommandPrefix)) != 1 {
		return Config{}, fmt.Errorf("COMMAND_PREFIX: debe ser un solo carácter, got %q", cfg.CommandPrefix)
	}
	return cfg, nil
}

// NewLogger arma el slog.Logger según LOG_FORMAT/LOG_LEVEL.
func (c Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: debe ser > 0, got %d", k, n)
	}
	return n, nil
}

func getEnvDuration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: debe ser > 0, got %s", k, d)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("LOG_LEVEL: nivel %q inválido", s)
}
