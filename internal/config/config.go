package config

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTP    HTTPConfig    `envPrefix:"HTTP_"`
	Log     LogConfig     `envPrefix:"LOG_"`
	Source  SourceConfig  `envPrefix:"SOURCE_"`
	Sink    SinkConfig    `envPrefix:"SINK_"`
	Metrics MetricsConfig `envPrefix:"METRICS_"`
}

type HTTPConfig struct {
	Port              string        `env:"PORT" envDefault:"8080"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// SourceConfig points at the input batch: either a JSON dataset file or one
// URL per source. The file wins when both are set.
type SourceConfig struct {
	DatasetPath string        `env:"DATASET_PATH"`
	FacebookURL string        `env:"FACEBOOK_URL"`
	GoogleURL   string        `env:"GOOGLE_URL"`
	TikTokURL   string        `env:"TIKTOK_URL"`
	BusinessURL string        `env:"BUSINESS_URL"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
	Retries     int           `env:"RETRIES" envDefault:"3"`
	RetryBase   time.Duration `env:"RETRY_BASE" envDefault:"100ms"`
}

type SinkConfig struct {
	URL    string `env:"URL"`
	Secret string `env:"SECRET"`
}

type MetricsConfig struct {
	Namespace string `env:"NAMESPACE" envDefault:"marketing"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger; unknown formats fall back to json.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// HasRemoteSources reports whether every source URL is set.
func (c SourceConfig) HasRemoteSources() bool {
	return c.FacebookURL != "" && c.GoogleURL != "" && c.TikTokURL != "" && c.BusinessURL != ""
}
