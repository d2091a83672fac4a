package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wakana-code/station-navi-app/internal/segmentation"
)

// DefaultJWTSecret is only acceptable for local development.
const DefaultJWTSecret = "your-secret-key-change-in-production"

// LogLevel is the minimum level written by the logger.
type LogLevel string

// LogLevel constants
const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a known level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Slog converts l to a slog level, defaulting to info.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config 应用配置
type Config struct {
	Port      string   `yaml:"port"`
	DBPath    string   `yaml:"db_path"`
	JWTSecret string   `yaml:"jwt_secret"`
	LogLevel  LogLevel `yaml:"log_level"`

	// SurveyRateLimit is the number of survey submissions allowed per client
	// IP per minute. Zero disables the limit.
	SurveyRateLimit int `yaml:"survey_rate_limit"`

	// StreamOrigins are the host patterns (path.Match syntax, e.g.
	// "*.example.com") allowed to open the recording websocket from a
	// browser on another origin.
	StreamOrigins []string `yaml:"stream_origins"`

	// RecordingIdleTimeout stops and stores a recording that received no
	// samples for this long, freeing the single session slot. Zero disables.
	RecordingIdleTimeout time.Duration `yaml:"recording_idle_timeout"`

	Narration    NarrationConfig         `yaml:"narration"`
	Segmentation segmentation.Thresholds `yaml:"segmentation"`
}

// NarrationConfig controls how guide text timestamps are rendered.
type NarrationConfig struct {
	Skew     time.Duration `yaml:"skew"`
	TimeZone string        `yaml:"time_zone"` // IANA name; empty or "Local" uses the host zone
}

// Location resolves the narration time zone.
func (n NarrationConfig) Location() (*time.Location, error) {
	if n.TimeZone == "" || n.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(n.TimeZone)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:                 ":8080",
		DBPath:               "./data/routes/routes.db",
		JWTSecret:            DefaultJWTSecret,
		LogLevel:             LogInfo,
		SurveyRateLimit:      30,
		RecordingIdleTimeout: 15 * time.Minute,
		Narration:            NarrationConfig{Skew: 8 * time.Second},
		Segmentation:         segmentation.DefaultThresholds(),
	}
}

// Load 加载配置: defaults, then the YAML file named by CONFIG_FILE if set,
// then environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()
		if err := Decode(f, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode reads YAML from r on top of the values already in cfg. Unknown keys
// are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = LogLevel(v)
	}
	if v := os.Getenv("NARRATION_TZ"); v != "" {
		cfg.Narration.TimeZone = v
	}
	if v := os.Getenv("NARRATION_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: NARRATION_SKEW: %w", err)
		}
		cfg.Narration.Skew = d
	}
	if v := os.Getenv("SURVEY_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: SURVEY_RATE_LIMIT: %w", err)
		}
		cfg.SurveyRateLimit = n
	}
	if v := os.Getenv("STREAM_ORIGINS"); v != "" {
		cfg.StreamOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.StreamOrigins = append(cfg.StreamOrigins, o)
			}
		}
	}
	if v := os.Getenv("RECORDING_IDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: RECORDING_IDLE_TIMEOUT: %w", err)
		}
		cfg.RecordingIdleTimeout = d
	}
	return nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Port == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	if cfg.DBPath == "" {
		errs = append(errs, errors.New("db_path must not be empty"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret must not be empty"))
	}
	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if cfg.SurveyRateLimit < 0 {
		errs = append(errs, fmt.Errorf("survey_rate_limit must not be negative, got %d", cfg.SurveyRateLimit))
	}
	if cfg.RecordingIdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("recording_idle_timeout must not be negative, got %s", cfg.RecordingIdleTimeout))
	}
	for _, o := range cfg.StreamOrigins {
		if _, err := path.Match(o, ""); err != nil {
			errs = append(errs, fmt.Errorf("stream_origins: pattern %q: %w", o, err))
		}
	}
	if cfg.Narration.Skew < 0 {
		errs = append(errs, fmt.Errorf("narration.skew must not be negative, got %s", cfg.Narration.Skew))
	}
	if _, err := cfg.Narration.Location(); err != nil {
		errs = append(errs, fmt.Errorf("narration.time_zone: %w", err))
	}
	if err := cfg.Segmentation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("segmentation: %w", err))
	}

	if cfg.JWTSecret == DefaultJWTSecret {
		slog.Warn("using the default JWT secret; set JWT_SECRET in production")
	}
	return errors.Join(errs...)
}
