package logger

import (
	"os"
	"strconv"
	"strings"
)

// NewLoggerFromEnv creates a logger from cfg with CARDIACXR_* overrides applied.
func NewLoggerFromEnv(cfg LoggerConfig) (Logger, error) {
	return NewZapLogger(applyEnv(cfg))
}

// NewLoggerWithComponent creates a logger with a component field pre-set
func NewLoggerWithComponent(cfg LoggerConfig, component string) (Logger, error) {
	logger, err := NewLoggerFromEnv(cfg)
	if err != nil {
		return nil, err
	}

	return logger.With(Field{Key: "component", Value: component}), nil
}

func applyEnv(cfg LoggerConfig) LoggerConfig {
	if env := os.Getenv("CARDIACXR_ENV"); env != "" && strings.ToLower(env) != "production" {
		cfg = DevelopmentConfig()
	}

	if level := os.Getenv("CARDIACXR_LOG_LEVEL"); level != "" {
		cfg.Level = level
	}

	if format := os.Getenv("CARDIACXR_LOG_FORMAT"); format != "" {
		cfg.Format = format
	}

	if sampling := os.Getenv("CARDIACXR_LOG_SAMPLING"); sampling != "" {
		cfg.EnableSampling = strings.ToLower(sampling) == "true"
	}

	if initial := os.Getenv("CARDIACXR_LOG_SAMPLE_INITIAL"); initial != "" {
		if val, err := strconv.Atoi(initial); err == nil {
			cfg.SampleInitial = val
		}
	}

	if thereafter := os.Getenv("CARDIACXR_LOG_SAMPLE_THEREAFTER"); thereafter != "" {
		if val, err := strconv.Atoi(thereafter); err == nil {
			cfg.SampleThereafter = val
		}
	}

	if dev := os.Getenv("CARDIACXR_LOG_DEVELOPMENT"); dev != "" {
		cfg.Development = strings.ToLower(dev) == "true"
	}

	return cfg
}
