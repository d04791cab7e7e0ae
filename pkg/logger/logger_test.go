package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestZapLogger_Levels(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	logger := NewFromZap(zap.New(core))

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	logs := recorded.All()
	if len(logs) != 4 {
		t.Fatalf("Expected 4 logs, got %d", len(logs))
	}

	expected := []zapcore.Level{
		zapcore.DebugLevel,
		zapcore.InfoLevel,
		zapcore.WarnLevel,
		zapcore.ErrorLevel,
	}
	for i, entry := range logs {
		if entry.Level != expected[i] {
			t.Errorf("Log %d: expected level %v, got %v", i, expected[i], entry.Level)
		}
	}
}

func TestZapLogger_StructuredFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := NewFromZap(zap.New(core))

	logger.Info("dataset decoded",
		F("name", "02-350um-192x192x192_lra_grid.json"),
		F("points", 42),
		F("stride", int64(4)),
		F("valid", true),
		F("elapsed", 15*time.Millisecond),
		F("position", r3.Vec{X: 0, Y: 1.6, Z: -2}),
		Err(errors.New("boom")),
	)

	logs := recorded.All()
	if len(logs) != 1 {
		t.Fatalf("Expected 1 log, got %d", len(logs))
	}

	fields := logs[0].ContextMap()
	if fields["name"] != "02-350um-192x192x192_lra_grid.json" {
		t.Errorf("Unexpected name field: %v", fields["name"])
	}
	if fields["points"] != int64(42) {
		t.Errorf("Expected points=42, got %v", fields["points"])
	}
	if fields["valid"] != true {
		t.Errorf("Expected valid=true, got %v", fields["valid"])
	}
	if fields["error"] != "boom" {
		t.Errorf("Expected error=boom, got %v", fields["error"])
	}
	if _, ok := fields["position"]; !ok {
		t.Error("Expected position field to be present")
	}
}

func TestZapLogger_With(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := NewFromZap(zap.New(core)).With(F("component", "session"))

	logger.Info("frame")

	logs := recorded.All()
	if len(logs) != 1 {
		t.Fatalf("Expected 1 log, got %d", len(logs))
	}
	if logs[0].ContextMap()["component"] != "session" {
		t.Errorf("Expected component=session, got %v", logs[0].ContextMap()["component"])
	}
}

func TestNewZapLogger_Configs(t *testing.T) {
	for _, cfg := range []LoggerConfig{DefaultConfig(), DevelopmentConfig(), {Level: "bogus"}} {
		logger, err := NewZapLogger(cfg)
		if err != nil {
			t.Fatalf("NewZapLogger(%+v) failed: %v", cfg, err)
		}
		logger.Debug("ignored")
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("Expected no-op logger from empty context")
	}

	core, recorded := observer.New(zapcore.InfoLevel)
	stored := NewFromZap(zap.New(core))
	ctx := WithLogger(context.Background(), stored)

	FromContext(ctx).Info("hello")
	if recorded.Len() != 1 {
		t.Errorf("Expected the stored logger to be used, got %d entries", recorded.Len())
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CARDIACXR_ENV", "")
	t.Setenv("CARDIACXR_LOG_LEVEL", "warn")
	t.Setenv("CARDIACXR_LOG_FORMAT", "console")
	t.Setenv("CARDIACXR_LOG_SAMPLING", "false")
	t.Setenv("CARDIACXR_LOG_SAMPLE_INITIAL", "7")

	cfg := applyEnv(DefaultConfig())
	if cfg.Level != "warn" {
		t.Errorf("Expected level warn, got %s", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("Expected console format, got %s", cfg.Format)
	}
	if cfg.EnableSampling {
		t.Error("Expected sampling disabled")
	}
	if cfg.SampleInitial != 7 {
		t.Errorf("Expected SampleInitial 7, got %d", cfg.SampleInitial)
	}
}
