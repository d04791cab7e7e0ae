// Package config provides configuration loading and management for cardiacxr.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"cardiacxr/internal/models"
	"cardiacxr/pkg/dataset"
	"cardiacxr/pkg/interaction"
	"cardiacxr/pkg/logger"
	"cardiacxr/pkg/scene"
)

// Vec3 is a vector written as a three element YAML sequence.
type Vec3 [3]float64

// Vec converts to a gonum vector.
func (v Vec3) Vec() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// DeviceConfig holds the gesture gains and hit threshold of one input
// modality.
type DeviceConfig struct {
	interaction.Gains `yaml:",inline"`

	// Threshold widens hit tests for this modality, in world units
	Threshold float64 `yaml:"threshold"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Dataset location and decoding parameters
	Dataset struct {
		// BaseURL is the HTTP root of the asset tree; empty means AssetDir is used
		BaseURL string `yaml:"baseURL"`

		// AssetDir is the local root of the asset tree
		AssetDir string `yaml:"assetDir"`

		// DefaultFile is loaded at startup
		DefaultFile string `yaml:"defaultFile"`

		// SampleStride keeps every n-th decoded point
		SampleStride int `yaml:"sampleStride"`

		// Preload lists datasets decoded in the background at startup
		Preload []string `yaml:"preload"`

		// Workers is the size of the loader pool
		Workers int `yaml:"workers"`

		// TimeoutSeconds bounds a single HTTP fetch
		TimeoutSeconds int `yaml:"timeoutSeconds"`

		// MaxPayloadMB caps the size of a fetched dataset
		MaxPayloadMB int `yaml:"maxPayloadMB"`

		// Slate lists the selection buttons
		Slate []scene.SlateEntry `yaml:"slate"`
	} `yaml:"dataset"`

	// Scene placement
	Scene struct {
		HeartPosition Vec3    `yaml:"heartPosition"`
		CubeSize      float64 `yaml:"cubeSize"`
		InitialScale  float64 `yaml:"initialScale"`
	} `yaml:"scene"`

	// Interaction gains per modality
	Interaction struct {
		Pointer    DeviceConfig `yaml:"pointer"`
		Controller DeviceConfig `yaml:"controller"`
	} `yaml:"interaction"`

	// Camera of the desktop viewer
	Camera struct {
		Position   Vec3    `yaml:"position"`
		Target     Vec3    `yaml:"target"`
		FovDegrees float64 `yaml:"fovDegrees"`
		Near       float64 `yaml:"near"`
		Far        float64 `yaml:"far"`
		Width      int     `yaml:"width"`
		Height     int     `yaml:"height"`
	} `yaml:"camera"`

	Logging logger.LoggerConfig `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Dataset.AssetDir = filepath.Join("assets", "GridSamples")
	cfg.Dataset.DefaultFile = dataset.DefaultFile
	cfg.Dataset.SampleStride = 4
	cfg.Dataset.Workers = 4
	cfg.Dataset.TimeoutSeconds = 30
	cfg.Dataset.MaxPayloadMB = 256
	cfg.Dataset.Slate = dataset.DefaultEntries()

	cfg.Scene.HeartPosition = Vec3{0, 1.6, -2}
	cfg.Scene.CubeSize = scene.DefaultFootprint
	cfg.Scene.InitialScale = 1

	cfg.Interaction.Pointer = DeviceConfig{
		Gains:     interaction.Gains{Rotation: 0.01, Scale: 0.005, Move: 0.005},
		Threshold: 0.005,
	}
	cfg.Interaction.Controller = DeviceConfig{
		Gains:     interaction.Gains{Rotation: 5, Scale: 5, Move: 2},
		Threshold: 0.1,
	}

	cfg.Camera.Position = Vec3{1, 2, 1}
	cfg.Camera.Target = Vec3{0, 1.6, -2}
	cfg.Camera.FovDegrees = 75
	cfg.Camera.Near = 0.1
	cfg.Camera.Far = 1000
	cfg.Camera.Width = 1280
	cfg.Camera.Height = 720

	cfg.Logging = logger.DefaultConfig()

	return cfg
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Dataset.DefaultFile != "", "dataset.defaultFile is empty")
	check(c.Dataset.SampleStride >= 1, "dataset.sampleStride must be >= 1, got %d", c.Dataset.SampleStride)
	check(c.Dataset.Workers >= 1, "dataset.workers must be >= 1, got %d", c.Dataset.Workers)
	check(c.Dataset.TimeoutSeconds >= 0, "dataset.timeoutSeconds must not be negative")
	check(c.Dataset.MaxPayloadMB >= 1, "dataset.maxPayloadMB must be >= 1, got %d", c.Dataset.MaxPayloadMB)
	check(c.Dataset.BaseURL != "" || c.Dataset.AssetDir != "", "one of dataset.baseURL and dataset.assetDir is required")
	for i, e := range c.Dataset.Slate {
		check(e.Dataset != "", "dataset.slate[%d] has no dataset", i)
	}

	check(c.Scene.CubeSize > 0, "scene.cubeSize must be positive")
	check(c.Scene.InitialScale >= scene.MinScale && c.Scene.InitialScale <= scene.MaxScale,
		"scene.initialScale must be within [%g, %g]", scene.MinScale, scene.MaxScale)

	for name, d := range map[string]DeviceConfig{"pointer": c.Interaction.Pointer, "controller": c.Interaction.Controller} {
		check(finite(d.Rotation, d.Scale, d.Move), "interaction.%s gains must be finite", name)
		check(d.Threshold >= 0 && finite(d.Threshold), "interaction.%s.threshold must be finite and not negative", name)
	}

	check(c.Camera.FovDegrees > 0 && c.Camera.FovDegrees < 180, "camera.fovDegrees must be within (0, 180)")
	check(c.Camera.Near > 0 && c.Camera.Far > c.Camera.Near, "camera near/far planes must satisfy 0 < near < far")
	check(c.Camera.Width > 0 && c.Camera.Height > 0, "camera width and height must be positive")

	return errors.Join(errs...)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// InitialTransform is the transform of a freshly loaded heart.
func (c *Config) InitialTransform() models.Transform {
	return models.Transform{
		Position: c.Scene.HeartPosition.Vec(),
		Scale:    c.Scene.InitialScale,
	}
}

// LoaderOptions maps the dataset and scene sections onto loader options.
func (c *Config) LoaderOptions() dataset.Options {
	return dataset.Options{
		SampleStride: c.Dataset.SampleStride,
		Footprint:    c.Scene.CubeSize,
		Initial:      c.InitialTransform(),
		Workers:      c.Dataset.Workers,
	}
}

// Source picks the HTTP source when a base URL is set and the local asset
// tree otherwise.
func (c *Config) Source() dataset.Source {
	if c.Dataset.BaseURL != "" {
		src := dataset.NewHTTPSource(c.Dataset.BaseURL, time.Duration(c.Dataset.TimeoutSeconds)*time.Second)
		src.MaxBytes = int64(c.Dataset.MaxPayloadMB) << 20
		return src
	}
	return dataset.DirSource{Root: c.Dataset.AssetDir}
}

// NewCamera builds the viewer camera.
func (c *Config) NewCamera() *scene.Camera {
	return &scene.Camera{
		Position: c.Camera.Position.Vec(),
		Target:   c.Camera.Target.Vec(),
		Up:       r3.Vec{Y: 1},
		FovY:     c.Camera.FovDegrees * math.Pi / 180,
		Near:     c.Camera.Near,
		Far:      c.Camera.Far,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
	}
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
