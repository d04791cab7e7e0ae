package logger

// LoggerConfig defines logging configuration
type LoggerConfig struct {
	Level            string `yaml:"level"`
	Format           string `yaml:"format"` // json or console
	EnableSampling   bool   `yaml:"enableSampling"`
	SampleInitial    int    `yaml:"sampleInitial"`
	SampleThereafter int    `yaml:"sampleThereafter"`
	Development      bool   `yaml:"development"`
}

// DefaultConfig returns production defaults. Per-frame debug lines are
// sampled so a 90 Hz render loop cannot flood the output.
func DefaultConfig() LoggerConfig {
	return LoggerConfig{
		Level:            "info",
		Format:           "json",
		EnableSampling:   true,
		SampleInitial:    100,
		SampleThereafter: 1000,
		Development:      false,
	}
}

// DevelopmentConfig returns development configuration
func DevelopmentConfig() LoggerConfig {
	return LoggerConfig{
		Level:       "debug",
		Format:      "console",
		Development: true,
	}
}
