// Package config handles converter configuration: defaults, YAML file
// loading and command-line flag overrides.
package config

import "time"

// Config holds all converter settings.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Logging LoggingConfig `yaml:"logging"`
}

// ConvertConfig selects which optimization passes run and how.
type ConvertConfig struct {
	OptimizeVertices  bool `yaml:"optimize_vertices"`
	OptimizeTextures  bool `yaml:"optimize_textures"`
	SimplifyBones     bool `yaml:"simplify_bones"`
	ConvertAnimations bool `yaml:"convert_animations"`

	// SequencePriority orders sequence names from most to least important
	// when the sequence ceiling forces drops. Empty means first-appearance
	// order.
	SequencePriority []string `yaml:"sequence_priority"`

	// TimeBudget bounds one conversion job; zero means unlimited.
	TimeBudget time.Duration `yaml:"time_budget"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with every optimization pass enabled.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			OptimizeVertices:  true,
			OptimizeTextures:  true,
			SimplifyBones:     true,
			ConvertAnimations: true,
			TimeBudget:        0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
