// Package config provides configuration loading and management for formflow.
//
// Configuration is loaded using Viper, supporting YAML config files and
// environment variable overrides. The package provides sensible defaults that
// work out of the box, with the ability to customize the form definition
// location, the record store location, and output formatting.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//
// Configuration priority (highest to lowest):
//  1. Environment variables (FORMFLOW_ prefix)
//  2. Config file specified by FORMFLOW_CONFIG_PATH
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/formflow/formflow.yaml
//     - macOS: ~/Library/Application Support/formflow/formflow.yaml
//     - Windows: %APPDATA%\formflow\formflow.yaml
//  4. ./formflow.yaml
//  5. [DefaultConfig] defaults
package config

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used
// throughout the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// SchemaPath is the form definition file location.
	// Empty enables auto-discovery (./formflow-schema.yaml, then the
	// built-in default definition). Can be overridden with the
	// FORMFLOW_SCHEMA_PATH environment variable.
	SchemaPath string `mapstructure:"schema_path"`

	// StorePath is the entity record file location.
	// Default: "formflow-store.yaml" in the working directory.
	StorePath string `mapstructure:"store_path"`

	// SessionsDir is the directory holding session files.
	// Default: ".formflow/sessions". Can be overridden with the
	// FORMFLOW_SESSIONS_DIR environment variable.
	SessionsDir string `mapstructure:"sessions_dir"`

	// Output contains terminal output formatting configuration.
	Output OutputConfig `mapstructure:"output"`
}

// OutputConfig contains terminal output formatting configuration.
type OutputConfig struct {
	// Plain disables colors and emphasis in terminal output.
	// Default: false.
	Plain bool `mapstructure:"plain"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
//
// The defaults resolve everything relative to the working directory and
// leave the form definition to auto-discovery, so the tool works without
// any configuration file.
func DefaultConfig() *Config {
	return &Config{
		SchemaPath:  "",
		StorePath:   "formflow-store.yaml",
		SessionsDir: ".formflow/sessions",
		Output: OutputConfig{
			Plain: false,
		},
	}
}
