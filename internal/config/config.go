// Package config loads minplay settings with Viper from defaults, an
// optional .minplay.yml file, MINPLAY_ environment variables and command
// flags, in increasing order of precedence.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the effective minplay configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Editor   EditorConfig   `mapstructure:"editor" yaml:"editor"`
	Options  OptionsConfig  `mapstructure:"options" yaml:"options"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type PipelineConfig struct {
	Debounce            time.Duration `mapstructure:"debounce" yaml:"debounce"`
	ReevaluateOnOptions bool          `mapstructure:"reevaluate_on_options" yaml:"reevaluate_on_options"`
	Worker              bool          `mapstructure:"worker" yaml:"worker"`
}

// MarshalYAML writes the debounce delay as a duration string.
func (p PipelineConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Debounce            string `yaml:"debounce"`
		ReevaluateOnOptions bool   `yaml:"reevaluate_on_options"`
		Worker              bool   `yaml:"worker"`
	}{p.Debounce.String(), p.ReevaluateOnOptions, p.Worker}, nil
}

// EditorConfig controls how panels are displayed.
type EditorConfig struct {
	LineWrap     bool `mapstructure:"line_wrap" yaml:"line_wrap"`
	ShowFileSize bool `mapstructure:"show_file_size" yaml:"show_file_size"`
}

// OptionsConfig points at an options document to start the session with.
type OptionsConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Defaults.
const (
	DefaultHost         = "localhost"
	DefaultPort         = 8080
	DefaultMaxBodyBytes = 1 << 20
	DefaultDebounce     = 500 * time.Millisecond
)

// SetDefaults registers every key with its default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.max_body_bytes", DefaultMaxBodyBytes)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("pipeline.debounce", DefaultDebounce)
	v.SetDefault("pipeline.reevaluate_on_options", false)
	v.SetDefault("pipeline.worker", true)
	v.SetDefault("editor.line_wrap", true)
	v.SetDefault("editor.show_file_size", true)
	v.SetDefault("options.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration from the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{}
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration with every key at its default.
func Default() *Config {
	cfg, err := LoadFrom(viper.New())
	if err != nil {
		panic(fmt.Sprintf("config: defaults do not validate: %v", err))
	}
	return cfg
}

// Addr is the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// YAML renders the configuration as a .minplay.yml document.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
