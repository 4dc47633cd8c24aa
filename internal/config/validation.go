package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/conneroisu/minplay/internal/errors"
	"github.com/conneroisu/minplay/internal/logging"
)

const maxDebounce = time.Minute

// Validate checks every section of cfg and returns the first problem found.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validatePipeline(&cfg.Pipeline); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}
	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	return nil
}

func validateServer(s *ServerConfig) error {
	// Port 0 asks the OS for a free port.
	if s.Port < 0 || s.Port > 65535 {
		return invalid("server.port", fmt.Sprintf("port %d is not in valid range 0-65535", s.Port))
	}
	if strings.ContainsAny(s.Host, ";&|$`()<>\"'\\ ") {
		return invalid("server.host", fmt.Sprintf("host %q contains invalid characters", s.Host))
	}
	if s.MaxBodyBytes <= 0 {
		return invalid("server.max_body_bytes", "max_body_bytes must be positive")
	}
	return nil
}

func validatePipeline(p *PipelineConfig) error {
	if p.Debounce <= 0 || p.Debounce > maxDebounce {
		return invalid("pipeline.debounce", fmt.Sprintf("debounce %s must be in (0, %s]", p.Debounce, maxDebounce))
	}
	return nil
}

func validateLog(l *LogConfig) error {
	if _, err := logging.ParseLevel(l.Level); err != nil {
		return invalid("log.level", err.Error())
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		return invalid("log.format", fmt.Sprintf("unknown log format %q, want text or json", l.Format))
	}
	return nil
}

func invalid(key, message string) error {
	return errors.NewConfigError(errors.ErrCodeConfigInvalid, message).WithContext("key", key)
}
