package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "memory", "sqlite":
		return nil
	default:
		return fmt.Errorf("store.backend must be \"memory\" or \"sqlite\", got %q", c.Store.Backend)
	}
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.tts_timeout":          c.Workflow.TTSTimeout,
		"workflow.lipsync_timeout":      c.Workflow.LipsyncTimeout,
		"workflow.janitor_interval":     c.Workflow.JanitorInterval,
		"elevenlabs.request_timeout":    c.ElevenLabs.RequestTimeout,
		"lipsync.request_timeout":       c.Lipsync.RequestTimeout,
		"lipsync.poll_interval":         c.Lipsync.PollInterval,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return errors.New(key + " must be greater than zero")
		}
	}
	return nil
}
