package config

import (
	"os"
	"strings"
)

// normalize expands paths, applies environment overrides, and fills defaults
// for fields left empty by the loaded document.
func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(firstNonEmpty(c.Paths.DataDir, defaultDataDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(firstNonEmpty(c.Paths.LogDir, defaultLogDir)); err != nil {
		return err
	}
	c.Paths.APIBind = firstNonEmpty(strings.TrimSpace(c.Paths.APIBind), defaultAPIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)

	if env := strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")); env != "" && c.ElevenLabs.APIKey == "" {
		c.ElevenLabs.APIKey = env
	}
	if env := strings.TrimSpace(os.Getenv("SYNC_API_KEY")); env != "" && c.Lipsync.APIKey == "" {
		c.Lipsync.APIKey = env
	}

	c.ElevenLabs.BaseURL = strings.TrimRight(firstNonEmpty(strings.TrimSpace(c.ElevenLabs.BaseURL), defaultElevenLabsBaseURL), "/")
	c.ElevenLabs.DefaultModelID = firstNonEmpty(strings.TrimSpace(c.ElevenLabs.DefaultModelID), defaultElevenLabsModelID)
	if c.ElevenLabs.RequestTimeout <= 0 {
		c.ElevenLabs.RequestTimeout = defaultElevenLabsTimeout
	}

	c.Lipsync.BaseURL = strings.TrimRight(firstNonEmpty(strings.TrimSpace(c.Lipsync.BaseURL), defaultLipsyncBaseURL), "/")
	c.Lipsync.Model = firstNonEmpty(strings.TrimSpace(c.Lipsync.Model), defaultLipsyncModel)
	if c.Lipsync.PollInterval <= 0 {
		c.Lipsync.PollInterval = defaultLipsyncPollInterval
	}
	if c.Lipsync.RequestTimeout <= 0 {
		c.Lipsync.RequestTimeout = defaultLipsyncTimeout
	}

	c.Store.Backend = strings.ToLower(firstNonEmpty(strings.TrimSpace(c.Store.Backend), defaultStoreBackend))

	if c.Workflow.TTSTimeout <= 0 {
		c.Workflow.TTSTimeout = defaultTTSTimeout
	}
	if c.Workflow.LipsyncTimeout <= 0 {
		c.Workflow.LipsyncTimeout = defaultLipsyncStageTimeout
	}
	if c.Workflow.RetentionHours < 0 {
		c.Workflow.RetentionHours = 0
	}
	if c.Workflow.JanitorInterval <= 0 {
		c.Workflow.JanitorInterval = defaultJanitorInterval
	}

	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)

	c.Logging.Format = strings.ToLower(firstNonEmpty(strings.TrimSpace(c.Logging.Format), defaultLogFormat))
	c.Logging.Level = strings.ToLower(firstNonEmpty(strings.TrimSpace(c.Logging.Level), defaultLogLevel))

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
