package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if _, ok := builtinLLMBackends[c.LLM.Backend]; !ok {
		if _, exists := c.LLM.Backends[c.LLM.Backend]; !exists {
			return fmt.Errorf("llm.backend %q is not a known text backend", c.LLM.Backend)
		}
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	if c.LLM.MaxSectionChars <= 0 {
		return errors.New("llm.max_section_chars must be positive")
	}
	return nil
}

func (c *Config) validateTTS() error {
	switch c.TTS.Backend {
	case "edge", "none":
	default:
		return fmt.Errorf("tts.backend must be edge or none, got %q", c.TTS.Backend)
	}
	if c.TTS.Backend != "none" && c.TTS.Command == "" {
		return errors.New("tts.command must be set when tts.backend is enabled")
	}
	switch c.TTS.Format {
	case "wav", "mp3":
	default:
		return fmt.Errorf("tts.format must be wav or mp3, got %q", c.TTS.Format)
	}
	if c.TTS.SilenceMillis < 0 {
		return errors.New("tts.silence_ms must not be negative")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.StreamBuffer <= 0 {
		return errors.New("workflow.stream_buffer must be positive")
	}
	if c.Workflow.DownloadTimeoutSeconds <= 0 {
		return errors.New("workflow.download_timeout_seconds must be positive")
	}
	return nil
}
