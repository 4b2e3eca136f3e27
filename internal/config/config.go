package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
}

// LLMBackend overrides connection settings for a named text backend.
type LLMBackend struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	APIKey  string `toml:"api_key"`
}

// LLM contains text-generation backend settings.
type LLM struct {
	Backend         string                `toml:"backend"`
	APIKey          string                `toml:"api_key"`
	TimeoutSeconds  int                   `toml:"timeout_seconds"`
	MaxSectionChars int                   `toml:"max_section_chars"`
	Backends        map[string]LLMBackend `toml:"backends"`
}

// TTS contains audio synthesis settings.
type TTS struct {
	Backend       string `toml:"backend"`
	Command       string `toml:"command"`
	HostVoice     string `toml:"host_voice"`
	ExpertVoice   string `toml:"expert_voice"`
	SilenceMillis int    `toml:"silence_ms"`
	Format        string `toml:"format"`
}

// Workflow contains orchestration tuning knobs.
type Workflow struct {
	StreamBuffer           int `toml:"stream_buffer"`
	DownloadTimeoutSeconds int `toml:"download_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root papercast configuration.
type Config struct {
	Paths    Paths    `toml:"paths"`
	LLM      LLM      `toml:"llm"`
	TTS      TTS      `toml:"tts"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the canonical config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "papercast", "config.toml"), nil
}

// ExpandPath resolves a leading ~ against the current user's home directory.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return trimmed, nil
}

// Load reads configuration from path (or the default location when path is
// empty), merges it over defaults, applies environment overrides, and
// normalizes directories. The returned bool reports whether a file was found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved := strings.TrimSpace(path)
	if resolved == "" {
		if env := strings.TrimSpace(os.Getenv("PAPERCAST_CONFIG")); env != "" {
			resolved = env
		} else {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				return nil, "", false, err
			}
			resolved = defaultPath
		}
	}
	expanded, err := ExpandPath(resolved)
	if err != nil {
		return nil, "", false, err
	}

	found := false
	data, err := os.ReadFile(expanded)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, expanded, false, fmt.Errorf("parse config %s: %w", expanded, err)
		}
		found = true
	case errors.Is(err, fs.ErrNotExist):
		// Defaults apply when no file exists.
	default:
		return nil, expanded, false, fmt.Errorf("read config %s: %w", expanded, err)
	}

	applyEnvOverrides(&cfg)
	if err := cfg.normalize(); err != nil {
		return nil, expanded, found, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, expanded, found, err
	}
	return &cfg, expanded, found, nil
}

func applyEnvOverrides(cfg *Config) {
	if key := strings.TrimSpace(os.Getenv("PAPERCAST_LLM_API_KEY")); key != "" {
		cfg.LLM.APIKey = key
	}
	if bind := strings.TrimSpace(os.Getenv("PAPERCAST_API_BIND")); bind != "" {
		cfg.Paths.APIBind = bind
	}
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.OutputDir, err = ExpandPath(c.Paths.OutputDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return err
	}
	c.LLM.Backend = strings.ToLower(strings.TrimSpace(c.LLM.Backend))
	c.TTS.Backend = strings.ToLower(strings.TrimSpace(c.TTS.Backend))
	c.TTS.Format = strings.ToLower(strings.TrimSpace(c.TTS.Format))
	return nil
}

// EnsureDirectories creates the output and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// ResolveLLMBackend returns the connection settings for the named text
// backend, falling back to the configured default when name is empty.
func (c *Config) ResolveLLMBackend(name string) (LLMBackend, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		normalized = c.LLM.Backend
	}

	backend, ok := builtinLLMBackends[normalized]
	if !ok {
		if override, exists := c.LLM.Backends[normalized]; exists {
			backend = override
		} else {
			return LLMBackend{}, fmt.Errorf("unknown text backend %q", name)
		}
	}
	if override, exists := c.LLM.Backends[normalized]; exists {
		if override.BaseURL != "" {
			backend.BaseURL = override.BaseURL
		}
		if override.Model != "" {
			backend.Model = override.Model
		}
		if override.APIKey != "" {
			backend.APIKey = override.APIKey
		}
	}
	if backend.APIKey == "" {
		backend.APIKey = c.LLM.APIKey
	}
	return backend, nil
}
