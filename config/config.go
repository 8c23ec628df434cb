package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the validated, read-only application configuration. It is loaded
// once at startup and injected into the components that need it.
type Config struct {
	Hotkey               string  `yaml:"hotkey"`
	Model                string  `yaml:"model"`
	ModelPath            string  `yaml:"model_path"`
	Device               string  `yaml:"device"`
	Language             string  `yaml:"language"`
	SampleRate           int     `yaml:"sample_rate"`
	MaxRecordingDuration float64 `yaml:"max_recording_duration"` // seconds
	EnableLogging        bool    `yaml:"enable_logging"`
	EnableNotifications  bool    `yaml:"enable_notifications"`
	AudioFormat          string  `yaml:"audio_format"` // "wav" or "flac"
	PauseMedia           bool    `yaml:"pause_media_while_recording"`
	FeedbackBeeps        bool    `yaml:"feedback_beeps"`
}

func Default() Config {
	return Config{
		Hotkey:               "ctrl+shift+space",
		Model:                "small",
		ModelPath:            "",
		Device:               "cpu",
		Language:             "",
		SampleRate:           16000,
		MaxRecordingDuration: 300,
		EnableLogging:        true,
		EnableNotifications:  true,
		AudioFormat:          "wav",
		PauseMedia:           false,
		FeedbackBeeps:        true,
	}
}

// MaxDuration returns the recording cap as a time.Duration.
func (c Config) MaxDuration() time.Duration {
	return time.Duration(c.MaxRecordingDuration * float64(time.Second))
}

func (c Config) validate() error {
	if c.Hotkey == "" {
		return fmt.Errorf("hotkey must not be empty")
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.MaxRecordingDuration <= 0 {
		return fmt.Errorf("max_recording_duration must be positive, got %g", c.MaxRecordingDuration)
	}
	switch c.AudioFormat {
	case "wav", "flac":
	default:
		return fmt.Errorf("unknown audio_format %q (use wav or flac)", c.AudioFormat)
	}
	switch c.Device {
	case "cpu", "gpu":
	default:
		return fmt.Errorf("unknown device %q (use cpu or gpu)", c.Device)
	}
	return nil
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "murmur", "config.yaml"), nil
}

// Load reads the config file at path, merging it over the defaults. A missing
// file is not an error: the defaults are written there for the user to edit.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if werr := write(path, cfg); werr != nil {
			return cfg, fmt.Errorf("writing default config: %w", werr)
		}
		return cfg, cfg.validate()
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
