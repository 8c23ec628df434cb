package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want defaults", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config not written: %v", err)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "hotkey: ctrl+alt+m\nmax_recording_duration: 60\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hotkey != "ctrl+alt+m" {
		t.Errorf("Hotkey = %q, want ctrl+alt+m", cfg.Hotkey)
	}
	if cfg.MaxRecordingDuration != 60 {
		t.Errorf("MaxRecordingDuration = %g, want 60", cfg.MaxRecordingDuration)
	}
	// untouched fields keep defaults
	if cfg.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", cfg.SampleRate)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	for _, tt := range []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad format", "audio_format: ogg\n", "audio_format"},
		{"bad rate", "sample_rate: 0\n", "sample_rate"},
		{"bad duration", "max_recording_duration: -1\n", "max_recording_duration"},
		{"bad device", "device: tpu\n", "device"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestMaxDuration(t *testing.T) {
	cfg := Default()
	cfg.MaxRecordingDuration = 2.5
	if got := cfg.MaxDuration(); got != 2500*time.Millisecond {
		t.Errorf("MaxDuration = %v, want 2.5s", got)
	}
}
