package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/james-see/notesmith/pkg/audio"
	"github.com/sirupsen/logrus"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Backend != "auto" || cfg.Render.Tempo != 120 {
		t.Errorf("LoadFile() = %+v, want defaults", cfg)
	}
}

func TestLoadFilePartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`backend: oscillator
synth_timeout: 30s
render:
  instrument: synth
  tempo: 90
  note_duration: 1
  velocity: 80
  format: wav
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Backend != "oscillator" {
		t.Errorf("Backend = %q, want oscillator", cfg.Backend)
	}
	if cfg.SynthTimeout != 30*time.Second {
		t.Errorf("SynthTimeout = %v, want 30s", cfg.SynthTimeout)
	}
	if cfg.Render.Instrument != "synth" || cfg.Render.Tempo != 90 || cfg.Render.Format != audio.FormatWAV {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.TargetDBFS != audio.DefaultTargetDBFS {
		t.Errorf("TargetDBFS = %v, want default", cfg.TargetDBFS)
	}
}

func TestLoadFileInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad backend", "backend: timidity\n"},
		{"bad level", "log_level: loud\n"},
		{"bad tempo", "render:\n  tempo: 0\n"},
		{"bad yaml", "backend: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFile(path); err == nil {
				t.Error("LoadFile() should fail")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.OutputDir = "/tmp/renders"
	cfg.Render.Velocity = 64

	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.OutputDir != "/tmp/renders" || loaded.Render.Velocity != 64 || loaded.SynthTimeout != cfg.SynthTimeout {
		t.Errorf("round trip = %+v", loaded)
	}
}

func TestNewRenderer(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = t.TempDir()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	r, err := cfg.NewRenderer(logger)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	if r.OutputDir() != cfg.OutputDir {
		t.Errorf("OutputDir() = %q", r.OutputDir())
	}

	cfg.Backend = "nope"
	if _, err := cfg.NewRenderer(logger); err == nil {
		t.Error("NewRenderer() should reject unknown backends")
	}
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	if cfg.Logger().GetLevel() != logrus.DebugLevel {
		t.Error("Logger() did not apply the configured level")
	}
}
