// Package config loads and saves notesmith settings
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/james-see/notesmith/pkg/audio"
	"github.com/james-see/notesmith/pkg/render"
	"github.com/sirupsen/logrus"
)

// Config is the main configuration structure
type Config struct {
	OutputDir    string        `yaml:"output_dir"`
	TempDir      string        `yaml:"temp_dir,omitempty"`
	Backend      string        `yaml:"backend"`
	FluidSynth   string        `yaml:"fluidsynth"`
	SoundFont    string        `yaml:"soundfont"`
	FFmpeg       string        `yaml:"ffmpeg"`
	SampleRate   int           `yaml:"sample_rate"`
	TargetDBFS   float64       `yaml:"target_dbfs"`
	SynthTimeout time.Duration `yaml:"synth_timeout"`
	LogLevel     string        `yaml:"log_level"`
	Render       render.Config `yaml:"render"`
}

// Default returns a config with sensible defaults
func Default() *Config {
	return &Config{
		OutputDir:    render.DefaultOutputDir,
		Backend:      render.BackendAuto,
		FluidSynth:   "fluidsynth",
		SoundFont:    "/usr/share/sounds/sf2/FluidR3_GM.sf2",
		FFmpeg:       "ffmpeg",
		SampleRate:   audio.DefaultSampleRate,
		TargetDBFS:   audio.DefaultTargetDBFS,
		SynthTimeout: render.DefaultSynthTimeout,
		LogLevel:     "info",
		Render:       render.DefaultConfig(),
	}
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "notesmith"), nil
}

// Path returns the full path to config.yaml
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from the default location, or returns defaults if not found
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. Missing files yield defaults; fields absent
// from the file keep their default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the default location
func (c *Config) Save() (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}
	return path, c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the backend name, log level and render defaults
func (c *Config) Validate() error {
	if _, _, err := render.SelectBackends(c.Backend, nil, nil); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return c.Render.Validate()
}

// Logger builds a logrus logger at the configured level
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

// NewRenderer wires backends, codec and logger into a render.Renderer
func (c *Config) NewRenderer(logger logrus.FieldLogger) (*render.Renderer, error) {
	fs := render.NewFluidSynth(c.FluidSynth, c.SoundFont, c.SampleRate)
	osc := render.NewOscillator(c.SampleRate)

	primary, fallback, err := render.SelectBackends(c.Backend, fs, osc)
	if err != nil {
		return nil, err
	}

	return render.New(render.Options{
		OutputDir:    c.OutputDir,
		TempDir:      c.TempDir,
		Primary:      primary,
		Fallback:     fallback,
		Codec:        audio.NewCodec(c.FFmpeg),
		TargetDBFS:   c.TargetDBFS,
		SynthTimeout: c.SynthTimeout,
		Logger:       logger,
	}), nil
}
