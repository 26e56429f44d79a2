package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/james-see/notesmith/pkg/audio"
	"github.com/james-see/notesmith/pkg/score"
	"github.com/james-see/notesmith/pkg/sequence"
	"github.com/sirupsen/logrus"
)

// Renderer defaults
const (
	DefaultOutputDir    = "audio_output"
	DefaultSynthTimeout = 60 * time.Second
)

// Options configures a Renderer
type Options struct {
	OutputDir    string
	TempDir      string
	Primary      Backend
	Fallback     Backend
	Codec        *audio.Codec
	TargetDBFS   float64 // zero selects audio.DefaultTargetDBFS
	SynthTimeout time.Duration
	Logger       logrus.FieldLogger
}

// Renderer runs the render pipeline: pitches -> notes -> score -> audio -> normalized file
type Renderer struct {
	opts Options
	log  logrus.FieldLogger
}

// New creates a Renderer, filling unset options with defaults
func New(opts Options) *Renderer {
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.Primary == nil && opts.Fallback == nil {
		opts.Fallback = NewOscillator(audio.DefaultSampleRate)
	}
	if opts.Codec == nil {
		opts.Codec = audio.NewCodec("")
	}
	if opts.TargetDBFS == 0 {
		opts.TargetDBFS = audio.DefaultTargetDBFS
	}
	if opts.SynthTimeout <= 0 {
		opts.SynthTimeout = DefaultSynthTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Renderer{opts: opts, log: opts.Logger.WithField("component", "render")}
}

// OutputDir returns the directory rendered files are written to
func (r *Renderer) OutputDir() string {
	return r.opts.OutputDir
}

// GenerateFromPredictions renders a list of predicted MIDI pitches and returns the output path
func (r *Renderer) GenerateFromPredictions(ctx context.Context, pitches []int, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return r.RenderSequence(ctx, BuildSequence(pitches, cfg), cfg)
}

// RenderSequence renders seq with the instrument, tempo and format from cfg.
// Intermediate files are removed on every path.
func (r *Renderer) RenderSequence(ctx context.Context, seq sequence.Sequence, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if err := seq.Validate(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
		return "", &audio.IOError{Op: "mkdir", Path: r.opts.OutputDir, Err: err}
	}

	id := uuid.NewString()
	log := r.log.WithField("render_id", id)

	scorePath := filepath.Join(r.opts.TempDir, "notesmith-score-"+id+".mid")
	wavPath := filepath.Join(r.opts.TempDir, "notesmith-render-"+id+".wav")
	defer r.cleanup(log, scorePath, wavPath)

	opts := score.Options{Program: uint8(Program(cfg.Instrument)), Tempo: float64(cfg.Tempo)}
	if err := score.WriteFile(scorePath, seq, opts); err != nil {
		return "", &audio.IOError{Op: "write score", Path: scorePath, Err: err}
	}
	log.WithFields(logrus.Fields{"score": scorePath, "notes": len(seq)}).Debug("score written")

	backend, err := r.synthesize(ctx, log, scorePath, wavPath)
	if err != nil {
		return "", err
	}

	buf, err := r.opts.Codec.Read(wavPath)
	if err != nil {
		return "", err
	}
	gain := audio.NormalizeBuffer(buf, r.opts.TargetDBFS)

	name := fmt.Sprintf("melody_%s_%s.%s", time.Now().Format("20060102_150405"), id[:8], cfg.Format)
	outputPath := filepath.Join(r.opts.OutputDir, name)
	if err := r.opts.Codec.Write(ctx, outputPath, buf); err != nil {
		_ = os.Remove(outputPath)
		return "", err
	}

	log.WithFields(logrus.Fields{
		"backend": backend,
		"output":  outputPath,
		"gain_db": fmt.Sprintf("%.2f", gain),
	}).Info("audio rendered")

	return outputPath, nil
}

// Normalize rewrites path at the renderer's target loudness
func (r *Renderer) Normalize(ctx context.Context, path string) (float64, error) {
	return r.opts.Codec.Normalize(ctx, path, r.opts.TargetDBFS)
}

// Concatenate joins audio files back to back into outputPath
func (r *Renderer) Concatenate(ctx context.Context, paths []string, outputPath string) error {
	return r.opts.Codec.Concatenate(ctx, paths, outputPath)
}

// synthesize tries the primary backend and degrades to the fallback when it is unavailable
func (r *Renderer) synthesize(ctx context.Context, log logrus.FieldLogger, scorePath, wavPath string) (string, error) {
	if r.opts.Primary != nil {
		err := r.runBackend(ctx, r.opts.Primary, scorePath, wavPath)
		if err == nil {
			return r.opts.Primary.Name(), nil
		}
		if !errors.Is(err, ErrBackendUnavailable) || r.opts.Fallback == nil {
			return "", err
		}
		log.WithError(err).WithField("backend", r.opts.Primary.Name()).Warn("synthesis backend unavailable, falling back")
	}

	if r.opts.Fallback == nil {
		return "", ErrBackendUnavailable
	}
	if err := r.runBackend(ctx, r.opts.Fallback, scorePath, wavPath); err != nil {
		return "", err
	}
	return r.opts.Fallback.Name(), nil
}

func (r *Renderer) runBackend(ctx context.Context, b Backend, scorePath, wavPath string) error {
	if err := b.Available(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.SynthTimeout)
	defer cancel()

	err := b.Render(ctx, scorePath, wavPath)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrBackendUnavailable) {
		return fmt.Errorf("%w: %s timed out after %s", ErrBackendUnavailable, b.Name(), r.opts.SynthTimeout)
	}
	return err
}

func (r *Renderer) cleanup(log logrus.FieldLogger, paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.WithError(err).WithField("path", p).Warn("failed to remove intermediate file")
		}
	}
}
