package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/james-see/notesmith/pkg/audio"
	"github.com/james-see/notesmith/pkg/score"
	"github.com/james-see/notesmith/pkg/theory"
)

// ErrBackendUnavailable means a synthesis backend cannot run; the renderer falls back
var ErrBackendUnavailable = errors.New("synthesis backend unavailable")

// Backend renders a MIDI score file into a WAV file
type Backend interface {
	Name() string
	Available() error
	Render(ctx context.Context, scorePath, wavPath string) error
}

// Backend names accepted by SelectBackends
const (
	BackendAuto       = "auto"
	BackendFluidSynth = "fluidsynth"
	BackendOscillator = "oscillator"
)

// SelectBackends returns the primary and fallback backends for a backend name
func SelectBackends(name string, fs *FluidSynth, osc *Oscillator) (Backend, Backend, error) {
	// nil pointers must not become non-nil interfaces
	var primary, fallback Backend
	var fsb, oscb Backend
	if fs != nil {
		fsb = fs
	}
	if osc != nil {
		oscb = osc
	}

	switch strings.ToLower(name) {
	case "", BackendAuto:
		primary, fallback = fsb, oscb
	case BackendFluidSynth:
		primary = fsb
	case BackendOscillator:
		primary = oscb
	default:
		return nil, nil, fmt.Errorf("unknown synthesis backend %q", name)
	}
	return primary, fallback, nil
}

// FluidSynth renders scores with a SoundFont through the fluidsynth command
type FluidSynth struct {
	Binary     string
	SoundFont  string
	SampleRate int
	Gain       float64
}

// NewFluidSynth creates a FluidSynth backend
func NewFluidSynth(binary, soundFont string, sampleRate int) *FluidSynth {
	if binary == "" {
		binary = "fluidsynth"
	}
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	return &FluidSynth{Binary: binary, SoundFont: soundFont, SampleRate: sampleRate, Gain: 0.6}
}

// Name returns the backend name
func (f *FluidSynth) Name() string {
	return BackendFluidSynth
}

// Available checks that the binary and the SoundFont exist
func (f *FluidSynth) Available() error {
	if f.SoundFont == "" {
		return fmt.Errorf("%w: no soundfont configured", ErrBackendUnavailable)
	}
	if _, err := os.Stat(f.SoundFont); err != nil {
		return fmt.Errorf("%w: soundfont: %v", ErrBackendUnavailable, err)
	}
	if _, err := exec.LookPath(f.Binary); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Render runs fluidsynth in fast file-rendering mode
func (f *FluidSynth) Render(ctx context.Context, scorePath, wavPath string) error {
	if err := f.Available(); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, f.Binary,
		"-ni",
		"-g", strconv.FormatFloat(f.Gain, 'f', 2, 64),
		"-F", wavPath,
		"-r", strconv.Itoa(f.SampleRate),
		f.SoundFont,
		scorePath,
	)
	output, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: fluidsynth: %v", ErrBackendUnavailable, ctx.Err())
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("fluidsynth failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	// fluidsynth exits 0 on some load failures, so check the output exists
	if info, err := os.Stat(wavPath); err != nil || info.Size() == 0 {
		return fmt.Errorf("fluidsynth produced no audio: %s", strings.TrimSpace(string(output)))
	}
	return nil
}

// Oscillator renders scores with analytic waveforms. It needs no external tools.
type Oscillator struct {
	SampleRate int
	Volume     float64
	Fade       float64 // seconds of linear fade at each note edge
}

// NewOscillator creates an oscillator backend
func NewOscillator(sampleRate int) *Oscillator {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	return &Oscillator{SampleRate: sampleRate, Volume: audio.DefaultVolume, Fade: 0.005}
}

// Name returns the backend name
func (o *Oscillator) Name() string {
	return BackendOscillator
}

// Available always succeeds
func (o *Oscillator) Available() error {
	return nil
}

// WaveForProgram picks a waveform approximating a General MIDI program family
func WaveForProgram(program int) audio.WaveType {
	switch {
	case program >= 24 && program <= 31: // guitar
		return audio.WavePulse
	case program >= 32 && program <= 39: // bass
		return audio.WaveSquare
	case program >= 48 && program <= 55: // strings
		return audio.WaveSawtooth
	case program >= 80 && program <= 87: // synth lead
		return audio.WaveSawtooth
	}
	return audio.WaveSine
}

// Render decodes the score and sums one waveform per note
func (o *Oscillator) Render(ctx context.Context, scorePath, wavPath string) error {
	sc, err := score.ReadFile(scorePath)
	if err != nil {
		return err
	}

	count := math.Ceil(sc.Notes.Duration() * float64(o.SampleRate))
	if count > audio.MaxSamples {
		return fmt.Errorf("%w: score lasts %.1fs", audio.ErrWaveformTooLong, sc.Notes.Duration())
	}
	total := int(count) + 1
	mix := make([]float64, total)
	wave := WaveForProgram(sc.Program)
	fadeSamples := int(o.Fade * float64(o.SampleRate))

	for _, n := range sc.Notes {
		if err := ctx.Err(); err != nil {
			return err
		}

		volume := o.Volume * float64(n.Velocity) / 127.0
		samples, err := audio.GenerateWaveform(theory.MIDIToFrequency(n.Pitch), n.Duration(), o.SampleRate, wave, volume)
		if err != nil {
			return err
		}
		applyFades(samples, fadeSamples)

		offset := int(n.Start * float64(o.SampleRate))
		for i, s := range samples {
			if offset+i < len(mix) {
				mix[offset+i] += s
			}
		}
	}

	return audio.NewCodec("").Write(ctx, wavPath, audio.NewBuffer(mix, o.SampleRate))
}

func applyFades(samples []float64, fade int) {
	if fade*2 > len(samples) {
		fade = len(samples) / 2
	}
	for i := 0; i < fade; i++ {
		g := float64(i) / float64(fade)
		samples[i] *= g
		samples[len(samples)-1-i] *= g
	}
}
