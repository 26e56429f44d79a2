// Package audio provides PCM buffers, file encoding, loudness normalization and waveform synthesis
package audio

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// Format is an audio container format
type Format string

const (
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatUnknown Format = "unknown"
)

// DefaultSampleRate is used for synthesis when none is configured
const DefaultSampleRate = 44100

var (
	// ErrAudioIO marks failures reading, writing or transcoding audio files
	ErrAudioIO = errors.New("audio i/o error")
	// ErrUnsupportedWaveform is returned for unknown wave types
	ErrUnsupportedWaveform = errors.New("unsupported waveform")
	// ErrWaveformTooLong is returned when a waveform would exceed MaxSamples
	ErrWaveformTooLong = errors.New("waveform too long")
)

// IOError describes a failed audio file operation
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is makes every IOError match ErrAudioIO
func (e *IOError) Is(target error) bool {
	return target == ErrAudioIO
}

// ParseFormat validates a format tag
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case FormatWAV:
		return FormatWAV, nil
	case FormatMP3:
		return FormatMP3, nil
	}
	return FormatUnknown, fmt.Errorf("unsupported audio format %q", s)
}

// FormatFromPath detects the format from the file extension
func FormatFromPath(path string) Format {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return FormatUnknown
	}
	return f
}

// Buffer holds interleaved float samples in the range [-1, 1]
type Buffer struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// NewBuffer wraps mono samples in a Buffer
func NewBuffer(samples []float64, sampleRate int) *Buffer {
	return &Buffer{Samples: samples, SampleRate: sampleRate, Channels: 1}
}

// Frames returns the number of sample frames
func (b *Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the buffer length in seconds
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// RMS returns the root mean square of all samples
func (b *Buffer) RMS() float64 {
	if len(b.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range b.Samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(b.Samples)))
}

// DBFS returns the RMS loudness relative to full scale, -Inf for silence
func (b *Buffer) DBFS() float64 {
	rms := b.RMS()
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}

// Peak returns the largest absolute sample value
func (b *Buffer) Peak() float64 {
	var peak float64
	for _, s := range b.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// ApplyGain scales every sample by gain decibels
func (b *Buffer) ApplyGain(db float64) {
	factor := math.Pow(10, db/20)
	for i := range b.Samples {
		b.Samples[i] *= factor
	}
}

// Append adds other's samples to the end of b. Formats must match.
func (b *Buffer) Append(other *Buffer) error {
	if b.SampleRate != other.SampleRate || b.Channels != other.Channels {
		return fmt.Errorf("incompatible buffers: %d Hz/%d ch vs %d Hz/%d ch",
			b.SampleRate, b.Channels, other.SampleRate, other.Channels)
	}
	b.Samples = append(b.Samples, other.Samples...)
	return nil
}
