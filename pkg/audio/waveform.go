package audio

import (
	"fmt"
	"math"
	"strings"
)

// WaveType selects an analytic waveform
type WaveType string

const (
	WaveSine     WaveType = "sine"
	WaveSquare   WaveType = "square"
	WaveSawtooth WaveType = "sawtooth"
	WavePulse    WaveType = "pulse"
)

// DefaultVolume is the amplitude of generated tones
const DefaultVolume = 0.8

// MaxSamples caps a generated waveform at ten minutes of 192 kHz audio
const MaxSamples = 192000 * 600

// WaveTypes lists the supported waveforms
var WaveTypes = []WaveType{WaveSine, WaveSquare, WaveSawtooth, WavePulse}

// ParseWaveType validates a waveform name
func ParseWaveType(s string) (WaveType, error) {
	w := WaveType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range WaveTypes {
		if w == known {
			return w, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedWaveform, s)
}

// GenerateWaveform returns int(sampleRate*duration) samples of the waveform at t = i/sampleRate,
// scaled by volume.
func GenerateWaveform(frequency, duration float64, sampleRate int, waveType WaveType, volume float64) ([]float64, error) {
	var fn func(t float64) float64
	switch waveType {
	case WaveSine:
		fn = func(t float64) float64 { return math.Sin(2 * math.Pi * frequency * t) }
	case WaveSquare:
		fn = func(t float64) float64 { return squareSign(math.Sin(2 * math.Pi * frequency * t)) }
	case WaveSawtooth:
		fn = func(t float64) float64 { return 2 * (frequency*t - math.Floor(0.5+frequency*t)) }
	case WavePulse:
		fn = func(t float64) float64 {
			if math.Sin(2*math.Pi*frequency*t) > 0 {
				return 1
			}
			return -1
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedWaveform, waveType)
	}

	count := float64(sampleRate) * duration
	if math.IsNaN(count) || count > MaxSamples {
		return nil, fmt.Errorf("%w: %v Hz for %v s", ErrWaveformTooLong, sampleRate, duration)
	}
	n := max(int(count), 0)
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = fn(t) * volume
	}
	return samples, nil
}

// Tone generates a mono buffer holding a single waveform
func Tone(frequency, duration float64, sampleRate int, waveType WaveType, volume float64) (*Buffer, error) {
	samples, err := GenerateWaveform(frequency, duration, sampleRate, waveType, volume)
	if err != nil {
		return nil, err
	}
	return NewBuffer(samples, sampleRate), nil
}

// squareSign is sign(v) with exact zero crossings mapped to +1 so square waves never rest at 0
func squareSign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
