// Package render turns pitch lists and note sequences into normalized audio files
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/james-see/notesmith/pkg/audio"
	"github.com/james-see/notesmith/pkg/sequence"
)

// ErrInvalidConfig is returned when a render configuration fails validation
var ErrInvalidConfig = errors.New("invalid render configuration")

var validate = validator.New()

// Config controls how a melody is rendered
type Config struct {
	Instrument string `json:"instrument" yaml:"instrument"`
	// Tempo in BPM
	Tempo int `json:"tempo" yaml:"tempo" validate:"gt=0"`
	// NoteDuration is the length of each note in beats
	NoteDuration float64      `json:"note_duration" yaml:"note_duration" validate:"gt=0"`
	Velocity     int          `json:"velocity" yaml:"velocity" validate:"min=1,max=127"`
	Format       audio.Format `json:"format" yaml:"format" validate:"oneof=wav mp3"`
}

// DefaultConfig returns the default render settings
func DefaultConfig() Config {
	return Config{
		Instrument:   "piano",
		Tempo:        120,
		NoteDuration: 0.5,
		Velocity:     100,
		Format:       audio.FormatMP3,
	}
}

// Validate checks the configuration ranges
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// NoteLength returns the length of one note in seconds
func (c Config) NoteLength() float64 {
	return c.NoteDuration * 60.0 / float64(c.Tempo)
}

// Instrument program numbers (General MIDI)
var instrumentPrograms = map[string]int{
	"piano":   0,
	"synth":   80,
	"guitar":  24,
	"strings": 48,
	"bass":    32,
}

// Instruments returns the known instrument names and their programs
func Instruments() map[string]int {
	out := make(map[string]int, len(instrumentPrograms))
	for k, v := range instrumentPrograms {
		out[k] = v
	}
	return out
}

// Program returns the General MIDI program for an instrument name, 0 when unknown
func Program(instrument string) int {
	return instrumentPrograms[strings.ToLower(strings.TrimSpace(instrument))]
}

// BuildSequence lays out one note per pitch back to back from t=0.
// Pitches outside 0-127 are skipped but still take up their time slot.
func BuildSequence(pitches []int, cfg Config) sequence.Sequence {
	length := cfg.NoteLength()
	seq := make(sequence.Sequence, 0, len(pitches))

	current := 0.0
	for _, pitch := range pitches {
		if pitch >= 0 && pitch <= 127 {
			seq = append(seq, sequence.Note{
				Pitch:    pitch,
				Start:    current,
				End:      current + length,
				Velocity: cfg.Velocity,
			})
		}
		current += length
	}
	return seq
}
