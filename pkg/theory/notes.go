package theory

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MIDI pitch limits and octave bounds accepted in note names
const (
	MinMIDI   = 0
	MaxMIDI   = 127
	MinOctave = -1
	MaxOctave = 9

	// RootOctave anchors scale and chord roots (C4 = middle C = 60)
	RootOctave = 4

	// ConcertA is the reference pitch for equal temperament
	ConcertA     = 440.0
	ConcertAMIDI = 69
)

var (
	// ErrInvalidNoteFormat is returned when a note name does not match the grammar
	ErrInvalidNoteFormat = errors.New("invalid note format")
	// ErrOutOfRangeMIDI is returned when a MIDI value falls outside 0-127
	ErrOutOfRangeMIDI = errors.New("midi value out of range")
	// ErrUnsupportedType is returned for unknown scale or chord types
	ErrUnsupportedType = errors.New("unsupported scale or chord type")
)

var (
	noteRe = regexp.MustCompile(`^([A-Ga-g])(#|b)?(-?\d+)$`)
	rootRe = regexp.MustCompile(`^([A-Ga-g])(#|b)?$`)
)

// spell resolves a letter and accidental to a sharp-only name plus octave adjustment
func spell(letter, accidental string) (string, int, bool) {
	letter = strings.ToUpper(letter)
	switch accidental {
	case "":
		return letter, 0, true
	case "#":
		if noteIndex(letter+"#") >= 0 {
			return letter + "#", 0, true
		}
		e, ok := enharmonic[letter+"#"]
		return e.name, e.octave, ok
	case "b":
		e, ok := enharmonic[letter+"B"]
		return e.name, e.octave, ok
	}
	return "", 0, false
}

// NoteToMIDI converts a note name such as "C4", "F#3" or "Bb-1" to a MIDI value
func NoteToMIDI(name string) (int, error) {
	m := noteRe.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNoteFormat, name)
	}

	octave, err := strconv.Atoi(m[3])
	if err != nil || octave < MinOctave || octave > MaxOctave {
		return 0, fmt.Errorf("%w: octave in %q must be between %d and %d", ErrInvalidNoteFormat, name, MinOctave, MaxOctave)
	}

	sharp, shift, ok := spell(m[1], m[2])
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNoteFormat, name)
	}

	midi := 12 + (octave+shift)*12 + noteIndex(sharp)
	if midi < MinMIDI || midi > MaxMIDI {
		return 0, fmt.Errorf("%w: %q resolves to %d", ErrOutOfRangeMIDI, name, midi)
	}
	return midi, nil
}

// MIDIToNote converts a MIDI value to its sharp-spelled note name
func MIDIToNote(midi int) (string, error) {
	if midi < MinMIDI || midi > MaxMIDI {
		return "", fmt.Errorf("%w: %d", ErrOutOfRangeMIDI, midi)
	}
	octave := midi/12 - 1
	return fmt.Sprintf("%s%d", NoteNames[midi%12], octave), nil
}

// MIDIToFrequency returns the equal-temperament frequency of a MIDI value (A4 = 440 Hz)
func MIDIToFrequency(midi int) float64 {
	return ConcertA * math.Pow(2, float64(midi-ConcertAMIDI)/12.0)
}

// NoteToFrequency returns the frequency of a note name
func NoteToFrequency(name string) (float64, error) {
	midi, err := NoteToMIDI(name)
	if err != nil {
		return 0, err
	}
	return MIDIToFrequency(midi), nil
}

// PitchClass returns the chromatic index (0-11) of a root name without octave
func PitchClass(root string) (int, error) {
	m := rootRe.FindStringSubmatch(strings.TrimSpace(root))
	if m == nil {
		return 0, fmt.Errorf("%w: root %q", ErrInvalidNoteFormat, root)
	}
	sharp, _, ok := spell(m[1], m[2])
	if !ok {
		return 0, fmt.Errorf("%w: root %q", ErrInvalidNoteFormat, root)
	}
	return noteIndex(sharp), nil
}

// IsValidNote reports whether name parses as a note with a valid MIDI value
func IsValidNote(name string) bool {
	_, err := NoteToMIDI(name)
	return err == nil
}

// NoteInfo describes a single MIDI pitch
type NoteInfo struct {
	MIDI      int     `json:"midi"`
	Name      string  `json:"name"`
	Frequency float64 `json:"frequency"`
}

// Describe returns the name and frequency of a MIDI value
func Describe(midi int) (NoteInfo, error) {
	name, err := MIDIToNote(midi)
	if err != nil {
		return NoteInfo{}, err
	}
	return NoteInfo{MIDI: midi, Name: name, Frequency: MIDIToFrequency(midi)}, nil
}
