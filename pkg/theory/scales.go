package theory

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultOctaves is the number of octaves generated for a scale when none is given
const DefaultOctaves = 2

// Chord grammar: root, optional quality, optional seventh (e.g. C, Cm, Cdim, C7, Cmaj7, Bbm7)
var chordRe = regexp.MustCompile(`(?i)^([a-g](?:#|b)?)(maj|min|m|dim|aug)?(7|maj7|min7)?$`)

func rootMIDI(root string) (int, error) {
	return NoteToMIDI(fmt.Sprintf("%s%d", strings.TrimSpace(root), RootOctave))
}

// ScaleToMIDINotes returns the MIDI values of a scale rooted at octave 4.
// Values outside 0-127 are dropped. Unknown scale types or roots yield nil.
func ScaleToMIDINotes(root, scaleType string, octaves int) []int {
	intervals, ok := scaleTypes[scaleType]
	if !ok {
		return nil
	}
	base, err := rootMIDI(root)
	if err != nil {
		return nil
	}

	notes := make([]int, 0, len(intervals)*max(octaves, 0))
	for octave := 0; octave < octaves; octave++ {
		for _, interval := range intervals {
			note := base + interval + octave*12
			if note >= MinMIDI && note <= MaxMIDI {
				notes = append(notes, note)
			}
		}
	}
	return notes
}

// ChordToMIDINotes returns the MIDI values of a chord rooted at octave 4
func ChordToMIDINotes(root, chordType string) []int {
	intervals, ok := chordTypes[chordType]
	if !ok {
		return nil
	}
	base, err := rootMIDI(root)
	if err != nil {
		return nil
	}

	notes := make([]int, 0, len(intervals))
	for _, interval := range intervals {
		if base+interval <= MaxMIDI {
			notes = append(notes, base+interval)
		}
	}
	return notes
}

// ParseChord splits a chord symbol into its root and chord table key
func ParseChord(symbol string) (string, string, error) {
	m := chordRe.FindStringSubmatch(strings.TrimSpace(symbol))
	if m == nil {
		return "", "", fmt.Errorf("%w: chord %q", ErrInvalidNoteFormat, symbol)
	}
	root := m[1]
	if _, err := PitchClass(root); err != nil {
		return "", "", err
	}

	chordType := resolveChord(strings.ToLower(m[2]), strings.ToLower(m[3]))
	if chordType == "" {
		return "", "", fmt.Errorf("%w: chord %q", ErrUnsupportedType, symbol)
	}
	return root, chordType, nil
}

func resolveChord(quality, seventh string) string {
	switch quality {
	case "", "maj":
		switch seventh {
		case "":
			return "major"
		case "7":
			if quality == "maj" {
				return "maj7"
			}
			return "7th"
		case "maj7":
			return "maj7"
		case "min7":
			if quality == "" {
				return "min7"
			}
		}
	case "min", "m":
		switch seventh {
		case "":
			return "minor"
		case "7", "min7":
			return "min7"
		case "maj7":
			return "minmaj7"
		}
	case "dim":
		switch seventh {
		case "":
			return "diminished"
		case "7":
			return "dim7"
		}
	case "aug":
		switch seventh {
		case "":
			return "augmented"
		case "7":
			return "aug7"
		}
	}
	return ""
}

// IsValidChord reports whether symbol is a chord the tables can voice
func IsValidChord(symbol string) bool {
	_, _, err := ParseChord(symbol)
	return err == nil
}

// IsValidScale reports whether s names a scale, e.g. "C major" or "F# blues"
func IsValidScale(s string) bool {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return false
	}
	if _, err := PitchClass(parts[0]); err != nil {
		return false
	}
	_, ok := scaleTypes[parts[1]]
	return ok
}

// ParseMusicInput parses comma separated notes, chords and scales into MIDI values.
// Each element is tried as a note, then a chord, then a scale; anything else is skipped.
func ParseMusicInput(input string) []int {
	var notes []int
	for _, elem := range strings.Split(input, ",") {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			continue
		}

		if midi, err := NoteToMIDI(elem); err == nil {
			notes = append(notes, midi)
			continue
		}

		if root, chordType, err := ParseChord(elem); err == nil {
			notes = append(notes, ChordToMIDINotes(root, chordType)...)
			continue
		}

		if IsValidScale(elem) {
			parts := strings.Fields(elem)
			notes = append(notes, ScaleToMIDINotes(parts[0], parts[1], DefaultOctaves)...)
		}
	}
	return notes
}
