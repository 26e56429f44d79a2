// Package theory provides conversion between note names, MIDI pitches, frequencies, scales and chords
package theory

import "sort"

// NoteNames is the chromatic scale starting at C, sharps only
var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Scale interval tables (semitones above the root)
var scaleTypes = map[string][]int{
	"major":          {0, 2, 4, 5, 7, 9, 11},
	"minor":          {0, 2, 3, 5, 7, 8, 10},
	"harmonic_minor": {0, 2, 3, 5, 7, 8, 11},
	"melodic_minor":  {0, 2, 3, 5, 7, 9, 11},
	"pentatonic":     {0, 2, 4, 7, 9},
	"blues":          {0, 3, 5, 6, 7, 10},
}

// Chord interval tables (semitones above the root)
var chordTypes = map[string][]int{
	"major":      {0, 4, 7},
	"minor":      {0, 3, 7},
	"diminished": {0, 3, 6},
	"augmented":  {0, 4, 8},
	"7th":        {0, 4, 7, 10},
	"maj7":       {0, 4, 7, 11},
	"min7":       {0, 3, 7, 10},
	"dim7":       {0, 3, 6, 9},
	"aug7":       {0, 4, 8, 10},
	"minmaj7":    {0, 3, 7, 11},
}

// enharmonic maps accidentals that are not in NoteNames to their sharp spelling.
// octave is added to the written octave (Cb4 sounds as B3).
var enharmonic = map[string]struct {
	name   string
	octave int
}{
	"CB": {"B", -1},
	"DB": {"C#", 0},
	"EB": {"D#", 0},
	"FB": {"E", 0},
	"GB": {"F#", 0},
	"AB": {"G#", 0},
	"BB": {"A#", 0},
	"E#": {"F", 0},
	"B#": {"C", 1},
}

// ScaleIntervals returns a copy of the intervals for a scale type
func ScaleIntervals(scaleType string) ([]int, bool) {
	intervals, ok := scaleTypes[scaleType]
	if !ok {
		return nil, false
	}
	return append([]int(nil), intervals...), true
}

// ChordIntervals returns a copy of the intervals for a chord type
func ChordIntervals(chordType string) ([]int, bool) {
	intervals, ok := chordTypes[chordType]
	if !ok {
		return nil, false
	}
	return append([]int(nil), intervals...), true
}

// ScaleTypes returns the known scale names in sorted order
func ScaleTypes() []string {
	return sortedKeys(scaleTypes)
}

// ChordTypes returns the known chord names in sorted order
func ChordTypes() []string {
	return sortedKeys(chordTypes)
}

func sortedKeys(m map[string][]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func noteIndex(name string) int {
	for i, n := range NoteNames {
		if n == name {
			return i
		}
	}
	return -1
}
