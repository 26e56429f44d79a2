// Package sequence provides the note event model and data augmentation transforms
package sequence

import (
	"errors"
	"fmt"
)

// ErrInvalidNote is returned when a note violates its range invariants
var ErrInvalidNote = errors.New("invalid note")

// Note is a single timed note event. Notes are values: transforms return new notes.
type Note struct {
	Pitch    int     `json:"pitch"`    // MIDI note number (0-127)
	Start    float64 `json:"start"`    // Onset in seconds
	End      float64 `json:"end"`      // Release in seconds (>= Start)
	Velocity int     `json:"velocity"` // Velocity (1-127)
}

// NewNote creates a validated Note
func NewNote(pitch int, start, end float64, velocity int) (Note, error) {
	n := Note{Pitch: pitch, Start: start, End: end, Velocity: velocity}
	if err := n.Validate(); err != nil {
		return Note{}, err
	}
	return n, nil
}

// Validate checks the note invariants
func (n Note) Validate() error {
	switch {
	case n.Pitch < 0 || n.Pitch > 127:
		return fmt.Errorf("%w: pitch %d outside 0-127", ErrInvalidNote, n.Pitch)
	case n.Velocity < 1 || n.Velocity > 127:
		return fmt.Errorf("%w: velocity %d outside 1-127", ErrInvalidNote, n.Velocity)
	case n.Start < 0:
		return fmt.Errorf("%w: negative start %.3f", ErrInvalidNote, n.Start)
	case n.End < n.Start:
		return fmt.Errorf("%w: end %.3f before start %.3f", ErrInvalidNote, n.End, n.Start)
	}
	return nil
}

// Duration returns the length of the note in seconds
func (n Note) Duration() float64 {
	return n.End - n.Start
}

// Sequence is an ordered list of notes in performance order
type Sequence []Note

// Clone returns a copy of the sequence
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	return append(Sequence(nil), s...)
}

// Validate checks every note in the sequence
func (s Sequence) Validate() error {
	for i, n := range s {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("note %d: %w", i, err)
		}
	}
	return nil
}

// Duration returns the latest end time in the sequence
func (s Sequence) Duration() float64 {
	var end float64
	for _, n := range s {
		if n.End > end {
			end = n.End
		}
	}
	return end
}

// Pitches returns the pitch of every note in order
func (s Sequence) Pitches() []int {
	pitches := make([]int, len(s))
	for i, n := range s {
		pitches[i] = n.Pitch
	}
	return pitches
}

// mapNotes applies fn to a copy of every note
func (s Sequence) mapNotes(fn func(Note) Note) Sequence {
	out := make(Sequence, len(s))
	for i, n := range s {
		out[i] = fn(n)
	}
	return out
}
