package sequence

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

// Kind identifies an augmentation transform
type Kind string

const (
	KindTranspose      Kind = "transpose"
	KindTimeShift      Kind = "time_shift"
	KindVelocityChange Kind = "velocity_change"
)

// AllKinds lists every augmentation in output order
var AllKinds = []Kind{KindTranspose, KindTimeShift, KindVelocityChange}

// Augmentation parameters
var transpositions = []int{-3, -2, 2, 3} // chromatic steps are left out

const (
	MaxTimeShift      = 0.05
	MinVelocityFactor = 0.8
	MaxVelocityFactor = 1.2
)

// Source supplies uniform random numbers in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// globalSource draws from the math/rand/v2 top-level generator
type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Transpose shifts every pitch by semitones, clamping to 0-127
func Transpose(seq Sequence, semitones int) Sequence {
	return seq.mapNotes(func(n Note) Note {
		n.Pitch = clamp(n.Pitch+semitones, 0, 127)
		return n
	})
}

// TimeShift moves every note by the same offset in seconds.
// Notes pushed before zero start at zero.
func TimeShift(seq Sequence, shift float64) Sequence {
	return seq.mapNotes(func(n Note) Note {
		n.Start = math.Max(0, n.Start+shift)
		n.End = math.Max(n.Start, n.End+shift)
		return n
	})
}

// ScaleVelocity multiplies every velocity by factor, rounding and clamping to 1-127
func ScaleVelocity(seq Sequence, factor float64) Sequence {
	return seq.mapNotes(func(n Note) Note {
		n.Velocity = clamp(int(math.Round(float64(n.Velocity)*factor)), 1, 127)
		return n
	})
}

// Augment returns the original sequence followed by one or more variants per requested kind.
// With no kinds every augmentation is applied. The output order is fixed:
// original, transpositions (-3, -2, +2, +3), time shift, velocity change.
// A nil rng draws from the math/rand/v2 global generator.
func Augment(seq Sequence, rng Source, kinds ...Kind) []Sequence {
	if rng == nil {
		rng = globalSource{}
	}
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	out := []Sequence{seq.Clone()}

	if want[KindTranspose] {
		for _, semitones := range transpositions {
			out = append(out, Transpose(seq, semitones))
		}
	}

	if want[KindTimeShift] {
		shift := uniform(rng, -MaxTimeShift, MaxTimeShift)
		out = append(out, TimeShift(seq, shift))
	}

	if want[KindVelocityChange] {
		factor := uniform(rng, MinVelocityFactor, MaxVelocityFactor)
		out = append(out, ScaleVelocity(seq, factor))
	}

	return out
}

// ParseKinds converts names such as "transpose" or "velocity" into kinds
func ParseKinds(names []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
			continue
		case "transpose":
			kinds = append(kinds, KindTranspose)
		case "time_shift", "time-shift", "timeshift":
			kinds = append(kinds, KindTimeShift)
		case "velocity_change", "velocity-change", "velocity":
			kinds = append(kinds, KindVelocityChange)
		default:
			return nil, fmt.Errorf("unknown augmentation %q", name)
		}
	}
	return kinds, nil
}

func uniform(rng Source, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Labels names the sequences Augment returns for kinds, in the same order
func Labels(kinds ...Kind) []string {
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	labels := []string{"original"}
	if want[KindTranspose] {
		for _, semitones := range transpositions {
			labels = append(labels, fmt.Sprintf("transpose%+d", semitones))
		}
	}
	if want[KindTimeShift] {
		labels = append(labels, string(KindTimeShift))
	}
	if want[KindVelocityChange] {
		labels = append(labels, string(KindVelocityChange))
	}
	return labels
}
