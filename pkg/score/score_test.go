package score

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/james-see/notesmith/pkg/sequence"
)

func TestEncodeDecode(t *testing.T) {
	seq := sequence.Sequence{
		{Pitch: 60, Start: 0.0, End: 0.25, Velocity: 100},
		{Pitch: 60, Start: 0.25, End: 0.5, Velocity: 90},
		{Pitch: 67, Start: 0.5, End: 1.0, Velocity: 64},
	}

	data, err := Encode(seq, Options{Program: 24, Tempo: 120})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if string(data[:4]) != "MThd" {
		t.Fatalf("Encode() header = %q, want MThd", data[:4])
	}

	sc, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if sc.Program != 24 {
		t.Errorf("Program = %d, want 24", sc.Program)
	}
	if math.Abs(sc.Tempo-120) > 0.01 {
		t.Errorf("Tempo = %v, want 120", sc.Tempo)
	}
	if len(sc.Notes) != len(seq) {
		t.Fatalf("decoded %d notes, want %d", len(sc.Notes), len(seq))
	}

	for i, want := range seq {
		got := sc.Notes[i]
		if got.Pitch != want.Pitch || got.Velocity != want.Velocity {
			t.Errorf("note %d = %+v, want %+v", i, got, want)
		}
		if math.Abs(got.Start-want.Start) > 0.002 || math.Abs(got.End-want.End) > 0.002 {
			t.Errorf("note %d timing = %.3f-%.3f, want %.3f-%.3f", i, got.Start, got.End, want.Start, want.End)
		}
	}
}

func TestEncodeTempoScalesTicks(t *testing.T) {
	seq := sequence.Sequence{{Pitch: 69, Start: 0.5, End: 1.0, Velocity: 100}}

	data, err := Encode(seq, Options{Tempo: 60})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	sc, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if math.Abs(sc.Notes[0].Start-0.5) > 0.002 {
		t.Errorf("Start = %v, want 0.5", sc.Notes[0].Start)
	}
	if math.Abs(sc.Tempo-60) > 0.01 {
		t.Errorf("Tempo = %v, want 60", sc.Tempo)
	}
}

func TestEncodeRejectsInvalidNotes(t *testing.T) {
	seq := sequence.Sequence{{Pitch: 200, Start: 0, End: 1, Velocity: 100}}
	if _, err := Encode(seq, Options{}); err == nil {
		t.Error("Encode() should reject out of range pitches")
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode([]byte("not a midi file")); err == nil {
		t.Error("Decode() should fail on garbage")
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "score.mid")
	seq := sequence.Sequence{{Pitch: 72, Start: 0, End: 1, Velocity: 110}}

	if err := WriteFile(path, seq, Options{Program: 80, Tempo: 90}); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	sc, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(sc.Notes) != 1 || sc.Notes[0].Pitch != 72 || sc.Program != 80 {
		t.Errorf("ReadFile() = %+v", sc)
	}
}

func TestTickConverter(t *testing.T) {
	tempos := []tempoChange{{tick: 0, bpm: 120}, {tick: 960, bpm: 60}}
	seconds := tickConverter(tempos, 480)

	tests := []struct {
		tick uint64
		want float64
	}{
		{0, 0},
		{480, 0.5},
		{960, 1.0},
		{1440, 2.0},
	}
	for _, tt := range tests {
		if got := seconds(tt.tick); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("seconds(%d) = %v, want %v", tt.tick, got, tt.want)
		}
	}
}

func TestEncodeShortNotes(t *testing.T) {
	tick := 60.0 / (120.0 * TicksPerQuarter)

	subTick := make(sequence.Sequence, 0, 13)
	for i := 0; i < 13; i++ {
		start := float64(i) * 0.0005
		subTick = append(subTick, sequence.Note{Pitch: 60 + i, Start: start, End: start + 0.0005, Velocity: 100})
	}

	tests := []struct {
		name string
		seq  sequence.Sequence
	}{
		{"zero length", sequence.Sequence{
			{Pitch: 60, Start: 0, End: 0, Velocity: 100},
			{Pitch: 62, Start: 0, End: 2, Velocity: 100},
		}},
		{"sub tick", subTick},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.seq, Options{Tempo: 120})
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			sc, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if len(sc.Notes) != len(tt.seq) {
				t.Fatalf("decoded %d notes, want %d", len(sc.Notes), len(tt.seq))
			}

			byPitch := make(map[int]sequence.Note, len(tt.seq))
			for _, n := range tt.seq {
				byPitch[n.Pitch] = n
			}
			for _, n := range sc.Notes {
				if byPitch[n.Pitch].Duration() >= tick {
					continue
				}
				if d := n.Duration(); d <= 0 || d > 2*tick+1e-9 {
					t.Errorf("pitch %d lasted %v, want at most two ticks (%v)", n.Pitch, d, 2*tick)
				}
			}
		})
	}
}
