// Package score encodes note sequences as Standard MIDI Files and reads them back
package score

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/james-see/notesmith/pkg/sequence"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	// TicksPerQuarter is the resolution of encoded scores
	TicksPerQuarter = 480
	// DefaultTempo is assumed when a file carries no tempo event
	DefaultTempo = 120.0
)

// Score is a decoded MIDI file reduced to a single note sequence
type Score struct {
	Notes   sequence.Sequence
	Program int
	Tempo   float64 // first tempo in BPM
}

// Options controls score encoding
type Options struct {
	Program uint8
	Channel uint8
	Tempo   float64
}

type timedMessage struct {
	tick  uint32
	off   bool
	order int
	msg   smf.Message
}

// Encode writes seq as a single-track SMF with a tempo, time signature and program change
func Encode(seq sequence.Sequence, opts Options) ([]byte, error) {
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	if opts.Tempo <= 0 {
		opts.Tempo = DefaultTempo
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var track smf.Track

	// Tempo meta event (FF 51 03 tttttt)
	microsecondsPerBeat := uint32(60000000.0 / opts.Tempo)
	track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))

	// 4/4 time signature
	track.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))

	track.Add(0, smf.Message(midi.ProgramChange(opts.Channel, opts.Program)))

	ticksPerSecond := float64(TicksPerQuarter) * opts.Tempo / 60.0
	toTick := func(seconds float64) uint32 {
		return uint32(math.Round(seconds * ticksPerSecond))
	}

	events := make([]timedMessage, 0, len(seq)*2)
	for i, n := range seq {
		// Offs sort before ons on a tick, so a note must end at least one tick after it starts
		onTick := toTick(n.Start)
		offTick := max(toTick(n.End), onTick+1)
		events = append(events,
			timedMessage{tick: onTick, order: i, msg: smf.Message(midi.NoteOn(opts.Channel, uint8(n.Pitch), uint8(n.Velocity)))},
			timedMessage{tick: offTick, off: true, order: i, msg: smf.Message(midi.NoteOff(opts.Channel, uint8(n.Pitch)))},
		)
	}

	// Note offs sort before note ons on the same tick so repeated pitches retrigger
	sort.SliceStable(events, func(a, b int) bool {
		if events[a].tick != events[b].tick {
			return events[a].tick < events[b].tick
		}
		if events[a].off != events[b].off {
			return events[a].off
		}
		return events[a].order < events[b].order
	})

	var currentTick uint32
	for _, ev := range events {
		track.Add(ev.tick-currentTick, ev.msg)
		currentTick = ev.tick
	}

	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile encodes seq and writes it to filename
func WriteFile(filename string, seq sequence.Sequence, opts Options) error {
	data, err := Encode(seq, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// ReadFile reads and decodes a MIDI file
func ReadFile(filename string) (*Score, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return Decode(data)
}

type tempoChange struct {
	tick uint64
	bpm  float64
}

type pendingNote struct {
	tick     uint64
	velocity int
	order    int
}

type rawNote struct {
	pitch    int
	velocity int
	on, off  uint64
	order    int
}

// Decode parses SMF data, merging every track into one sequence ordered by onset
func Decode(data []byte) (*Score, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	resolution := uint16(TicksPerQuarter)
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		resolution = mt.Resolution()
	}
	if resolution == 0 {
		return nil, errors.New("invalid MIDI resolution")
	}

	result := &Score{Program: -1}
	var tempos []tempoChange
	var notes []rawNote
	order := 0

	for _, track := range s.Tracks {
		var tick uint64
		pending := make(map[[2]uint8][]pendingNote)

		for _, ev := range track {
			tick += uint64(ev.Delta)
			msg := ev.Message

			// Tempo meta message (FF 51 03 ...)
			if len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				microsecondsPerBeat := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if microsecondsPerBeat > 0 {
					tempos = append(tempos, tempoChange{tick: tick, bpm: 60000000.0 / float64(microsecondsPerBeat)})
				}
				continue
			}

			if len(msg) >= 2 && msg[0] >= 0xC0 && msg[0] <= 0xCF {
				if result.Program < 0 {
					result.Program = int(msg[1])
				}
				continue
			}

			if len(msg) < 3 {
				continue
			}
			status, key, velocity := msg[0], msg[1], msg[2]
			channel := status & 0x0F
			id := [2]uint8{channel, key}

			switch {
			case status >= 0x90 && status <= 0x9F && velocity > 0:
				pending[id] = append(pending[id], pendingNote{tick: tick, velocity: int(velocity), order: order})
				order++
			case (status >= 0x80 && status <= 0x8F) || (status >= 0x90 && status <= 0x9F && velocity == 0):
				queue := pending[id]
				if len(queue) == 0 {
					continue
				}
				p := queue[0]
				pending[id] = queue[1:]
				notes = append(notes, rawNote{pitch: int(key), velocity: p.velocity, on: p.tick, off: tick, order: p.order})
			}
		}

		// Close notes left sounding at the end of the track
		for id, queue := range pending {
			for _, p := range queue {
				notes = append(notes, rawNote{pitch: int(id[1]), velocity: p.velocity, on: p.tick, off: tick, order: p.order})
			}
		}
	}

	if result.Program < 0 {
		result.Program = 0
	}

	sort.SliceStable(tempos, func(a, b int) bool { return tempos[a].tick < tempos[b].tick })
	result.Tempo = DefaultTempo
	if len(tempos) > 0 {
		result.Tempo = tempos[0].bpm
	}
	seconds := tickConverter(tempos, resolution)

	sort.Slice(notes, func(a, b int) bool {
		if notes[a].on != notes[b].on {
			return notes[a].on < notes[b].on
		}
		return notes[a].order < notes[b].order
	})

	result.Notes = make(sequence.Sequence, 0, len(notes))
	for _, n := range notes {
		result.Notes = append(result.Notes, sequence.Note{
			Pitch:    n.pitch,
			Start:    seconds(n.on),
			End:      seconds(n.off),
			Velocity: n.velocity,
		})
	}

	return result, nil
}

// tickConverter returns a function mapping absolute ticks to seconds under a tempo map
func tickConverter(tempos []tempoChange, resolution uint16) func(uint64) float64 {
	return func(tick uint64) float64 {
		var seconds float64
		var last uint64
		bpm := DefaultTempo
		for _, tc := range tempos {
			if tc.tick >= tick {
				break
			}
			seconds += float64(tc.tick-last) / float64(resolution) * 60.0 / bpm
			last = tc.tick
			bpm = tc.bpm
		}
		return seconds + float64(tick-last)/float64(resolution)*60.0/bpm
	}
}
