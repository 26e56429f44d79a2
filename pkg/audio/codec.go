package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// Codec reads and writes audio files. WAV is handled natively, MP3 is decoded
// natively and encoded through ffmpeg.
type Codec struct {
	FFmpegPath string
	Bitrate    string
}

// NewCodec creates a codec using the given ffmpeg binary (looked up in PATH when empty)
func NewCodec(ffmpegPath string) *Codec {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Codec{FFmpegPath: ffmpegPath, Bitrate: "192k"}
}

// Read decodes an audio file into a Buffer
func (c *Codec) Read(path string) (*Buffer, error) {
	switch FormatFromPath(path) {
	case FormatWAV:
		return readWAV(path)
	case FormatMP3:
		return readMP3(path)
	}
	return nil, &IOError{Op: "read", Path: path, Err: errors.New("unknown audio format")}
}

// Write encodes buf to path in the format given by its extension
func (c *Codec) Write(ctx context.Context, path string, buf *Buffer) error {
	switch FormatFromPath(path) {
	case FormatWAV:
		return writeWAV(path, buf)
	case FormatMP3:
		return c.writeMP3(ctx, path, buf)
	}
	return &IOError{Op: "write", Path: path, Err: errors.New("unknown audio format")}
}

// Transcode converts in to out through ffmpeg
func (c *Codec) Transcode(ctx context.Context, in, out string) error {
	args := []string{"-y", "-loglevel", "error", "-i", in}
	if FormatFromPath(out) == FormatMP3 {
		args = append(args, "-codec:a", "libmp3lame", "-b:a", c.Bitrate)
	}
	args = append(args, out)

	cmd := exec.CommandContext(ctx, c.FFmpegPath, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(output))
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return &IOError{Op: "transcode", Path: out, Err: err}
	}
	return nil
}

func readWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, &IOError{Op: "read", Path: path, Err: errors.New("invalid wav file")}
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, &IOError{Op: "decode", Path: path, Err: err}
	}

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, &IOError{Op: "decode", Path: path, Err: fmt.Errorf("unsupported bit depth: %d", bitDepth)}
	}
	scale := float64(int64(1) << (bitDepth - 1))

	samples := make([]float64, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = float64(v) / scale
	}

	return &Buffer{
		Samples:    samples,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
	}, nil
}

func writeWAV(path string, buf *Buffer) error {
	if buf.Channels <= 0 || buf.SampleRate <= 0 {
		return &IOError{Op: "write", Path: path, Err: errors.New("buffer has no format")}
	}

	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		data[i] = int(math.Round(math.Max(-1, math.Min(1, s)) * math.MaxInt16))
	}

	enc := wav.NewEncoder(f, buf.SampleRate, 16, buf.Channels, 1)
	ib := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{SampleRate: buf.SampleRate, NumChannels: buf.Channels},
		SourceBitDepth: 16,
	}

	if err := enc.Write(ib); err != nil {
		_ = f.Close()
		return &IOError{Op: "encode", Path: path, Err: err}
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return &IOError{Op: "encode", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func readMP3(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, &IOError{Op: "decode", Path: path, Err: err}
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, &IOError{Op: "decode", Path: path, Err: err}
	}

	// go-mp3 always yields 16-bit little endian stereo
	pcm := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw[:len(pcm)*2]), binary.LittleEndian, pcm); err != nil {
		return nil, &IOError{Op: "decode", Path: path, Err: err}
	}

	samples := make([]float64, len(pcm))
	for i, v := range pcm {
		samples[i] = float64(v) / 32768.0
	}

	return &Buffer{Samples: samples, SampleRate: dec.SampleRate(), Channels: 2}, nil
}

func (c *Codec) writeMP3(ctx context.Context, path string, buf *Buffer) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".notesmith-*.wav")
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := writeWAV(tmpPath, buf); err != nil {
		return err
	}
	return c.Transcode(ctx, tmpPath, path)
}
