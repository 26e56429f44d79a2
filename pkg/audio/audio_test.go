package audio

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateWaveformSquare(t *testing.T) {
	samples, err := GenerateWaveform(440, 1.0, 44100, WaveSquare, 0.8)
	if err != nil {
		t.Fatalf("GenerateWaveform() error = %v", err)
	}
	if len(samples) != 44100 {
		t.Fatalf("len = %d, want 44100", len(samples))
	}
	for i, s := range samples {
		if s != 0.8 && s != -0.8 {
			t.Fatalf("sample %d = %v, want +/-0.8", i, s)
		}
	}
}

func TestGenerateWaveformShapes(t *testing.T) {
	const rate = 8000
	f := 100.0
	tests := []struct {
		name     string
		waveType WaveType
		check    func(t float64) float64
	}{
		{"sine", WaveSine, func(t float64) float64 { return math.Sin(2 * math.Pi * f * t) }},
		{"sawtooth", WaveSawtooth, func(t float64) float64 { return 2 * (f*t - math.Floor(0.5+f*t)) }},
		{"pulse", WavePulse, func(t float64) float64 {
			if math.Sin(2*math.Pi*f*t) > 0 {
				return 1
			}
			return -1
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := GenerateWaveform(f, 0.05, rate, tt.waveType, 0.5)
			if err != nil {
				t.Fatalf("GenerateWaveform() error = %v", err)
			}
			if len(samples) != 400 {
				t.Fatalf("len = %d, want 400", len(samples))
			}
			for i, s := range samples {
				want := tt.check(float64(i)/rate) * 0.5
				if math.Abs(s-want) > 1e-12 {
					t.Fatalf("sample %d = %v, want %v", i, s, want)
				}
			}
		})
	}
}

func TestGenerateWaveformPulseStartsLow(t *testing.T) {
	samples, _ := GenerateWaveform(440, 0.01, 44100, WavePulse, 1)
	if samples[0] != -1 {
		t.Errorf("pulse sample 0 = %v, want -1", samples[0])
	}
}

func TestGenerateWaveformUnsupported(t *testing.T) {
	_, err := GenerateWaveform(440, 1, 44100, WaveType("triangle"), 0.8)
	if !errors.Is(err, ErrUnsupportedWaveform) {
		t.Errorf("error = %v, want ErrUnsupportedWaveform", err)
	}
	if _, err := ParseWaveType("noise"); !errors.Is(err, ErrUnsupportedWaveform) {
		t.Errorf("ParseWaveType error = %v, want ErrUnsupportedWaveform", err)
	}
	if w, err := ParseWaveType(" Sine "); err != nil || w != WaveSine {
		t.Errorf("ParseWaveType(Sine) = %q, %v", w, err)
	}
}

func TestGenerateWaveformTooLong(t *testing.T) {
	tests := []struct {
		name       string
		duration   float64
		sampleRate int
	}{
		{"huge duration", 1e13, 44100},
		{"huge sample rate", 60, 2_000_000_000},
		{"infinite duration", math.Inf(1), 44100},
		{"nan duration", math.NaN(), 44100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateWaveform(440, tt.duration, tt.sampleRate, WaveSine, 0.8)
			if !errors.Is(err, ErrWaveformTooLong) {
				t.Errorf("error = %v, want ErrWaveformTooLong", err)
			}
		})
	}

	if samples, err := GenerateWaveform(440, -1, 44100, WaveSine, 0.8); err != nil || len(samples) != 0 {
		t.Errorf("negative duration = %d samples, %v; want empty", len(samples), err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"wav", FormatWAV, false},
		{".MP3", FormatMP3, false},
		{"ogg", FormatUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr || f != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, %v", tt.input, f, err)
			}
		})
	}

	if FormatFromPath("/tmp/a.wav") != FormatWAV || FormatFromPath("a.flac") != FormatUnknown {
		t.Error("FormatFromPath mismatch")
	}
}

func TestBufferLoudness(t *testing.T) {
	buf := NewBuffer([]float64{0.5, -0.5, 0.5, -0.5}, 4)
	if math.Abs(buf.DBFS()-20*math.Log10(0.5)) > 1e-9 {
		t.Errorf("DBFS() = %v", buf.DBFS())
	}
	if buf.Peak() != 0.5 {
		t.Errorf("Peak() = %v", buf.Peak())
	}
	if buf.Duration() != 1 {
		t.Errorf("Duration() = %v", buf.Duration())
	}

	silent := NewBuffer(make([]float64, 10), 10)
	if !math.IsInf(silent.DBFS(), -1) {
		t.Errorf("silent DBFS() = %v, want -Inf", silent.DBFS())
	}
	if gain := NormalizeBuffer(silent, -20); gain != 0 {
		t.Errorf("NormalizeBuffer(silence) gain = %v, want 0", gain)
	}
}

func writeTone(t *testing.T, path string, freq, amplitude float64) {
	t.Helper()
	buf, err := Tone(freq, 0.5, 22050, WaveSine, amplitude)
	if err != nil {
		t.Fatal(err)
	}
	if err := NewCodec("").Write(context.Background(), path, buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTone(t, path, 440, 0.5)

	buf, err := NewCodec("").Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if buf.SampleRate != 22050 || buf.Channels != 1 || buf.Frames() != 11025 {
		t.Errorf("Read() format = %d Hz, %d ch, %d frames", buf.SampleRate, buf.Channels, buf.Frames())
	}
	if math.Abs(buf.Peak()-0.5) > 0.005 {
		t.Errorf("Peak() = %v, want ~0.5", buf.Peak())
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTone(t, path, 440, 0.5)

	codec := NewCodec("")
	ctx := context.Background()

	first, err := codec.Normalize(ctx, path, DefaultTargetDBFS)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if math.Abs(first) < 1 {
		t.Errorf("first gain = %v, expected a real adjustment", first)
	}

	buf, err := codec.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(buf.DBFS()-DefaultTargetDBFS) > 0.05 {
		t.Errorf("normalized DBFS = %v, want %v", buf.DBFS(), DefaultTargetDBFS)
	}

	second, err := codec.Normalize(ctx, path, DefaultTargetDBFS)
	if err != nil {
		t.Fatalf("second Normalize() error = %v", err)
	}
	if math.Abs(second) > 0.05 {
		t.Errorf("second gain = %v, want ~0", second)
	}
}

func TestConcatenate(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")
	out := filepath.Join(dir, "out.wav")
	writeTone(t, a, 440, 0.5)
	writeTone(t, b, 660, 0.5)

	codec := NewCodec("")
	if err := codec.Concatenate(context.Background(), []string{a, b}, out); err != nil {
		t.Fatalf("Concatenate() error = %v", err)
	}

	buf, err := codec.Read(out)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Frames() != 2*11025 {
		t.Errorf("Frames() = %d, want %d", buf.Frames(), 2*11025)
	}
}

func TestConcatenateEmptyIsNoop(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.wav")
	if err := NewCodec("").Concatenate(context.Background(), nil, out); err != nil {
		t.Fatalf("Concatenate(nil) error = %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("Concatenate(nil) should not create the output file")
	}
}

func TestConcatenateMismatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")
	writeTone(t, a, 440, 0.5)

	other, _ := Tone(440, 0.1, 8000, WaveSine, 0.5)
	if err := NewCodec("").Write(context.Background(), b, other); err != nil {
		t.Fatal(err)
	}

	err := NewCodec("").Concatenate(context.Background(), []string{a, b}, filepath.Join(dir, "out.wav"))
	if !errors.Is(err, ErrAudioIO) {
		t.Errorf("Concatenate() error = %v, want ErrAudioIO", err)
	}
}

func TestReadErrors(t *testing.T) {
	codec := NewCodec("")
	dir := t.TempDir()

	if _, err := codec.Read(filepath.Join(dir, "missing.wav")); !errors.Is(err, ErrAudioIO) {
		t.Errorf("Read(missing) error = %v, want ErrAudioIO", err)
	}
	if _, err := codec.Read(filepath.Join(dir, "file.ogg")); !errors.Is(err, ErrAudioIO) {
		t.Errorf("Read(ogg) error = %v, want ErrAudioIO", err)
	}

	garbage := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(garbage, []byte("not audio"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := codec.Read(garbage); !errors.Is(err, ErrAudioIO) {
		t.Errorf("Read(garbage) error = %v, want ErrAudioIO", err)
	}
}

func TestTranscodeMissingFFmpeg(t *testing.T) {
	codec := NewCodec(filepath.Join(t.TempDir(), "no-ffmpeg"))
	buf, _ := Tone(440, 0.1, 8000, WaveSine, 0.5)

	err := codec.Write(context.Background(), filepath.Join(t.TempDir(), "out.mp3"), buf)
	if !errors.Is(err, ErrAudioIO) {
		t.Errorf("Write(mp3) without ffmpeg error = %v, want ErrAudioIO", err)
	}
}
