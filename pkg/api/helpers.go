package api

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/james-see/notesmith/pkg/audio"
	"github.com/james-see/notesmith/pkg/score"
)

// maxUpload caps MIDI uploads at 8MB
const maxUpload = 8 << 20

func readScore(r io.Reader) (*score.Score, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > maxUpload {
		return nil, fmt.Errorf("upload exceeds %d bytes", maxUpload)
	}
	return score.Decode(data)
}

// parseSeed returns a time based seed when s is empty
func parseSeed(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uint64(time.Now().UnixNano()), nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

// encodeWAV writes buf through a temporary file since the wav encoder needs a seeker
func encodeWAV(ctx context.Context, buf *audio.Buffer) ([]byte, error) {
	f, err := os.CreateTemp("", "notesmith-wave-*.wav")
	if err != nil {
		return nil, &audio.IOError{Op: "create temp", Path: os.TempDir(), Err: err}
	}
	path := f.Name()
	_ = f.Close()
	defer func() { _ = os.Remove(path) }()

	if err := audio.NewCodec("").Write(ctx, path, buf); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &audio.IOError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}
