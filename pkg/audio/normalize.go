package audio

import (
	"context"
	"errors"
	"math"
)

// DefaultTargetDBFS is the loudness rendered files are normalized to
const DefaultTargetDBFS = -20.0

// Normalize rewrites the file at path so its RMS loudness matches targetDBFS.
// The container format is preserved. Silent files are left unchanged.
// It returns the gain applied in decibels.
func (c *Codec) Normalize(ctx context.Context, path string, targetDBFS float64) (float64, error) {
	buf, err := c.Read(path)
	if err != nil {
		return 0, err
	}

	gain := NormalizeBuffer(buf, targetDBFS)
	if gain == 0 {
		return 0, nil
	}

	if err := c.Write(ctx, path, buf); err != nil {
		return 0, err
	}
	return gain, nil
}

// NormalizeBuffer applies the gain that brings buf to targetDBFS and returns it
func NormalizeBuffer(buf *Buffer, targetDBFS float64) float64 {
	current := buf.DBFS()
	if math.IsInf(current, -1) {
		return 0
	}
	gain := targetDBFS - current
	buf.ApplyGain(gain)
	return gain
}

// Concatenate decodes each input in order and writes them back to back to outputPath.
// An empty list is a no-op.
func (c *Codec) Concatenate(ctx context.Context, paths []string, outputPath string) error {
	if len(paths) == 0 {
		return nil
	}

	combined, err := c.Read(paths[0])
	if err != nil {
		return err
	}

	for _, path := range paths[1:] {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, err := c.Read(path)
		if err != nil {
			return err
		}
		if err := combined.Append(next); err != nil {
			return &IOError{Op: "concatenate", Path: path, Err: err}
		}
	}

	if combined.Channels == 0 {
		return &IOError{Op: "concatenate", Path: outputPath, Err: errors.New("no audio decoded")}
	}
	return c.Write(ctx, outputPath, combined)
}
