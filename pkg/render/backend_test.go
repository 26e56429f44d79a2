package render

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// slowFluidSynth returns a FluidSynth whose binary is a script that never finishes in time
func slowFluidSynth(t *testing.T) *FluidSynth {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()

	bin := filepath.Join(dir, "fluidsynth")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nexec sleep 5\n"), 0755); err != nil {
		t.Fatal(err)
	}
	sf := filepath.Join(dir, "test.sf2")
	if err := os.WriteFile(sf, []byte("sf2"), 0644); err != nil {
		t.Fatal(err)
	}
	return NewFluidSynth(bin, sf, 8000)
}

func TestFluidSynthRenderCancelled(t *testing.T) {
	fs := slowFluidSynth(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fs.Render(ctx, filepath.Join(dir, "in.mid"), filepath.Join(dir, "out.wav"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrBackendUnavailable) {
		t.Error("cancellation must not be reported as an unavailable backend")
	}
}

func TestFluidSynthRenderDeadline(t *testing.T) {
	fs := slowFluidSynth(t)
	dir := t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := fs.Render(ctx, filepath.Join(dir, "in.mid"), filepath.Join(dir, "out.wav"))
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Render() error = %v, want ErrBackendUnavailable", err)
	}
}

func TestRendererCancelledDoesNotFallBack(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	primary := &fakeBackend{name: "primary", block: true}
	fallback := &fakeBackend{name: "fallback"}
	r := New(Options{
		OutputDir: t.TempDir(),
		TempDir:   t.TempDir(),
		Primary:   primary,
		Fallback:  fallback,
		Logger:    logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	cfg := DefaultConfig()
	_, err := r.GenerateFromPredictions(ctx, []int{60}, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times after cancellation", fallback.calls)
	}
}
