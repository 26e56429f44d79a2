package main

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/james-see/notesmith/pkg/audio"
	"github.com/james-see/notesmith/pkg/render"
	"github.com/james-see/notesmith/pkg/score"
	"github.com/james-see/notesmith/pkg/sequence"
	"github.com/james-see/notesmith/pkg/theory"
	"github.com/spf13/cobra"
)

var (
	renderNotes      string
	renderInstrument string
	renderTempo      int
	renderDuration   float64
	renderVelocity   int
	renderFormat     string
	renderOutputDir  string
	renderBackend    string

	augmentKinds  []string
	augmentSeed   uint64
	augmentPrefix string

	normalizeTarget float64
	outputFile      string

	waveFreq       float64
	waveDuration   float64
	waveType       string
	waveVolume     float64
	waveSampleRate int
	waveOutput     string
)

var renderCmd = &cobra.Command{
	Use:   "render [pitches...]",
	Short: "Render MIDI pitches or note text to a normalized audio file",
	RunE:  runRender,
}

var augmentCmd = &cobra.Command{
	Use:   "augment <input.mid>",
	Short: "Write transposed, time shifted and velocity scaled variants of a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runAugment,
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file>",
	Short: "Normalize an audio file to a target loudness in place",
	Args:  cobra.ExactArgs(1),
	RunE:  runNormalize,
}

var concatCmd = &cobra.Command{
	Use:   "concat <files...>",
	Short: "Join audio files back to back",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConcat,
}

var waveformCmd = &cobra.Command{
	Use:   "waveform",
	Short: "Generate a raw tone",
	RunE:  runWaveform,
}

func init() {
	// render command
	renderCmd.Flags().StringVarP(&renderNotes, "notes", "n", "", `Note text such as "C4, E4, G4" or "A minor"`)
	renderCmd.Flags().StringVarP(&renderInstrument, "instrument", "i", "", "Instrument ("+instrumentNames()+")")
	renderCmd.Flags().IntVarP(&renderTempo, "tempo", "t", 0, "Tempo in BPM")
	renderCmd.Flags().Float64Var(&renderDuration, "duration", 0, "Note duration in beats")
	renderCmd.Flags().IntVar(&renderVelocity, "velocity", 0, "Note velocity (1-127)")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "Output format (wav, mp3)")
	renderCmd.Flags().StringVarP(&renderOutputDir, "output-dir", "o", "", "Output directory")
	renderCmd.Flags().StringVar(&renderBackend, "backend", "", "Synthesis backend (auto, fluidsynth, oscillator)")

	// augment command
	augmentCmd.Flags().StringSliceVarP(&augmentKinds, "kinds", "k", nil, "Augmentations (transpose, time_shift, velocity_change)")
	augmentCmd.Flags().Uint64Var(&augmentSeed, "seed", 0, "Random seed (default: time based)")
	augmentCmd.Flags().StringVarP(&augmentPrefix, "output", "o", "", "Output path prefix (default: input without extension)")

	// normalize command
	normalizeCmd.Flags().Float64Var(&normalizeTarget, "target", audio.DefaultTargetDBFS, "Target loudness in dBFS")

	// concat command
	concatCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (required)")
	_ = concatCmd.MarkFlagRequired("output")

	// waveform command
	waveformCmd.Flags().Float64Var(&waveFreq, "freq", theory.ConcertA, "Frequency in Hz")
	waveformCmd.Flags().Float64VarP(&waveDuration, "duration", "d", 1, "Duration in seconds")
	waveformCmd.Flags().StringVar(&waveType, "type", string(audio.WaveSine), "Wave type (sine, square, sawtooth, pulse)")
	waveformCmd.Flags().Float64Var(&waveVolume, "volume", audio.DefaultVolume, "Amplitude (0-1)")
	waveformCmd.Flags().IntVar(&waveSampleRate, "sample-rate", 0, "Sample rate (default from config)")
	waveformCmd.Flags().StringVarP(&waveOutput, "output", "o", "tone.wav", "Output file path")
}

func runRender(cmd *cobra.Command, args []string) error {
	pitches, err := collectPitches(args, renderNotes)
	if err != nil {
		return err
	}

	rc := cfg.Render
	flags := cmd.Flags()
	if flags.Changed("instrument") {
		rc.Instrument = renderInstrument
	}
	if flags.Changed("tempo") {
		rc.Tempo = renderTempo
	}
	if flags.Changed("duration") {
		rc.NoteDuration = renderDuration
	}
	if flags.Changed("velocity") {
		rc.Velocity = renderVelocity
	}
	if flags.Changed("format") {
		f, err := audio.ParseFormat(renderFormat)
		if err != nil {
			return err
		}
		rc.Format = f
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = renderOutputDir
	}
	if flags.Changed("backend") {
		cfg.Backend = renderBackend
	}

	r, err := cfg.NewRenderer(logger)
	if err != nil {
		return err
	}

	path, err := r.GenerateFromPredictions(cmd.Context(), pitches, rc)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// collectPitches reads MIDI numbers from args, or note text when no args are given
func collectPitches(args []string, notes string) ([]int, error) {
	var pitches []int
	for _, a := range args {
		for _, field := range strings.Split(a, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			p, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("invalid pitch %q: %w", field, err)
			}
			pitches = append(pitches, p)
		}
	}
	if len(pitches) == 0 && notes != "" {
		pitches = theory.ParseMusicInput(notes)
	}
	if len(pitches) == 0 {
		return nil, fmt.Errorf("no pitches to render: pass MIDI numbers or --notes")
	}
	return pitches, nil
}

func runAugment(cmd *cobra.Command, args []string) error {
	input := args[0]
	sc, err := score.ReadFile(input)
	if err != nil {
		return err
	}

	kinds, err := sequence.ParseKinds(augmentKinds)
	if err != nil {
		return err
	}

	seed := augmentSeed
	if !cmd.Flags().Changed("seed") {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	prefix := augmentPrefix
	if prefix == "" {
		prefix = strings.TrimSuffix(input, filepath.Ext(input))
	}

	opts := score.Options{Program: uint8(sc.Program), Tempo: sc.Tempo}
	labels := sequence.Labels(kinds...)
	for i, seq := range sequence.Augment(sc.Notes, rng, kinds...) {
		output := fmt.Sprintf("%s_%s.mid", prefix, labels[i])
		if err := score.WriteFile(output, seq, opts); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d notes)\n", output, len(seq))
	}
	logger.WithField("seed", seed).Debug("augmentation complete")
	return nil
}

func runNormalize(cmd *cobra.Command, args []string) error {
	gain, err := audio.NewCodec(cfg.FFmpeg).Normalize(cmd.Context(), args[0], normalizeTarget)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Normalized %s (%+.2f dB)\n", args[0], gain)
	return nil
}

func runConcat(cmd *cobra.Command, args []string) error {
	if err := audio.NewCodec(cfg.FFmpeg).Concatenate(cmd.Context(), args, outputFile); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Joined %d files -> %s\n", len(args), outputFile)
	return nil
}

func runWaveform(cmd *cobra.Command, args []string) error {
	wt, err := audio.ParseWaveType(waveType)
	if err != nil {
		return err
	}
	sampleRate := waveSampleRate
	if sampleRate <= 0 {
		sampleRate = cfg.SampleRate
	}

	buf, err := audio.Tone(waveFreq, waveDuration, sampleRate, wt, waveVolume)
	if err != nil {
		return err
	}
	if err := audio.NewCodec(cfg.FFmpeg).Write(cmd.Context(), waveOutput, buf); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %.1f Hz, %.2fs)\n", waveOutput, wt, waveFreq, buf.Duration())
	return nil
}

func instrumentNames() string {
	names := make([]string, 0, len(render.Instruments()))
	for name := range render.Instruments() {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
