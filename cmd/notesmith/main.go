// Package main is the entry point for the notesmith CLI
package main

import (
	"fmt"
	"os"

	"github.com/james-see/notesmith/pkg/api"
	"github.com/james-see/notesmith/pkg/config"
	"github.com/james-see/notesmith/pkg/tui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFile string
	logLevel   string
	serverPort int

	cfg    *config.Config
	logger *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "notesmith",
	Short: "Music theory helpers and melody rendering",
	Long: `notesmith converts note names, scales and chords to MIDI pitches, augments
note sequences and renders melodies to normalized WAV or MP3 files.

Examples:
  notesmith note Bb3
  notesmith scale C major --octaves 1
  notesmith chord Am7
  notesmith render --notes "C4, E4, G4" --instrument synth --format wav
  notesmith augment melody.mid --kinds transpose --seed 42
  notesmith waveform --freq 440 --type square -o tone.wav
  notesmith tui
  notesmith serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.config/notesmith/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(noteCmd, scaleCmd, chordCmd, parseCmd)
	rootCmd.AddCommand(renderCmd, augmentCmd, normalizeCmd, concatCmd, waveformCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if logLevel != "" {
		if _, err := logrus.ParseLevel(logLevel); err != nil {
			return err
		}
		cfg.LogLevel = logLevel
	}
	logger = cfg.Logger()
	logger.SetOutput(os.Stderr)
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	r, err := cfg.NewRenderer(quietLogger())
	if err != nil {
		return err
	}
	return tui.Run(r, cfg.Render)
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort, cfg)
}

// quietLogger keeps log lines from tearing the TUI's alternate screen
func quietLogger() *logrus.Logger {
	l := cfg.Logger()
	l.SetLevel(logrus.ErrorLevel)
	return l
}
