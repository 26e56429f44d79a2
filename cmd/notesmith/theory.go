package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/james-see/notesmith/pkg/theory"
	"github.com/spf13/cobra"
)

var scaleOctaves int

var noteCmd = &cobra.Command{
	Use:   "note <name|midi>",
	Short: "Show the MIDI number, name and frequency of a note",
	Args:  cobra.ExactArgs(1),
	RunE:  runNote,
}

var scaleCmd = &cobra.Command{
	Use:   "scale <root> <type>",
	Short: "List the notes of a scale",
	Long:  fmt.Sprintf("List the notes of a scale. Types: %s", strings.Join(theory.ScaleTypes(), ", ")),
	Args:  cobra.ExactArgs(2),
	RunE:  runScale,
}

var chordCmd = &cobra.Command{
	Use:   "chord <symbol>",
	Short: "List the notes of a chord symbol such as Am7 or Gdim",
	Args:  cobra.ExactArgs(1),
	RunE:  runChord,
}

var parseCmd = &cobra.Command{
	Use:   "parse <text>",
	Short: `Parse comma separated notes, chords and scales ("C4, Am, D minor")`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

func init() {
	scaleCmd.Flags().IntVar(&scaleOctaves, "octaves", theory.DefaultOctaves, "Number of octaves")
}

func runNote(cmd *cobra.Command, args []string) error {
	midi, err := strconv.Atoi(args[0])
	if err != nil {
		midi, err = theory.NoteToMIDI(args[0])
		if err != nil {
			return err
		}
	}
	info, err := theory.Describe(midi)
	if err != nil {
		return err
	}
	printNotes(cmd, []theory.NoteInfo{info})
	return nil
}

func runScale(cmd *cobra.Command, args []string) error {
	root, scaleType := args[0], strings.ToLower(args[1])
	if _, ok := theory.ScaleIntervals(scaleType); !ok {
		return fmt.Errorf("%w: scale %q", theory.ErrUnsupportedType, scaleType)
	}
	if _, err := theory.PitchClass(root); err != nil {
		return err
	}
	printMIDI(cmd, theory.ScaleToMIDINotes(root, scaleType, scaleOctaves))
	return nil
}

func runChord(cmd *cobra.Command, args []string) error {
	root, chordType, err := theory.ParseChord(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", root, chordType)
	printMIDI(cmd, theory.ChordToMIDINotes(root, chordType))
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	midi := theory.ParseMusicInput(strings.Join(args, " "))
	if len(midi) == 0 {
		return fmt.Errorf("no notes, chords or scales recognized in %q", strings.Join(args, " "))
	}
	printMIDI(cmd, midi)
	return nil
}

func printMIDI(cmd *cobra.Command, midi []int) {
	infos := make([]theory.NoteInfo, 0, len(midi))
	for _, m := range midi {
		if info, err := theory.Describe(m); err == nil {
			infos = append(infos, info)
		}
	}
	printNotes(cmd, infos)
}

func printNotes(cmd *cobra.Command, infos []theory.NoteInfo) {
	out := cmd.OutOrStdout()
	for _, info := range infos {
		fmt.Fprintf(out, "%-4s %3d  %8.2f Hz\n", info.Name, info.MIDI, info.Frequency)
	}
}
