// Package tui provides a terminal user interface for notesmith
package tui

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/notesmith/pkg/render"
	"github.com/james-see/notesmith/pkg/score"
	"github.com/james-see/notesmith/pkg/sequence"
	"github.com/james-see/notesmith/pkg/theory"
)

// Warm amber color scheme
var (
	amber     = lipgloss.Color("#FFB000")
	cream     = lipgloss.Color("#F5E6C8")
	slate     = lipgloss.Color("#2B2D42")
	softGreen = lipgloss.Color("#8AE234")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(amber).
			Background(slate).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(cream).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(cream).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(softGreen).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(amber).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateInput
	StateFilePicker
	StateWorking
	StateResult
)

// Action is what a menu entry does
type Action int

const (
	ActionRender Action = iota
	ActionInspect
	ActionAugment
	ActionExit
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Action      Action
}

var menuItems = []MenuItem{
	{Title: "Render melody", Description: "Type notes, chords or scales and render them to audio", Action: ActionRender},
	{Title: "Inspect notes", Description: "Show MIDI numbers and frequencies for notes, chords or scales", Action: ActionInspect},
	{Title: "Augment MIDI file", Description: "Write transposed, shifted and velocity scaled variants of a MIDI file", Action: ActionAugment},
	{Title: "Exit", Description: "Exit the application", Action: ActionExit},
}

// Model represents the TUI model
type Model struct {
	state      State
	menuIndex  int
	action     MenuItem
	input      textinput.Model
	filePicker filepicker.Model
	spinner    spinner.Model
	renderer   *render.Renderer
	config     render.Config
	subject    string
	lines      []string
	err        error
	width      int
	height     int
}

// doneMsg carries the outcome of a background job
type doneMsg struct {
	lines []string
	err   error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model rendering with r and cfg
func New(r *render.Renderer, cfg render.Config) Model {
	ti := textinput.New()
	ti.Placeholder = "C4, E4, G4  or  Am7  or  D minor"
	ti.CharLimit = 256
	ti.Width = 48

	fp := filepicker.New()
	fp.AllowedTypes = []string{".mid", ".midi"}
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(amber)

	return Model{
		state:      StateMenu,
		input:      ti,
		filePicker: fp,
		spinner:    s,
		renderer:   r,
		config:     cfg,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs to receive all messages
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.subject = path
			m.state = StateWorking
			return m, tea.Batch(m.spinner.Tick, augmentFile(path))
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateInput:
			return m.updateInput(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case doneMsg:
		m.state = StateResult
		m.lines = msg.lines
		m.err = msg.err
		return m, nil
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		m.action = menuItems[m.menuIndex]
		switch m.action.Action {
		case ActionExit:
			return m, tea.Quit
		case ActionAugment:
			m.state = StateFilePicker
			return m, m.filePicker.Init()
		default:
			m.state = StateInput
			m.input.SetValue("")
			return m, m.input.Focus()
		}
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.state = StateMenu
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Blur()
		m.subject = text

		if m.action.Action == ActionInspect {
			m.state = StateResult
			m.lines, m.err = inspect(text)
			return m, nil
		}
		m.state = StateWorking
		return m, tea.Batch(m.spinner.Tick, renderText(m.renderer, m.config, text))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.lines = nil
		m.subject = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func parseNotes(text string) ([]int, error) {
	midi := theory.ParseMusicInput(text)
	if len(midi) == 0 {
		return nil, fmt.Errorf("no notes, chords or scales recognized in %q", text)
	}
	return midi, nil
}

func inspect(text string) ([]string, error) {
	midi, err := parseNotes(text)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(midi))
	for _, m := range midi {
		info, err := theory.Describe(m)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%-4s %3d  %8.2f Hz", info.Name, info.MIDI, info.Frequency))
	}
	return lines, nil
}

func renderText(r *render.Renderer, cfg render.Config, text string) tea.Cmd {
	return func() tea.Msg {
		midi, err := parseNotes(text)
		if err != nil {
			return doneMsg{err: err}
		}
		if r == nil {
			return doneMsg{err: render.ErrBackendUnavailable}
		}

		path, err := r.GenerateFromPredictions(context.Background(), midi, cfg)
		if err != nil {
			return doneMsg{err: err}
		}
		return doneMsg{lines: []string{
			fmt.Sprintf("Notes:  %d", len(midi)),
			fmt.Sprintf("Output: %s", path),
		}}
	}
}

// augmentFile writes every augmentation of path next to it
func augmentFile(path string) tea.Cmd {
	return func() tea.Msg {
		sc, err := score.ReadFile(path)
		if err != nil {
			return doneMsg{err: err}
		}

		seed := uint64(time.Now().UnixNano())
		rng := rand.New(rand.NewPCG(seed, seed>>1|1))

		base := strings.TrimSuffix(path, filepath.Ext(path))
		opts := score.Options{Program: uint8(sc.Program), Tempo: sc.Tempo}
		labels := sequence.Labels()

		lines := []string{fmt.Sprintf("Seed: %d", seed)}
		for i, seq := range sequence.Augment(sc.Notes, rng) {
			output := fmt.Sprintf("%s_%s.mid", base, labels[i])
			if err := score.WriteFile(output, seq, opts); err != nil {
				return doneMsg{err: err}
			}
			lines = append(lines, filepath.Base(output))
		}
		return doneMsg{lines: lines}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateInput:
		s.WriteString(m.viewInput())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateWorking:
		s.WriteString(m.viewWorking())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" NOTESMITH "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(amber).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewInput() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" " + strings.ToUpper(m.action.Title) + " "))
	s.WriteString("\n\n")
	s.WriteString(m.input.View())
	if m.action.Action == ActionRender {
		s.WriteString(statusStyle.Render(fmt.Sprintf("  %s • %d bpm • %s", m.config.Instrument, m.config.Tempo, m.config.Format)))
	}
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("enter: go • esc: back to menu"))

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT MIDI FILE "))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewWorking() string {
	var s strings.Builder

	verb := "Rendering"
	subject := m.subject
	if m.action.Action == ActionAugment {
		verb = "Augmenting"
		subject = filepath.Base(subject)
	}

	s.WriteString(titleStyle.Render(" WORKING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s %s %s...\n", m.spinner.View(), verb, subject))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s failed: %s", m.action.Title, m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" DONE "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ " + m.action.Title))
		s.WriteString("\n\n")
		s.WriteString(strings.Join(m.lines, "\n"))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
   _   _  ___ _____ _____ ____  __  __ ___ _____ _   _
  | \ | |/ _ \_   _| ____/ ___||  \/  |_ _|_   _| | | |
  |  \| | | | || | |  _| \___ \| |\/| || |  | | | |_| |
  | |\  | |_| || | | |___ ___) | |  | || |  | | |  _  |
  |_| \_|\___/ |_| |_____|____/|_|  |_|___| |_| |_| |_|
`
	return lipgloss.NewStyle().Foreground(amber).Render(logo)
}

// Run starts the TUI application
func Run(r *render.Renderer, cfg render.Config) error {
	p := tea.NewProgram(New(r, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
