package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUI message types
type RecordingStartMsg struct{}
type RecordingStopMsg struct{}
type RecordingTickMsg struct{ Duration float64 }
type TranscriptionMsg struct {
	Text     string
	NoSpeech bool
}
type ModeLineMsg struct{ Text string }   // model/language info
type DeviceLineMsg struct{ Text string } // microphone device name
type LogMsg struct{ Text string }
type tickMsg time.Time

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
	tuiStateTranscribing
)

const maxLogLines = 6

type tuiModel struct {
	state             tuiState
	recordingDuration float64
	msgCount          int
	width, height     int
	hotkeyLine        string
	modeLine          string
	deviceLine        string
	lastText          string
	noSpeech          bool
	logLines          []string
}

var (
	tuiProgram   *tea.Program
	tuiMu        sync.Mutex
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once
)

func NewTUIProgram(hotkeyLine string) *tea.Program {
	m := tuiModel{hotkeyLine: hotkeyLine}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func logToTUI(format string, args ...any) {
	tuiSend(LogMsg{Text: fmt.Sprintf(format, args...)})
}

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	tuiReadyOnce.Do(func() { close(tuiReady) })
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case tickMsg:
		if m.state == tuiStateRecording {
			m.recordingDuration += 0.1
		}
		return m, tuiTick()

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.recordingDuration = 0

	case RecordingStopMsg:
		m.state = tuiStateTranscribing

	case RecordingTickMsg:
		m.recordingDuration = msg.Duration

	case TranscriptionMsg:
		m.state = tuiStateIdle
		m.msgCount++
		m.lastText = msg.Text
		m.noSpeech = msg.NoSpeech

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case LogMsg:
		m.logLines = append(m.logLines, msg.Text)
		if len(m.logLines) > maxLogLines {
			m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
		}
	}
	return m, nil
}

var (
	recStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	busyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	silentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString("\n")

	switch m.state {
	case tuiStateRecording:
		b.WriteString("  " + recStyle.Render(fmt.Sprintf("● REC %.1fs", m.recordingDuration)) + "\n")
	case tuiStateTranscribing:
		b.WriteString("  " + busyStyle.Render("◌ TRANSCRIBING") + "\n")
	default:
		b.WriteString("  " + idleStyle.Render("○ STANDBY") + "\n")
	}
	b.WriteString("\n")

	if m.modeLine != "" {
		b.WriteString("  " + infoStyle.Render(m.modeLine) + "\n")
	}
	if m.deviceLine != "" {
		b.WriteString("  " + idleStyle.Render(m.deviceLine) + "\n")
	}
	b.WriteString("\n")

	wrapWidth := m.width - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	if m.lastText != "" {
		b.WriteString("  " + dimStyle.Render(fmt.Sprintf("Last transcription (#%d)", m.msgCount)) + "\n")
		style := textStyle
		if m.noSpeech {
			style = silentStyle
		}
		for _, line := range wrapText(m.lastText, wrapWidth) {
			b.WriteString("  " + style.Render(line) + "\n")
		}
	} else {
		b.WriteString("  " + idleStyle.Render("No transcriptions yet") + "\n")
	}
	b.WriteString("\n")

	for _, line := range m.logLines {
		b.WriteString("  " + dimStyle.Render(line) + "\n")
	}
	if len(m.logLines) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("  " + dimStyle.Bold(true).Render(m.hotkeyLine) + dimStyle.Render(" to record, q to quit") + "\n")
	b.WriteString("  " + dimStyle.Render("murmur "+version) + "\n")

	return b.String()
}

func wrapText(text string, width int) []string {
	var lines []string
	words := strings.Fields(text)
	var cur string
	for _, w := range words {
		if cur == "" {
			cur = w
		} else if len(cur)+1+len(w) <= width {
			cur += " " + w
		} else {
			lines = append(lines, cur)
			cur = w
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}
