package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"mediasort/internal/domain"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Phase represents the current state of the TUI
type Phase int

const (
	PhaseScanning Phase = iota
	PhasePreview
	PhaseConfirm
	PhaseExecuting
	PhaseDone
	PhaseError
)

// Messages for the TUI
type (
	PlanReadyMsg struct {
		Plan domain.Plan
	}
	ScanProgressMsg struct {
		Current int
		Total   int
	}
	ExecProgressMsg struct {
		Current int
		Total   int
		File    string
	}
	ExecDoneMsg struct {
		Summary domain.Summary
	}
	ConfirmMsg struct{ Confirmed bool }
	ErrorMsg   struct {
		Err error
	}
	tickMsg time.Time
)

// ExecuteFunc starts the executor in a goroutine and feeds progress/done
// messages back into the program.
type ExecuteFunc func(plan domain.Plan) tea.Cmd

// Config for the TUI
type Config struct {
	SourceDir string
	DestDir   string
	Mode      domain.Operation
	DryRun    bool
	Verbose   bool
	Execute   ExecuteFunc
}

// Model is the main TUI model
type Model struct {
	config           Config
	Phase            Phase
	Plan             domain.Plan
	Summary          domain.Summary
	spinner          spinner.Model
	progress         progress.Model
	scanCurrent      int
	scanTotal        int
	execCurrent      int
	execTotal        int
	currentFile      string
	confirmSelection bool // true = proceed
	Err              error
	Quitting         bool
	width            int
	height           int
}

// NewModel creates a new TUI model
func NewModel(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return Model{
		config:           cfg,
		Phase:            PhaseScanning,
		spinner:          s,
		progress:         p,
		confirmSelection: false, // default to No
		width:            80,
		height:           24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(msg.Width-20, 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.Quitting = true
			return m, tea.Quit
		case "left", "h", "y", "Y":
			if m.Phase == PhaseConfirm {
				m.confirmSelection = true
			}
		case "right", "l", "n", "N":
			if m.Phase == PhaseConfirm {
				m.confirmSelection = false
			}
		case "enter":
			if m.Phase == PhaseConfirm {
				return m, func() tea.Msg {
					return ConfirmMsg{Confirmed: m.confirmSelection}
				}
			}
			if m.Phase == PhaseDone || m.Phase == PhaseError {
				return m, tea.Quit
			}
		}

	case ScanProgressMsg:
		m.scanCurrent = msg.Current
		m.scanTotal = msg.Total
		return m, nil

	case PlanReadyMsg:
		m.Plan = msg.Plan
		switch {
		case m.config.DryRun || len(m.Plan.Entries) == 0:
			m.Phase = PhaseDone
		default:
			m.Phase = PhaseConfirm
		}
		return m, nil

	case ConfirmMsg:
		if !msg.Confirmed {
			m.Quitting = true
			return m, tea.Quit
		}
		m.Phase = PhaseExecuting
		if m.config.Execute != nil {
			return m, tea.Batch(tickCmd(), m.config.Execute(m.Plan))
		}
		return m, nil

	case ExecProgressMsg:
		m.execCurrent = msg.Current
		m.execTotal = msg.Total
		m.currentFile = msg.File
		return m, nil

	case ExecDoneMsg:
		m.Phase = PhaseDone
		m.Summary = msg.Summary
		return m, nil

	case ErrorMsg:
		m.Phase = PhaseError
		m.Err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.Phase == PhaseScanning || m.Phase == PhaseExecuting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case tickMsg:
		if m.Phase == PhaseExecuting {
			var cmds []tea.Cmd
			if m.execTotal > 0 {
				cmds = append(cmds, m.progress.SetPercent(float64(m.execCurrent)/float64(m.execTotal)))
			}
			cmds = append(cmds, tickCmd(), m.spinner.Tick)
			return m, tea.Batch(cmds...)
		}
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.Phase {
	case PhaseScanning:
		b.WriteString(m.renderScanning())
	case PhasePreview:
		b.WriteString(m.renderPreview())
	case PhaseConfirm:
		b.WriteString(m.renderPreview())
		b.WriteString("\n")
		b.WriteString(m.renderConfirmPrompt())
	case PhaseExecuting:
		b.WriteString(m.renderPreview())
		b.WriteString("\n")
		b.WriteString(m.renderExecution())
	case PhaseDone:
		b.WriteString(m.renderPreview())
		if !m.config.DryRun {
			b.WriteString("\n")
			b.WriteString(m.renderCompletion())
		}
	case PhaseError:
		b.WriteString(m.renderError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("📷 mediasort")
	subtitle := subtitleStyle.Render("Template-driven media organization")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		"",
		dimStyle.Render(fmt.Sprintf("%s Source: %s", iconFolder, shortenPath(m.config.SourceDir))),
		dimStyle.Render(fmt.Sprintf("%s Destination: %s", iconFolder, shortenPath(m.config.DestDir))),
	)
}

func (m Model) renderScanning() string {
	if m.scanTotal > 0 {
		percent := float64(m.scanCurrent) / float64(m.scanTotal)
		progressBar := m.progress.ViewAs(percent)

		countStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)

		return fmt.Sprintf("%s Scanning files...\n\n  %s\n  %s %s",
			m.spinner.View(),
			progressBar,
			countStyle.Render(fmt.Sprintf("%d/%d", m.scanCurrent, m.scanTotal)),
			dimStyle.Render(fmt.Sprintf("(%.0f%%)", percent*100)),
		)
	}
	return fmt.Sprintf("%s Scanning files...", m.spinner.View())
}

func (m Model) renderPreview() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Planned Operations"))
	b.WriteString("\n\n")

	if len(m.Plan.Entries) == 0 {
		b.WriteString(dimStyle.Render("  Nothing to do"))
		b.WriteString("\n")
	} else {
		for _, line := range formatEntryList(m.Plan.Entries, 4) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if len(m.Plan.Rejected) > 0 {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render(fmt.Sprintf("%s Excluded by validators (%d files)", iconWarning, len(m.Plan.Rejected))))
		b.WriteString("\n\n")

		for i, rejection := range m.Plan.Rejected {
			if i >= 4 {
				b.WriteString(fmt.Sprintf("  ... and %d more\n", len(m.Plan.Rejected)-4))
				break
			}
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				warningStyle.Render(iconSkipped),
				fileNameStyle.Render(rejection.File.Record.Name),
				dimStyle.Render(rejection.Reason),
			))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderSummary())

	if m.config.Verbose && len(m.Plan.Warnings) > 0 {
		b.WriteString("\n\n")
		b.WriteString(warningStyle.Render("Warnings:"))
		b.WriteString("\n")
		for _, w := range m.Plan.Warnings {
			b.WriteString(fmt.Sprintf("  %s %s\n", iconWarning, w))
		}
	}

	return b.String()
}

func (m Model) renderSummary() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Summary"))
	b.WriteString("\n\n")

	if m.Plan.RangeStart != nil && m.Plan.RangeEnd != nil {
		dateRange := fmt.Sprintf("%s %s %s",
			m.Plan.RangeStart.Format("2006-01-02"),
			iconArrow,
			m.Plan.RangeEnd.Format("2006-01-02"),
		)
		b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Date Range:"), dateStyle.Render(dateRange)))
	}

	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Media files:"), mediaFileStyle.Render(fmt.Sprintf("%s %d", iconMedia, m.Plan.MediaCount))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Other files:"), genericFileStyle.Render(fmt.Sprintf("%s %d", iconGeneric, m.Plan.OtherCount))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Excluded:"), dimStyle.Render(fmt.Sprintf("%s %d", iconSkipped, len(m.Plan.Rejected)))))

	if m.config.DryRun {
		b.WriteString("\n")
		b.WriteString(highlightBoxStyle.Render("🔍 Dry Run - No files were touched"))
	}

	return b.String()
}

func (m Model) renderConfirmPrompt() string {
	verb := "Copy"
	if m.config.Mode == domain.OperationMove {
		verb = "Move"
	}
	prompt := confirmPromptStyle.Render(fmt.Sprintf("%s %d files?", verb, len(m.Plan.Entries)))

	var yesBtn, noBtn string
	if m.confirmSelection {
		yesBtn = highlightBoxStyle.
			Background(lipgloss.Color("#2D5A27")).
			Render(" Yes ")
		noBtn = boxStyle.Render(" No ")
	} else {
		yesBtn = boxStyle.Render(" Yes ")
		noBtn = highlightBoxStyle.
			Background(lipgloss.Color("#5A2727")).
			Render(" No ")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center, yesBtn, "  ", noBtn)

	return lipgloss.JoinVertical(lipgloss.Left, prompt, "", buttons)
}

func (m Model) renderExecution() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Executing Plan"))
	b.WriteString("\n\n")

	percent := 0.0
	if m.execTotal > 0 {
		percent = float64(m.execCurrent) / float64(m.execTotal)
	}

	b.WriteString(fmt.Sprintf("  %s Working...\n\n", m.spinner.View()))
	b.WriteString(fmt.Sprintf("  %s\n", m.progress.ViewAs(percent)))

	countStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)

	b.WriteString(fmt.Sprintf("  %s %s\n",
		countStyle.Render(fmt.Sprintf("%d/%d files", m.execCurrent, m.execTotal)),
		dimStyle.Render(fmt.Sprintf("(%.0f%%)", percent*100)),
	))

	if m.currentFile != "" {
		b.WriteString(fmt.Sprintf("\n  %s %s\n",
			iconArrow,
			fileNameStyle.Render(m.currentFile),
		))
	}

	return b.String()
}

func (m Model) renderCompletion() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Batch Complete"))
	b.WriteString("\n\n")

	if m.Summary.Failed == 0 {
		b.WriteString(fmt.Sprintf("  %s %s\n\n", successStyle.Render(iconSuccess), successStyle.Render("Batch completed successfully!")))
	} else {
		b.WriteString(fmt.Sprintf("  %s %s\n\n", errorStyle.Render(iconError), errorStyle.Render(fmt.Sprintf("%d entries failed", m.Summary.Failed))))
	}

	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Copied:"), statValueStyle.Render(fmt.Sprintf("%d files", m.Summary.Copied))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Moved:"), statValueStyle.Render(fmt.Sprintf("%d files", m.Summary.Moved))))
	if m.Summary.Skipped > 0 {
		b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Skipped:"), dimStyle.Render(fmt.Sprintf("%s %d (already exist)", iconSkipped, m.Summary.Skipped))))
	}

	for i, failure := range m.Summary.Failures {
		if i >= 4 {
			b.WriteString(fmt.Sprintf("  ... and %d more failures\n", len(m.Summary.Failures)-4))
			break
		}
		b.WriteString(fmt.Sprintf("  %s %s: %v\n",
			errorStyle.Render(iconError),
			fileNameStyle.Render(failure.Entry.File.Record.Name),
			failure.Err,
		))
	}

	return b.String()
}

func (m Model) renderError() string {
	icon := errorStyle.Render(iconError)
	msg := errorStyle.Render(fmt.Sprintf("Error: %s", m.Err.Error()))

	return highlightBoxStyle.
		BorderForeground(errorColor).
		Render(fmt.Sprintf("%s %s", icon, msg))
}

func (m Model) renderHelp() string {
	var help string
	switch m.Phase {
	case PhaseScanning:
		help = "Press q to quit"
	case PhasePreview:
		help = "Press q to quit"
	case PhaseConfirm:
		help = "← → or y/n to select • Enter to confirm • q to quit"
	case PhaseExecuting:
		help = "Working... Please wait"
	case PhaseDone:
		help = "Press Enter to exit"
	case PhaseError:
		help = "Press Enter or q to exit"
	}
	return helpStyle.Render(help)
}

// formatEntryList formats plan entries for display
func formatEntryList(entries []domain.PlanEntry, maxItems int) []string {
	if len(entries) == 0 {
		return []string{}
	}

	lines := make([]string, 0, min(len(entries), maxItems+1))

	if len(entries) > maxItems {
		half := maxItems / 2
		for i := 0; i < half; i++ {
			lines = append(lines, formatEntry(entries[i]))
		}
		lines = append(lines, dimStyle.Render(fmt.Sprintf("... %d more files ...", len(entries)-maxItems)))
		for i := len(entries) - half; i < len(entries); i++ {
			lines = append(lines, formatEntry(entries[i]))
		}
	} else {
		for i := 0; i < len(entries); i++ {
			lines = append(lines, formatEntry(entries[i]))
		}
	}

	return lines
}

func formatEntry(entry domain.PlanEntry) string {
	icon := iconGeneric
	style := genericFileStyle
	if entry.File.Kind == domain.KindMedia {
		icon = iconMedia
		style = mediaFileStyle
	}

	name := style.Render(entry.File.Record.Name)
	date := dateStyle.Render(entry.File.Date.Time.Format("2006-01-02 15:04"))

	return fmt.Sprintf("%s %s %s %s  %s", icon, name, iconArrow, dimStyle.Render(entry.DestPath), date)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// shortenPath replaces the home directory prefix with ~ for display
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
