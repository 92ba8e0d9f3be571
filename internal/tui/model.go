// Package tui is a terminal front end that drives one session lifecycle
// controller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iammorganparry/clive/apps/regression/internal/analysis"
	"github.com/iammorganparry/clive/apps/regression/internal/lifecycle"
	"github.com/iammorganparry/clive/apps/regression/internal/models"
	"github.com/iammorganparry/clive/apps/regression/internal/plot"
	"github.com/iammorganparry/clive/apps/regression/internal/render"
	"github.com/iammorganparry/clive/apps/regression/internal/report"
)

// DashboardFileName is the name the HTML dashboard is written under.
const DashboardFileName = "regression_dashboard.html"

// Message types
type uploadDoneMsg struct {
	err error
}

type analyzeDoneMsg struct {
	err error
}

type reportDoneMsg struct {
	delivery *report.Delivery
	err      error
}

type dashboardDoneMsg struct {
	path string
	err  error
}

type spinnerTickMsg struct{}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Model is the root Bubble Tea model
type Model struct {
	// Terminal dimensions
	width  int
	height int

	ctrl      *lifecycle.Controller
	plots     *plot.Cache
	reportDir string

	// Path input, shown in Empty and after "new upload"
	input     textinput.Model
	uploading bool

	// Column cursor in Configuring
	cursor int

	// Pending remote call
	busy         bool
	busyLabel    string
	spinnerIndex int

	// Last status line
	status    string
	statusErr bool

	keys     KeyMap
	help     help.Model
	showHelp bool
}

// NewModel creates the root model for ctrl. Reports and dashboards are
// written to reportDir.
func NewModel(ctrl *lifecycle.Controller, plots *plot.Cache, reportDir string) Model {
	ti := textinput.New()
	ti.Placeholder = "path/to/data.csv"
	ti.Prompt = "❯ "
	ti.PromptStyle = InputPromptStyle
	ti.CharLimit = 0
	ti.Width = 60
	ti.Focus()

	return Model{
		ctrl:      ctrl,
		plots:     plots,
		reportDir: reportDir,
		input:     ti,
		uploading: true,
		keys:      DefaultKeyMap(),
		help:      help.New(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// spinnerTickCmd returns a fast tick command for spinner animation
func spinnerTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m Model) uploadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return uploadDoneMsg{err: err}
		}
		defer f.Close()
		_, err = m.ctrl.Upload(context.Background(), filepath.Base(path), f)
		return uploadDoneMsg{err: err}
	}
}

func (m Model) analyzeCmd() tea.Cmd {
	return func() tea.Msg {
		_, err := m.ctrl.Analyze(context.Background())
		return analyzeDoneMsg{err: err}
	}
}

func (m Model) reportCmd(format models.ReportFormat) tea.Cmd {
	return func() tea.Msg {
		d, err := m.ctrl.Report(context.Background(), string(format), report.DirSink{Dir: m.reportDir})
		return reportDoneMsg{delivery: d, err: err}
	}
}

func (m Model) dashboardCmd() tea.Cmd {
	return func() tea.Msg {
		snap := m.ctrl.Snapshot()
		if snap.State != lifecycle.StateAnalyzed {
			return dashboardDoneMsg{err: models.ErrWrongState}
		}
		d, err := render.BuildDashboard(m.plots, snap.Session, snap.Result, snap.Selection)
		if err != nil {
			return dashboardDoneMsg{err: err}
		}
		var b strings.Builder
		if err := render.WriteDashboard(&b, d); err != nil {
			return dashboardDoneMsg{err: err}
		}
		path := filepath.Join(m.reportDir, DashboardFileName)
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return dashboardDoneMsg{err: fmt.Errorf("write dashboard: %w", err)}
		}
		return dashboardDoneMsg{path: path}
	}
}

// dispatch marks the model busy and starts cmd alongside the spinner.
func (m Model) dispatch(label string, cmd tea.Cmd) (Model, tea.Cmd) {
	m.busy = true
	m.busyLabel = label
	m.status = ""
	return m, tea.Batch(cmd, spinnerTickCmd())
}

func (m Model) setStatus(msg string) Model {
	m.status = msg
	m.statusErr = false
	return m
}

func (m Model) setError(err error) Model {
	var remote *models.RemoteError
	if errors.As(err, &remote) {
		m.status = remote.Message
	} else {
		m.status = err.Error()
	}
	m.statusErr = true
	return m
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if msg.Width > 10 {
			m.input.Width = msg.Width - 10
		}
		return m, nil

	case spinnerTickMsg:
		if m.busy {
			m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
			return m, spinnerTickCmd()
		}
		return m, nil

	case uploadDoneMsg:
		m.busy = false
		if msg.err != nil {
			return m.setError(msg.err), nil
		}
		m.uploading = false
		m.input.Blur()
		m.input.SetValue("")
		m.cursor = 0
		snap := m.ctrl.Snapshot()
		return m.setStatus(fmt.Sprintf("✓ Loaded %d rows, %d columns", snap.Session.RowCount, len(snap.Session.Columns))), nil

	case analyzeDoneMsg:
		m.busy = false
		if msg.err != nil {
			return m.setError(msg.err), nil
		}
		return m.setStatus("✓ Analysis complete"), nil

	case reportDoneMsg:
		m.busy = false
		if msg.err != nil {
			return m.setError(msg.err), nil
		}
		return m.setStatus(fmt.Sprintf("✓ Saved %s (%d bytes)", filepath.Join(m.reportDir, msg.delivery.FileName), msg.delivery.Bytes)), nil

	case dashboardDoneMsg:
		if msg.err != nil {
			return m.setError(msg.err), nil
		}
		return m.setStatus("✓ Wrote " + msg.path), nil

	case tea.KeyMsg:
		// Ctrl+C always quits, regardless of state
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.uploading {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		if m.busy {
			return m.setError(models.ErrBusy), nil
		}
		path := strings.TrimSpace(m.input.Value())
		if path == "" {
			return m, nil
		}
		// Checked here so an unsupported file never leaves the terminal.
		if !models.IsAcceptedUpload(path) {
			return m.setError(models.ErrUnsupportedFile), nil
		}
		return m.dispatch("Uploading", m.uploadCmd(path))

	case key.Matches(msg, m.keys.Escape):
		if m.ctrl.Snapshot().State == lifecycle.StateEmpty {
			return m, tea.Quit
		}
		m.uploading = false
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.ctrl.Snapshot()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.busy {
		return m.setError(models.ErrBusy), nil
	}

	switch {
	case key.Matches(msg, m.keys.Upload):
		m.uploading = true
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Discard):
		if err := m.ctrl.Discard(); err != nil {
			return m.setError(err), nil
		}
		m.uploading = true
		m.input.Focus()
		return m.setStatus("Session discarded"), textinput.Blink
	}

	switch snap.State {
	case lifecycle.StateConfiguring:
		return m.updateConfiguring(msg, snap)
	case lifecycle.StateAnalyzed:
		return m.updateAnalyzed(msg)
	}
	return m, nil
}

func (m Model) updateConfiguring(msg tea.KeyMsg, snap lifecycle.Snapshot) (tea.Model, tea.Cmd) {
	columns := snap.Session.Columns
	if len(columns) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(columns)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Dependent):
		if err := m.ctrl.SetDependent(columns[m.cursor]); err != nil {
			return m.setError(err), nil
		}
		return m.setStatus(""), nil
	case key.Matches(msg, m.keys.Toggle):
		if err := m.ctrl.ToggleIndependent(columns[m.cursor]); err != nil {
			return m.setError(err), nil
		}
		return m.setStatus(""), nil
	case key.Matches(msg, m.keys.Analyze):
		if _, err := analysis.Build(snap.Session, snap.Selection); err != nil {
			return m.setError(err), nil
		}
		return m.dispatch("Analyzing", m.analyzeCmd())
	}
	return m, nil
}

func (m Model) updateAnalyzed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if err := m.ctrl.BackToSelection(); err != nil {
			return m.setError(err), nil
		}
		return m.setStatus(""), nil
	case key.Matches(msg, m.keys.ReportPDF):
		return m.dispatch("Generating pdf report", m.reportCmd(models.ReportFormatPDF))
	case key.Matches(msg, m.keys.ReportXLS):
		return m.dispatch("Generating xlsx report", m.reportCmd(models.ReportFormatXLSX))
	case key.Matches(msg, m.keys.Dashboard):
		return m, m.dashboardCmd()
	}
	return m, nil
}
