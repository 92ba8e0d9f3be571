package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammorganparry/clive/apps/regression/internal/lifecycle"
	"github.com/iammorganparry/clive/apps/regression/internal/models"
	"github.com/iammorganparry/clive/apps/regression/internal/plot"
)

type stubBackend struct {
	analyzeErr error
}

func (stubBackend) Upload(_ context.Context, fileName string, r io.Reader) (*models.Session, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	return &models.Session{ID: "s1", FileName: fileName, RowCount: 3, Columns: []string{"Y", "X1", "X2"}}, nil
}

func (b stubBackend) Analyze(_ context.Context, req models.AnalyzeRequest) (*models.AnalysisResult, error) {
	if b.analyzeErr != nil {
		return nil, b.analyzeErr
	}
	coefs := map[string]float64{}
	for _, v := range req.Independents {
		coefs[v] = 3
	}
	obs := make([]models.Observation, 0, 3)
	for i, x := range []float64{1, 2, 3} {
		values := map[string]float64{}
		for _, v := range req.Independents {
			values[v] = x
		}
		actual := 2 + 3*x + []float64{0.1, -0.1, 0}[i]
		obs = append(obs, models.Observation{Actual: actual, Predicted: 2 + 3*x, Residual: actual - (2 + 3*x), Values: values})
	}
	return &models.AnalysisResult{
		ID:           "r1",
		Dependent:    req.Dependent,
		Independents: req.Independents,
		Intercept:    2,
		Coefficients: coefs,
		PValues:      map[string]float64{},
		RSquared:     0.9876,
		Observations: obs,
	}, nil
}

func (stubBackend) GenerateReport(_ context.Context, req models.ReportRequest) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("%PDF-1.4 " + string(req.Format))), nil
}

func newTestModel(t *testing.T, backend lifecycle.Backend) (Model, string) {
	t.Helper()
	dir := t.TempDir()
	ctrl := lifecycle.New("tui", backend, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewModel(ctrl, plot.NewCache(8), dir), dir
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and feeds back every completion message, skipping
// spinner ticks and cursor blinks.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
	case uploadDoneMsg, analyzeDoneMsg, reportDoneMsg, dashboardDoneMsg:
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func uploadFile(t *testing.T, m Model, dir string) Model {
	t.Helper()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("Y,X1,X2\n1,2,3\n"), 0o644))
	m.input.SetValue(path)
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.busy)
	return drain(t, m, cmd)
}

func TestUploadRejectsUnsupportedFile(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"text file", "notes.txt"},
		{"no extension", "data"},
		{"json", "data.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, stubBackend{})
			m.input.SetValue(tt.path)

			m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			assert.Nil(t, cmd)
			assert.False(t, m.busy)
			assert.True(t, m.statusErr)
			assert.Equal(t, models.ErrUnsupportedFile.Error(), m.status)
			assert.Equal(t, lifecycle.StateEmpty, m.ctrl.Snapshot().State)
		})
	}
}

func TestUploadMissingFile(t *testing.T) {
	m, dir := newTestModel(t, stubBackend{})
	m.input.SetValue(filepath.Join(dir, "missing.csv"))

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)

	assert.False(t, m.busy)
	assert.True(t, m.statusErr)
	assert.True(t, m.uploading)
	assert.Equal(t, lifecycle.StateEmpty, m.ctrl.Snapshot().State)
}

func TestWorkflow(t *testing.T) {
	m, dir := newTestModel(t, stubBackend{})

	m = uploadFile(t, m, dir)
	require.False(t, m.uploading)
	require.Equal(t, lifecycle.StateConfiguring, m.ctrl.Snapshot().State)
	assert.Contains(t, m.status, "3 rows")

	// Analyze without a selection fails locally
	m, cmd := press(t, m, runeKey("a"))
	assert.Nil(t, cmd)
	assert.True(t, m.statusErr)
	assert.False(t, m.busy)

	m, _ = press(t, m, runeKey("d"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})

	sel := m.ctrl.Snapshot().Selection
	assert.Equal(t, "Y", sel.Dependent)
	assert.Equal(t, []string{"X1"}, sel.Independents)
	assert.Contains(t, m.View(), "[x] X1")

	m, cmd = press(t, m, runeKey("a"))
	require.True(t, m.busy)
	m = drain(t, m, cmd)

	assert.False(t, m.busy)
	require.Equal(t, lifecycle.StateAnalyzed, m.ctrl.Snapshot().State)
	view := m.View()
	assert.Contains(t, view, "Y = 2.0000 + 3.0000 × X1")
	assert.Contains(t, view, "98.76%")
	assert.Contains(t, view, "Curve over X1")

	// Reports land in the report directory
	m, cmd = press(t, m, runeKey("p"))
	m = drain(t, m, cmd)
	assert.False(t, m.statusErr, m.status)
	data, err := os.ReadFile(filepath.Join(dir, "regression_report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 pdf", string(data))

	m, cmd = press(t, m, runeKey("x"))
	m = drain(t, m, cmd)
	assert.FileExists(t, filepath.Join(dir, "regression_report.xlsx"))

	// Dashboard
	m, cmd = press(t, m, runeKey("h"))
	m = drain(t, m, cmd)
	assert.False(t, m.statusErr, m.status)
	html, err := os.ReadFile(filepath.Join(dir, DashboardFileName))
	require.NoError(t, err)
	assert.Contains(t, string(html), "echarts")

	// Back to selection keeps the selection
	m, _ = press(t, m, runeKey("b"))
	assert.Equal(t, lifecycle.StateConfiguring, m.ctrl.Snapshot().State)
	assert.Equal(t, "Y", m.ctrl.Snapshot().Selection.Dependent)
}

func TestAnalyzeFailureKeepsSelection(t *testing.T) {
	failure := models.NewRemoteError(models.OpAnalyze, 400, "singular matrix", nil)
	m, dir := newTestModel(t, stubBackend{analyzeErr: failure})

	m = uploadFile(t, m, dir)
	m, _ = press(t, m, runeKey("d"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})

	m, cmd := press(t, m, runeKey("a"))
	m = drain(t, m, cmd)

	assert.False(t, m.busy)
	assert.True(t, m.statusErr)
	assert.Equal(t, "singular matrix", m.status)
	assert.Equal(t, lifecycle.StateConfiguring, m.ctrl.Snapshot().State)
	assert.Equal(t, []string{"X1"}, m.ctrl.Snapshot().Selection.Independents)
}

func TestBusyRejectsKeys(t *testing.T) {
	m, dir := newTestModel(t, stubBackend{})
	m = uploadFile(t, m, dir)
	m.busy = true

	for _, k := range []string{"d", "a", "u"} {
		next, cmd := press(t, m, runeKey(k))
		assert.Nil(t, cmd, k)
		assert.True(t, next.statusErr, k)
		assert.Equal(t, models.ErrBusy.Error(), next.status, k)
	}
	assert.Empty(t, m.ctrl.Snapshot().Selection.Dependent)
}

func TestDiscardReturnsToUpload(t *testing.T) {
	m, dir := newTestModel(t, stubBackend{})
	m = uploadFile(t, m, dir)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.True(t, m.uploading)
	assert.Equal(t, lifecycle.StateEmpty, m.ctrl.Snapshot().State)
	assert.Equal(t, "Session discarded", m.status)
}

func TestEscapeCancelsNewUpload(t *testing.T) {
	m, dir := newTestModel(t, stubBackend{})
	m = uploadFile(t, m, dir)

	m, _ = press(t, m, runeKey("u"))
	require.True(t, m.uploading)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.False(t, m.uploading)
	assert.Equal(t, lifecycle.StateConfiguring, m.ctrl.Snapshot().State)
}

func TestCtrlCAlwaysQuits(t *testing.T) {
	tests := []struct {
		name string
		busy bool
	}{
		{"idle", false},
		{"busy", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, stubBackend{})
			m.busy = tt.busy

			_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
			require.NotNil(t, cmd)
			_, ok := cmd().(tea.QuitMsg)
			assert.True(t, ok)
		})
	}
}

func TestSetErrorShowsRemoteMessage(t *testing.T) {
	m, _ := newTestModel(t, stubBackend{})

	m = m.setError(models.NewRemoteError(models.OpUpload, 502, "", nil))
	assert.Equal(t, "file upload failed", m.status)

	m = m.setError(errors.New("boom"))
	assert.Equal(t, "boom", m.status)
	assert.True(t, m.statusErr)
}
