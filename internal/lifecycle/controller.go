// Package lifecycle owns the session, the variable selection and the
// committed analysis result, and moves them through the
// Empty -> Configuring -> Analyzed state machine.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/iammorganparry/clive/apps/regression/internal/analysis"
	"github.com/iammorganparry/clive/apps/regression/internal/models"
	"github.com/iammorganparry/clive/apps/regression/internal/report"
	"github.com/iammorganparry/clive/apps/regression/internal/selection"
)

// State is a position in the session lifecycle.
type State int

const (
	StateEmpty State = iota
	StateConfiguring
	StateAnalyzed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateConfiguring:
		return "configuring"
	case StateAnalyzed:
		return "analyzed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Backend is the remote analysis service.
type Backend interface {
	Upload(ctx context.Context, fileName string, r io.Reader) (*models.Session, error)
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResult, error)
	report.Generator
}

// Recorder persists committed transitions. Failures are logged, never
// returned to the caller.
type Recorder interface {
	RecordUpload(workbenchID string, sess *models.Session) error
	RecordDiscard(sessionID string) error
	RecordAnalysis(sessionID string, r *models.AnalysisResult) error
	RecordReport(rec models.ReportRecord) error
}

// Snapshot is a read-only view of the committed state. Session and Result
// are shared and must not be modified.
type Snapshot struct {
	ID         string                 `json:"id"`
	State      State                  `json:"state"`
	Busy       bool                   `json:"busy"`
	Session    *models.Session        `json:"session,omitempty"`
	Selection  selection.Selection    `json:"selection"`
	Candidates []string               `json:"candidates,omitempty"`
	Result     *models.AnalysisResult `json:"result,omitempty"`
}

// Controller drives one workbench. Remote calls are gated by a busy flag:
// while one is in flight every other action fails with models.ErrBusy.
type Controller struct {
	id         string
	backend    Backend
	dispatcher *report.Dispatcher
	recorder   Recorder
	logger     *slog.Logger

	mu       sync.Mutex
	state    State
	busy     bool
	session  *models.Session
	selector *selection.Selector
	result   *models.AnalysisResult
}

// Option configures a Controller.
type Option func(*Controller)

// WithRecorder records committed transitions to r.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// New creates a controller in the Empty state.
func New(id string, backend Backend, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		id:         id,
		backend:    backend,
		dispatcher: report.NewDispatcher(backend, logger),
		logger:     logger.With("workbench", id),
		state:      StateEmpty,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the workbench id.
func (c *Controller) ID() string {
	return c.id
}

// Snapshot returns the latest committed state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		ID:      c.id,
		State:   c.state,
		Busy:    c.busy,
		Session: c.session,
		Result:  c.result,
	}
	if c.selector != nil {
		snap.Selection = c.selector.Selection()
		snap.Candidates = c.selector.Candidates()
	}
	return snap
}

// Upload sends a file to the service. On success the new session replaces
// any previous one, the selection is reset and any result is discarded.
// On failure the committed state is left as it was.
func (c *Controller) Upload(ctx context.Context, fileName string, r io.Reader) (*models.Session, error) {
	if !models.IsAcceptedUpload(fileName) {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedFile, fileName)
	}
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.guard()

	sess, err := c.backend.Upload(ctx, fileName, r)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("upload failed", "file", fileName, "error", err)
		return nil, err
	}
	prev := c.session
	c.session = sess
	c.selector = selection.NewSelector(sess.Columns)
	c.result = nil
	c.state = StateConfiguring
	c.mu.Unlock()

	c.logger.Info("session uploaded", "session_id", sess.ID, "rows", sess.RowCount, "columns", len(sess.Columns))
	if prev != nil && prev.ID != sess.ID {
		c.record("discard", func(r Recorder) error { return r.RecordDiscard(prev.ID) })
	}
	c.record("upload", func(r Recorder) error { return r.RecordUpload(c.id, sess) })
	return sess, nil
}

// SetDependent chooses the response variable.
func (c *Controller) SetDependent(name string) error {
	return c.editSelection(func(s *selection.Selector) error { return s.SetDependent(name) })
}

// ToggleIndependent adds or removes a predictor.
func (c *Controller) ToggleIndependent(name string) error {
	return c.editSelection(func(s *selection.Selector) error { return s.ToggleIndependent(name) })
}

func (c *Controller) editSelection(edit func(*selection.Selector) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return models.ErrBusy
	}
	switch c.state {
	case StateEmpty:
		return models.ErrNoSession
	case StateAnalyzed:
		return fmt.Errorf("%w: go back to variable selection first", models.ErrWrongState)
	}
	return edit(c.selector)
}

// Analyze fits the current selection. The selection is validated before
// the service is called; on success the state moves to Analyzed.
func (c *Controller) Analyze(ctx context.Context) (*models.AnalysisResult, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, models.ErrBusy
	}
	switch c.state {
	case StateEmpty:
		c.mu.Unlock()
		return nil, models.ErrNoSession
	case StateAnalyzed:
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: already analyzed", models.ErrWrongState)
	}
	sess := c.session
	req, err := analysis.Build(sess, c.selector.Selection())
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.busy = true
	c.mu.Unlock()
	defer c.guard()

	result, err := c.backend.Analyze(ctx, req)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("analysis failed", "session_id", sess.ID, "error", err)
		return nil, err
	}
	c.result = result
	c.state = StateAnalyzed
	c.mu.Unlock()

	c.logger.Info("analysis committed",
		"session_id", sess.ID,
		"dependent", result.Dependent,
		"independents", result.Independents,
		"r_squared", result.RSquared,
	)
	c.record("analysis", func(r Recorder) error { return r.RecordAnalysis(sess.ID, result) })
	return result, nil
}

// BackToSelection discards the result and keeps the session and selection.
func (c *Controller) BackToSelection() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return models.ErrBusy
	}
	if c.state != StateAnalyzed {
		return fmt.Errorf("%w: no analysis to leave", models.ErrWrongState)
	}
	c.result = nil
	c.state = StateConfiguring
	return nil
}

// Discard clears the session and returns to Empty.
func (c *Controller) Discard() error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return models.ErrBusy
	}
	if c.state == StateEmpty {
		c.mu.Unlock()
		return models.ErrNoSession
	}
	prev := c.session
	c.session = nil
	c.selector = nil
	c.result = nil
	c.state = StateEmpty
	c.mu.Unlock()

	c.logger.Info("session discarded", "session_id", prev.ID)
	c.record("discard", func(r Recorder) error { return r.RecordDiscard(prev.ID) })
	return nil
}

// Report generates a report for the current selection and hands it to
// sink. It is available whenever a session exists.
func (c *Controller) Report(ctx context.Context, format string, sink report.Sink) (*report.Delivery, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, models.ErrBusy
	}
	if c.session == nil {
		c.mu.Unlock()
		return nil, models.ErrNoSession
	}
	sess := c.session
	sel := c.selector.Selection()
	c.busy = true
	c.mu.Unlock()
	defer c.guard()

	delivery, err := c.dispatcher.Dispatch(ctx, sess, sel, format, sink)

	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.record("report", func(r Recorder) error {
		return r.RecordReport(models.ReportRecord{
			SessionID: sess.ID,
			Format:    delivery.Format,
			FileName:  delivery.FileName,
			Bytes:     delivery.Bytes,
		})
	})
	return delivery, nil
}

// begin claims the busy flag.
func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return models.ErrBusy
	}
	c.busy = true
	return nil
}

// guard clears the busy flag when a remote call panics, then re-panics.
// It must be deferred directly so recover sees the panic.
func (c *Controller) guard() {
	if p := recover(); p != nil {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
		panic(p)
	}
}

func (c *Controller) record(what string, fn func(Recorder) error) {
	if c.recorder == nil {
		return
	}
	if err := fn(c.recorder); err != nil {
		c.logger.Error("failed to record history", "event", what, "error", err)
	}
}
