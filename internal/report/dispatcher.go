// Package report requests report files from the analysis service and hands
// them to a sink.
package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/iammorganparry/clive/apps/regression/internal/analysis"
	"github.com/iammorganparry/clive/apps/regression/internal/models"
	"github.com/iammorganparry/clive/apps/regression/internal/selection"
)

// Generator produces a report stream for a request.
type Generator interface {
	GenerateReport(ctx context.Context, req models.ReportRequest) (io.ReadCloser, error)
}

// Sink receives a finished report under its delivery name and returns the
// number of bytes written.
type Sink interface {
	Deliver(name string, r io.Reader) (int64, error)
}

// Delivery describes a report handed to a sink.
type Delivery struct {
	FileName string              `json:"fileName"`
	Format   models.ReportFormat `json:"format"`
	Bytes    int64               `json:"bytes"`
}

// Dispatcher validates report requests and delivers the generated file.
// It never retries: a failed generation is returned as-is.
type Dispatcher struct {
	gen    Generator
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher backed by gen.
func NewDispatcher(gen Generator, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{gen: gen, logger: logger}
}

// ParseFormat accepts exactly "pdf" or "xlsx".
func ParseFormat(s string) (models.ReportFormat, error) {
	f := models.ReportFormat(s)
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q (want pdf or xlsx)", models.ErrInvalidFormat, s)
	}
	return f, nil
}

// Dispatch requests a report for the session's current selection and
// delivers it to sink as regression_report.<format>. All validation happens
// before the service is called.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *models.Session, sel selection.Selection, format string, sink Sink) (*Delivery, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	req, err := analysis.BuildReport(sess, sel, f)
	if err != nil {
		return nil, err
	}

	rc, err := d.gen.GenerateReport(ctx, req)
	if err != nil {
		d.logger.Warn("report generation failed", "session_id", sess.ID, "format", f, "error", err)
		return nil, err
	}
	defer rc.Close()

	name := f.FileName()
	n, err := sink.Deliver(name, rc)
	if err != nil {
		return nil, fmt.Errorf("deliver %s: %w", name, err)
	}

	d.logger.Info("report delivered", "session_id", sess.ID, "file", name, "bytes", n)
	return &Delivery{FileName: name, Format: f, Bytes: n}, nil
}
