package api

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iammorganparry/clive/apps/regression/internal/lifecycle"
	"github.com/iammorganparry/clive/apps/regression/internal/models"
	"github.com/iammorganparry/clive/apps/regression/internal/plot"
	"github.com/iammorganparry/clive/apps/regression/internal/render"
)

// ResultsHandler serves the derived views of an analyzed workbench.
type ResultsHandler struct {
	workbenches *Workbenches
	plots       *plot.Cache
}

func NewResultsHandler(workbenches *Workbenches, plots *plot.Cache) *ResultsHandler {
	return &ResultsHandler{workbenches: workbenches, plots: plots}
}

// SummaryResponse is returned from GET /workbenches/{id}/summary.
type SummaryResponse struct {
	Dependent         string                        `json:"dependent"`
	Independents      []string                      `json:"independents"`
	Equation          string                        `json:"equation"`
	Metrics           plot.Metrics                  `json:"metrics"`
	Coefficients      []plot.CoefficientRow         `json:"coefficients"`
	Residuals         *plot.ResidualSummary         `json:"residuals,omitempty"`
	FunctionPlot      bool                          `json:"functionPlot"`
	CorrelationMatrix map[string]map[string]float64 `json:"correlationMatrix,omitempty"`
}

// analyzed resolves {id} and returns its snapshot, writing an error unless
// the workbench holds a result.
func (h *ResultsHandler) analyzed(w http.ResponseWriter, r *http.Request) (lifecycle.Snapshot, bool) {
	c := h.workbenches.Get(chi.URLParam(r, "id"))
	if c == nil {
		writeError(w, http.StatusNotFound, "workbench not found")
		return lifecycle.Snapshot{}, false
	}
	snap := c.Snapshot()
	if snap.State != lifecycle.StateAnalyzed {
		writeErr(w, fmt.Errorf("%w: run an analysis first", models.ErrWrongState))
		return snap, false
	}
	return snap, true
}

// Summary handles GET /workbenches/{id}/summary
func (h *ResultsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.analyzed(w, r)
	if !ok {
		return
	}
	res, ind := snap.Result, snap.Selection.Independents

	resp := SummaryResponse{
		Dependent:         snap.Selection.Dependent,
		Independents:      ind,
		Equation:          plot.RenderEquation(res, snap.Selection.Dependent, ind),
		Metrics:           plot.FormatMetrics(res),
		Coefficients:      plot.CoefficientTable(res, ind),
		FunctionPlot:      plot.SupportsFunctionPlot(ind),
		CorrelationMatrix: res.CorrelationMatrix,
	}
	if rs, err := plot.SummarizeResiduals(res); err == nil {
		resp.Residuals = &rs
	}
	writeJSON(w, http.StatusOK, resp)
}

// Plot handles GET /workbenches/{id}/plots/{name}. A name with a .png or
// .svg extension returns a static image instead of JSON geometry.
func (h *ResultsHandler) Plot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ext := path.Ext(name)
	kind := strings.TrimSuffix(name, ext)

	snap, ok := h.analyzed(w, r)
	if !ok {
		return
	}

	if ext == "" {
		geometry, err := h.geometry(snap, kind)
		if err != nil {
			writeErr(w, err)
			return
		}
		if geometry == nil {
			writeError(w, http.StatusNotFound, "plot not available")
			return
		}
		writeJSON(w, http.StatusOK, geometry)
		return
	}

	format, err := render.ParseImageFormat(strings.TrimPrefix(ext, "."))
	if err != nil {
		writeErr(w, err)
		return
	}
	var buf bytes.Buffer
	if err := h.image(&buf, format, snap, kind); err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *ResultsHandler) geometry(snap lifecycle.Snapshot, kind string) (any, error) {
	switch kind {
	case "function":
		fp, err := h.plots.FunctionCurve(snap.Result, snap.Selection.Independents)
		if fp == nil || err != nil {
			return nil, err
		}
		return fp, nil
	case "parity":
		return h.plots.Parity(snap.Result)
	case "residuals":
		return h.plots.Residuals(snap.Result)
	default:
		return nil, fmt.Errorf("%w: unknown plot %q", render.ErrUnsupportedChart, kind)
	}
}

func (h *ResultsHandler) image(buf *bytes.Buffer, format render.ImageFormat, snap lifecycle.Snapshot, kind string) error {
	switch kind {
	case "function":
		fp, err := h.plots.FunctionCurve(snap.Result, snap.Selection.Independents)
		if err != nil {
			return err
		}
		return render.WriteFunctionImage(buf, format, fp)
	case "parity":
		rp, err := h.plots.Parity(snap.Result)
		if err != nil {
			return err
		}
		return render.WriteReferenceImage(buf, format, "Actual vs predicted", "Actual", "Predicted", rp)
	case "residuals":
		rp, err := h.plots.Residuals(snap.Result)
		if err != nil {
			return err
		}
		return render.WriteReferenceImage(buf, format, "Residuals", "Predicted", "Residual", rp)
	default:
		return fmt.Errorf("%w: unknown plot %q", render.ErrUnsupportedChart, kind)
	}
}

// Dashboard handles GET /workbenches/{id}/dashboard
func (h *ResultsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.analyzed(w, r)
	if !ok {
		return
	}
	d, err := render.BuildDashboard(h.plots, snap.Session, snap.Result, snap.Selection)
	if err != nil {
		writeErr(w, err)
		return
	}

	var buf bytes.Buffer
	if err := render.WriteDashboard(&buf, d); err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
