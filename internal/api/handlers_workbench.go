package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/iammorganparry/clive/apps/regression/internal/lifecycle"
	"github.com/iammorganparry/clive/apps/regression/internal/models"
)

// WorkbenchHandler drives the session lifecycle of each workbench.
type WorkbenchHandler struct {
	workbenches    *Workbenches
	maxUploadBytes int64
}

func NewWorkbenchHandler(workbenches *Workbenches, maxUploadBytes int64) *WorkbenchHandler {
	return &WorkbenchHandler{workbenches: workbenches, maxUploadBytes: maxUploadBytes}
}

type variableRequest struct {
	Name string `json:"name"`
}

type reportRequest struct {
	Format string `json:"format"`
}

// controller resolves {id} or writes a 404.
func (h *WorkbenchHandler) controller(w http.ResponseWriter, r *http.Request) *lifecycle.Controller {
	id := chi.URLParam(r, "id")
	c := h.workbenches.Get(id)
	if c == nil {
		writeError(w, http.StatusNotFound, "workbench not found")
	}
	return c
}

// detached keeps a dispatched remote call running if the client goes away.
func detached(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// Create handles POST /workbenches
func (h *WorkbenchHandler) Create(w http.ResponseWriter, r *http.Request) {
	c := h.workbenches.Create()
	writeJSON(w, http.StatusCreated, c.Snapshot())
}

// List handles GET /workbenches
func (h *WorkbenchHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"workbenches": h.workbenches.IDs()})
}

// Get handles GET /workbenches/{id}
func (h *WorkbenchHandler) Get(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)
	if c == nil {
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// Delete handles DELETE /workbenches/{id}
func (h *WorkbenchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)
	if c == nil {
		return
	}
	if c.Snapshot().Busy {
		writeErr(w, models.ErrBusy)
		return
	}
	h.workbenches.Delete(c.ID())
	w.WriteHeader(http.StatusNoContent)
}

// Upload handles POST /workbenches/{id}/upload (multipart field "file")
func (h *WorkbenchHandler) Upload(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)
	if c == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if _, err := c.Upload(detached(r), header.Filename, file); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// Discard handles DELETE /workbenches/{id}/session
func (h *WorkbenchHandler) Discard(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)
	if c == nil {
		return
	}
	if err := c.Discard(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// Selection handles GET /workbenches/{id}/selection
func (h *WorkbenchHandler) Selection(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)
	if c == nil {
		return
	}
	snap := c.Snapshot()
	if snap.Session == nil {
		writeErr(w, models.ErrNoSession)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"columns":    snap.Session.Columns,
		"dependent":  snap.Selection.Dependent,
		"candidates": snap.Candidates,
		"selected":   snap.Selection.Independents,
		"valid":      snap.Selection.IsValid(),
	})
}

// SetDependent handles PUT /workbenches/{id}/selection/dependent
func (h *WorkbenchHandler) SetDependent(w http.ResponseWriter, r *http.Request) {
	h.editSelection(w, r, (*lifecycle.Controller).SetDependent)
}

// ToggleIndependent handles POST /workbenches/{id}/selection/toggle
func (h *WorkbenchHandler) ToggleIndependent(w http.ResponseWriter, r *http.Request) {
	h.editSelection(w, r, (*lifecycle.Controller).ToggleIndependent)
}

func (h *WorkbenchHandler) editSelection(w http.ResponseWriter, r *http.Request, edit func(*lifecycle.Controller, string) error) {
	c := h.controller(w, r)
	if c == nil {
		return
	}
	var req variableRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := edit(c, req.Name); err != nil {
		writeErr(w, err)
		return
	}
	h.Selection(w, r)
}

// Analyze handles POST /workbenches/{id}/analyze
func (h *WorkbenchHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)
	if c == nil {
		return
	}
	if _, err := c.Analyze(detached(r)); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// Back handles POST /workbenches/{id}/back
func (h *WorkbenchHandler) Back(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)
	if c == nil {
		return
	}
	if err := c.BackToSelection(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// Report handles POST /workbenches/{id}/report and streams the file back as
// an attachment named regression_report.<format>.
func (h *WorkbenchHandler) Report(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)
	if c == nil {
		return
	}
	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	sink := &attachmentSink{w: w}
	if _, err := c.Report(detached(r), req.Format, sink); err != nil {
		// Headers are already out once streaming began.
		if !sink.started {
			writeErr(w, err)
		}
		return
	}
}

var reportContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// attachmentSink writes a report straight into the HTTP response.
type attachmentSink struct {
	w       http.ResponseWriter
	started bool
}

func (s *attachmentSink) Deliver(name string, r io.Reader) (int64, error) {
	ct, ok := reportContentTypes[path.Ext(name)]
	if !ok {
		ct = "application/octet-stream"
	}
	s.started = true
	s.w.Header().Set("Content-Type", ct)
	s.w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	s.w.WriteHeader(http.StatusOK)
	n, err := io.Copy(s.w, r)
	if err != nil {
		return n, fmt.Errorf("stream report: %w", err)
	}
	return n, nil
}
