package api

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/iammorganparry/clive/apps/regression/internal/lifecycle"
)

// Workbenches holds one lifecycle controller per workbench id so separate
// clients never share a session.
type Workbenches struct {
	backend  lifecycle.Backend
	recorder lifecycle.Recorder
	logger   *slog.Logger

	mu    sync.RWMutex
	items map[string]*lifecycle.Controller
}

// NewWorkbenches creates an empty registry. recorder may be nil.
func NewWorkbenches(backend lifecycle.Backend, recorder lifecycle.Recorder, logger *slog.Logger) *Workbenches {
	return &Workbenches{
		backend:  backend,
		recorder: recorder,
		logger:   logger,
		items:    make(map[string]*lifecycle.Controller),
	}
}

// Create starts a new workbench in the Empty state.
func (wb *Workbenches) Create() *lifecycle.Controller {
	var opts []lifecycle.Option
	if wb.recorder != nil {
		opts = append(opts, lifecycle.WithRecorder(wb.recorder))
	}
	c := lifecycle.New(uuid.New().String(), wb.backend, wb.logger, opts...)

	wb.mu.Lock()
	wb.items[c.ID()] = c
	wb.mu.Unlock()
	return c
}

// Get returns the workbench with id, or nil.
func (wb *Workbenches) Get(id string) *lifecycle.Controller {
	wb.mu.RLock()
	defer wb.mu.RUnlock()
	return wb.items[id]
}

// Delete removes a workbench. It reports whether it existed.
func (wb *Workbenches) Delete(id string) bool {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	_, ok := wb.items[id]
	delete(wb.items, id)
	return ok
}

// Len is the number of open workbenches.
func (wb *Workbenches) Len() int {
	wb.mu.RLock()
	defer wb.mu.RUnlock()
	return len(wb.items)
}

// IDs lists open workbench ids in sorted order.
func (wb *Workbenches) IDs() []string {
	wb.mu.RLock()
	defer wb.mu.RUnlock()
	ids := make([]string, 0, len(wb.items))
	for id := range wb.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
