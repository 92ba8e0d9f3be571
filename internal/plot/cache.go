package plot

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/iammorganparry/clive/apps/regression/internal/models"
)

// DefaultCacheSize is used when NewCache is given a non-positive size.
const DefaultCacheSize = 64

// Cache memoises derived geometry keyed by (result ID, plot kind,
// independents). Results are immutable once committed, so an entry never
// goes stale; it is only evicted when the cache is full. Concurrent
// requests for the same key share one computation.
//
// Values returned from the cache are shared and must be treated as read-only.
type Cache struct {
	mu      sync.Mutex
	entries map[string]any
	order   []string
	max     int
	group   singleflight.Group
}

// NewCache creates a cache holding at most size entries.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{entries: make(map[string]any, size), max: size}
}

// FunctionCurve is the memoised form of BuildFunctionCurve.
func (c *Cache) FunctionCurve(result *models.AnalysisResult, independents []string) (*FunctionPlot, error) {
	v, err := c.get(result, "function", independents, func() (any, error) {
		return BuildFunctionCurve(result, independents)
	})
	if err != nil || v == nil {
		return nil, err
	}
	return v.(*FunctionPlot), nil
}

// Parity is the memoised form of BuildParityPlot.
func (c *Cache) Parity(result *models.AnalysisResult) (*ReferencePlot, error) {
	v, err := c.get(result, "parity", nil, func() (any, error) {
		return BuildParityPlot(result)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ReferencePlot), nil
}

// Residuals is the memoised form of BuildResidualPlot.
func (c *Cache) Residuals(result *models.AnalysisResult) (*ReferencePlot, error) {
	v, err := c.get(result, "residuals", nil, func() (any, error) {
		return BuildResidualPlot(result)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ReferencePlot), nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) get(result *models.AnalysisResult, kind string, independents []string, build func() (any, error)) (any, error) {
	// Results without an ID cannot be told apart, so they are never cached.
	if result.ID == "" {
		return unwrapNil(build())
	}

	key := cacheKey(result.ID, kind, independents)
	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := unwrapNil(build())
		if err != nil {
			return nil, err
		}
		c.put(key, v)
		return v, nil
	})
	return v, err
}

func (c *Cache) put(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return
	}
	if len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = v
	c.order = append(c.order, key)
}

// unwrapNil turns a typed nil *FunctionPlot into an untyped nil so callers
// can test the interface value directly.
func unwrapNil(v any, err error) (any, error) {
	if p, ok := v.(*FunctionPlot); ok && p == nil {
		return nil, err
	}
	return v, err
}

func cacheKey(resultID, kind string, independents []string) string {
	return resultID + "\x00" + kind + "\x00" + strings.Join(independents, "\x1f")
}
