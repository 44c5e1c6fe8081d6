package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/uGE89/gestion-compras-app-sub000/internal/api/dto"
	"github.com/uGE89/gestion-compras-app-sub000/internal/application/reconcile"
)

// Base provides shared functionality for all handlers.
type Base struct {
	svc  *reconcile.Service
	runs *RunCache
}

// NewBase creates a new base handler with the given service.
func NewBase(svc *reconcile.Service, runs *RunCache) *Base {
	return &Base{svc: svc, runs: runs}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// RunCache holds loaded runs keyed by session key so repeated requests
// against the same period reuse the prebuilt indexes. Runs are not safe
// for concurrent mutation, so all access goes through the cache lock.
type RunCache struct {
	mu   sync.Mutex
	svc  *reconcile.Service
	runs map[string]*reconcile.Run
}

// NewRunCache creates an empty run cache backed by the given service.
func NewRunCache(svc *reconcile.Service) *RunCache {
	return &RunCache{
		svc:  svc,
		runs: make(map[string]*reconcile.Run),
	}
}

// put stores a freshly loaded run under its session key.
func (c *RunCache) put(run *reconcile.Run) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[run.Session.Key] = run
}

// with runs fn against the run for key, rebuilding it from the row cache
// when the server has restarted since the period was loaded.
func (c *RunCache) with(ctx context.Context, key string, fn func(*reconcile.Run) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	run, ok := c.runs[key]
	if !ok {
		var err error
		run, err = c.svc.LoadCachedPeriod(ctx, key)
		if err != nil {
			return err
		}
		c.runs[key] = run
	}

	return fn(run)
}
