package reconcile

import (
	"sync"

	"github.com/rs/zerolog"
)

// Registry tracks which requests currently have a running worker, so that
// duplicate webhook deliveries coalesce instead of spawning independent
// concurrent loops. Once a worker exits the id is released and a later
// trigger may spawn a fresh one.
type Registry struct {
	mu      sync.Mutex
	running map[string]struct{}
	run     func(requestID string)
	logger  zerolog.Logger
}

func NewRegistry(run func(requestID string), logger zerolog.Logger) *Registry {
	return &Registry{
		running: make(map[string]struct{}),
		run:     run,
		logger:  logger.With().Str("component", "registry").Logger(),
	}
}

// Spawn starts a worker for the request unless one is already running.
// Reports whether a worker was started.
func (r *Registry) Spawn(requestID string) bool {
	r.mu.Lock()

	if _, ok := r.running[requestID]; ok {
		r.mu.Unlock()
		r.logger.Debug().Str("request_id", requestID).Msg("worker already running, trigger coalesced")

		return false
	}

	r.running[requestID] = struct{}{}
	r.mu.Unlock()

	go func() {
		defer r.release(requestID)
		r.run(requestID)
	}()

	return true
}

func (r *Registry) release(requestID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.running, requestID)
}

// Running reports whether a worker for the request is currently active.
func (r *Registry) Running(requestID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.running[requestID]

	return ok
}
