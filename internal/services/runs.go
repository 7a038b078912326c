package services

import (
	"context"
	"errors"
	"sync"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/metrics"
)

// ErrSuperseded is the cancel cause of a run replaced by a newer run on the
// same surface.
var ErrSuperseded = errors.New("run superseded by a newer run on the same surface")

// RunRegistry keeps at most one active run per output surface.
type RunRegistry struct {
	mu     sync.Mutex
	seq    uint64
	active map[string]activeRun
}

type activeRun struct {
	id     uint64
	cancel context.CancelCauseFunc
}

func NewRunRegistry() *RunRegistry {
	return &RunRegistry{active: make(map[string]activeRun)}
}

// Begin starts a run for surface, canceling any run already in flight there.
// The returned release func must be called when the run ends.
func (r *RunRegistry) Begin(parent context.Context, surface string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)

	r.mu.Lock()
	r.seq++
	id := r.seq
	if prev, ok := r.active[surface]; ok {
		prev.cancel(ErrSuperseded)
		metrics.AnalysisRunsSuperseded.Inc()
	}
	r.active[surface] = activeRun{id: id, cancel: cancel}
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		if cur, ok := r.active[surface]; ok && cur.id == id {
			delete(r.active, surface)
		}
		r.mu.Unlock()
		cancel(nil)
	}
	return ctx, release
}

// Active reports how many surfaces have a run in flight.
func (r *RunRegistry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Superseded reports whether ctx was canceled because a newer run started.
func Superseded(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrSuperseded)
}
