package core

import (
	"context"
	"sync"
	"time"

	"github.com/vampirenirmal/brandkit/internal/domain"
)

// Current-agent labels used once no stage is active.
const (
	AgentCompleted = "Completed"
	AgentError     = "Error"
	AgentCancelled = "Cancelled"
)

// Tracker owns the progress state of one generation and emits a snapshot
// per transition. Emission is serialized and blocks on the sink, so at
// most one update is ever outstanding.
type Tracker struct {
	mu          sync.Mutex
	ctx         context.Context
	packageID   string
	agents      []domain.AgentProgress
	bounds      []int
	overall     int
	current     string
	active      int
	sink        Sink
	sinkErr     error
	terminal    bool
	minInterval time.Duration
	lastEmit    time.Time
}

func newTracker(ctx context.Context, packageID string, names []string, bounds []int, sink Sink, minInterval time.Duration) *Tracker {
	agents := make([]domain.AgentProgress, len(names))
	for i, name := range names {
		agents[i] = domain.AgentProgress{
			AgentName: name,
			Status:    domain.StatusPending,
			Message:   "Waiting to start",
		}
	}
	return &Tracker{
		ctx:         ctx,
		packageID:   packageID,
		agents:      agents,
		bounds:      bounds,
		active:      -1,
		sink:        sink,
		minInterval: minInterval,
	}
}

// Start marks stage i in progress.
func (t *Tracker) Start(i int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active = i
	t.current = t.agents[i].AgentName
	t.agents[i].Status = domain.StatusInProgress
	t.agents[i].Message = message
	t.raise(t.bounds[i])
	t.emit(message, false, nil)
}

// Advance records intra-stage progress for stage i.
func (t *Tracker) Advance(i, percent int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.terminal || t.agents[i].Status != domain.StatusInProgress {
		return
	}
	percent = clamp(percent, 0, 100)
	if percent > t.agents[i].Progress {
		t.agents[i].Progress = percent
	}
	t.agents[i].Message = message
	t.raise(t.bounds[i] + (t.bounds[i+1]-t.bounds[i])*percent/100)
	t.emit(message, false, nil)
}

// Complete marks stage i done and attaches its result.
func (t *Tracker) Complete(i int, message string, result any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active = -1
	t.agents[i].Status = domain.StatusCompleted
	t.agents[i].Progress = 100
	t.agents[i].Message = message
	t.agents[i].Result = result
	t.raise(t.bounds[i+1])
	t.emit(message, false, nil)
}

// Finish emits the terminal success update.
func (t *Tracker) Finish(pkg *domain.BrandPackage, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = AgentCompleted
	t.raise(100)
	t.emit(message, true, pkg)
}

// Fail marks the active stage failed, if any, and emits the terminal
// update. Remaining agents keep their state.
func (t *Tracker) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active >= 0 {
		t.agents[t.active].Status = domain.StatusFailed
		t.agents[t.active].Message = message
	}
	t.current = AgentError
	t.emit(message, true, nil)
}

// Cancel emits a terminal update without failing any agent.
func (t *Tracker) Cancel(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = AgentCancelled
	t.emit(message, true, nil)
}

// Active returns the index of the in-progress stage, or -1.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Err returns the sink error that stopped emission, if any.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sinkErr
}

// raise only ever moves overall progress forward.
func (t *Tracker) raise(overall int) {
	if overall > t.overall {
		t.overall = clamp(overall, 0, 100)
	}
}

func (t *Tracker) emit(message string, completed bool, pkg *domain.BrandPackage) {
	if t.terminal || t.sinkErr != nil {
		return
	}
	if completed {
		t.terminal = true
	}

	t.pace()

	update := domain.ProgressUpdate{
		PackageID:       t.packageID,
		OverallProgress: t.overall,
		CurrentAgent:    t.current,
		Agents:          append([]domain.AgentProgress(nil), t.agents...),
		Message:         message,
		Completed:       completed,
		Result:          pkg,
	}
	if err := t.sink(update); err != nil {
		t.sinkErr = err
	}
	t.lastEmit = time.Now()
}

func (t *Tracker) pace() {
	if t.minInterval <= 0 || t.lastEmit.IsZero() {
		return
	}
	wait := t.minInterval - time.Since(t.lastEmit)
	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-t.ctx.Done():
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
