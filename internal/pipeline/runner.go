package pipeline

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// CancelledStatus is the status delivered when a run is cancelled.
const CancelledStatus = "Conversion cancelled"

// Runner executes at most one active conversion at a time on a background
// goroutine and forwards its events to an Observer.
type Runner struct {
	pipeline *Pipeline
	logger   *log.Logger
	newID    func() string

	mu     sync.Mutex
	active *run
	wg     sync.WaitGroup
}

// NewRunner creates a Runner over p.
func NewRunner(p *Pipeline, logger *log.Logger) *Runner {
	return &Runner{
		pipeline: p,
		logger:   logger,
		newID:    func() string { return uuid.New().String() },
	}
}

// Handle refers to one started run.
type Handle struct {
	ID   string
	done chan struct{}
}

// Done is closed once the run's worker has returned, its temporary files are
// gone and every delivered event has reached the observer.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// run is the per-run event queue. Events are appended under mu and drained
// by one dispatcher goroutine, so emitters never block on the observer.
type run struct {
	id        string
	cancelled atomic.Bool

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
}

func newRun(id string) *run {
	r := &run{id: id}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// push queues events unless the run is already closed. final marks the
// queue finished after these events.
func (r *run) push(final bool, evs ...Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	for _, ev := range evs {
		ev.RunID = r.id
		r.queue = append(r.queue, ev)
	}
	if final {
		r.closed = true
	}
	r.cond.Signal()
	return true
}

func (r *run) next() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.queue) == 0 && !r.closed {
		r.cond.Wait()
	}
	if len(r.queue) == 0 {
		return Event{}, false
	}
	ev := r.queue[0]
	r.queue = r.queue[1:]
	return ev, true
}

func (r *run) emit(ev Event) {
	r.push(ev.Terminal(), ev)
}

// Start launches a conversion of req. It fails with ErrRunActive while
// another run is active.
func (rn *Runner) Start(req Request, obs Observer) (*Handle, error) {
	rn.mu.Lock()
	if rn.active != nil {
		rn.mu.Unlock()
		return nil, ErrRunActive
	}
	r := newRun(rn.newID())
	rn.active = r
	rn.wg.Add(1)
	rn.mu.Unlock()

	h := &Handle{ID: r.id, done: make(chan struct{})}
	if rn.logger != nil {
		rn.logger.Printf("pipeline: run %s started for %s", r.id, req.SourcePath)
	}

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for {
			ev, ok := r.next()
			if !ok {
				return
			}
			deliver(obs, ev)
		}
	}()

	go func() {
		defer rn.wg.Done()
		defer close(h.done)

		out, err := rn.pipeline.Run(context.Background(), req, r.cancelled.Load, r.emit)
		switch {
		case errors.Is(err, ErrCancelled) || r.cancelled.Load():
			// cancel already delivered its own events
		case err != nil:
			r.emit(Event{Kind: EventFailed, Err: AsConversionError(err)})
		default:
			r.emit(Event{Kind: EventCompleted, Outcome: out})
		}
		r.push(true)
		<-dispatched
		// The slot stays held until the terminal event has reached the
		// observer, so a Start made from that callback sees ErrRunActive.
		rn.release(r)
		if rn.logger != nil {
			rn.logger.Printf("pipeline: run %s finished", r.id)
		}
	}()

	return h, nil
}

// Cancel requests cooperative cancellation of the active run. Progress 0 and
// CancelledStatus are delivered immediately; later events of the run are
// dropped and a new run may start at once. The worker itself stops at its
// next stage boundary.
func (rn *Runner) Cancel() error {
	rn.mu.Lock()
	r := rn.active
	rn.active = nil
	rn.mu.Unlock()
	if r == nil {
		return ErrNoActiveRun
	}

	r.cancelled.Store(true)
	r.push(true,
		Event{Kind: EventProgress, Percent: pctStart},
		Event{Kind: EventStatus, Status: CancelledStatus},
	)
	if rn.logger != nil {
		rn.logger.Printf("pipeline: run %s cancelled", r.id)
	}
	return nil
}

// Running reports whether a run is active. A run stays active until its
// terminal event has been delivered or it is cancelled.
func (rn *Runner) Running() bool {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	return rn.active != nil
}

// Wait blocks until every started worker, cancelled or not, has returned.
func (rn *Runner) Wait() {
	rn.wg.Wait()
}

func (rn *Runner) release(r *run) {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	if rn.active == r {
		rn.active = nil
	}
}
