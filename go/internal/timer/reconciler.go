package timer

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/racedash/go/internal/models"
	"github.com/mcdev12/racedash/go/internal/store"
)

// Status is the connection/run indicator shown next to the clock.
type Status string

const (
	StatusStopped Status = "Stopped"
	StatusRunning Status = "Running"
	StatusError   Status = "Error connecting"
)

// DefaultInterval is the display recompute cadence.
const DefaultInterval = 250 * time.Millisecond

// View is what a surface shows for the timer.
type View struct {
	Status  Status `json:"status"`
	Display string `json:"display"`
	Elapsed int64  `json:"elapsed"`
	// Raw is the last snapshot, indented, for the debug panel.
	Raw string `json:"raw"`
}

// Sink receives every recomputed view. It is called with the reconciler
// lock held and must not call back into the reconciler.
type Sink func(View)

type loop struct {
	ticker clockwork.Ticker
	stop   chan struct{}
	done   chan struct{}
}

// Reconciler turns timer snapshots into views and keeps the display
// ticking while the timer runs. At most one tick loop is live at a time.
type Reconciler struct {
	clock    clockwork.Clock
	interval time.Duration
	sink     Sink

	mu     sync.Mutex
	record *models.TimerRecord
	view   View
	loop   *loop

	// loops counts tick loops started and not yet cancelled
	loops atomic.Int32
}

// NewReconciler creates a reconciler. A nil sink discards views.
func NewReconciler(clock clockwork.Clock, interval time.Duration, sink Sink) *Reconciler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if sink == nil {
		sink = func(View) {}
	}
	return &Reconciler{
		clock:    clock,
		interval: interval,
		sink:     sink,
		view: View{
			Status:  StatusStopped,
			Display: FormatElapsed(0),
			Raw:     "null",
		},
	}
}

// OnSnapshot applies a new timer snapshot; nil means no record is stored.
func (r *Reconciler) OnSnapshot(rec *models.TimerRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record = rec
	r.view.Raw = indent(rec)

	r.cancelLoopLocked()
	if rec != nil && rec.Running {
		r.view.Status = StatusRunning
		r.startLoopLocked()
	} else {
		r.view.Status = StatusStopped
	}
	r.emitLocked()
}

// OnError marks the subscription as failed. The display freezes at the
// last computed value until the next snapshot arrives.
func (r *Reconciler) OnError(err error) {
	log.Error().Err(err).Msg("timer subscription failed")

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelLoopLocked()
	r.view.Status = StatusError
	r.sink(r.view)
}

// Apply routes one store event to OnSnapshot or OnError.
func (r *Reconciler) Apply(ev store.Event) {
	if ev.Err != nil {
		r.OnError(ev.Err)
		return
	}
	rec, err := models.DecodeTimer(ev.Value)
	if err != nil {
		r.OnError(err)
		return
	}
	r.OnSnapshot(rec)
}

// Run consumes sub until it is closed or ctx is done, then stops ticking.
func (r *Reconciler) Run(ctx context.Context, sub *store.Subscription) {
	defer r.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			r.Apply(ev)
		}
	}
}

// Stop cancels the tick loop, if any.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	l := r.loop
	r.cancelLoopLocked()
	r.mu.Unlock()

	// the goroutine may be waiting on mu, so wait only after releasing it
	if l != nil {
		<-l.done
	}
}

// Current returns the latest view.
func (r *Reconciler) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

// ActiveLoops reports the number of live tick loops, 0 or 1.
func (r *Reconciler) ActiveLoops() int {
	return int(r.loops.Load())
}

func (r *Reconciler) emitLocked() {
	elapsed := Displayed(r.record, r.clock.Now())
	r.view.Elapsed = elapsed
	r.view.Display = FormatElapsed(elapsed)
	r.sink(r.view)
}

func (r *Reconciler) startLoopLocked() {
	l := &loop{
		ticker: r.clock.NewTicker(r.interval),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	r.loop = l
	r.loops.Add(1)

	go func() {
		defer close(l.done)
		for {
			select {
			case <-l.stop:
				return
			case <-l.ticker.Chan():
				r.mu.Lock()
				// a snapshot may have replaced this loop while we waited
				if r.loop == l {
					r.emitLocked()
				}
				r.mu.Unlock()
			}
		}
	}()
}

func (r *Reconciler) cancelLoopLocked() {
	if r.loop == nil {
		return
	}
	r.loop.ticker.Stop()
	close(r.loop.stop)
	r.loop = nil
	r.loops.Add(-1)
}

func indent(rec *models.TimerRecord) string {
	if rec == nil {
		return "null"
	}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "null"
	}
	return string(raw)
}
