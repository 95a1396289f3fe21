package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/racedash/go/internal/models"
	"github.com/mcdev12/racedash/go/internal/roster"
	"github.com/mcdev12/racedash/go/internal/store"
	"github.com/mcdev12/racedash/go/internal/timer"
)

// Feed turns store snapshots into pushed events. It runs one reconciler
// for every connected surface and renders the roster once per mode.
type Feed struct {
	store      store.Store
	cm         *ConnectionManager
	clock      clockwork.Clock
	reconciler *timer.Reconciler
	projectors map[roster.Mode]*roster.Projector

	mu        sync.RWMutex
	view      timer.View
	drivers   models.Drivers
	timer     *Event
	rosters   map[roster.Mode]*Event
	snapshots map[string]*Event

	wg sync.WaitGroup
}

// NewFeed creates a feed broadcasting through cm.
func NewFeed(st store.Store, cm *ConnectionManager, clock clockwork.Clock, tick time.Duration) *Feed {
	f := &Feed{
		store: st,
		cm:    cm,
		clock: clock,
		projectors: map[roster.Mode]*roster.Projector{
			roster.ModeAdmin:  roster.NewProjector(roster.ModeAdmin),
			roster.ModeViewer: roster.NewProjector(roster.ModeViewer),
		},
		drivers:   models.Drivers{},
		rosters:   make(map[roster.Mode]*Event),
		snapshots: make(map[string]*Event),
	}
	f.reconciler = timer.NewReconciler(clock, tick, f.onView)

	f.view = f.reconciler.Current()
	f.timer = f.mustEvent(EventTypeTimer, f.view)
	for mode := range f.projectors {
		f.rosters[mode] = f.mustEvent(EventTypeRoster, f.renderRoster(mode, f.drivers))
	}
	return f
}

// Start subscribes to the timer and the roster and pumps their snapshots
// until ctx is done.
func (f *Feed) Start(ctx context.Context) error {
	timerSub, err := f.store.Subscribe(ctx, models.PathTimer)
	if err != nil {
		return fmt.Errorf("subscribe to timer: %w", err)
	}
	driversSub, err := f.store.Subscribe(ctx, models.PathDrivers)
	if err != nil {
		timerSub.Close()
		return fmt.Errorf("subscribe to drivers: %w", err)
	}

	f.wg.Add(2)
	go f.pump(ctx, timerSub, f.onTimerSnapshot)
	go f.pump(ctx, driversSub, f.onDriversSnapshot)

	log.Info().Msg("feed subscribed to timer and drivers")
	return nil
}

// Wait blocks until both pumps have stopped.
func (f *Feed) Wait() {
	f.wg.Wait()
}

// InitialEvents returns the cached state a new surface of mode starts from.
func (f *Feed) InitialEvents(mode roster.Mode) []*Event {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var events []*Event
	for _, path := range []string{models.PathTimer, models.PathDrivers} {
		if ev := f.snapshots[path]; ev != nil {
			events = append(events, ev)
		}
	}
	events = append(events, f.timer)
	if ev := f.rosters[mode]; ev != nil {
		events = append(events, ev)
	}
	return events
}

// View returns the latest timer view.
func (f *Feed) View() timer.View {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.view
}

// Roster returns the latest rendered roster for mode.
func (f *Feed) Roster(mode roster.Mode) RosterPayload {
	f.mu.RLock()
	drivers := f.drivers
	f.mu.RUnlock()
	return f.renderRoster(mode, drivers)
}

func (f *Feed) pump(ctx context.Context, sub *store.Subscription, handle func(store.Event)) {
	defer f.wg.Done()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			if sub.Path() == models.PathTimer {
				f.reconciler.Stop()
			}
			return
		case ev, ok := <-sub.Events():
			if !ok {
				log.Warn().Str("path", sub.Path()).Msg("subscription closed")
				return
			}
			f.publishSnapshot(ev)
			handle(ev)
		}
	}
}

func (f *Feed) onTimerSnapshot(ev store.Event) {
	f.reconciler.Apply(ev)
}

func (f *Feed) onDriversSnapshot(ev store.Event) {
	if ev.Err != nil {
		log.Error().Err(ev.Err).Msg("drivers subscription failed")
		return
	}
	drivers, err := models.DecodeDrivers(ev.Value)
	if err != nil {
		log.Error().Err(err).Msg("failed to decode drivers snapshot")
		return
	}

	f.mu.Lock()
	f.drivers = drivers
	for mode := range f.projectors {
		event, err := NewEvent(EventTypeRoster, f.renderRoster(mode, drivers), f.clock.Now())
		if err != nil {
			log.Error().Err(err).Msg("failed to build roster event")
			continue
		}
		f.rosters[mode] = event
		f.cm.BroadcastToMode(mode, event)
	}
	f.mu.Unlock()
}

// onView is the reconciler sink.
func (f *Feed) onView(view timer.View) {
	event, err := NewEvent(EventTypeTimer, view, f.clock.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to build timer event")
		return
	}

	f.mu.Lock()
	f.view = view
	f.timer = event
	f.mu.Unlock()

	f.cm.Broadcast(event)
}

func (f *Feed) publishSnapshot(ev store.Event) {
	payload := SnapshotPayload{Path: ev.Path, Value: ev.Value}
	if ev.Err != nil {
		payload.Error = ev.Err.Error()
		payload.Value = nil
	}
	if payload.Value == nil {
		payload.Value = json.RawMessage("null")
	}

	event, err := NewEvent(EventTypeSnapshot, payload, f.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("path", ev.Path).Msg("failed to build snapshot event")
		return
	}

	f.mu.Lock()
	if ev.Err == nil {
		f.snapshots[ev.Path] = event
	}
	f.mu.Unlock()

	f.cm.Broadcast(event)
}

func (f *Feed) renderRoster(mode roster.Mode, drivers models.Drivers) RosterPayload {
	p := f.projectors[mode]
	if p == nil {
		p = f.projectors[roster.ModeViewer]
		mode = roster.ModeViewer
	}
	return RosterPayload{
		Mode:  mode,
		HTML:  p.RenderHTML(drivers),
		Count: len(drivers),
	}
}

func (f *Feed) mustEvent(eventType EventType, payload any) *Event {
	event, err := NewEvent(eventType, payload, f.clock.Now())
	if err != nil {
		panic(err)
	}
	return event
}
