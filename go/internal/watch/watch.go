package watch

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/racedash/go/internal/gateway"
	"github.com/mcdev12/racedash/go/internal/models"
	"github.com/mcdev12/racedash/go/internal/roster"
	"github.com/mcdev12/racedash/go/internal/store"
	"github.com/mcdev12/racedash/go/internal/timer"
)

// EventSource delivers gateway events until it fails or ctx ends.
type EventSource interface {
	Run(ctx context.Context, fn func(*gateway.Event)) error
}

// Options configures a watch session
type Options struct {
	Server       string
	Mode         roster.Mode
	Clock        clockwork.Clock
	TickInterval time.Duration
	ProgramOpts  []tea.ProgramOption
}

// Run shows the dashboard in the terminal until the user quits or ctx ends.
// Timer snapshots run through a local reconciler so the clock keeps
// ticking between server pushes.
func Run(ctx context.Context, source EventSource, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	programOpts := append([]tea.ProgramOption{tea.WithContext(ctx)}, opts.ProgramOpts...)
	p := tea.NewProgram(NewModel(opts.Server, opts.Mode), programOpts...)

	reconciler := timer.NewReconciler(opts.Clock, opts.TickInterval, func(v timer.View) {
		p.Send(ViewMsg(v))
	})
	defer reconciler.Stop()

	go func() {
		err := source.Run(ctx, func(ev *gateway.Event) {
			Dispatch(ev, reconciler, p.Send)
		})
		if err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("lost connection to server")
			reconciler.OnError(err)
			p.Send(ErrMsg{Err: err})
		}
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}

// Dispatch routes one snapshot event: timer values go to the reconciler,
// roster values are sent as DriversMsg. Other events are ignored.
func Dispatch(ev *gateway.Event, reconciler *timer.Reconciler, send func(tea.Msg)) {
	if ev.Type != gateway.EventTypeSnapshot {
		return
	}

	parsed, err := gateway.ParseEventPayload(ev)
	if err != nil {
		log.Warn().Err(err).Msg("malformed snapshot event")
		return
	}
	payload := parsed.(gateway.SnapshotPayload)

	var snapErr error
	if payload.Error != "" {
		snapErr = fmt.Errorf("%s: %s", payload.Path, payload.Error)
	}

	switch payload.Path {
	case models.PathTimer:
		reconciler.Apply(store.Event{Path: payload.Path, Value: payload.Value, Err: snapErr})
	case models.PathDrivers:
		if snapErr != nil {
			log.Error().Err(snapErr).Msg("drivers subscription failed")
			return
		}
		drivers, err := models.DecodeDrivers(payload.Value)
		if err != nil {
			log.Warn().Err(err).Msg("malformed drivers snapshot")
			return
		}
		send(DriversMsg(drivers))
	}
}
