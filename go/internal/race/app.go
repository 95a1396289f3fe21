package race

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/racedash/go/internal/models"
)

// TimerRepository defines what the app layer needs for the timer
type TimerRepository interface {
	GetTimer(ctx context.Context) (*models.TimerRecord, error)
	PutTimer(ctx context.Context, rec models.TimerRecord) error
}

// DriverRepository defines what the app layer needs for the roster
type DriverRepository interface {
	ListDrivers(ctx context.Context) (models.Drivers, error)
	CreateDriver(ctx context.Context, rec models.DriverRecord) (string, error)
	DeleteDriver(ctx context.Context, id string) error
	DeleteAllDrivers(ctx context.Context) error
}

// App holds the admin commands. Every command reads then writes without
// coordination, so concurrent admins resolve by last writer wins.
type App struct {
	timers  TimerRepository
	drivers DriverRepository
	clock   clockwork.Clock
}

// NewApp creates a new race App
func NewApp(timers TimerRepository, drivers DriverRepository, clock clockwork.Clock) *App {
	return &App{
		timers:  timers,
		drivers: drivers,
		clock:   clock,
	}
}

// Now returns the app clock's current time.
func (a *App) Now() time.Time {
	return a.clock.Now()
}

// StartTimer starts a run segment now, keeping the accumulated elapsed.
// Starting a running timer rebases the segment and keeps elapsed as stored.
func (a *App) StartTimer(ctx context.Context) (*models.TimerRecord, error) {
	current, err := a.timers.GetTimer(ctx)
	if err != nil {
		return nil, err
	}
	var elapsed int64
	if current != nil {
		elapsed = current.Elapsed
	}

	rec := models.RunningTimer(a.clock.Now(), elapsed)
	if err := a.timers.PutTimer(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to start timer: %w", err)
	}

	log.Info().Int64("elapsed", rec.Elapsed).Int64("start_time", rec.StartTime).Msg("timer started")
	return &rec, nil
}

// StopTimer folds the current run segment into elapsed. Without a stored
// record nothing is written and the default record is returned.
func (a *App) StopTimer(ctx context.Context) (*models.TimerRecord, error) {
	current, err := a.timers.GetTimer(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		log.Debug().Msg("stop ignored, no timer stored")
		return &models.TimerRecord{}, nil
	}

	rec := models.StoppedTimer(current.ElapsedAt(a.clock.Now()))
	if err := a.timers.PutTimer(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to stop timer: %w", err)
	}

	log.Info().Int64("elapsed", rec.Elapsed).Msg("timer stopped")
	return &rec, nil
}

// ResetTimer zeroes the timer from any state.
func (a *App) ResetTimer(ctx context.Context, req ResetTimerRequest) (*models.TimerRecord, error) {
	if !req.Confirmed {
		return nil, ErrNotConfirmed
	}

	rec := models.StoppedTimer(0)
	if err := a.timers.PutTimer(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to reset timer: %w", err)
	}

	log.Info().Msg("timer reset")
	return &rec, nil
}

// GetTimer returns the stored record or the default stopped record.
func (a *App) GetTimer(ctx context.Context) (*models.TimerRecord, error) {
	rec, err := a.timers.GetTimer(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &models.TimerRecord{}, nil
	}
	return rec, nil
}

// AddDriver validates and stores a new driver, returning its id.
func (a *App) AddDriver(ctx context.Context, req AddDriverRequest) (string, *models.DriverRecord, error) {
	rec := models.DriverRecord{
		Name:      strings.TrimSpace(req.Name),
		Team:      strings.TrimSpace(req.Team),
		Car:       strings.TrimSpace(req.Car),
		CreatedAt: a.clock.Now().UnixMilli(),
	}
	if rec.Name == "" {
		return "", nil, ErrDriverNameRequired
	}

	id, err := a.drivers.CreateDriver(ctx, rec)
	if err != nil {
		return "", nil, err
	}

	log.Info().Str("driver_id", id).Str("name", rec.Name).Msg("driver added")
	return id, &rec, nil
}

// DeleteDriver removes one driver. Removing an unknown id is not an error.
func (a *App) DeleteDriver(ctx context.Context, req DeleteDriverRequest) error {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return ErrDriverIDRequired
	}
	if !req.Confirmed {
		return ErrNotConfirmed
	}

	if err := a.drivers.DeleteDriver(ctx, id); err != nil {
		return err
	}
	log.Info().Str("driver_id", id).Msg("driver deleted")
	return nil
}

// ClearDrivers removes the whole roster.
func (a *App) ClearDrivers(ctx context.Context, req ClearDriversRequest) error {
	if !req.Confirmed {
		return ErrNotConfirmed
	}
	if err := a.drivers.DeleteAllDrivers(ctx); err != nil {
		return err
	}
	log.Info().Msg("drivers cleared")
	return nil
}

func (a *App) ListDrivers(ctx context.Context) (models.Drivers, error) {
	return a.drivers.ListDrivers(ctx)
}

// ExportDrivers returns the roster as stored, for download.
func (a *App) ExportDrivers(ctx context.Context) (models.Drivers, error) {
	drivers, err := a.drivers.ListDrivers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export drivers: %w", err)
	}
	log.Debug().Int("count", len(drivers)).Msg("drivers exported")
	return drivers, nil
}
