package race

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/racedash/go/internal/models"
	"github.com/mcdev12/racedash/go/internal/store"
)

// Repository reads and writes race state in the realtime store.
type Repository struct {
	store store.Store
}

func NewRepository(s store.Store) *Repository {
	return &Repository{
		store: s,
	}
}

// GetTimer returns the stored timer record, nil when none is stored.
func (r *Repository) GetTimer(ctx context.Context) (*models.TimerRecord, error) {
	raw, err := r.store.ReadOnce(ctx, models.PathTimer)
	if err != nil {
		return nil, fmt.Errorf("failed to read timer: %w", err)
	}
	return models.DecodeTimer(raw)
}

// PutTimer replaces the timer record.
func (r *Repository) PutTimer(ctx context.Context, rec models.TimerRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal timer: %w", err)
	}
	if err := r.store.WriteFull(ctx, models.PathTimer, raw); err != nil {
		return fmt.Errorf("failed to write timer: %w", err)
	}
	return nil
}

func (r *Repository) ListDrivers(ctx context.Context) (models.Drivers, error) {
	raw, err := r.store.ReadOnce(ctx, models.PathDrivers)
	if err != nil {
		return nil, fmt.Errorf("failed to read drivers: %w", err)
	}
	return models.DecodeDrivers(raw)
}

// CreateDriver stores rec under a new key and returns the key.
func (r *Repository) CreateDriver(ctx context.Context, rec models.DriverRecord) (string, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal driver: %w", err)
	}
	id, err := r.store.WriteKeyed(ctx, models.PathDrivers, raw)
	if err != nil {
		return "", fmt.Errorf("failed to create driver: %w", err)
	}
	return id, nil
}

func (r *Repository) DeleteDriver(ctx context.Context, id string) error {
	if err := r.store.RemoveKeyed(ctx, models.PathDrivers, id); err != nil {
		return fmt.Errorf("failed to delete driver: %w", err)
	}
	return nil
}

func (r *Repository) DeleteAllDrivers(ctx context.Context) error {
	if err := r.store.RemoveAll(ctx, models.PathDrivers); err != nil {
		return fmt.Errorf("failed to delete drivers: %w", err)
	}
	return nil
}
