package service

import (
	"context"
	"errors"

	"github.com/guttosm/varpulse/internal/domain/models"
)

// ErrRunNotFound is returned when a run id is unknown to the store.
var ErrRunNotFound = errors.New("run not found")

// RunStore persists generation run records for the API.
type RunStore interface {
	Save(ctx context.Context, run models.Run) error
	Get(ctx context.Context, id string) (models.Run, error)
	// List returns up to limit runs, most recently started first.
	List(ctx context.Context, limit int) ([]models.Run, error)
	Ping(ctx context.Context) error
}
