package repositories

import (
	"context"

	"github.com/chrisdamba/reviewclf/internal/models"
)

// RunRepository keeps the history of report runs, one entry per tuned model.
type RunRepository interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, run models.RunSummary) error
	Latest(ctx context.Context, limit int) ([]models.RunSummary, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}
