package storage

import (
	"context"
	"errors"

	"github.com/xaenox/mindmesh/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidFeedback = errors.New("feedback must be between 1 and 5")
)

// Feedback ratings recorded for approve/reject actions.
const (
	FeedbackApproved = 5
	FeedbackRejected = 2
)

const defaultHistoryLimit = 10

// Storage persists plans, their work items and the log of model
// interactions. Implementations are safe for concurrent use.
type Storage interface {
	// GetUserContext aggregates the user's saved work items.
	GetUserContext(ctx context.Context, userID string) (models.UserContext, error)

	CreatePlan(ctx context.Context, plan *models.Plan) error
	LatestPlan(ctx context.Context, userID string) (*models.Plan, error)
	// SaveWorkItems appends items to a plan, assigning ids to items that
	// have none, and returns the stored copies.
	SaveWorkItems(ctx context.Context, planID string, items []models.WorkItem) ([]models.WorkItem, error)
	ListWorkItems(ctx context.Context, planID string) ([]models.WorkItem, error)

	InteractionStorage
	Close() error
}

type InteractionStorage interface {
	Record(ctx context.Context, interaction *models.Interaction) (string, error)
	// ListInteractions returns the newest interactions first. A
	// non-positive limit means the default of 10.
	ListInteractions(ctx context.Context, userID string, limit int) ([]*models.Interaction, error)
	SetFeedback(ctx context.Context, interactionID string, rating int) error
}

func checkFeedback(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidFeedback
	}
	return nil
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	return limit
}
