package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xaenox/mindmesh/internal/models"
)

type storedItem struct {
	models.WorkItem
	planID string
	userID string
}

type MemoryStorage struct {
	mu           sync.RWMutex
	plans        map[string]*models.Plan
	items        []storedItem
	interactions []*models.Interaction
	now          func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		plans: make(map[string]*models.Plan),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStorage) GetUserContext(ctx context.Context, userID string) (models.UserContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uc := models.UserContext{
		CategoryCounts: make(map[string]int),
		PriorityCounts: make(map[int]int),
	}
	for _, it := range s.items {
		if it.userID != userID {
			continue
		}
		uc.TotalItems++
		if it.Category != "" {
			uc.CategoryCounts[it.Category]++
		}
		uc.PriorityCounts[it.Priority]++
	}
	return uc, nil
}

func (s *MemoryStorage) CreatePlan(ctx context.Context, plan *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = s.now()
	}
	p := *plan
	s.plans[plan.ID] = &p
	return nil
}

func (s *MemoryStorage) LatestPlan(ctx context.Context, userID string) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Plan
	for _, p := range s.plans {
		if p.UserID != userID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no plan for user %s: %w", userID, ErrNotFound)
	}
	p := *latest
	return &p, nil
}

func (s *MemoryStorage) SaveWorkItems(ctx context.Context, planID string, items []models.WorkItem) ([]models.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, exists := s.plans[planID]
	if !exists {
		return nil, fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}

	saved := make([]models.WorkItem, len(items))
	for i, it := range items {
		saved[i] = normalizeItem(it)
		s.items = append(s.items, storedItem{WorkItem: saved[i], planID: planID, userID: plan.UserID})
	}
	return saved, nil
}

func (s *MemoryStorage) ListWorkItems(ctx context.Context, planID string) ([]models.WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.plans[planID]; !exists {
		return nil, fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	out := []models.WorkItem{}
	for _, it := range s.items {
		if it.planID == planID {
			out = append(out, it.WorkItem)
		}
	}
	return out, nil
}

func (s *MemoryStorage) Record(ctx context.Context, interaction *models.Interaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in := *interaction
	in.ID = uuid.NewString()
	in.CreatedAt = s.now()
	s.interactions = append(s.interactions, &in)
	return in.ID, nil
}

func (s *MemoryStorage) ListInteractions(ctx context.Context, userID string, limit int) ([]*models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := historyLimit(limit)
	out := []*models.Interaction{}
	// Appended in creation order, so walk backwards.
	for i := len(s.interactions) - 1; i >= 0 && len(out) < n; i-- {
		if in := s.interactions[i]; in.UserID == userID {
			c := *in
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *MemoryStorage) SetFeedback(ctx context.Context, interactionID string, rating int) error {
	if err := checkFeedback(rating); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, in := range s.interactions {
		if in.ID == interactionID {
			in.Feedback = rating
			return nil
		}
	}
	return fmt.Errorf("interaction %s: %w", interactionID, ErrNotFound)
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

// normalizeItem assigns a missing id, resolves the default status and
// clamps the priority to 1-5.
func normalizeItem(it models.WorkItem) models.WorkItem {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.Priority = min(max(it.BasePriority(), 1), 5)
	if it.Status == "" {
		it.Status = models.StatusPending
	}
	return it
}
