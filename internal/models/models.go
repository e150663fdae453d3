package models

import "time"

// Operation names one of the four supported model-backed operations.
type Operation string

const (
	OpCategorize       Operation = "categorize"
	OpScorePriorities  Operation = "score_priorities"
	OpBuildDashboard   Operation = "build_dashboard"
	OpOrganizeFreeText Operation = "organize_free_text"
)

// InteractionType is the label an operation is recorded under.
func (o Operation) InteractionType() string {
	switch o {
	case OpCategorize:
		return "categorization"
	case OpScorePriorities:
		return "ranking"
	case OpBuildDashboard:
		return "dashboard"
	default:
		return "analysis"
	}
}

type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusInProgress ItemStatus = "in_progress"
	StatusDone       ItemStatus = "done"
	StatusBlocked    ItemStatus = "blocked"
)

// WorkItem is a task supplied by the caller. The planner never mutates it;
// derived copies carry the AI-assigned Category.
type WorkItem struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Priority    int        `json:"priority" yaml:"priority"`
	Status      ItemStatus `json:"status,omitempty" yaml:"status"`
	Category    string     `json:"ai_category,omitempty" yaml:"category"`
}

// BasePriority returns Priority, defaulting to 3 when unset.
func (w WorkItem) BasePriority() int {
	if w.Priority == 0 {
		return 3
	}
	return w.Priority
}

// UserContext summarizes a user's history for prompt personalization.
type UserContext struct {
	TotalItems     int            `json:"total_items"`
	CategoryCounts map[string]int `json:"category_counts,omitempty"`
	PriorityCounts map[int]int    `json:"priority_counts,omitempty"`
}

// Plan groups work items created together.
type Plan struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Thought   string    `json:"original_thought,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
