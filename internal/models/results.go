package models

import "time"

// Category is a named grouping produced by categorization. Tasks holds
// 0-based indices into the input batch.
type Category struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Tasks           []int  `json:"tasks"`
	PriorityRanking int    `json:"priority_ranking"`
}

// Categorization is the result of the categorize operation.
type Categorization struct {
	Categories    []Category `json:"categories"`
	Reasoning     string     `json:"reasoning"`
	Categorized   []int      `json:"categorized"`
	Uncategorized []int      `json:"uncategorized"`
	Discrepancies []string   `json:"discrepancies,omitempty"`
	UsedFallback  bool       `json:"used_fallback"`
}

// CategoryOf returns the name of the category index i belongs to.
func (c *Categorization) CategoryOf(i int) string {
	for _, cat := range c.Categories {
		for _, t := range cat.Tasks {
			if t == i {
				return cat.Name
			}
		}
	}
	return ""
}

type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// PriorityScore annotates one work item. TaskIndex refers to the batch the
// score was computed over.
type PriorityScore struct {
	TaskIndex    int    `json:"task_index"`
	ItemID       string `json:"item_id,omitempty"`
	Score        int    `json:"ai_priority_score"`
	Reasoning    string `json:"reasoning"`
	Effort       Level  `json:"estimated_effort"`
	Impact       Level  `json:"impact_level"`
	Dependencies []int  `json:"dependencies"`
}

// Scoring is the result of the score_priorities operation.
type Scoring struct {
	Scores          []PriorityScore `json:"ranked_tasks"`
	Recommendations []string        `json:"recommendations"`
	Unscored        []int           `json:"unscored"`
	Discrepancies   []string        `json:"discrepancies,omitempty"`
	UsedFallback    bool            `json:"used_fallback"`
}

// ItemRef points at an input work item by index and id.
type ItemRef struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
}

type PriorityGroups struct {
	Critical []ItemRef `json:"critical"`
	High     []ItemRef `json:"high"`
	Medium   []ItemRef `json:"medium"`
	Low      []ItemRef `json:"low"`
}

// Len counts the references across all buckets.
func (g PriorityGroups) Len() int {
	return len(g.Critical) + len(g.High) + len(g.Medium) + len(g.Low)
}

// DashboardSummary is the validated output of the summarization prompt.
// Groups hold input indices.
type DashboardSummary struct {
	Title                   string
	Summary                 string
	Groups                  map[string][]int
	Recommendations         []string
	EstimatedCompletionTime string
	NextSteps               []string
}

type DashboardMetadata struct {
	TotalItems       int    `json:"total_tasks"`
	CategorizedItems int    `json:"categorized_tasks"`
	ScoredItems      int    `json:"scored_tasks"`
	LatencyMs        int64  `json:"response_time_ms"`
	Model            string `json:"model_used"`
}

// DashboardSuggestion is the composed result of build_dashboard.
type DashboardSuggestion struct {
	Title                   string            `json:"dashboard_title"`
	Summary                 string            `json:"summary"`
	Categories              []Category        `json:"categories"`
	PriorityGroups          PriorityGroups    `json:"priority_groups"`
	Recommendations         []string          `json:"recommendations"`
	EstimatedCompletionTime string            `json:"estimated_completion_time"`
	NextSteps               []string          `json:"next_steps"`
	Categorization          *Categorization   `json:"categorization"`
	Scoring                 *Scoring          `json:"priority_analysis"`
	Metadata                DashboardMetadata `json:"metadata"`
}

// OrganizedTask is one task extracted from free text.
type OrganizedTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Reasoning   string `json:"reasoning"`
}

// TaskBoard holds a category's tasks under the three fixed statuses.
type TaskBoard struct {
	Todo     []OrganizedTask `json:"todo"`
	Doing    []OrganizedTask `json:"doing"`
	Upcoming []OrganizedTask `json:"upcoming"`
}

func (b TaskBoard) Len() int {
	return len(b.Todo) + len(b.Doing) + len(b.Upcoming)
}

type OrganizedCategory struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	Tasks       TaskBoard `json:"tasks"`
}

// OrganizedPlan is the result of organize_free_text.
type OrganizedPlan struct {
	Categories         []OrganizedCategory `json:"categories"`
	Summary            string              `json:"summary"`
	TotalTasks         int                 `json:"total_tasks"`
	SuggestedNextSteps []string            `json:"suggested_next_steps"`
	UsedFallback       bool                `json:"used_fallback"`
}

// Interaction is one recorded orchestration call.
type Interaction struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	PlanID       string    `json:"plan_id,omitempty"`
	Type         string    `json:"interaction_type"`
	Request      string    `json:"request_data"`
	Response     string    `json:"response_data"`
	TokensUsed   int       `json:"tokens_used"`
	CostEstimate float64   `json:"cost_estimate"`
	Model        string    `json:"model_used"`
	LatencyMs    int64     `json:"response_time_ms"`
	Feedback     int       `json:"user_feedback,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
