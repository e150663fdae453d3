package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/mindmesh/internal/models"
)

func items(n int) []models.WorkItem {
	out := make([]models.WorkItem, n)
	for i := range out {
		out[i] = models.WorkItem{ID: string(rune('a' + i)), Title: "task", Priority: 3}
	}
	return out
}

func requireValidationError(t *testing.T, err error, field string) *ValidationError {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	assert.Equal(t, field, ve.Field)
	return ve
}

func TestValidateCategorization_HappyPath(t *testing.T) {
	raw := `{
		"categories": [
			{"name": "Work", "description": "Job stuff", "tasks": [0, 2], "priority_ranking": 5},
			{"name": "Home", "description": "Chores", "tasks": [1]}
		],
		"reasoning": "split by context"
	}`

	res, err := ValidateCategorization(raw, items(3))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, res.Categorized)
	assert.Empty(t, res.Uncategorized)
	assert.Empty(t, res.Discrepancies)
	assert.Equal(t, "split by context", res.Reasoning)
	require.Len(t, res.Categories, 2)
	assert.Equal(t, []int{0, 2}, res.Categories[0].Tasks)
	assert.Equal(t, 5, res.Categories[0].PriorityRanking)
	assert.Equal(t, 3, res.Categories[1].PriorityRanking, "missing ranking defaults to 3")
	assert.False(t, res.UsedFallback)
}

func TestValidateCategorization_MembershipRepair(t *testing.T) {
	raw := `{"categories": [
		{"name": "A", "description": "", "tasks": [0, 1, 1]},
		{"name": "B", "description": "", "tasks": [1, 2]}
	]}`

	res, err := ValidateCategorization(raw, items(4))
	require.NoError(t, err)

	// Task 1 is claimed twice and task 3 never: both are left out.
	assert.Equal(t, []int{0, 2}, res.Categorized)
	assert.Equal(t, []int{1, 3}, res.Uncategorized)
	assert.Equal(t, []int{0}, res.Categories[0].Tasks)
	assert.Equal(t, []int{2}, res.Categories[1].Tasks)
	require.Len(t, res.Discrepancies, 2)
	assert.Contains(t, res.Discrepancies[0], "claimed by A, B")
	assert.Contains(t, res.Discrepancies[1], "task 3")
}

func TestValidateCategorization_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"empty categories", `{"categories":[]}`, "categories"},
		{"missing categories", `{"reasoning":"x"}`, "categories"},
		{"categories not list", `{"categories":{}}`, "categories"},
		{"empty name", `{"categories":[{"name":"  ","tasks":[0]}]}`, "categories[0].name"},
		{"index out of range", `{"categories":[{"name":"A","tasks":[0,7]}]}`, "categories[0].tasks[1]"},
		{"string index", `{"categories":[{"name":"A","tasks":["0"]}]}`, "categories[0].tasks[0]"},
		{"ranking out of range", `{"categories":[{"name":"A","tasks":[0],"priority_ranking":9}]}`, "categories[0].priority_ranking"},
		{"not json", `the model said no`, "$"},
		{"array root", `[1,2]`, "$"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateCategorization(tt.raw, items(2))
			ve := requireValidationError(t, err, tt.field)
			assert.Equal(t, models.OpCategorize, ve.Operation)
		})
	}
}

func TestValidateScoring(t *testing.T) {
	raw := `{
		"ranked_tasks": [
			{"task_index": 1, "ai_priority_score": 9, "reasoning": "urgent", "estimated_effort": "high", "dependencies": [0], "impact_level": "HIGH"},
			{"task_index": 0, "ai_priority_score": 4.0},
			{"task_index": 1, "ai_priority_score": 2}
		],
		"recommendations": ["do 1 first"]
	}`

	res, err := ValidateScoring(raw, items(3))
	require.NoError(t, err)

	require.Len(t, res.Scores, 2)
	assert.Equal(t, models.PriorityScore{
		TaskIndex: 1, ItemID: "b", Score: 9, Reasoning: "urgent",
		Effort: models.LevelHigh, Impact: models.LevelHigh, Dependencies: []int{0},
	}, res.Scores[0])
	assert.Equal(t, models.PriorityScore{
		TaskIndex: 0, ItemID: "a", Score: 4,
		Effort: models.LevelMedium, Impact: models.LevelMedium, Dependencies: []int{},
	}, res.Scores[1])
	assert.Equal(t, []int{2}, res.Unscored)
	assert.Equal(t, []string{"do 1 first"}, res.Recommendations)
	assert.Len(t, res.Discrepancies, 1)
}

func TestValidateScoring_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"score above range", `{"ranked_tasks":[{"task_index":0,"ai_priority_score":11}]}`, "ranked_tasks[0].ai_priority_score"},
		{"score below range", `{"ranked_tasks":[{"task_index":0,"ai_priority_score":0}]}`, "ranked_tasks[0].ai_priority_score"},
		{"fractional score", `{"ranked_tasks":[{"task_index":0,"ai_priority_score":7.5}]}`, "ranked_tasks[0].ai_priority_score"},
		{"string score", `{"ranked_tasks":[{"task_index":0,"ai_priority_score":"high"}]}`, "ranked_tasks[0].ai_priority_score"},
		{"missing score", `{"ranked_tasks":[{"task_index":0}]}`, "ranked_tasks[0].ai_priority_score"},
		{"missing index", `{"ranked_tasks":[{"ai_priority_score":3}]}`, "ranked_tasks[0].task_index"},
		{"bad effort", `{"ranked_tasks":[{"task_index":0,"ai_priority_score":3,"estimated_effort":"Huge"}]}`, "ranked_tasks[0].estimated_effort"},
		{"self dependency", `{"ranked_tasks":[{"task_index":1,"ai_priority_score":3,"dependencies":[1]}]}`, "ranked_tasks[0].dependencies"},
		{"dependency out of range", `{"ranked_tasks":[{"task_index":1,"ai_priority_score":3,"dependencies":[5]}]}`, "ranked_tasks[0].dependencies[0]"},
		{"nothing scored", `{"ranked_tasks":[]}`, "ranked_tasks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateScoring(tt.raw, items(2))
			requireValidationError(t, err, tt.field)
		})
	}
}

func TestValidateDashboard(t *testing.T) {
	in := items(4)
	raw := `{
		"dashboard_title": "Launch week",
		"summary": "Four tasks in two areas",
		"priority_groups": {"critical": [2], "high": ["a", 2], "low": [3]},
		"next_steps": ["start with 2"]
	}`

	res, err := ValidateDashboard(raw, in)
	require.NoError(t, err)

	assert.Equal(t, "Launch week", res.Title)
	assert.Equal(t, []int{2}, res.Groups["critical"])
	assert.Equal(t, []int{0}, res.Groups["high"], "id references resolve, duplicates stay in the first bucket")
	assert.Equal(t, []int{}, res.Groups["medium"])
	assert.Equal(t, []int{3}, res.Groups["low"])
	assert.Equal(t, "Not estimated", res.EstimatedCompletionTime)
	assert.Empty(t, res.Recommendations)
	assert.Equal(t, []string{"start with 2"}, res.NextSteps)
}

func TestValidateDashboard_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"missing title", `{"summary":"s"}`, "dashboard_title"},
		{"missing summary", `{"dashboard_title":"t"}`, "summary"},
		{"unknown id", `{"dashboard_title":"t","summary":"s","priority_groups":{"high":["zzz"]}}`, "priority_groups.high[0]"},
		{"index out of range", `{"dashboard_title":"t","summary":"s","priority_groups":{"low":[9]}}`, "priority_groups.low[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateDashboard(tt.raw, items(2))
			requireValidationError(t, err, tt.field)
		})
	}
}

func TestValidateOrganizedPlan(t *testing.T) {
	raw := `{
		"categories": [
			{"name": "Web Development", "description": "Site work", "tasks": {
				"todo": [{"title": "Set up repo", "priority": 8, "reasoning": "first step"}],
				"doing": [{"title": "Write landing copy", "description": "hero text"}],
				"someday": [{"title": "ignored"}]
			}},
			{"name": "Errands", "icon": "🛒", "color": "green", "tasks": {"upcoming": [{"title": "Buy paint", "priority": 2}]}}
		],
		"summary": "two areas",
		"total_tasks": 99
	}`

	res, err := ValidateOrganizedPlan(raw)
	require.NoError(t, err)

	require.Len(t, res.Categories, 2)
	web := res.Categories[0]
	assert.Equal(t, "💻", web.Icon)
	assert.Equal(t, "blue", web.Color)
	assert.Len(t, web.Tasks.Todo, 1)
	assert.Equal(t, 5, web.Tasks.Doing[0].Priority, "missing priority defaults to 5")
	assert.Empty(t, web.Tasks.Upcoming)

	errands := res.Categories[1]
	assert.Equal(t, "🛒", errands.Icon)
	assert.Equal(t, "green", errands.Color)
	assert.Empty(t, errands.Tasks.Todo)

	assert.Equal(t, 3, res.TotalTasks, "total is recomputed, never trusted")
	assert.Equal(t, []string{}, res.SuggestedNextSteps)
}

func TestValidateOrganizedPlan_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"no categories", `{"summary":"x"}`, "categories"},
		{"no tasks", `{"categories":[{"name":"A"}]}`, "categories"},
		{"task without title", `{"categories":[{"name":"A","tasks":{"todo":[{"priority":3}]}}]}`, "categories[0].tasks.todo[0].title"},
		{"priority out of range", `{"categories":[{"name":"A","tasks":{"doing":[{"title":"t","priority":42}]}}]}`, "categories[0].tasks.doing[0].priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateOrganizedPlan(tt.raw)
			requireValidationError(t, err, tt.field)
		})
	}
}
