package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/mindmesh/internal/models"
	"github.com/xaenox/mindmesh/internal/planner"
	"github.com/xaenox/mindmesh/internal/storage"
)

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `Ship v1\.2 \(beta\)\!`, escapeMarkdown("Ship v1.2 (beta)!"))
	assert.Equal(t, `a\\b\_c`, escapeMarkdown(`a\b_c`))
}

func TestFeedbackRoundTrip(t *testing.T) {
	data := feedbackData("0f8e2a8c-1111-2222-3333-444455556666", storage.FeedbackApproved)
	assert.LessOrEqual(t, len(data), 64)

	id, rating, err := parseFeedback(data)
	require.NoError(t, err)
	assert.Equal(t, "0f8e2a8c-1111-2222-3333-444455556666", id)
	assert.Equal(t, 5, rating)

	for _, bad := range []string{"", "fb", "fb::5", "xx:id:5", "fb:id:five"} {
		_, _, err := parseFeedback(bad)
		assert.Error(t, err, bad)
	}
}

func TestPlanTitle(t *testing.T) {
	assert.Equal(t, "Launch the blog", planTitle("  Launch the blog\nand also write posts"))
	long := strings.Repeat("x", 80)
	assert.Equal(t, strings.Repeat("x", 57)+"...", planTitle(long))
	assert.True(t, strings.HasPrefix(planTitle("\n\n"), "Plan from "))
}

func TestFormatPlan_MarksFallback(t *testing.T) {
	text := formatPlan(planner.FallbackOrganizedPlan("learn go, buy milk"))
	assert.Contains(t, text, "AI organization failed")
	assert.Contains(t, text, "Review your input")
	assert.Contains(t, text, "*Total tasks:* 1")
}

func TestFormatPlan_EscapesIcon(t *testing.T) {
	text := formatPlan(&models.OrganizedPlan{
		Categories: []models.OrganizedCategory{{
			Name:  "Dev",
			Icon:  "laptop-code",
			Tasks: models.TaskBoard{Todo: []models.OrganizedTask{{Title: "x", Priority: 3}}},
		}},
		TotalTasks: 1,
	})
	assert.Contains(t, text, "laptop\\-code *Dev*\n")
	assert.NotContains(t, text, "laptop-code")
}

func TestFormatDashboard(t *testing.T) {
	items := []models.WorkItem{{ID: "a", Title: "Fix login"}, {ID: "b", Title: "Write docs"}}
	d := &models.DashboardSuggestion{
		Title:   "Sprint",
		Summary: "Two things.",
		PriorityGroups: models.PriorityGroups{
			Critical: []models.ItemRef{{Index: 0, ID: "a"}},
			Low:      []models.ItemRef{{Index: 1, ID: "b"}},
		},
		EstimatedCompletionTime: "1 day",
		Categorization:          &models.Categorization{},
		Scoring:                 &models.Scoring{UsedFallback: true},
	}

	text := formatDashboard(d, items)
	assert.Contains(t, text, "*🔴 Critical*\n• Fix login")
	assert.Contains(t, text, "*🟢 Low*\n• Write docs")
	assert.NotContains(t, text, "High")
	assert.Contains(t, text, "Scoring fell back")
	assert.NotContains(t, text, "Categorization fell back")
	assert.Contains(t, text, "Two things\\.")
}

func TestFormatHistoryAndStats(t *testing.T) {
	history := formatHistory([]*models.Interaction{{
		Type:         "dashboard",
		Model:        "gemini-2.5-flash",
		TokensUsed:   1200,
		CostEstimate: planner.EstimateCost(1200),
		Feedback:     5,
		CreatedAt:    time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
	}})
	assert.Contains(t, history, "*dashboard* 2025\\-03\\-01 09:30")
	assert.Contains(t, history, "gemini\\-2\\.5\\-flash, 1200 tokens, $0\\.00120")
	assert.Contains(t, history, "Feedback: 5/5")

	stats := formatStats(models.UserContext{
		TotalItems:     3,
		CategoryCounts: map[string]int{"Deep Work": 2, "Home": 1},
		PriorityCounts: map[int]int{5: 2, 1: 1},
	})
	assert.Contains(t, stats, "*Total tasks:* 3")
	assert.Less(t, strings.Index(stats, "Deep\\_Work"), strings.Index(stats, "Home"))
	assert.Contains(t, stats, "★★★★★ 2\n")
	assert.Contains(t, stats, "★★★ 0\n")
}
