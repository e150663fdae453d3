package planner

import (
	"unicode/utf8"

	"github.com/xaenox/mindmesh/internal/classifier"
	"github.com/xaenox/mindmesh/internal/models"
)

const (
	fallbackCategory = "General"
	placeholderTitle = "Review your input"
	previewLength    = 200
)

// FallbackCategorization puts every item, in input order, into one
// "General" category.
func FallbackCategorization(items []models.WorkItem) *models.Categorization {
	all := make([]int, len(items))
	for i := range items {
		all[i] = i
	}
	return &models.Categorization{
		Categories: []models.Category{{
			Name:            fallbackCategory,
			Description:     "Uncategorized tasks",
			Tasks:           all,
			PriorityRanking: 3,
		}},
		Reasoning:     "AI categorization failed, using default grouping",
		Categorized:   append([]int(nil), all...),
		Uncategorized: []int{},
		UsedFallback:  true,
	}
}

// FallbackScoring scores each item at twice its base priority, clamped to
// [1,10].
func FallbackScoring(items []models.WorkItem) *models.Scoring {
	scores := make([]models.PriorityScore, len(items))
	for i, it := range items {
		scores[i] = models.PriorityScore{
			TaskIndex:    i,
			ItemID:       it.ID,
			Score:        clamp(it.BasePriority()*2, 1, 10),
			Reasoning:    "Using original priority as fallback",
			Effort:       models.LevelMedium,
			Impact:       models.LevelMedium,
			Dependencies: []int{},
		}
	}
	return &models.Scoring{
		Scores:          scores,
		Recommendations: []string{"AI scoring failed, using original priorities"},
		Unscored:        []int{},
		UsedFallback:    true,
	}
}

// FallbackOrganizedPlan wraps the raw text in a single placeholder task.
func FallbackOrganizedPlan(text string) *models.OrganizedPlan {
	style := classifier.StyleFor(fallbackCategory)
	return &models.OrganizedPlan{
		Categories: []models.OrganizedCategory{{
			Name:        fallbackCategory,
			Description: "Tasks extracted from your input",
			Icon:        "📋",
			Color:       style.Color,
			Tasks: models.TaskBoard{
				Todo: []models.OrganizedTask{{
					Title:       placeholderTitle,
					Description: preview(text),
					Priority:    5,
					Reasoning:   "AI organization failed - please manually organize",
				}},
				Doing:    []models.OrganizedTask{},
				Upcoming: []models.OrganizedTask{},
			},
		}},
		Summary:    "AI organization encountered an error. Please manually organize your tasks.",
		TotalTasks: 1,
		SuggestedNextSteps: []string{
			"Try breaking down your input into smaller chunks",
			"Be more specific with your goals",
		},
		UsedFallback: true,
	}
}

// preview keeps the first 200 characters of text, marking the cut with "...".
func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	return string([]rune(text)[:previewLength]) + "..."
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
