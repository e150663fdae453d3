// Package prompt renders the model prompts for each operation. Rendering is
// deterministic: the same input always yields the same text.
package prompt

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xaenox/mindmesh/internal/models"
	"github.com/xaenox/mindmesh/internal/schema"
)

// ErrInvalidInput is returned for input no prompt can be built from.
var ErrInvalidInput = errors.New("invalid input")

// DashboardInput carries the sizes of the categorize and score results into
// the summarization prompt.
type DashboardInput struct {
	PlanTitle       string
	PlanDescription string
	Items           []models.WorkItem
	Categorization  *models.Categorization
	Scoring         *models.Scoring
}

// Categorize builds the categorize prompt.
func Categorize(items []models.WorkItem, uc models.UserContext) (string, error) {
	if err := checkItems(items); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Analyze the following tasks and group them into logical categories.\n")
	fmt.Fprintf(&b, "Consider the user's historical preferences: %s\n\n", knownCategories(uc))
	b.WriteString("Tasks to categorize:\n\n")
	writeItems(&b, items, false)
	writeContract(&b, schema.Categorize)
	b.WriteString(`
Guidelines:
- Create 3-7 meaningful categories
- Each task should belong to exactly one category
- Categories should be logical and actionable
- Consider task types, complexity, and goals
- Priority ranking: 1 (lowest priority) to 5 (highest priority category)
`)
	return b.String(), nil
}

// ScorePriorities builds the priority scoring prompt. Items carrying a
// Category show it to the model.
func ScorePriorities(items []models.WorkItem, uc models.UserContext) (string, error) {
	if err := checkItems(items); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Analyze and rank the following tasks by priority. Consider:\n")
	fmt.Fprintf(&b, "- User's historical priority patterns: %s\n", priorityDistribution(uc))
	b.WriteString("- Task dependencies and logical flow\n")
	b.WriteString("- Estimated effort vs. impact\n")
	b.WriteString("- Urgency and importance\n\n")
	b.WriteString("Tasks to prioritize:\n\n")
	writeItems(&b, items, true)
	writeContract(&b, schema.ScorePriorities)
	b.WriteString(`
Scoring guidelines:
- 1-3: Low priority (can be deferred)
- 4-6: Medium priority (important but not urgent)
- 7-8: High priority (important and somewhat urgent)
- 9-10: Critical priority (urgent and critical)
`)
	return b.String(), nil
}

// Dashboard builds the summarization prompt. It only refers to the sizes
// and names of the earlier results to keep the prompt small.
func Dashboard(in DashboardInput) (string, error) {
	if err := checkItems(in.Items); err != nil {
		return "", err
	}
	if in.Categorization == nil || in.Scoring == nil {
		return "", fmt.Errorf("%w: dashboard needs categorization and scoring results", ErrInvalidInput)
	}

	var b strings.Builder
	b.WriteString("Create a comprehensive dashboard suggestion based on this analysis:\n\n")
	if in.PlanTitle != "" {
		fmt.Fprintf(&b, "Plan: %s\n", in.PlanTitle)
	}
	if in.PlanDescription != "" {
		fmt.Fprintf(&b, "Description: %s\n", in.PlanDescription)
	}
	fmt.Fprintf(&b, "\nTotal Tasks: %d (indices 0 to %d)\n", len(in.Items), len(in.Items)-1)
	fmt.Fprintf(&b, "Categorized Tasks: %d\n", len(in.Categorization.Categorized))
	fmt.Fprintf(&b, "Categories: %d\n", len(in.Categorization.Categories))
	for _, c := range in.Categorization.Categories {
		fmt.Fprintf(&b, "- %s (%d tasks)\n", c.Name, len(c.Tasks))
	}
	fmt.Fprintf(&b, "\nPriority Analysis: %d tasks scored\n", len(in.Scoring.Scores))
	critical, high, medium, low := scoreBuckets(in.Scoring)
	fmt.Fprintf(&b, "- critical: %d\n- high: %d\n- medium: %d\n- low: %d\n", critical, high, medium, low)
	writeContract(&b, schema.BuildDashboard)
	b.WriteString(`
Guidelines:
- priority_groups entries are task indices from the list above
- Scores 9-10 are critical, 7-8 high, 4-6 medium, 1-3 low
`)
	return b.String(), nil
}

// OrganizeFreeText builds the prompt that turns unstructured text into
// categorized tasks.
func OrganizeFreeText(text string, uc models.UserContext) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: text is blank", ErrInvalidInput)
	}

	var b strings.Builder
	b.WriteString(`You are a task organization expert. The user will give you a messy, unorganized prompt about their goals, ideas, or thoughts.
Your job is to:
1. Extract clear, actionable tasks from their messy input
2. Group tasks into logical categories (3-7 categories)
3. Assign each task to a status: "todo" (not started), "doing" (in progress), or "upcoming" (blocked/future)
`)
	if len(uc.CategoryCounts) > 0 {
		fmt.Fprintf(&b, "\nCategories this user has used before: %s\n", knownCategories(uc))
	}
	fmt.Fprintf(&b, "\nUser's messy input:\n%s\n", strings.TrimSpace(text))
	writeContract(&b, schema.OrganizeFreeText)
	b.WriteString(`
Guidelines:
- Extract 5-20 actionable tasks total
- Create 3-7 logical categories based on themes (e.g., Development, Design, Marketing, Research, etc.)
- Assign statuses based on task nature:
  * "todo" - Tasks ready to start now, clear next steps
  * "doing" - Tasks that seem to be in progress or actively happening
  * "upcoming" - Tasks blocked by dependencies, future phases, or lower priority
- Priority 1-10: 1-3 (low), 4-6 (medium), 7-8 (high), 9-10 (critical)
- Be specific and actionable in task titles
- Provide clear reasoning for status assignments
`)
	return b.String(), nil
}

// scoreBuckets counts scores per band: 9-10, 7-8, 4-6 and 1-3.
func scoreBuckets(s *models.Scoring) (critical, high, medium, low int) {
	for _, sc := range s.Scores {
		switch {
		case sc.Score >= 9:
			critical++
		case sc.Score >= 7:
			high++
		case sc.Score >= 4:
			medium++
		default:
			low++
		}
	}
	return critical, high, medium, low
}

func checkItems(items []models.WorkItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: no work items", ErrInvalidInput)
	}
	for i, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			return fmt.Errorf("%w: work item %d has no title", ErrInvalidInput, i)
		}
		if it.Priority < 0 || it.Priority > 5 {
			return fmt.Errorf("%w: work item %d has priority %d outside 1-5", ErrInvalidInput, i, it.Priority)
		}
	}
	return nil
}

func writeItems(b *strings.Builder, items []models.WorkItem, withCategory bool) {
	for i, it := range items {
		desc := it.Description
		if desc == "" {
			desc = "No description"
		}
		fmt.Fprintf(b, "Task %d: %s\nDescription: %s\n", i, it.Title, desc)
		if withCategory {
			cat := it.Category
			if cat == "" {
				cat = "No category"
			}
			fmt.Fprintf(b, "Category: %s\n", cat)
		}
		fmt.Fprintf(b, "Current Priority: %d\n\n", it.BasePriority())
	}
}

func writeContract(b *strings.Builder, s schema.Schema) {
	b.WriteString("\nRespond with JSON only, using exactly this structure:\n")
	b.WriteString(s.Shape())
	b.WriteString("\n\nField rules:\n")
	b.WriteString(s.Rules())
	b.WriteString("\n")
}

// knownCategories lists the user's categories, most used first.
func knownCategories(uc models.UserContext) string {
	names := make([]string, 0, len(uc.CategoryCounts))
	for name := range uc.CategoryCounts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := uc.CategoryCounts[names[i]], uc.CategoryCounts[names[j]]
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})
	if len(names) == 0 {
		return "none yet"
	}
	return strings.Join(names, ", ")
}

var priorityLabels = []struct {
	priority int
	label    string
}{
	{5, "high"},
	{4, "medium_high"},
	{3, "medium"},
	{2, "medium_low"},
	{1, "low"},
}

func priorityDistribution(uc models.UserContext) string {
	parts := make([]string, 0, len(priorityLabels))
	for _, p := range priorityLabels {
		parts = append(parts, fmt.Sprintf("%s: %d", p.label, uc.PriorityCounts[p.priority]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
