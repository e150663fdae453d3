package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xaenox/mindmesh/internal/classifier"
	"github.com/xaenox/mindmesh/internal/models"
)

var levels = []string{string(models.LevelLow), string(models.LevelMedium), string(models.LevelHigh)}

// Buckets are the fixed priority group names, most urgent first.
var Buckets = []string{"critical", "high", "medium", "low"}

// Categorize is the response shape for the categorize operation.
var Categorize = Schema{
	Operation: models.OpCategorize,
	Fields: []Field{
		{Name: "categories", Kind: List, Required: true, Elem: &Field{Kind: Object, Fields: []Field{
			{Name: "name", Kind: String, Required: true, NonEmpty: true, Hint: "Category Name"},
			{Name: "description", Kind: String, Hint: "Brief description of what this category includes"},
			{Name: "tasks", Kind: List, Required: true, Elem: &Field{Kind: Index}, Hint: "[task_indices]",
				Doc: "each task index belongs to exactly one category"},
			{Name: "priority_ranking", Kind: Int, Min: 1, Max: 5, Default: 3,
				Doc: "1 is the lowest priority category, 5 the highest"},
		}}},
		{Name: "reasoning", Kind: String, Hint: "Explanation of the categorization logic"},
	},
}

// ScorePriorities is the response shape for the score_priorities operation.
var ScorePriorities = Schema{
	Operation: models.OpScorePriorities,
	Fields: []Field{
		{Name: "ranked_tasks", Kind: List, Required: true, Elem: &Field{Kind: Object, Fields: []Field{
			{Name: "task_index", Kind: Index, Required: true},
			{Name: "ai_priority_score", Kind: Int, Required: true, Min: 1, Max: 10},
			{Name: "reasoning", Kind: String, Hint: "Specific reason for this priority"},
			{Name: "estimated_effort", Kind: Enum, Values: levels, Default: string(models.LevelMedium)},
			{Name: "dependencies", Kind: List, Elem: &Field{Kind: Index}, Hint: "[task_indices]",
				Doc: "tasks this one depends on, never itself"},
			{Name: "impact_level", Kind: Enum, Values: levels, Default: string(models.LevelMedium)},
		}}},
		{Name: "recommendations", Kind: List, Elem: &Field{Kind: String}, Hint: `["List of priority recommendations"]`},
	},
}

// BuildDashboard is the response shape for the dashboard summarization step.
var BuildDashboard = Schema{
	Operation: models.OpBuildDashboard,
	Fields: []Field{
		{Name: "dashboard_title", Kind: String, Required: true, NonEmpty: true, Hint: "Suggested Dashboard Title"},
		{Name: "summary", Kind: String, Required: true, Hint: "Brief summary of the analysis"},
		{Name: "priority_groups", Kind: Object, Fields: []Field{
			{Name: "critical", Kind: List, Elem: &Field{Kind: Ref}, Hint: "[task_indices]"},
			{Name: "high", Kind: List, Elem: &Field{Kind: Ref}, Hint: "[task_indices]"},
			{Name: "medium", Kind: List, Elem: &Field{Kind: Ref}, Hint: "[task_indices]"},
			{Name: "low", Kind: List, Elem: &Field{Kind: Ref}, Hint: "[task_indices]"},
		}},
		{Name: "recommendations", Kind: List, Elem: &Field{Kind: String}, Hint: "[]"},
		{Name: "estimated_completion_time", Kind: String, Default: "Not estimated", Hint: "Time estimate"},
		{Name: "next_steps", Kind: List, Elem: &Field{Kind: String}, Hint: `["Immediate next steps"]`},
	},
}

var organizedTask = Field{Kind: Object, Fields: []Field{
	{Name: "title", Kind: String, Required: true, NonEmpty: true, Hint: "Clear task title"},
	{Name: "description", Kind: String, Hint: "Detailed description"},
	{Name: "priority", Kind: Int, Min: 1, Max: 10, Default: 5},
	{Name: "reasoning", Kind: String, Hint: "Why this task matters and why it has this status"},
}}

// OrganizeFreeText is the response shape for the organize_free_text operation.
var OrganizeFreeText = Schema{
	Operation: models.OpOrganizeFreeText,
	Fields: []Field{
		{Name: "categories", Kind: List, Required: true, Elem: &Field{Kind: Object, Fields: []Field{
			{Name: "name", Kind: String, Required: true, NonEmpty: true, Hint: "Category Name"},
			{Name: "description", Kind: String, Hint: "Brief description of this category's focus"},
			{Name: "icon", Kind: String, Hint: "emoji-or-icon-name"},
			{Name: "color", Kind: String, Hint: "blue|green|purple|orange|red|yellow|pink"},
			{Name: "tasks", Kind: Object, Fields: []Field{
				{Name: "todo", Kind: List, Elem: &organizedTask, Doc: "ready to start now"},
				{Name: "doing", Kind: List, Elem: &organizedTask, Doc: "already in progress"},
				{Name: "upcoming", Kind: List, Elem: &organizedTask, Doc: "blocked or future work"},
			}},
		}}},
		{Name: "summary", Kind: String, Hint: "Brief summary of what you organized"},
		{Name: "suggested_next_steps", Kind: List, Elem: &Field{Kind: String}, Hint: `["Immediate action items"]`},
	},
}

func boundsOf(items []models.WorkItem) bounds {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return bounds{n: len(items), ids: ids}
}

// ValidateCategorization checks a categorize response against items.
// Items claimed by no category or by several are left uncategorized and
// reported in Discrepancies; only a response that assigns no item at all is
// rejected.
func ValidateCategorization(raw string, items []models.WorkItem) (*models.Categorization, error) {
	obj, err := Categorize.check(raw, boundsOf(items))
	if err != nil {
		return nil, err
	}

	res := &models.Categorization{
		Reasoning:     obj["reasoning"].(string),
		Categorized:   []int{},
		Uncategorized: []int{},
	}
	claims := make(map[int][]string)
	for _, raw := range obj["categories"].([]any) {
		c := raw.(map[string]any)
		cat := models.Category{
			Name:            c["name"].(string),
			Description:     c["description"].(string),
			PriorityRanking: c["priority_ranking"].(int),
		}
		seen := make(map[int]bool)
		for _, t := range c["tasks"].([]any) {
			idx := t.(int)
			if seen[idx] {
				continue
			}
			seen[idx] = true
			cat.Tasks = append(cat.Tasks, idx)
			claims[idx] = append(claims[idx], cat.Name)
		}
		res.Categories = append(res.Categories, cat)
	}

	for i := range items {
		switch names := claims[i]; len(names) {
		case 0:
			res.Uncategorized = append(res.Uncategorized, i)
			res.Discrepancies = append(res.Discrepancies, fmt.Sprintf("task %d is not assigned to any category", i))
		case 1:
			res.Categorized = append(res.Categorized, i)
		default:
			res.Uncategorized = append(res.Uncategorized, i)
			res.Discrepancies = append(res.Discrepancies,
				fmt.Sprintf("task %d is claimed by %s; left uncategorized", i, strings.Join(names, ", ")))
		}
	}

	for ci := range res.Categories {
		kept := make([]int, 0, len(res.Categories[ci].Tasks))
		for _, idx := range res.Categories[ci].Tasks {
			if len(claims[idx]) == 1 {
				kept = append(kept, idx)
			}
		}
		res.Categories[ci].Tasks = kept
	}

	if len(items) > 0 && len(res.Categorized) == 0 {
		return nil, &ValidationError{Operation: models.OpCategorize, Field: "categories", Reason: "no input task was assigned to exactly one category"}
	}
	return res, nil
}

// ValidateScoring checks a score_priorities response against items. A task
// scored twice keeps its first entry.
func ValidateScoring(raw string, items []models.WorkItem) (*models.Scoring, error) {
	obj, err := ScorePriorities.check(raw, boundsOf(items))
	if err != nil {
		return nil, err
	}

	res := &models.Scoring{
		Recommendations: stringList(obj["recommendations"]),
		Unscored:        []int{},
	}
	scored := make(map[int]bool)
	for i, raw := range obj["ranked_tasks"].([]any) {
		r := raw.(map[string]any)
		idx := r["task_index"].(int)

		var deps []int
		for _, d := range r["dependencies"].([]any) {
			if d.(int) == idx {
				return nil, &ValidationError{Operation: models.OpScorePriorities,
					Field:  fmt.Sprintf("ranked_tasks[%d].dependencies", i),
					Reason: fmt.Sprintf("task %d depends on itself", idx)}
			}
			deps = append(deps, d.(int))
		}

		if scored[idx] {
			res.Discrepancies = append(res.Discrepancies, fmt.Sprintf("task %d scored more than once; kept the first score", idx))
			continue
		}
		scored[idx] = true

		if deps == nil {
			deps = []int{}
		}
		res.Scores = append(res.Scores, models.PriorityScore{
			TaskIndex:    idx,
			ItemID:       items[idx].ID,
			Score:        r["ai_priority_score"].(int),
			Reasoning:    r["reasoning"].(string),
			Effort:       models.Level(r["estimated_effort"].(string)),
			Impact:       models.Level(r["impact_level"].(string)),
			Dependencies: deps,
		})
	}

	for i := range items {
		if !scored[i] {
			res.Unscored = append(res.Unscored, i)
		}
	}
	if len(items) > 0 && len(res.Scores) == 0 {
		return nil, &ValidationError{Operation: models.OpScorePriorities, Field: "ranked_tasks", Reason: "no input task was scored"}
	}
	return res, nil
}

// ValidateDashboard checks the dashboard summarization response. Group
// references resolve to indices of items; a task listed in several buckets
// stays in the most urgent one.
func ValidateDashboard(raw string, items []models.WorkItem) (*models.DashboardSummary, error) {
	obj, err := BuildDashboard.check(raw, boundsOf(items))
	if err != nil {
		return nil, err
	}

	groups := obj["priority_groups"].(map[string]any)
	res := &models.DashboardSummary{
		Title:                   obj["dashboard_title"].(string),
		Summary:                 obj["summary"].(string),
		Groups:                  make(map[string][]int, len(Buckets)),
		Recommendations:         stringList(obj["recommendations"]),
		EstimatedCompletionTime: obj["estimated_completion_time"].(string),
		NextSteps:               stringList(obj["next_steps"]),
	}
	if res.EstimatedCompletionTime == "" {
		res.EstimatedCompletionTime = "Not estimated"
	}

	placed := make(map[int]bool)
	for _, bucket := range Buckets {
		refs := []int{}
		for _, r := range groups[bucket].([]any) {
			idx := r.(int)
			if placed[idx] {
				continue
			}
			placed[idx] = true
			refs = append(refs, idx)
		}
		sort.Ints(refs)
		res.Groups[bucket] = refs
	}
	return res, nil
}

// ValidateOrganizedPlan checks an organize_free_text response, filling in
// icons and colors from the category name when the model left them out.
func ValidateOrganizedPlan(raw string) (*models.OrganizedPlan, error) {
	obj, err := OrganizeFreeText.check(raw, bounds{})
	if err != nil {
		return nil, err
	}

	res := &models.OrganizedPlan{
		Summary:            obj["summary"].(string),
		SuggestedNextSteps: stringList(obj["suggested_next_steps"]),
	}
	for _, raw := range obj["categories"].([]any) {
		c := raw.(map[string]any)
		board := c["tasks"].(map[string]any)
		cat := models.OrganizedCategory{
			Name:        c["name"].(string),
			Description: c["description"].(string),
			Icon:        c["icon"].(string),
			Color:       c["color"].(string),
			Tasks: models.TaskBoard{
				Todo:     organizedTasks(board["todo"]),
				Doing:    organizedTasks(board["doing"]),
				Upcoming: organizedTasks(board["upcoming"]),
			},
		}
		style := classifier.StyleFor(cat.Name)
		if cat.Icon == "" {
			cat.Icon = style.Icon
		}
		if cat.Color == "" {
			cat.Color = style.Color
		}
		res.TotalTasks += cat.Tasks.Len()
		res.Categories = append(res.Categories, cat)
	}

	if res.TotalTasks == 0 {
		return nil, &ValidationError{Operation: models.OpOrganizeFreeText, Field: "categories", Reason: "no tasks were extracted"}
	}
	return res, nil
}

func organizedTasks(v any) []models.OrganizedTask {
	list := v.([]any)
	out := make([]models.OrganizedTask, 0, len(list))
	for _, raw := range list {
		t := raw.(map[string]any)
		out = append(out, models.OrganizedTask{
			Title:       t["title"].(string),
			Description: t["description"].(string),
			Priority:    t["priority"].(int),
			Reasoning:   t["reasoning"].(string),
		})
	}
	return out
}

func stringList(v any) []string {
	list := v.([]any)
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.(string))
	}
	return out
}
