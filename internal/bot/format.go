package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xaenox/mindmesh/internal/models"
)

// escapeMarkdown escapes special characters for MarkdownV2
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func formatPlan(p *models.OrganizedPlan) string {
	var b strings.Builder
	if p.UsedFallback {
		b.WriteString("⚠️ _AI organization failed, I saved your input as a single task\\._\n\n")
	}
	if p.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(p.Summary))
	}

	for _, c := range p.Categories {
		fmt.Fprintf(&b, "%s *%s*\n", escapeMarkdown(c.Icon), escapeMarkdown(c.Name))
		writeTasks(&b, "📝", c.Tasks.Todo)
		writeTasks(&b, "⏳", c.Tasks.Doing)
		writeTasks(&b, "🔜", c.Tasks.Upcoming)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "*Total tasks:* %d\n", p.TotalTasks)
	if len(p.SuggestedNextSteps) > 0 {
		b.WriteString("\n*Next steps:*\n")
		for _, s := range p.SuggestedNextSteps {
			fmt.Fprintf(&b, "• %s\n", escapeMarkdown(s))
		}
	}
	b.WriteString("\nUse /dashboard to prioritize this plan\\.")
	return b.String()
}

func writeTasks(b *strings.Builder, marker string, tasks []models.OrganizedTask) {
	for _, t := range tasks {
		fmt.Fprintf(b, "%s %s \\(%d\\)\n", marker, escapeMarkdown(t.Title), t.Priority)
	}
}

func formatDashboard(d *models.DashboardSuggestion, items []models.WorkItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n%s\n", escapeMarkdown(d.Title), escapeMarkdown(d.Summary))
	if d.Categorization != nil && d.Categorization.UsedFallback {
		b.WriteString("⚠️ _Categorization fell back to a single group\\._\n")
	}
	if d.Scoring != nil && d.Scoring.UsedFallback {
		b.WriteString("⚠️ _Scoring fell back to your original priorities\\._\n")
	}

	groups := []struct {
		label string
		refs  []models.ItemRef
	}{
		{"🔴 Critical", d.PriorityGroups.Critical},
		{"🟠 High", d.PriorityGroups.High},
		{"🟡 Medium", d.PriorityGroups.Medium},
		{"🟢 Low", d.PriorityGroups.Low},
	}
	for _, g := range groups {
		if len(g.refs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n*%s*\n", g.label)
		for _, r := range g.refs {
			fmt.Fprintf(&b, "• %s\n", escapeMarkdown(items[r.Index].Title))
		}
	}

	if len(d.Recommendations) > 0 {
		b.WriteString("\n*Recommendations:*\n")
		for _, r := range d.Recommendations {
			fmt.Fprintf(&b, "• %s\n", escapeMarkdown(r))
		}
	}
	if len(d.NextSteps) > 0 {
		b.WriteString("\n*Next steps:*\n")
		for _, s := range d.NextSteps {
			fmt.Fprintf(&b, "• %s\n", escapeMarkdown(s))
		}
	}
	fmt.Fprintf(&b, "\n*Estimated time:* %s", escapeMarkdown(d.EstimatedCompletionTime))
	return b.String()
}

func formatHistory(interactions []*models.Interaction) string {
	var b strings.Builder
	b.WriteString("*Your recent interactions:*\n\n")
	for _, in := range interactions {
		fmt.Fprintf(&b, "*%s* %s\n", escapeMarkdown(in.Type), escapeMarkdown(in.CreatedAt.Format("2006-01-02 15:04")))
		fmt.Fprintf(&b, "%s, %d tokens, %s\n",
			escapeMarkdown(in.Model), in.TokensUsed, escapeMarkdown(fmt.Sprintf("$%.5f", in.CostEstimate)))
		if in.Feedback > 0 {
			fmt.Fprintf(&b, "Feedback: %d/5\n", in.Feedback)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatStats(uc models.UserContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Total tasks:* %d\n", uc.TotalItems)

	if len(uc.CategoryCounts) > 0 {
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
		b.WriteString("\n*Categories:*\n")
		for _, name := range names {
			formatted := "#" + strings.ReplaceAll(name, " ", "_")
			fmt.Fprintf(&b, "%s: %d\n", escapeMarkdown(formatted), uc.CategoryCounts[name])
		}
	}

	b.WriteString("\n*Priorities:*\n")
	for p := 5; p >= 1; p-- {
		fmt.Fprintf(&b, "%s %d\n", strings.Repeat("★", p), uc.PriorityCounts[p])
	}
	return b.String()
}
