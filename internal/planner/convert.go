package planner

import "github.com/xaenox/mindmesh/internal/models"

// WorkItems flattens an organized plan into work items: todo becomes
// pending, doing in_progress and upcoming blocked. Priorities on the 1-10
// scale are halved, rounding up, onto the 1-5 base scale.
func WorkItems(p *models.OrganizedPlan) []models.WorkItem {
	var out []models.WorkItem
	add := func(cat string, tasks []models.OrganizedTask, status models.ItemStatus) {
		for _, t := range tasks {
			out = append(out, models.WorkItem{
				Title:       t.Title,
				Description: t.Description,
				Priority:    clamp((t.Priority+1)/2, 1, 5),
				Status:      status,
				Category:    cat,
			})
		}
	}
	for _, c := range p.Categories {
		add(c.Name, c.Tasks.Todo, models.StatusPending)
		add(c.Name, c.Tasks.Doing, models.StatusInProgress)
		add(c.Name, c.Tasks.Upcoming, models.StatusBlocked)
	}
	return out
}
