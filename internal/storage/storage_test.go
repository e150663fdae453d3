package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/mindmesh/internal/models"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()

	sqlite, err := NewSQLiteStorage(context.Background(), filepath.Join(t.TempDir(), "data", "mindmesh.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"sqlite": sqlite,
	}
}

func TestPlansAndWorkItems(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.LatestPlan(ctx, "u1")
			assert.ErrorIs(t, err, ErrNotFound)

			older := &models.Plan{UserID: "u1", Title: "old", CreatedAt: time.Now().UTC().Add(-time.Hour)}
			require.NoError(t, store.CreatePlan(ctx, older))
			plan := &models.Plan{UserID: "u1", Title: "Launch", Thought: "ship it"}
			require.NoError(t, store.CreatePlan(ctx, plan))
			require.NotEmpty(t, plan.ID)
			require.NoError(t, store.CreatePlan(ctx, &models.Plan{UserID: "u2", Title: "other"}))

			latest, err := store.LatestPlan(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, plan.ID, latest.ID)
			assert.Equal(t, "ship it", latest.Thought)

			saved, err := store.SaveWorkItems(ctx, plan.ID, []models.WorkItem{
				{Title: "Write post", Priority: 4, Category: "Marketing"},
				{ID: "fixed-id", Title: "Fix bug", Status: models.StatusInProgress, Category: "Dev"},
				{Title: "Polish", Priority: 9},
			})
			require.NoError(t, err)
			require.Len(t, saved, 3)
			assert.NotEmpty(t, saved[0].ID)
			assert.Equal(t, "fixed-id", saved[1].ID)
			assert.Equal(t, 3, saved[1].Priority)
			assert.Equal(t, 5, saved[2].Priority)
			assert.Equal(t, models.StatusPending, saved[0].Status)

			more, err := store.SaveWorkItems(ctx, plan.ID, []models.WorkItem{{Title: "Celebrate", Priority: 1}})
			require.NoError(t, err)

			items, err := store.ListWorkItems(ctx, plan.ID)
			require.NoError(t, err)
			assert.Equal(t, append(saved, more...), items)

			empty, err := store.ListWorkItems(ctx, older.ID)
			require.NoError(t, err)
			assert.Empty(t, empty)

			_, err = store.SaveWorkItems(ctx, "missing", []models.WorkItem{{Title: "x"}})
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = store.ListWorkItems(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestGetUserContext(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			uc, err := store.GetUserContext(ctx, "nobody")
			require.NoError(t, err)
			assert.Zero(t, uc.TotalItems)

			plan := &models.Plan{UserID: "u1", Title: "p"}
			require.NoError(t, store.CreatePlan(ctx, plan))
			_, err = store.SaveWorkItems(ctx, plan.ID, []models.WorkItem{
				{Title: "a", Priority: 5, Category: "Work"},
				{Title: "b", Priority: 5, Category: "Work"},
				{Title: "c", Priority: 1, Category: "Home"},
				{Title: "d"},
			})
			require.NoError(t, err)

			other := &models.Plan{UserID: "u2", Title: "p"}
			require.NoError(t, store.CreatePlan(ctx, other))
			_, err = store.SaveWorkItems(ctx, other.ID, []models.WorkItem{{Title: "z", Category: "Work"}})
			require.NoError(t, err)

			uc, err = store.GetUserContext(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, 4, uc.TotalItems)
			assert.Equal(t, map[string]int{"Work": 2, "Home": 1}, uc.CategoryCounts)
			assert.Equal(t, map[int]int{5: 2, 1: 1, 3: 1}, uc.PriorityCounts)
		})
	}
}

func TestInteractions(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var ids []string
			for i, typ := range []string{"categorization", "ranking", "dashboard"} {
				id, err := store.Record(ctx, &models.Interaction{
					UserID:       "u1",
					Type:         typ,
					Request:      `{"tasks":[]}`,
					Response:     `{"ok":true}`,
					TokensUsed:   100 * (i + 1),
					CostEstimate: 0.0001,
					Model:        "gemini-2.5-flash",
					LatencyMs:    42,
				})
				require.NoError(t, err)
				require.NotEmpty(t, id)
				ids = append(ids, id)
			}
			_, err := store.Record(ctx, &models.Interaction{UserID: "u2", Type: "analysis"})
			require.NoError(t, err)

			list, err := store.ListInteractions(ctx, "u1", 2)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, ids[2], list[0].ID)
			assert.Equal(t, ids[1], list[1].ID)
			assert.Equal(t, "ranking", list[1].Type)
			assert.Equal(t, 200, list[1].TokensUsed)
			assert.JSONEq(t, `{"ok":true}`, list[1].Response)
			assert.False(t, list[0].CreatedAt.IsZero())

			all, err := store.ListInteractions(ctx, "u1", 0)
			require.NoError(t, err)
			assert.Len(t, all, 3)

			require.NoError(t, store.SetFeedback(ctx, ids[0], FeedbackApproved))
			assert.ErrorIs(t, store.SetFeedback(ctx, ids[0], 6), ErrInvalidFeedback)
			assert.ErrorIs(t, store.SetFeedback(ctx, ids[0], 0), ErrInvalidFeedback)
			assert.ErrorIs(t, store.SetFeedback(ctx, "missing", 3), ErrNotFound)

			all, err = store.ListInteractions(ctx, "u1", 10)
			require.NoError(t, err)
			assert.Equal(t, FeedbackApproved, all[2].Feedback)
		})
	}
}

func TestRebind(t *testing.T) {
	q := `SELECT a FROM t WHERE x = ? AND y = ?`
	assert.Equal(t, `SELECT a FROM t WHERE x = $1 AND y = $2`, postgresDialect.rebind(q))
	assert.Equal(t, q, sqliteDialect.rebind(q))
}
