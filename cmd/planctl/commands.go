package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xaenox/mindmesh/internal/models"
	"github.com/xaenox/mindmesh/internal/planner"
)

var organizeCmd = &cobra.Command{
	Use:   "organize FILE...",
	Short: "Turn free-text files into organized plans",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, logger, err := newOrchestrator(cmd.Context())
		if err != nil {
			return err
		}
		defer logger.Sync()

		results, err := organizeFiles(cmd.Context(), o, args, concurrency)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), results)
	},
}

var categorizeCmd = &cobra.Command{
	Use:   "categorize ITEMS.yaml",
	Short: "Group the tasks of an items file into categories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnItems(cmd, args[0], func(ctx context.Context, o *planner.Orchestrator, f *itemsFile) (any, error) {
			return o.CategorizeTasks(ctx, f.Items, models.UserContext{})
		})
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score ITEMS.yaml",
	Short: "Score the tasks of an items file from 1 to 10",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnItems(cmd, args[0], func(ctx context.Context, o *planner.Orchestrator, f *itemsFile) (any, error) {
			return o.ScorePriorities(ctx, f.Items, models.UserContext{})
		})
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard ITEMS.yaml",
	Short: "Build a prioritized dashboard for an items file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnItems(cmd, args[0], func(ctx context.Context, o *planner.Orchestrator, f *itemsFile) (any, error) {
			return o.BuildDashboard(ctx, planner.DashboardRequest{
				PlanTitle:       f.Title,
				PlanDescription: f.Description,
				Items:           f.Items,
			})
		})
	},
}

type itemsOperation func(ctx context.Context, o *planner.Orchestrator, f *itemsFile) (any, error)

func runOnItems(cmd *cobra.Command, path string, op itemsOperation) error {
	f, err := loadItems(path)
	if err != nil {
		return err
	}

	o, logger, err := newOrchestrator(cmd.Context())
	if err != nil {
		return err
	}
	defer logger.Sync()

	res, err := op(cmd.Context(), o, f)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), res)
}

type fileResult struct {
	File string                `json:"file"`
	Plan *models.OrganizedPlan `json:"plan"`
}

// organizeFiles organizes each file with at most limit in flight. Results
// keep the order of paths.
func organizeFiles(ctx context.Context, o *planner.Orchestrator, paths []string, limit int) ([]fileResult, error) {
	results := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))
	for i, path := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			plan, err := o.OrganizeFreeText(gctx, string(data), models.UserContext{})
			if err != nil {
				return fmt.Errorf("failed to organize %s: %w", path, err)
			}
			results[i] = fileResult{File: path, Plan: plan}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
