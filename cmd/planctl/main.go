// Command planctl runs the planner operations from the command line and
// prints the results as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xaenox/mindmesh/internal/llm"
	"github.com/xaenox/mindmesh/internal/planner"
	"github.com/xaenox/mindmesh/pkg/config"
)

var (
	configPath  string
	verbose     bool
	concurrency int
)

var rootCmd = &cobra.Command{
	Use:   "planctl",
	Short: "Organize, categorize, score and summarize tasks with an LLM",
	Long: `planctl runs the planner operations over local files.

Available subcommands:
  organize   - Turn free-text files into organized plans
  categorize - Group the tasks of an items file
  score      - Score the tasks of an items file from 1 to 10
  dashboard  - Build a prioritized dashboard for an items file`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log model calls to stderr")
	organizeCmd.Flags().IntVar(&concurrency, "concurrency", 4, "files organized in parallel")

	rootCmd.AddCommand(organizeCmd, categorizeCmd, scoreCmd, dashboardCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newOrchestrator builds the model client from the config file and
// environment.
func newOrchestrator(ctx context.Context) (*planner.Orchestrator, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := zap.NewNop()
	if verbose || cfg.Log.Development {
		logger, _ = zap.NewDevelopment()
	}

	m := cfg.Model()
	provider, err := llm.NewProvider(ctx, cfg.LLM.Provider, m.APIKey, m.Model)
	if err != nil {
		return nil, nil, err
	}
	client := llm.NewClient(provider, cfg.Retry.Policy(), m.Temperature, m.MaxTokens, logger)
	return planner.NewOrchestrator(client, logger), logger, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
