// Package planner sequences prompt building, model calls, extraction and
// validation for each operation, and falls back to deterministic results
// where the operation is advisory.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/mindmesh/internal/extract"
	"github.com/xaenox/mindmesh/internal/llm"
	"github.com/xaenox/mindmesh/internal/models"
	"github.com/xaenox/mindmesh/internal/prompt"
	"github.com/xaenox/mindmesh/internal/schema"
)

// ErrInvalidInput is returned for requests no prompt can be built from.
var ErrInvalidInput = prompt.ErrInvalidInput

// Stage is a step of the per-operation pipeline.
type Stage string

const (
	StageBuilt     Stage = "built"
	StageSent      Stage = "sent"
	StageExtracted Stage = "extracted"
	StageValidated Stage = "validated"
	StageDone      Stage = "done"
)

// StageError records the stage a pipeline run failed at.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// DashboardGenerationError is returned when the dashboard summary cannot be
// produced. It has no fallback.
type DashboardGenerationError struct {
	Stage Stage
	Err   error
}

func (e *DashboardGenerationError) Error() string {
	return fmt.Sprintf("dashboard generation failed at %s: %v", e.Stage, e.Err)
}

func (e *DashboardGenerationError) Unwrap() error { return e.Err }

// Generator is the model client the orchestrator calls.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*llm.Generation, error)
	Model() string
}

// Orchestrator runs the four operations. It keeps no per-call state, so one
// instance serves concurrent requests.
type Orchestrator struct {
	model  Generator
	logger *zap.Logger
}

func NewOrchestrator(model Generator, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{model: model, logger: logger}
}

// Model reports the identifier of the model behind the orchestrator.
func (o *Orchestrator) Model() string {
	return o.model.Model()
}

// Usage accumulates token counts across the model calls of one operation.
type Usage struct {
	Tokens int
	Calls  int
}

// run sends a built prompt and hands the extracted JSON to validate.
func run[T any](ctx context.Context, o *Orchestrator, usage *Usage, text string, validate func(string) (T, error)) (T, error) {
	var zero T

	gen, err := o.model.Generate(ctx, text)
	if err != nil {
		return zero, &StageError{Stage: StageSent, Err: err}
	}
	if usage != nil {
		usage.Tokens += gen.TokensUsed
		usage.Calls++
	}

	payload := extract.JSON(gen.Text)

	res, err := validate(payload)
	if err != nil {
		o.logger.Debug("Model response rejected",
			zap.Error(err),
			zap.String("response", gen.Text))
		stage := StageValidated
		var ve *schema.ValidationError
		if errors.As(err, &ve) && ve.Field == "$" {
			stage = StageExtracted
		}
		return zero, &StageError{Stage: stage, Err: err}
	}
	o.logger.Debug("Model response accepted",
		zap.String("stage", string(StageDone)),
		zap.Int("tokens", gen.TokensUsed))
	return res, nil
}

func failedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return StageBuilt
}

func (o *Orchestrator) logFallback(op models.Operation, err error) {
	o.logger.Warn("Using fallback result",
		zap.String("operation", string(op)),
		zap.String("failed_stage", string(failedStage(err))),
		zap.Error(err))
}

// CategorizeTasks groups items into categories. Model or validation
// failures produce a single "General" category holding every item.
func (o *Orchestrator) CategorizeTasks(ctx context.Context, items []models.WorkItem, uc models.UserContext) (*models.Categorization, error) {
	return o.categorize(ctx, items, uc, nil)
}

func (o *Orchestrator) categorize(ctx context.Context, items []models.WorkItem, uc models.UserContext, usage *Usage) (*models.Categorization, error) {
	text, err := prompt.Categorize(items, uc)
	if err != nil {
		return nil, err
	}

	res, err := run(ctx, o, usage, text, func(payload string) (*models.Categorization, error) {
		return schema.ValidateCategorization(payload, items)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		o.logFallback(models.OpCategorize, err)
		return FallbackCategorization(items), nil
	}
	return res, nil
}

// ScorePriorities assigns a 1-10 score to each item. Model or validation
// failures score every item at twice its base priority.
func (o *Orchestrator) ScorePriorities(ctx context.Context, items []models.WorkItem, uc models.UserContext) (*models.Scoring, error) {
	return o.score(ctx, items, uc, nil)
}

func (o *Orchestrator) score(ctx context.Context, items []models.WorkItem, uc models.UserContext, usage *Usage) (*models.Scoring, error) {
	text, err := prompt.ScorePriorities(items, uc)
	if err != nil {
		return nil, err
	}

	res, err := run(ctx, o, usage, text, func(payload string) (*models.Scoring, error) {
		return schema.ValidateScoring(payload, items)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		o.logFallback(models.OpScorePriorities, err)
		return FallbackScoring(items), nil
	}
	return res, nil
}

// OrganizeFreeText turns unstructured text into categorized tasks. Model or
// validation failures produce a single placeholder task quoting the text.
func (o *Orchestrator) OrganizeFreeText(ctx context.Context, text string, uc models.UserContext) (*models.OrganizedPlan, error) {
	return o.organize(ctx, text, uc, nil)
}

func (o *Orchestrator) organize(ctx context.Context, text string, uc models.UserContext, usage *Usage) (*models.OrganizedPlan, error) {
	p, err := prompt.OrganizeFreeText(text, uc)
	if err != nil {
		return nil, err
	}

	res, err := run(ctx, o, usage, p, schema.ValidateOrganizedPlan)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		o.logFallback(models.OpOrganizeFreeText, err)
		return FallbackOrganizedPlan(text), nil
	}
	return res, nil
}

// DashboardRequest is the input of BuildDashboard.
type DashboardRequest struct {
	PlanTitle       string
	PlanDescription string
	Items           []models.WorkItem
	Context         models.UserContext
}

// BuildDashboard categorizes the items, scores the categorized ones and asks
// the model to summarize both. The first two steps may fall back; a failing
// summary step returns a *DashboardGenerationError.
func (o *Orchestrator) BuildDashboard(ctx context.Context, req DashboardRequest) (*models.DashboardSuggestion, error) {
	return o.dashboard(ctx, req, nil)
}

func (o *Orchestrator) dashboard(ctx context.Context, req DashboardRequest, usage *Usage) (*models.DashboardSuggestion, error) {
	start := time.Now()
	items := req.Items

	cat, err := o.categorize(ctx, items, req.Context, usage)
	if err != nil {
		return nil, err
	}

	// Scoring sees only categorized items, each tagged with its category.
	subset := make([]models.WorkItem, 0, len(cat.Categorized))
	for _, idx := range cat.Categorized {
		it := items[idx]
		it.Category = cat.CategoryOf(idx)
		subset = append(subset, it)
	}
	scoring, err := o.score(ctx, subset, req.Context, usage)
	if err != nil {
		return nil, err
	}
	scoring = remapScoring(scoring, cat.Categorized, items)

	text, err := prompt.Dashboard(prompt.DashboardInput{
		PlanTitle:       req.PlanTitle,
		PlanDescription: req.PlanDescription,
		Items:           items,
		Categorization:  cat,
		Scoring:         scoring,
	})
	if err != nil {
		return nil, err
	}

	summary, err := run(ctx, o, usage, text, func(payload string) (*models.DashboardSummary, error) {
		return schema.ValidateDashboard(payload, items)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		o.logger.Error("Dashboard summary failed", zap.Error(err), zap.String("stage", string(failedStage(err))))
		return nil, &DashboardGenerationError{Stage: failedStage(err), Err: err}
	}

	groups := groupsFromSummary(summary, items)
	if groups.Len() == 0 {
		groups = groupsFromScores(scoring, items)
	}

	return &models.DashboardSuggestion{
		Title:                   summary.Title,
		Summary:                 summary.Summary,
		Categories:              cat.Categories,
		PriorityGroups:          groups,
		Recommendations:         summary.Recommendations,
		EstimatedCompletionTime: summary.EstimatedCompletionTime,
		NextSteps:               summary.NextSteps,
		Categorization:          cat,
		Scoring:                 scoring,
		Metadata: models.DashboardMetadata{
			TotalItems:       len(items),
			CategorizedItems: len(cat.Categorized),
			ScoredItems:      len(scoring.Scores),
			LatencyMs:        time.Since(start).Milliseconds(),
			Model:            o.model.Model(),
		},
	}, nil
}

// remapScoring rewrites indices computed over the categorized subset into
// indices of the full item list.
func remapScoring(s *models.Scoring, subset []int, items []models.WorkItem) *models.Scoring {
	out := &models.Scoring{
		Recommendations: s.Recommendations,
		Discrepancies:   s.Discrepancies,
		UsedFallback:    s.UsedFallback,
		Unscored:        make([]int, 0, len(s.Unscored)),
	}
	for _, sc := range s.Scores {
		mapped := sc
		mapped.TaskIndex = subset[sc.TaskIndex]
		mapped.ItemID = items[mapped.TaskIndex].ID
		mapped.Dependencies = make([]int, len(sc.Dependencies))
		for i, d := range sc.Dependencies {
			mapped.Dependencies[i] = subset[d]
		}
		out.Scores = append(out.Scores, mapped)
	}
	for _, u := range s.Unscored {
		out.Unscored = append(out.Unscored, subset[u])
	}
	return out
}

func refs(indices []int, items []models.WorkItem) []models.ItemRef {
	out := make([]models.ItemRef, 0, len(indices))
	for _, i := range indices {
		out = append(out, models.ItemRef{Index: i, ID: items[i].ID})
	}
	return out
}

func groupsFromSummary(s *models.DashboardSummary, items []models.WorkItem) models.PriorityGroups {
	return models.PriorityGroups{
		Critical: refs(s.Groups["critical"], items),
		High:     refs(s.Groups["high"], items),
		Medium:   refs(s.Groups["medium"], items),
		Low:      refs(s.Groups["low"], items),
	}
}

// groupsFromScores buckets scored items: 9-10 critical, 7-8 high, 4-6
// medium, 1-3 low.
func groupsFromScores(s *models.Scoring, items []models.WorkItem) models.PriorityGroups {
	g := models.PriorityGroups{
		Critical: []models.ItemRef{},
		High:     []models.ItemRef{},
		Medium:   []models.ItemRef{},
		Low:      []models.ItemRef{},
	}
	for _, sc := range s.Scores {
		ref := models.ItemRef{Index: sc.TaskIndex, ID: items[sc.TaskIndex].ID}
		switch {
		case sc.Score >= 9:
			g.Critical = append(g.Critical, ref)
		case sc.Score >= 7:
			g.High = append(g.High, ref)
		case sc.Score >= 4:
			g.Medium = append(g.Medium, ref)
		default:
			g.Low = append(g.Low, ref)
		}
	}
	return g
}
