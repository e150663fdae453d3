package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/mindmesh/internal/models"
)

// HistoryAggregator summarizes a user's past work items.
type HistoryAggregator interface {
	GetUserContext(ctx context.Context, userID string) (models.UserContext, error)
}

// Recorder persists one interaction and returns its id.
type Recorder interface {
	Record(ctx context.Context, interaction *models.Interaction) (string, error)
}

// Outcome is an operation result plus bookkeeping. InteractionID is empty
// when recording failed; the failure is listed in Warnings.
type Outcome[T any] struct {
	Result        T        `json:"result"`
	InteractionID string   `json:"interaction_id,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// Service runs orchestrator operations on behalf of a user: it loads the
// user's context first and records the interaction afterwards.
type Service struct {
	orchestrator *Orchestrator
	history      HistoryAggregator
	recorder     Recorder
	logger       *zap.Logger
}

func NewService(o *Orchestrator, history HistoryAggregator, recorder Recorder, logger *zap.Logger) *Service {
	return &Service{
		orchestrator: o,
		history:      history,
		recorder:     recorder,
		logger:       logger,
	}
}

// EstimateCost converts a token count into dollars, assuming an even split
// between input and output tokens.
func EstimateCost(tokens int) float64 {
	const (
		inputPer1K  = 0.0005
		outputPer1K = 0.0015
	)
	return float64(tokens) / 1000 * ((inputPer1K + outputPer1K) / 2)
}

func (s *Service) userContext(ctx context.Context, userID string) (models.UserContext, []string) {
	uc, err := s.history.GetUserContext(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load user context",
			zap.Error(err),
			zap.String("user_id", userID))
		return models.UserContext{}, []string{fmt.Sprintf("user history unavailable: %v", err)}
	}
	return uc, nil
}

func (s *Service) record(ctx context.Context, userID, planID string, op models.Operation, request, response any, usage Usage, latency time.Duration) (string, []string) {
	req, err := json.Marshal(request)
	if err != nil {
		return "", []string{fmt.Sprintf("interaction not recorded: %v", err)}
	}
	resp, err := json.Marshal(response)
	if err != nil {
		return "", []string{fmt.Sprintf("interaction not recorded: %v", err)}
	}

	id, err := s.recorder.Record(ctx, &models.Interaction{
		UserID:       userID,
		PlanID:       planID,
		Type:         op.InteractionType(),
		Request:      string(req),
		Response:     string(resp),
		TokensUsed:   usage.Tokens,
		CostEstimate: EstimateCost(usage.Tokens),
		Model:        s.orchestrator.Model(),
		LatencyMs:    latency.Milliseconds(),
	})
	if err != nil {
		s.logger.Warn("Failed to record interaction",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("operation", string(op)))
		return "", []string{fmt.Sprintf("interaction not recorded: %v", err)}
	}
	return id, nil
}

type itemsRequest struct {
	Items   []models.WorkItem  `json:"tasks"`
	Context models.UserContext `json:"user_context"`
}

// Categorize runs CategorizeTasks for userID and records it.
func (s *Service) Categorize(ctx context.Context, userID, planID string, items []models.WorkItem) (*Outcome[*models.Categorization], error) {
	uc, warnings := s.userContext(ctx, userID)

	var usage Usage
	start := time.Now()
	res, err := s.orchestrator.categorize(ctx, items, uc, &usage)
	if err != nil {
		return nil, err
	}

	id, w := s.record(ctx, userID, planID, models.OpCategorize, itemsRequest{items, uc}, res, usage, time.Since(start))
	return &Outcome[*models.Categorization]{Result: res, InteractionID: id, Warnings: append(warnings, w...)}, nil
}

// Score runs ScorePriorities for userID and records it.
func (s *Service) Score(ctx context.Context, userID, planID string, items []models.WorkItem) (*Outcome[*models.Scoring], error) {
	uc, warnings := s.userContext(ctx, userID)

	var usage Usage
	start := time.Now()
	res, err := s.orchestrator.score(ctx, items, uc, &usage)
	if err != nil {
		return nil, err
	}

	id, w := s.record(ctx, userID, planID, models.OpScorePriorities, itemsRequest{items, uc}, res, usage, time.Since(start))
	return &Outcome[*models.Scoring]{Result: res, InteractionID: id, Warnings: append(warnings, w...)}, nil
}

// Dashboard runs BuildDashboard for userID and records it. Summary failures
// are returned as *DashboardGenerationError and not recorded.
func (s *Service) Dashboard(ctx context.Context, userID string, plan models.Plan, items []models.WorkItem) (*Outcome[*models.DashboardSuggestion], error) {
	uc, warnings := s.userContext(ctx, userID)

	var usage Usage
	start := time.Now()
	res, err := s.orchestrator.dashboard(ctx, DashboardRequest{
		PlanTitle:       plan.Title,
		PlanDescription: plan.Thought,
		Items:           items,
		Context:         uc,
	}, &usage)
	if err != nil {
		return nil, err
	}

	id, w := s.record(ctx, userID, plan.ID, models.OpBuildDashboard, itemsRequest{items, uc}, res, usage, time.Since(start))
	return &Outcome[*models.DashboardSuggestion]{Result: res, InteractionID: id, Warnings: append(warnings, w...)}, nil
}

type textRequest struct {
	Text    string             `json:"text"`
	Context models.UserContext `json:"user_context"`
}

// Organize runs OrganizeFreeText for userID and records it.
func (s *Service) Organize(ctx context.Context, userID, planID, text string) (*Outcome[*models.OrganizedPlan], error) {
	uc, warnings := s.userContext(ctx, userID)

	var usage Usage
	start := time.Now()
	res, err := s.orchestrator.organize(ctx, text, uc, &usage)
	if err != nil {
		return nil, err
	}

	id, w := s.record(ctx, userID, planID, models.OpOrganizeFreeText, textRequest{text, uc}, res, usage, time.Since(start))
	return &Outcome[*models.OrganizedPlan]{Result: res, InteractionID: id, Warnings: append(warnings, w...)}, nil
}
