package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/xaenox/mindmesh/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c DatabaseConfig) connString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// dialect holds what differs between the supported SQL engines.
type dialect struct {
	driver    string
	migration string
	// numbered placeholders ($1, $2) instead of ?.
	numbered bool
	// insertion order of ai_interactions.
	seq string
}

var (
	postgresDialect = dialect{driver: "postgres", migration: "migrations/postgres.sql", numbered: true, seq: "seq"}
	sqliteDialect   = dialect{driver: "sqlite", migration: "migrations/sqlite.sql", seq: "rowid"}
)

func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStorage implements Storage on PostgreSQL or SQLite.
type SQLStorage struct {
	db  *sql.DB
	d   dialect
	now func() time.Time
}

func NewPostgresStorage(ctx context.Context, config DatabaseConfig) (*SQLStorage, error) {
	db, err := sql.Open(postgresDialect.driver, config.connString())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	return open(ctx, db, postgresDialect)
}

// NewSQLiteStorage opens or creates the database file at path.
func NewSQLiteStorage(ctx context.Context, path string) (*SQLStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}
	db, err := sql.Open(sqliteDialect.driver, path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	return open(ctx, db, sqliteDialect)
}

func open(ctx context.Context, db *sql.DB, d dialect) (*SQLStorage, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	s := &SQLStorage{db: db, d: d, now: func() time.Time { return time.Now().UTC() }}
	if err := s.initializeSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}
	return s, nil
}

func (s *SQLStorage) initializeSchema(ctx context.Context) error {
	migrationSQL, err := migrations.ReadFile(s.d.migration)
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStorage) exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.d.rebind(query), args...)
}

func (s *SQLStorage) queryRow(ctx context.Context, q querier, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.d.rebind(query), args...)
}

func (s *SQLStorage) query(ctx context.Context, q querier, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, s.d.rebind(query), args...)
}

func (s *SQLStorage) GetUserContext(ctx context.Context, userID string) (models.UserContext, error) {
	uc := models.UserContext{
		CategoryCounts: make(map[string]int),
		PriorityCounts: make(map[int]int),
	}

	rows, err := s.query(ctx, s.db, `
		SELECT ai_category, priority, COUNT(*)
		FROM work_items
		WHERE user_id = ?
		GROUP BY ai_category, priority`, userID)
	if err != nil {
		return uc, fmt.Errorf("error querying user history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			category string
			priority int
			n        int
		)
		if err := rows.Scan(&category, &priority, &n); err != nil {
			return uc, fmt.Errorf("error scanning user history: %w", err)
		}
		uc.TotalItems += n
		if category != "" {
			uc.CategoryCounts[category] += n
		}
		uc.PriorityCounts[priority] += n
	}
	return uc, rows.Err()
}

func (s *SQLStorage) CreatePlan(ctx context.Context, plan *models.Plan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = s.now()
	}

	_, err := s.exec(ctx, s.db, `
		INSERT INTO plans (id, user_id, title, original_thought, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		plan.ID, plan.UserID, plan.Title, plan.Thought, plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating plan: %w", err)
	}
	return nil
}

func (s *SQLStorage) LatestPlan(ctx context.Context, userID string) (*models.Plan, error) {
	p := &models.Plan{}
	err := s.queryRow(ctx, s.db, `
		SELECT id, user_id, title, original_thought, created_at
		FROM plans
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT 1`, userID).Scan(&p.ID, &p.UserID, &p.Title, &p.Thought, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no plan for user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying plan: %w", err)
	}
	return p, nil
}

func (s *SQLStorage) planOwner(ctx context.Context, q querier, planID string) (string, error) {
	var userID string
	err := s.queryRow(ctx, q, `SELECT user_id FROM plans WHERE id = ?`, planID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("error querying plan: %w", err)
	}
	return userID, nil
}

func (s *SQLStorage) SaveWorkItems(ctx context.Context, planID string, items []models.WorkItem) ([]models.WorkItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	userID, err := s.planOwner(ctx, tx, planID)
	if err != nil {
		return nil, err
	}

	var next int
	err = s.queryRow(ctx, tx, `SELECT COALESCE(MAX(position) + 1, 0) FROM work_items WHERE plan_id = ?`, planID).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("error querying work items: %w", err)
	}

	now := s.now()
	saved := make([]models.WorkItem, len(items))
	for i, it := range items {
		saved[i] = normalizeItem(it)
		_, err := s.exec(ctx, tx, `
			INSERT INTO work_items (id, plan_id, user_id, position, title, description, priority, status, ai_category, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			saved[i].ID, planID, userID, next+i, saved[i].Title, saved[i].Description,
			saved[i].Priority, string(saved[i].Status), saved[i].Category, now)
		if err != nil {
			return nil, fmt.Errorf("error saving work item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing work items: %w", err)
	}
	return saved, nil
}

func (s *SQLStorage) ListWorkItems(ctx context.Context, planID string) ([]models.WorkItem, error) {
	if _, err := s.planOwner(ctx, s.db, planID); err != nil {
		return nil, err
	}

	rows, err := s.query(ctx, s.db, `
		SELECT id, title, description, priority, status, ai_category
		FROM work_items
		WHERE plan_id = ?
		ORDER BY position`, planID)
	if err != nil {
		return nil, fmt.Errorf("error querying work items: %w", err)
	}
	defer rows.Close()

	items := []models.WorkItem{}
	for rows.Next() {
		var (
			it     models.WorkItem
			status string
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.Priority, &status, &it.Category); err != nil {
			return nil, fmt.Errorf("error scanning work item: %w", err)
		}
		it.Status = models.ItemStatus(status)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLStorage) Record(ctx context.Context, interaction *models.Interaction) (string, error) {
	id := uuid.NewString()
	_, err := s.exec(ctx, s.db, `
		INSERT INTO ai_interactions (id, user_id, plan_id, interaction_type, request_data, response_data,
			tokens_used, cost_estimate, model_used, response_time_ms, user_feedback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, interaction.UserID, interaction.PlanID, interaction.Type,
		jsonOrEmpty(interaction.Request), jsonOrEmpty(interaction.Response),
		interaction.TokensUsed, interaction.CostEstimate, interaction.Model,
		interaction.LatencyMs, interaction.Feedback, s.now())
	if err != nil {
		return "", fmt.Errorf("error recording interaction: %w", err)
	}
	return id, nil
}

func (s *SQLStorage) ListInteractions(ctx context.Context, userID string, limit int) ([]*models.Interaction, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT id, user_id, plan_id, interaction_type, request_data, response_data,
			tokens_used, cost_estimate, model_used, response_time_ms, user_feedback, created_at
		FROM ai_interactions
		WHERE user_id = ?
		ORDER BY `+s.d.seq+` DESC
		LIMIT ?`, userID, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("error querying interactions: %w", err)
	}
	defer rows.Close()

	out := []*models.Interaction{}
	for rows.Next() {
		in := &models.Interaction{}
		err := rows.Scan(
			&in.ID,
			&in.UserID,
			&in.PlanID,
			&in.Type,
			&in.Request,
			&in.Response,
			&in.TokensUsed,
			&in.CostEstimate,
			&in.Model,
			&in.LatencyMs,
			&in.Feedback,
			&in.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning interaction: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *SQLStorage) SetFeedback(ctx context.Context, interactionID string, rating int) error {
	if err := checkFeedback(rating); err != nil {
		return err
	}

	result, err := s.exec(ctx, s.db, `UPDATE ai_interactions SET user_feedback = ? WHERE id = ?`, rating, interactionID)
	if err != nil {
		return fmt.Errorf("error updating feedback: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("interaction %s: %w", interactionID, ErrNotFound)
	}
	return nil
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func jsonOrEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "{}"
	}
	return s
}
