package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"priorityline/internal/config"
	"priorityline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const projectColumns = `id,title,deadline,budget,advance_paid,full_payment_done,client_type,team_load,penalty_exists,estimated_effort_days,status,created_at,updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (domain.ProjectRecord, error) {
	var (
		p      domain.ProjectRecord
		budget sql.NullFloat64
		effort sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Title, &p.Deadline, &budget, &p.AdvancePaid, &p.FullPaymentDone, &p.ClientType,
		&p.TeamLoad, &p.PenaltyExists, &effort, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if budget.Valid {
		p.Budget = &budget.Float64
	}
	if effort.Valid {
		d := int(effort.Int64)
		p.EstimatedEffortDays = &d
	}
	return p, nil
}

func (r Repo) InsertProject(ctx context.Context, tx *sql.Tx, p domain.ProjectRecord) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO projects(`+projectColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Title, p.Deadline, nullableFloatPtr(p.Budget), p.AdvancePaid, p.FullPaymentDone, string(p.ClientType),
		p.TeamLoad, p.PenaltyExists, nullableIntPtr(p.EstimatedEffortDays), string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("project %s already exists", p.ID)
	}
	return err
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.ProjectRecord, error) {
	return scanProject(r.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id))
}

func (r Repo) GetProjectTx(ctx context.Context, tx *sql.Tx, id string) (domain.ProjectRecord, error) {
	return scanProject(tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id))
}

type ProjectFilters struct {
	Statuses   []domain.ProjectStatus
	ActiveOnly bool
	Limit      int
}

// ListProjects returns projects in creation order so ties in ranking stay stable across calls.
func (r Repo) ListProjects(ctx context.Context, f ProjectFilters) ([]domain.ProjectRecord, error) {
	statuses := f.Statuses
	if f.ActiveOnly {
		statuses = domain.ActiveStatuses()
	}
	var (
		clauses []string
		args    []any
	)
	if len(statuses) > 0 {
		marks := make([]string, len(statuses))
		for i, s := range statuses {
			marks[i] = "?"
			args = append(args, string(s))
		}
		clauses = append(clauses, "status IN ("+strings.Join(marks, ",")+")")
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + projectColumns + ` FROM projects ` + where + ` ORDER BY created_at ASC, id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.ProjectRecord{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) UpdateProjectStatus(ctx context.Context, tx *sql.Tx, id string, status domain.ProjectStatus, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE projects SET status=?, updated_at=? WHERE id=?`, string(status), updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteProject(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRulesConfig loads the stored rule tables. ErrNotFound means none were imported yet.
func (r Repo) GetRulesConfig(ctx context.Context) (*config.Config, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT config_yaml FROM rules_config WHERE id=1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	cfg, err := config.FromYAML([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("stored rules config: %w", err)
	}
	return cfg, nil
}

func (r Repo) UpsertRulesConfig(ctx context.Context, cfg *config.Config) error {
	return upsertRulesConfig(ctx, r.DB, cfg, time.Now().UTC().Format(time.RFC3339))
}

// UpsertRulesConfigTx stores the rules inside the caller's transaction.
func (r Repo) UpsertRulesConfigTx(ctx context.Context, tx *sql.Tx, cfg *config.Config, updatedAt string) error {
	return upsertRulesConfig(ctx, tx, cfg, updatedAt)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertRulesConfig(ctx context.Context, db execer, cfg *config.Config, updatedAt string) error {
	if cfg == nil {
		return fmt.Errorf("config nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	payload, err := config.ToYAML(cfg)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO rules_config(id,config_yaml,updated_at) VALUES (1,?,?)
ON CONFLICT(id) DO UPDATE SET config_yaml=excluded.config_yaml, updated_at=excluded.updated_at`, string(payload), updatedAt)
	return err
}

func nullableStringPtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func nullableIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloatPtr(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
