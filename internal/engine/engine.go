package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"priorityline/internal/config"
	"priorityline/internal/decision"
	"priorityline/internal/domain"
	"priorityline/internal/events"
	"priorityline/internal/monitor"
	"priorityline/internal/repo"
	"priorityline/internal/scoring"
)

// Engine is the stateful service around the pure scoring, ranking and monitoring components.
// Everything it needs is carried explicitly; there is no process-wide state.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
	Log    *slog.Logger
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
		Log:    slog.Default(),
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) stamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

// eventLog stamps log rows with the engine clock.
func (e Engine) eventLog() events.Writer {
	w := e.Events
	if w.DB == nil {
		w.DB = e.DB
	}
	w.Now = e.now
	return w
}

func (e Engine) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

func (e Engine) config() *config.Config {
	if e.Config != nil {
		return e.Config
	}
	return config.Default()
}

func (e Engine) Scorer() scoring.Scorer {
	return scoring.New(e.config().Scoring)
}

func (e Engine) Decider() decision.Engine {
	return decision.New(e.Scorer(), e.config().Decision)
}

func (e Engine) Monitor() monitor.Monitor {
	return monitor.New(e.config().Monitor)
}

// CreateProject validates and stores a project record. Status defaults to pending and the
// client type label is normalised when it is a known one.
func (e Engine) CreateProject(ctx context.Context, p domain.ProjectRecord, actorID string) (domain.ProjectRecord, error) {
	p.ID = strings.TrimSpace(p.ID)
	if ct, ok := domain.ParseClientType(string(p.ClientType)); ok {
		p.ClientType = ct
	}
	if p.Status == "" {
		p.Status = domain.ProjectPending
	}
	if err := domain.ValidateProject(p); err != nil {
		return domain.ProjectRecord{}, err
	}
	now := e.stamp()
	p.CreatedAt = now
	p.UpdatedAt = now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ProjectRecord{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertProject(ctx, tx, p); err != nil {
		return domain.ProjectRecord{}, fmt.Errorf("insert project: %w", err)
	}
	payload := events.EventPayload{"status": p.Status, "deadline": p.Deadline, "client_type": p.ClientType}
	if err := e.eventLog().Append(ctx, tx, events.ProjectCreated, p.ID, events.KindProject, p.ID, actorID, payload); err != nil {
		return domain.ProjectRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ProjectRecord{}, err
	}
	e.logger().Info("project created", "project_id", p.ID, "status", p.Status)
	return p, nil
}

func (e Engine) UpdateProjectStatus(ctx context.Context, id string, status domain.ProjectStatus, actorID string) (domain.ProjectRecord, error) {
	if !status.IsValid() {
		return domain.ProjectRecord{}, fmt.Errorf("invalid project status %q", status)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ProjectRecord{}, err
	}
	defer tx.Rollback()
	p, err := e.setStatusTx(ctx, tx, id, status, actorID, "")
	if err != nil {
		return domain.ProjectRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ProjectRecord{}, err
	}
	return p, nil
}

// setStatusTx is a no-op when the project already has the status.
func (e Engine) setStatusTx(ctx context.Context, tx *sql.Tx, id string, status domain.ProjectStatus, actorID, reason string) (domain.ProjectRecord, error) {
	p, err := e.Repo.GetProjectTx(ctx, tx, id)
	if err != nil {
		return p, err
	}
	if p.Status == status {
		return p, nil
	}
	from := p.Status
	p.Status = status
	p.UpdatedAt = e.stamp()
	if err := e.Repo.UpdateProjectStatus(ctx, tx, id, status, p.UpdatedAt); err != nil {
		return p, err
	}
	payload := events.EventPayload{"from": from, "to": status}
	if reason != "" {
		payload["reason"] = reason
	}
	if err := e.eventLog().Append(ctx, tx, events.ProjectStatus, id, events.KindProject, id, actorID, payload); err != nil {
		return p, err
	}
	return p, nil
}

func (e Engine) DeleteProject(ctx context.Context, id, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteProject(ctx, tx, id); err != nil {
		return err
	}
	if err := e.eventLog().Append(ctx, tx, events.ProjectDeleted, id, events.KindProject, id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// TaskCreateOptions are parameters for creating a task.
type TaskCreateOptions struct {
	ID         string
	ProjectID  string
	Title      string
	Status     domain.TaskStatus
	AssignedTo string
	ActorID    string
}

func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	if opts.ProjectID == "" {
		return domain.Task{}, errors.New("project is required")
	}
	if opts.Status == "" {
		opts.Status = domain.TaskPending
	}
	if _, err := e.Repo.GetProject(ctx, opts.ProjectID); err != nil {
		return domain.Task{}, err
	}
	now := e.stamp()
	id := opts.ID
	if id == "" {
		existing, err := e.Repo.ListTasks(ctx, repo.TaskFilters{ProjectID: opts.ProjectID})
		if err != nil {
			return domain.Task{}, err
		}
		seed := opts.ProjectID + "|" + opts.Title + "|" + now + "|" + strconv.Itoa(len(existing))
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
	}
	t := domain.Task{
		ID:        id,
		ProjectID: opts.ProjectID,
		Title:     opts.Title,
		Status:    opts.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if opts.AssignedTo != "" {
		assignee := opts.AssignedTo
		t.AssignedTo = &assignee
	}
	if err := domain.ValidateTask(t); err != nil {
		return domain.Task{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertTask(ctx, tx, t); err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	payload := events.EventPayload{"status": t.Status, "title": t.Title}
	if t.AssignedTo != nil {
		payload["assigned_to"] = *t.AssignedTo
	}
	if err := e.eventLog().Append(ctx, tx, events.TaskCreated, t.ProjectID, events.KindTask, t.ID, opts.ActorID, payload); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// TaskUpdateOptions encapsulates allowed updates. Assign set to "" clears the assignee.
type TaskUpdateOptions struct {
	ID      string
	Title   *string
	Status  domain.TaskStatus
	Assign  *string
	ActorID string
}

func (e Engine) UpdateTask(ctx context.Context, opts TaskUpdateOptions) (domain.Task, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	t, err := e.Repo.GetTaskTx(ctx, tx, opts.ID)
	if err != nil {
		return t, err
	}
	changes := events.EventPayload{}
	if opts.Title != nil && *opts.Title != t.Title {
		t.Title = *opts.Title
		changes["title"] = t.Title
	}
	if opts.Status != "" && opts.Status != t.Status {
		if !opts.Status.IsValid() {
			return t, fmt.Errorf("invalid task status %q", opts.Status)
		}
		changes["from"] = t.Status
		changes["status"] = opts.Status
		t.Status = opts.Status
	}
	if opts.Assign != nil {
		if *opts.Assign == "" {
			t.AssignedTo = nil
		} else {
			assignee := *opts.Assign
			t.AssignedTo = &assignee
		}
		changes["assigned_to"] = *opts.Assign
	}
	if len(changes) == 0 {
		return t, nil
	}
	if err := domain.ValidateTask(t); err != nil {
		return t, err
	}
	t.UpdatedAt = e.stamp()
	if err := e.Repo.UpdateTask(ctx, tx, t); err != nil {
		return t, err
	}
	if err := e.eventLog().Append(ctx, tx, events.TaskUpdated, t.ProjectID, events.KindTask, t.ID, opts.ActorID, changes); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	return t, nil
}

// ImportRules stores a validated config and swaps it into the engine copy returned.
// The rules row and its rules.imported event commit together.
func (e Engine) ImportRules(ctx context.Context, cfg *config.Config, actorID string) (Engine, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return e, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpsertRulesConfigTx(ctx, tx, cfg, e.stamp()); err != nil {
		return e, err
	}
	if err := e.eventLog().Append(ctx, tx, events.RulesImported, "", events.KindRules, "", actorID, nil); err != nil {
		return e, err
	}
	if err := tx.Commit(); err != nil {
		return e, err
	}
	e.Config = cfg
	return e, nil
}
