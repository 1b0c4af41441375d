package engine

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"priorityline/internal/domain"
	"priorityline/internal/events"
	"priorityline/internal/metrics"
	"priorityline/internal/repo"
)

// Score computes the breakdown for one stored project at the engine's clock.
func (e Engine) Score(ctx context.Context, id string) (domain.ScoreBreakdown, error) {
	p, err := e.Repo.GetProject(ctx, id)
	if err != nil {
		return domain.ScoreBreakdown{}, err
	}
	b := e.Scorer().Score(p, e.now())
	metrics.ObserveScore(b)
	return b, nil
}

// Decide ranks every active project and logs one decision.ranked event per entry.
func (e Engine) Decide(ctx context.Context, actorID string) (domain.Decision, error) {
	projects, err := e.Repo.ListProjects(ctx, repo.ProjectFilters{ActiveOnly: true})
	if err != nil {
		return domain.Decision{}, err
	}
	d := e.Decider().Decide(projects, e.now())
	if len(d.Ranked) == 0 {
		return d, nil
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return d, err
	}
	defer tx.Rollback()
	for _, r := range d.Ranked {
		payload := events.EventPayload{
			"priority_rank":  r.Rank,
			"priority_score": r.Score.PriorityScore,
			"priority_level": r.Score.PriorityLevel,
			"action":         r.Action,
			"alerts":         len(r.Alerts),
		}
		if err := e.eventLog().Append(ctx, tx, events.DecisionRanked, r.Project.ID, events.KindDecision, r.Project.ID, actorID, payload); err != nil {
			return d, err
		}
	}
	if err := tx.Commit(); err != nil {
		return d, err
	}
	metrics.ObserveDecision(d)
	e.logger().Info("projects ranked", "count", len(d.Ranked), "alerts", len(d.Alerts))
	return d, nil
}

// CheckProgress builds the progress report for a stored project and records it. An accepted
// or in-progress project with high delay risk is moved to delayed.
func (e Engine) CheckProgress(ctx context.Context, id, actorID string) (domain.ProgressReport, error) {
	p, err := e.Repo.GetProject(ctx, id)
	if err != nil {
		return domain.ProgressReport{}, err
	}
	tasks, err := e.Repo.ListTasks(ctx, repo.TaskFilters{ProjectID: id})
	if err != nil {
		return domain.ProgressReport{}, err
	}
	report := e.Monitor().Check(p, tasks, e.now())

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return report, err
	}
	defer tx.Rollback()
	if err := e.recordProgressTx(ctx, tx, p, report, actorID); err != nil {
		return report, err
	}
	if err := tx.Commit(); err != nil {
		return report, err
	}
	metrics.ObserveProgress(report)
	return report, nil
}

func (e Engine) recordProgressTx(ctx context.Context, tx *sql.Tx, p domain.ProjectRecord, report domain.ProgressReport, actorID string) error {
	payload := events.EventPayload{
		"progress_percentage":  report.ProgressPercentage,
		"days_remaining":       report.DaysRemaining,
		"is_at_risk":           report.DelayRisk.AtRisk,
		"severity":             report.DelayRisk.Severity,
		"estimated_delay_days": report.DelayRisk.EstimatedDelayDays,
	}
	if err := e.eventLog().Append(ctx, tx, events.ProgressChecked, p.ID, events.KindProject, p.ID, actorID, payload); err != nil {
		return err
	}
	for _, a := range report.Alerts {
		alert := events.EventPayload{"type": a.Type, "severity": a.Severity, "message": a.Message}
		if a.MemberID != "" {
			alert["member_id"] = a.MemberID
		}
		if err := e.eventLog().Append(ctx, tx, events.ProgressAlert, p.ID, events.KindAlert, p.ID, actorID, alert); err != nil {
			return err
		}
	}
	if report.DelayRisk.Severity == domain.SeverityHigh &&
		(p.Status == domain.ProjectAccepted || p.Status == domain.ProjectInProgress) {
		if _, err := e.setStatusTx(ctx, tx, p.ID, domain.ProjectDelayed, actorID, report.DelayRisk.Message); err != nil {
			return err
		}
		e.logger().Warn("project delayed", "project_id", p.ID, "gap", report.DelayRisk.Gap)
	}
	return nil
}

// CheckSummary is the outcome of one pass over the active projects.
type CheckSummary struct {
	Checked  int                     `json:"checked"`
	AtRisk   int                     `json:"at_risk"`
	Alerts   int                     `json:"alerts"`
	Reports  []domain.ProgressReport `json:"reports"`
	Failures map[string]string       `json:"failures,omitempty"`
}

// CheckActive runs CheckProgress for every active project with bounded concurrency.
// A failing project is reported in Failures and does not stop the others; only context
// cancellation aborts the pass.
func (e Engine) CheckActive(ctx context.Context, actorID string) (CheckSummary, error) {
	projects, err := e.Repo.ListProjects(ctx, repo.ProjectFilters{ActiveOnly: true})
	if err != nil {
		return CheckSummary{}, err
	}
	limit := e.config().Worker.Concurrency
	if limit <= 0 {
		limit = 1
	}
	var (
		mu       sync.Mutex
		reports  = make([]domain.ProgressReport, 0, len(projects))
		failures = map[string]string{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, p := range projects {
		id := p.ID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report, err := e.CheckProgress(gctx, id, actorID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures[id] = err.Error()
				e.logger().Error("progress check failed", "project_id", id, "error", err)
				return nil
			}
			reports = append(reports, report)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CheckSummary{}, err
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ProjectID < reports[j].ProjectID })
	summary := CheckSummary{Checked: len(reports), Reports: reports}
	for _, r := range reports {
		if r.DelayRisk.AtRisk {
			summary.AtRisk++
		}
		summary.Alerts += len(r.Alerts)
	}
	if len(failures) > 0 {
		summary.Failures = failures
	}
	return summary, nil
}
