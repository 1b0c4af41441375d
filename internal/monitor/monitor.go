// Package monitor reports task progress against the deadline and predicts slippage.
package monitor

import (
	"fmt"
	"math"
	"sort"
	"time"

	"priorityline/internal/domain"
)

// Rules for the linear burn-rate heuristic and the workload alerts.
type Rules struct {
	DefaultEffortDays int     `yaml:"default_effort_days" json:"default_effort_days"`
	HighGap           float64 `yaml:"high_gap" json:"high_gap"`
	HighDelayDivisor  float64 `yaml:"high_delay_divisor" json:"high_delay_divisor"`
	MediumGap         float64 `yaml:"medium_gap" json:"medium_gap"`
	MediumDelayDiv    float64 `yaml:"medium_delay_divisor" json:"medium_delay_divisor"`
	UrgentDays        int     `yaml:"urgent_days" json:"urgent_days"`
	UrgentProgress    float64 `yaml:"urgent_progress" json:"urgent_progress"`
	MaxActiveTasks    int     `yaml:"max_active_tasks" json:"max_active_tasks"`
}

func DefaultRules() Rules {
	return Rules{
		DefaultEffortDays: 30,
		HighGap:           20,
		HighDelayDivisor:  5,
		MediumGap:         10,
		MediumDelayDiv:    10,
		UrgentDays:        3,
		UrgentProgress:    80,
		MaxActiveTasks:    3,
	}
}

func (r Rules) Validate() error {
	if r.DefaultEffortDays <= 0 {
		return fmt.Errorf("monitor.default_effort_days must be > 0")
	}
	if r.HighDelayDivisor <= 0 || r.MediumDelayDiv <= 0 {
		return fmt.Errorf("monitor delay divisors must be > 0")
	}
	if r.MediumGap > r.HighGap {
		return fmt.Errorf("monitor.medium_gap must not exceed monitor.high_gap")
	}
	if r.MaxActiveTasks < 0 {
		return fmt.Errorf("monitor.max_active_tasks must be >= 0")
	}
	return nil
}

type Monitor struct {
	Rules Rules
}

func New(rules Rules) Monitor {
	return Monitor{Rules: rules}
}

// Check builds a health snapshot for one project and its current task set.
func (m Monitor) Check(p domain.ProjectRecord, tasks []domain.Task, now time.Time) domain.ProgressReport {
	var completed, inProgress int
	for _, t := range tasks {
		switch t.Status {
		case domain.TaskCompleted:
			completed++
		case domain.TaskInProgress:
			inProgress++
		}
	}
	total := len(tasks)
	var progress float64
	if total > 0 {
		progress = float64(completed) / float64(total) * 100
	}
	days := m.DaysRemaining(p.Deadline, now)
	risk := m.PredictDelay(progress, days, m.effortDays(p))

	alerts := []domain.Alert{}
	if risk.AtRisk {
		alerts = append(alerts, domain.Alert{
			Type:      domain.AlertDelayRisk,
			ProjectID: p.ID,
			Severity:  risk.Severity,
			Message:   risk.Message,
		})
	}
	if days < m.Rules.UrgentDays && progress < m.Rules.UrgentProgress {
		alerts = append(alerts, domain.Alert{
			Type:      domain.AlertUrgentDeadline,
			ProjectID: p.ID,
			Severity:  domain.SeverityHigh,
			Message:   fmt.Sprintf("Only %d days remaining with %.1f%% complete", days, progress),
		})
	}
	alerts = append(alerts, m.overloadAlerts(p.ID, tasks)...)

	return domain.ProgressReport{
		ProjectID:          p.ID,
		TotalTasks:         total,
		CompletedTasks:     completed,
		InProgressTasks:    inProgress,
		PendingTasks:       total - completed - inProgress,
		ProgressPercentage: math.Round(progress*10) / 10,
		DaysRemaining:      days,
		DelayRisk:          risk,
		Alerts:             alerts,
		CheckedAt:          now.UTC().Format(time.RFC3339),
	}
}

// DaysRemaining rounds down, so any overdue deadline is negative. A missing or unreadable
// deadline counts as due now.
func (m Monitor) DaysRemaining(deadline string, now time.Time) int {
	due, ok := domain.ParseDeadline(deadline, now.Location())
	if !ok {
		return 0
	}
	return int(math.Floor(due.Sub(now).Hours() / 24))
}

// PredictDelay compares actual progress with a uniform burn over the effort window.
func (m Monitor) PredictDelay(progress float64, daysRemaining, effortDays int) domain.DelayRisk {
	if effortDays <= 0 {
		effortDays = m.Rules.DefaultEffortDays
	}
	expected := 100 - float64(daysRemaining)/float64(effortDays)*100
	gap := expected - progress
	switch {
	case gap > m.Rules.HighGap:
		return domain.DelayRisk{
			AtRisk:             true,
			Severity:           domain.SeverityHigh,
			Message:            fmt.Sprintf("Project is %.1f%% behind schedule", gap),
			Gap:                gap,
			EstimatedDelayDays: int(gap / m.Rules.HighDelayDivisor),
		}
	case gap > m.Rules.MediumGap:
		return domain.DelayRisk{
			AtRisk:             true,
			Severity:           domain.SeverityMedium,
			Message:            fmt.Sprintf("Project is slightly behind schedule (%.1f%%)", gap),
			Gap:                gap,
			EstimatedDelayDays: int(gap / m.Rules.MediumDelayDiv),
		}
	default:
		return domain.DelayRisk{
			Severity: domain.SeverityNone,
			Message:  "Project is on track",
			Gap:      gap,
		}
	}
}

func (m Monitor) effortDays(p domain.ProjectRecord) int {
	if p.EstimatedEffortDays == nil || *p.EstimatedEffortDays <= 0 {
		return m.Rules.DefaultEffortDays
	}
	return *p.EstimatedEffortDays
}

// overloadAlerts flags assignees holding more than MaxActiveTasks unfinished tasks, sorted by member id.
func (m Monitor) overloadAlerts(projectID string, tasks []domain.Task) []domain.Alert {
	active := map[string]int{}
	for _, t := range tasks {
		if t.AssignedTo == nil || *t.AssignedTo == "" || t.Status == domain.TaskCompleted {
			continue
		}
		active[*t.AssignedTo]++
	}
	members := make([]string, 0, len(active))
	for id, n := range active {
		if n > m.Rules.MaxActiveTasks {
			members = append(members, id)
		}
	}
	sort.Strings(members)
	alerts := make([]domain.Alert, 0, len(members))
	for _, id := range members {
		alerts = append(alerts, domain.Alert{
			Type:      domain.AlertTeamOverload,
			ProjectID: projectID,
			MemberID:  id,
			Severity:  domain.SeverityMedium,
			Message:   fmt.Sprintf("Team member %s has %d active tasks", id, active[id]),
		})
	}
	return alerts
}
