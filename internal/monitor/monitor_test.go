package monitor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priorityline/internal/domain"
	"priorityline/internal/monitor"
)

var now = time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

const day = 24 * time.Hour

func effort(d int) *int { return &d }

func member(id string) *string { return &id }

func task(id string, status domain.TaskStatus, assignee string) domain.Task {
	t := domain.Task{ID: id, Status: status}
	if assignee != "" {
		t.AssignedTo = member(assignee)
	}
	return t
}

func project(deadlineIn time.Duration, effortDays *int) domain.ProjectRecord {
	return domain.ProjectRecord{
		ID:                  "P101",
		Deadline:            now.Add(deadlineIn).Format(time.RFC3339),
		EstimatedEffortDays: effortDays,
	}
}

func TestCheckQuarterDoneFiveDaysOut(t *testing.T) {
	m := monitor.New(monitor.DefaultRules())
	tasks := []domain.Task{
		task("T1", domain.TaskCompleted, "D1"),
		task("T2", domain.TaskInProgress, "D2"),
		task("T3", domain.TaskPending, "D2"),
		task("T4", domain.TaskPending, "D3"),
	}

	r := m.Check(project(5*day, effort(20)), tasks, now)

	assert.Equal(t, "P101", r.ProjectID)
	assert.Equal(t, 4, r.TotalTasks)
	assert.Equal(t, 1, r.CompletedTasks)
	assert.Equal(t, 1, r.InProgressTasks)
	assert.Equal(t, 2, r.PendingTasks)
	assert.Equal(t, 25.0, r.ProgressPercentage)
	assert.Equal(t, 5, r.DaysRemaining)
	// expected 100 - 5/20*100 = 75, gap 50
	assert.True(t, r.DelayRisk.AtRisk)
	assert.Equal(t, domain.SeverityHigh, r.DelayRisk.Severity)
	assert.Equal(t, 50.0, r.DelayRisk.Gap)
	assert.Equal(t, 10, r.DelayRisk.EstimatedDelayDays)
	assert.Equal(t, "Project is 50.0% behind schedule", r.DelayRisk.Message)
	require.Len(t, r.Alerts, 1)
	assert.Equal(t, domain.AlertDelayRisk, r.Alerts[0].Type)
	assert.Equal(t, "2026-02-01T09:30:00Z", r.CheckedAt)
}

func TestCheckEmptyTaskList(t *testing.T) {
	m := monitor.New(monitor.DefaultRules())
	r := m.Check(project(40*day, effort(20)), nil, now)
	assert.Equal(t, 0, r.TotalTasks)
	assert.Equal(t, 0.0, r.ProgressPercentage)
	assert.False(t, r.DelayRisk.AtRisk)
	assert.Equal(t, domain.SeverityNone, r.DelayRisk.Severity)
	assert.Empty(t, r.Alerts)
}

func TestMissingEffortUsesDefault(t *testing.T) {
	m := monitor.New(monitor.DefaultRules())
	tasks := []domain.Task{task("T1", domain.TaskPending, "")}

	// 28 of 30 default days left: expected progress under 7%
	r := m.Check(project(28*day, nil), tasks, now)
	assert.False(t, r.DelayRisk.AtRisk)

	r = m.Check(project(28*day, effort(0)), tasks, now)
	assert.False(t, r.DelayRisk.AtRisk)

	r = m.Check(project(5*day, nil), tasks, now)
	assert.Equal(t, domain.SeverityHigh, r.DelayRisk.Severity)
}

func TestPredictDelayBands(t *testing.T) {
	m := monitor.New(monitor.DefaultRules())

	medium := m.PredictDelay(10, 15, 20)
	assert.True(t, medium.AtRisk)
	assert.Equal(t, domain.SeverityMedium, medium.Severity)
	assert.Equal(t, 1, medium.EstimatedDelayDays)
	assert.Equal(t, "Project is slightly behind schedule (15.0%)", medium.Message)

	onTrack := m.PredictDelay(10, 18, 20)
	assert.False(t, onTrack.AtRisk)
	assert.Equal(t, 0, onTrack.EstimatedDelayDays)
	assert.Equal(t, "Project is on track", onTrack.Message)

	boundary := m.PredictDelay(5, 15, 20)
	assert.Equal(t, domain.SeverityMedium, boundary.Severity, "gap of exactly 20 is not high")

	overdue := m.PredictDelay(50, -5, 10)
	assert.Equal(t, domain.SeverityHigh, overdue.Severity)
	assert.Equal(t, 20, overdue.EstimatedDelayDays)
}

func TestUrgentDeadlineAlert(t *testing.T) {
	m := monitor.New(monitor.DefaultRules())
	tasks := []domain.Task{
		task("T1", domain.TaskCompleted, ""),
		task("T2", domain.TaskPending, ""),
	}
	r := m.Check(project(2*day, effort(10)), tasks, now)
	require.Len(t, r.Alerts, 2)
	assert.Equal(t, domain.AlertDelayRisk, r.Alerts[0].Type)
	assert.Equal(t, domain.AlertUrgentDeadline, r.Alerts[1].Type)
	assert.Equal(t, domain.SeverityHigh, r.Alerts[1].Severity)
	assert.Equal(t, "Only 2 days remaining with 50.0% complete", r.Alerts[1].Message)
}

func TestDaysRemaining(t *testing.T) {
	m := monitor.New(monitor.DefaultRules())
	assert.Equal(t, 4, m.DaysRemaining(now.Add(4*day+23*time.Hour).Format(time.RFC3339), now))
	assert.Equal(t, -3, m.DaysRemaining(now.Add(-2*day-time.Hour).Format(time.RFC3339), now))
	assert.Equal(t, -1, m.DaysRemaining(now.Add(-12*time.Hour).Format(time.RFC3339), now))
	assert.Equal(t, -2, m.DaysRemaining(now.Add(-36*time.Hour).Format(time.RFC3339), now))
	assert.Equal(t, 0, m.DaysRemaining(now.Add(23*time.Hour).Format(time.RFC3339), now))
	assert.Equal(t, 0, m.DaysRemaining(now.Format(time.RFC3339), now))
	assert.Equal(t, 0, m.DaysRemaining("", now))
	assert.Equal(t, 0, m.DaysRemaining("soon", now))
}

func TestCheckHoursOverdueCountsAsMinusOneDay(t *testing.T) {
	m := monitor.New(monitor.DefaultRules())
	tasks := []domain.Task{
		task("T1", domain.TaskCompleted, ""),
		task("T2", domain.TaskPending, ""),
	}

	r := m.Check(project(-12*time.Hour, effort(20)), tasks, now)

	assert.Equal(t, -1, r.DaysRemaining)
	// expected 100 - (-1)/20*100 = 105, gap 55
	assert.Equal(t, 55.0, r.DelayRisk.Gap)
	assert.Equal(t, domain.SeverityHigh, r.DelayRisk.Severity)
	assert.Equal(t, 11, r.DelayRisk.EstimatedDelayDays)
	require.NotEmpty(t, r.Alerts)
	assert.Equal(t, domain.AlertDelayRisk, r.Alerts[0].Type)
}

func TestTeamOverloadCountsOnlyActiveTasks(t *testing.T) {
	m := monitor.New(monitor.DefaultRules())
	tasks := []domain.Task{
		task("T1", domain.TaskPending, "zed"),
		task("T2", domain.TaskPending, "zed"),
		task("T3", domain.TaskInProgress, "zed"),
		task("T4", domain.TaskInProgress, "zed"),
		task("T5", domain.TaskPending, "amy"),
		task("T6", domain.TaskPending, "amy"),
		task("T7", domain.TaskPending, "amy"),
		task("T8", domain.TaskCompleted, "amy"),
		task("T9", domain.TaskPending, "bob"),
		task("T10", domain.TaskPending, "bob"),
		task("T11", domain.TaskPending, "bob"),
		task("T12", domain.TaskPending, "bob"),
		task("T13", domain.TaskPending, ""),
	}
	r := m.Check(project(60*day, effort(90)), tasks, now)

	var overload []domain.Alert
	for _, a := range r.Alerts {
		if a.Type == domain.AlertTeamOverload {
			overload = append(overload, a)
		}
	}
	require.Len(t, overload, 2)
	assert.Equal(t, "bob", overload[0].MemberID)
	assert.Equal(t, "zed", overload[1].MemberID)
	assert.Equal(t, "Team member zed has 4 active tasks", overload[1].Message)
}

func TestCheckIsDeterministic(t *testing.T) {
	m := monitor.New(monitor.DefaultRules())
	tasks := []domain.Task{task("T1", domain.TaskCompleted, "a"), task("T2", domain.TaskPending, "b")}
	p := project(3*day, effort(12))
	assert.Equal(t, m.Check(p, tasks, now), m.Check(p, tasks, now))
}

func TestRulesValidate(t *testing.T) {
	require.NoError(t, monitor.DefaultRules().Validate())
	bad := monitor.DefaultRules()
	bad.DefaultEffortDays = 0
	assert.Error(t, bad.Validate())
}
