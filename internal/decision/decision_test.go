package decision_test

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priorityline/internal/decision"
	"priorityline/internal/domain"
	"priorityline/internal/scoring"
)

var now = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func budget(v float64) *float64 { return &v }

func in(d time.Duration) string { return now.Add(d).Format(time.RFC3339) }

func newEngine() decision.Engine {
	return decision.New(scoring.New(scoring.DefaultRules()), decision.DefaultRules())
}

func ids(ranked []domain.RankedProject) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Project.ID
	}
	return out
}

func TestRankDeadlineAndPaymentOutweighValue(t *testing.T) {
	a := domain.ProjectRecord{ID: "A", Deadline: in(3 * day), Budget: budget(80000), AdvancePaid: true, ClientType: domain.ClientNew, TeamLoad: 50}
	b := domain.ProjectRecord{ID: "B", Deadline: in(10 * day), Budget: budget(150000), ClientType: domain.ClientRepeat, TeamLoad: 60}

	ranked := newEngine().Rank([]domain.ProjectRecord{b, a}, now)

	require.Len(t, ranked, 2)
	assert.Equal(t, []string{"A", "B"}, ids(ranked))
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.Equal(t, domain.ActionAcceptAndAssign, ranked[0].Action)
	assert.Equal(t, domain.ActionAcceptAndSchedule, ranked[1].Action)
	assert.Equal(t, "Priority Score: 70.5. Urgent deadline (<=7 days), Advance payment received, Team available", ranked[0].Reasoning)
	assert.Equal(t, "Priority Score: 50.5. Schedule after higher priority projects.", ranked[1].Reasoning)
}

func TestRankIsIndependentOfInputOrder(t *testing.T) {
	projects := []domain.ProjectRecord{
		{ID: "P1", Deadline: in(2 * day), Budget: budget(10000), TeamLoad: 30},
		{ID: "P2", Deadline: in(40 * day), Budget: budget(300000), FullPaymentDone: true, TeamLoad: 95},
		{ID: "P3", Deadline: "garbage", Budget: budget(60000), AdvancePaid: true, ClientType: "long_term"},
		{ID: "P4", Deadline: in(12 * day), PenaltyExists: true},
		{ID: "P5", Deadline: in(25 * day), ClientType: domain.ClientTrial, TeamLoad: 85},
	}
	e := newEngine()
	forward := e.Rank(projects, now)
	reversed := slices.Clone(projects)
	slices.Reverse(reversed)
	backward := e.Rank(reversed, now)

	assert.Equal(t, ids(forward), ids(backward))
	assert.Len(t, forward, len(projects))
	for i := 1; i < len(forward); i++ {
		assert.GreaterOrEqual(t, forward[i-1].Score.PriorityScore, forward[i].Score.PriorityScore)
	}
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	projects := []domain.ProjectRecord{
		{ID: "first", Deadline: in(20 * day)},
		{ID: "second", Deadline: in(20 * day)},
		{ID: "third", Deadline: in(20 * day)},
	}
	ranked := newEngine().Rank(projects, now)
	assert.Equal(t, []string{"first", "second", "third"}, ids(ranked))
}

func TestRankEmptyBatch(t *testing.T) {
	assert.Empty(t, newEngine().Rank(nil, now))
	d := newEngine().Decide(nil, now)
	assert.Empty(t, d.Ranked)
	assert.NotNil(t, d.Alerts)
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, domain.ActionAcceptAndAssign, decision.ActionFor(domain.LevelCritical))
	assert.Equal(t, domain.ActionAcceptAndAssign, decision.ActionFor(domain.LevelHigh))
	assert.Equal(t, domain.ActionAcceptAndSchedule, decision.ActionFor(domain.LevelNormal))
	assert.Equal(t, domain.ActionNegotiateTimeline, decision.ActionFor(domain.LevelLow))
}

func TestLowPriorityIsNegotiated(t *testing.T) {
	ranked := newEngine().Rank([]domain.ProjectRecord{
		{ID: "slow", Deadline: in(90 * day), ClientType: domain.ClientTrial, TeamLoad: 95},
	}, now)
	require.Len(t, ranked, 1)
	assert.Equal(t, domain.LevelLow, ranked[0].Score.PriorityLevel)
	assert.Equal(t, domain.ActionNegotiateTimeline, ranked[0].Action)
	assert.Equal(t, "Priority Score: 8.5. Consider timeline negotiation or delay.", ranked[0].Reasoning)
}

func TestTeamOverloadAlertRegardlessOfRank(t *testing.T) {
	loaded := domain.ProjectRecord{ID: "loaded", Deadline: in(60 * day), TeamLoad: 85}
	urgent := domain.ProjectRecord{ID: "urgent", Deadline: in(day), FullPaymentDone: true, TeamLoad: 10}

	d := newEngine().Decide([]domain.ProjectRecord{loaded, urgent}, now)

	require.Len(t, d.Ranked, 2)
	assert.Equal(t, "loaded", d.Ranked[1].Project.ID)
	assert.GreaterOrEqual(t, d.Ranked[1].Score.TeamLoadPenalty, 70.0)
	require.Len(t, d.Ranked[1].Alerts, 1)
	assert.Equal(t, domain.AlertTeamOverloadRisk, d.Ranked[1].Alerts[0].Type)
	assert.Equal(t, "Team load at 85% - Risk of overload", d.Ranked[1].Alerts[0].Message)
	assert.Empty(t, d.Ranked[0].Alerts)
	assert.Equal(t, d.Ranked[1].Alerts, d.Alerts)
}

func TestPaymentRiskAlert(t *testing.T) {
	e := newEngine()
	alerts := e.Alerts(domain.ProjectRecord{ID: "big", Budget: budget(150000)})
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertPaymentRisk, alerts[0].Type)
	assert.Equal(t, "big", alerts[0].ProjectID)

	assert.Empty(t, e.Alerts(domain.ProjectRecord{ID: "paid", Budget: budget(150000), AdvancePaid: true}))
	assert.Empty(t, e.Alerts(domain.ProjectRecord{ID: "edge", Budget: budget(100000)}))
	assert.Empty(t, e.Alerts(domain.ProjectRecord{ID: "none"}))
}

func TestDecideStampsTime(t *testing.T) {
	d := newEngine().Decide([]domain.ProjectRecord{{ID: "x"}}, now)
	assert.Equal(t, "2026-02-01T00:00:00Z", d.DecidedAt)
}
