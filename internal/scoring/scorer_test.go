package scoring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priorityline/internal/domain"
	"priorityline/internal/scoring"
)

var now = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func budget(v float64) *float64 { return &v }

func in(d time.Duration) string { return now.Add(d).Format(time.RFC3339) }

const day = 24 * time.Hour

func TestScoreUrgentAdvancePaidProject(t *testing.T) {
	s := scoring.New(scoring.DefaultRules())
	got := s.Score(domain.ProjectRecord{
		ID:          "P101",
		Deadline:    in(3 * day),
		Budget:      budget(80000),
		AdvancePaid: true,
		ClientType:  domain.ClientNew,
		TeamLoad:    50,
	}, now)

	assert.Equal(t, 100.0, got.DeadlineUrgency)
	assert.Equal(t, 70.0, got.PaymentStatus)
	assert.Equal(t, 60.0, got.ProjectValue)
	assert.Equal(t, 50.0, got.ClientImportance)
	assert.Equal(t, 10.0, got.TeamLoadPenalty)
	assert.Equal(t, 70.5, got.PriorityScore)
	assert.Equal(t, domain.LevelHigh, got.PriorityLevel)
	assert.Equal(t, []string{
		"Urgent deadline (<=7 days)",
		"Advance payment received",
		"Team available",
	}, got.Reasoning)
}

func TestScoreHighValueUnpaidRepeatClient(t *testing.T) {
	s := scoring.New(scoring.DefaultRules())
	got := s.Score(domain.ProjectRecord{
		ID:         "P102",
		Deadline:   in(10 * day),
		Budget:     budget(150000),
		ClientType: domain.ClientRepeat,
		TeamLoad:   60,
	}, now)

	assert.Equal(t, 50.5, got.PriorityScore)
	assert.Equal(t, domain.LevelNormal, got.PriorityLevel)
	assert.Equal(t, []string{
		"Moderate deadline (<=14 days)",
		"Payment pending",
		"High-value project",
		"Repeat client",
	}, got.Reasoning)
}

func TestPenaltyOverrideForcesCritical(t *testing.T) {
	s := scoring.New(scoring.DefaultRules())
	got := s.Score(domain.ProjectRecord{
		ID:            "P103",
		Deadline:      in(15 * day),
		Budget:        budget(75000),
		AdvancePaid:   true,
		ClientType:    domain.ClientLongTerm,
		PenaltyExists: true,
	}, now)

	assert.GreaterOrEqual(t, got.PriorityScore, 90.0)
	assert.Equal(t, domain.LevelCritical, got.PriorityLevel)
	require.NotEmpty(t, got.Reasoning)
	assert.Equal(t, "Long Term client", got.Reasoning[len(got.Reasoning)-3])
	assert.Equal(t, "[!!] SLA/Penalty risk - OVERRIDE PRIORITY", got.Reasoning[len(got.Reasoning)-1])
}

func TestPenaltyOverrideNeverLowersScore(t *testing.T) {
	rules := scoring.DefaultRules()
	rules.PenaltyFloor = 50
	s := scoring.New(rules)
	p := domain.ProjectRecord{
		ID:              "P104",
		Deadline:        in(day),
		Budget:          budget(200000),
		FullPaymentDone: true,
		ClientType:      domain.ClientLongTerm,
	}
	natural := s.Score(p, now).PriorityScore
	p.PenaltyExists = true
	withPenalty := s.Score(p, now).PriorityScore

	assert.Equal(t, 89.0, natural)
	assert.Equal(t, natural, withPenalty)
}

func TestTeamLoadPenaltyBands(t *testing.T) {
	s := scoring.New(scoring.DefaultRules())
	tests := []struct {
		load float64
		want float64
	}{
		{0, 10},
		{59.9, 10},
		{60, 40},
		{80, 70},
		{85, 70},
		{90, 100},
		{100, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.TeamLoadPenalty(tt.load), "load %v", tt.load)
	}
}

func TestDeadlineUrgencyFallbacks(t *testing.T) {
	s := scoring.New(scoring.DefaultRules())
	assert.Equal(t, 50.0, s.DeadlineUrgency("", now))
	assert.Equal(t, 50.0, s.DeadlineUrgency("next tuesday", now))
	assert.Equal(t, 100.0, s.DeadlineUrgency(in(-2*day), now), "overdue is most urgent")
	assert.Equal(t, 80.0, s.DeadlineUrgency("2026-02-08", now))
	assert.Equal(t, 60.0, s.DeadlineUrgency("2026-02-08T00:00:01", now))
	assert.Equal(t, 20.0, s.DeadlineUrgency("2026-06-01T18:00:00Z", now))
}

func TestDeadlineUrgencyIsMonotonic(t *testing.T) {
	s := scoring.New(scoring.DefaultRules())
	prev := s.UrgencyForDays(400)
	for days := 399.0; days >= -5; days -= 0.25 {
		cur := s.UrgencyForDays(days)
		require.GreaterOrEqual(t, cur, prev, "days %v", days)
		prev = cur
	}
}

func TestProjectValueIsMonotonicAndKeepsStep(t *testing.T) {
	s := scoring.New(scoring.DefaultRules())
	prev := s.ProjectValue(0)
	for b := 0.0; b <= 200000; b += 500 {
		cur := s.ProjectValue(b)
		require.GreaterOrEqual(t, cur, prev, "budget %v", b)
		prev = cur
	}
	assert.Equal(t, 0.0, s.ProjectValue(0))
	assert.Equal(t, 24.0, s.ProjectValue(20000))
	assert.Equal(t, 40.0, s.ProjectValue(49999))
	assert.Equal(t, 60.0, s.ProjectValue(50000))
	assert.Equal(t, 100.0, s.ProjectValue(100000))
}

func TestMissingBudgetScoresAsZero(t *testing.T) {
	s := scoring.New(scoring.DefaultRules())
	got := s.Score(domain.ProjectRecord{ID: "P105"}, now)
	assert.Equal(t, 0.0, got.ProjectValue)
	assert.Equal(t, 50.0, got.DeadlineUrgency)
}

func TestClientImportance(t *testing.T) {
	s := scoring.New(scoring.DefaultRules())
	assert.Equal(t, 100.0, s.ClientImportance("LONG_TERM"))
	assert.Equal(t, 80.0, s.ClientImportance("Repeat"))
	assert.Equal(t, 30.0, s.ClientImportance(domain.ClientTrial))
	assert.Equal(t, 50.0, s.ClientImportance("enterprise"))
	assert.Equal(t, 50.0, s.ClientImportance(""))
}

func TestLevelBoundariesAreInclusive(t *testing.T) {
	s := scoring.New(scoring.DefaultRules())
	assert.Equal(t, domain.LevelCritical, s.Level(80))
	assert.Equal(t, domain.LevelHigh, s.Level(79.99))
	assert.Equal(t, domain.LevelHigh, s.Level(60))
	assert.Equal(t, domain.LevelNormal, s.Level(40))
	assert.Equal(t, domain.LevelLow, s.Level(39.99))
}

func TestScoreIsIdempotent(t *testing.T) {
	s := scoring.New(scoring.DefaultRules())
	p := domain.ProjectRecord{
		ID:          "P106",
		Deadline:    in(6 * day),
		Budget:      budget(120000),
		AdvancePaid: true,
		ClientType:  domain.ClientRepeat,
		TeamLoad:    92,
	}
	first := s.Score(p, now)
	second := s.Score(p, now)
	assert.Equal(t, first, second)
}

func TestScoreStaysInRangeWithoutPenalty(t *testing.T) {
	s := scoring.New(scoring.DefaultRules())
	for _, d := range []string{"", in(day), in(10 * day), in(100 * day)} {
		for _, b := range []float64{0, 30000, 60000, 500000} {
			for _, load := range []float64{0, 65, 95} {
				for _, paid := range []bool{false, true} {
					got := s.Score(domain.ProjectRecord{ID: "x", Deadline: d, Budget: budget(b), TeamLoad: load, AdvancePaid: paid}, now)
					require.GreaterOrEqual(t, got.PriorityScore, 0.0)
					require.LessOrEqual(t, got.PriorityScore, 100.0)
				}
			}
		}
	}
}

func TestRulesValidate(t *testing.T) {
	require.NoError(t, scoring.DefaultRules().Validate())

	bad := scoring.DefaultRules()
	bad.Deadline.Bands = []scoring.UpperBand{{Max: 7, Score: 80}, {Max: 3, Score: 100}}
	assert.ErrorContains(t, bad.Validate(), "ascending")

	bad = scoring.DefaultRules()
	bad.Weights.PaymentStatus = -0.1
	assert.ErrorContains(t, bad.Validate(), "payment_status")

	bad = scoring.DefaultRules()
	bad.Levels.Bands = append(bad.Levels.Bands, scoring.LevelBand{Min: 10, Level: "urgent"})
	assert.ErrorContains(t, bad.Validate(), "unknown level")
}
