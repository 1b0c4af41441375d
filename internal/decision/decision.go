// Package decision ranks competing projects and maps each one to an intake action.
package decision

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"priorityline/internal/domain"
	"priorityline/internal/scoring"
)

// Rules holds the advisory alert thresholds.
type Rules struct {
	OverloadTeamLoad  float64 `yaml:"overload_team_load" json:"overload_team_load"`
	PaymentRiskBudget float64 `yaml:"payment_risk_budget" json:"payment_risk_budget"`
}

func DefaultRules() Rules {
	return Rules{
		OverloadTeamLoad:  80,
		PaymentRiskBudget: 100000,
	}
}

func (r Rules) Validate() error {
	if r.OverloadTeamLoad < 0 || r.OverloadTeamLoad > 100 {
		return fmt.Errorf("decision.overload_team_load must be within 0-100")
	}
	if r.PaymentRiskBudget < 0 {
		return fmt.Errorf("decision.payment_risk_budget must be >= 0")
	}
	return nil
}

type Engine struct {
	Scorer scoring.Scorer
	Rules  Rules
}

func New(scorer scoring.Scorer, rules Rules) Engine {
	return Engine{Scorer: scorer, Rules: rules}
}

// Rank scores every project and orders them by descending priority score.
// Ties keep input order. Every input yields exactly one entry.
func (e Engine) Rank(projects []domain.ProjectRecord, now time.Time) []domain.RankedProject {
	ranked := make([]domain.RankedProject, len(projects))
	for i, p := range projects {
		ranked[i] = domain.RankedProject{Project: p, Score: e.Scorer.Score(p, now)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.PriorityScore > ranked[j].Score.PriorityScore
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].Action = ActionFor(ranked[i].Score.PriorityLevel)
		ranked[i].Reasoning = actionReasoning(ranked[i].Action, ranked[i].Score)
		ranked[i].Alerts = e.Alerts(ranked[i].Project)
	}
	return ranked
}

// Decide ranks the batch and collects every project's alerts in rank order.
func (e Engine) Decide(projects []domain.ProjectRecord, now time.Time) domain.Decision {
	ranked := e.Rank(projects, now)
	alerts := []domain.Alert{}
	for _, r := range ranked {
		alerts = append(alerts, r.Alerts...)
	}
	return domain.Decision{
		Ranked:    ranked,
		Alerts:    alerts,
		DecidedAt: now.UTC().Format(time.RFC3339),
	}
}

// ActionFor maps a priority level to what intake should do with the project.
func ActionFor(level domain.PriorityLevel) domain.Action {
	switch level {
	case domain.LevelCritical, domain.LevelHigh:
		return domain.ActionAcceptAndAssign
	case domain.LevelNormal:
		return domain.ActionAcceptAndSchedule
	default:
		return domain.ActionNegotiateTimeline
	}
}

// Alerts are advisory and independent of rank and action.
func (e Engine) Alerts(p domain.ProjectRecord) []domain.Alert {
	alerts := []domain.Alert{}
	if p.TeamLoad >= e.Rules.OverloadTeamLoad {
		alerts = append(alerts, domain.Alert{
			Type:      domain.AlertTeamOverloadRisk,
			ProjectID: p.ID,
			Severity:  domain.SeverityMedium,
			Message:   fmt.Sprintf("Team load at %s%% - Risk of overload", formatNumber(p.TeamLoad)),
		})
	}
	if !p.AdvancePaid && p.BudgetValue() > e.Rules.PaymentRiskBudget {
		alerts = append(alerts, domain.Alert{
			Type:      domain.AlertPaymentRisk,
			ProjectID: p.ID,
			Severity:  domain.SeverityMedium,
			Message:   "High-value project without advance payment",
		})
	}
	return alerts
}

func actionReasoning(a domain.Action, s domain.ScoreBreakdown) string {
	head := "Priority Score: " + formatNumber(s.PriorityScore) + ". "
	switch a {
	case domain.ActionAcceptAndAssign:
		return head + strings.Join(s.Reasoning, ", ")
	case domain.ActionAcceptAndSchedule:
		return head + "Schedule after higher priority projects."
	default:
		return head + "Consider timeline negotiation or delay."
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
