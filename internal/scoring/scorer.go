// Package scoring turns a project record into a weighted priority score.
//
// Every factor is a first-match walk over a band table from Rules, so the
// numbers can be tuned from config without touching the walk itself.
package scoring

import (
	"math"
	"strings"
	"time"

	"priorityline/internal/domain"
)

const hoursPerDay = 24

// Score thresholds that decide which reasoning line a factor contributes.
const (
	urgentDeadlineScore   = 80
	moderateDeadlineScore = 60
	highValueScore        = 80
	teamAtCapacityScore   = 70
	teamAvailableScore    = 20
)

type Scorer struct {
	Rules Rules
}

func New(rules Rules) Scorer {
	return Scorer{Rules: rules}
}

// Score computes the breakdown for one project relative to now. It never fails:
// missing or malformed inputs fall back to the table defaults.
func (s Scorer) Score(p domain.ProjectRecord, now time.Time) domain.ScoreBreakdown {
	deadline := s.DeadlineUrgency(p.Deadline, now)
	payment := s.PaymentStatus(p.AdvancePaid, p.FullPaymentDone)
	value := s.ProjectValue(p.BudgetValue())
	client := s.ClientImportance(p.ClientType)
	team := s.TeamLoadPenalty(p.TeamLoad)

	w := s.Rules.Weights
	score := deadline*w.DeadlineUrgency +
		payment*w.PaymentStatus +
		value*w.ProjectValue +
		client*w.ClientImportance -
		team*w.TeamLoadPenalty
	if p.PenaltyExists {
		score = math.Max(score, s.Rules.PenaltyFloor)
	}
	score = round2(score)

	return domain.ScoreBreakdown{
		ProjectID:        p.ID,
		DeadlineUrgency:  deadline,
		PaymentStatus:    payment,
		ProjectValue:     value,
		ClientImportance: client,
		TeamLoadPenalty:  team,
		PriorityScore:    score,
		PriorityLevel:    s.Level(score),
		Reasoning:        reasoning(p, deadline, value, team),
	}
}

// DeadlineUrgency scores by fractional days remaining until the deadline.
func (s Scorer) DeadlineUrgency(deadline string, now time.Time) float64 {
	due, ok := domain.ParseDeadline(deadline, now.Location())
	if !ok {
		return s.Rules.Deadline.Missing
	}
	return s.UrgencyForDays(due.Sub(now).Hours() / hoursPerDay)
}

func (s Scorer) UrgencyForDays(days float64) float64 {
	for _, b := range s.Rules.Deadline.Bands {
		if days <= b.Max {
			return b.Score
		}
	}
	return s.Rules.Deadline.Beyond
}

func (s Scorer) PaymentStatus(advancePaid, fullPayment bool) float64 {
	switch {
	case fullPayment:
		return s.Rules.Payment.Full
	case advancePaid:
		return s.Rules.Payment.Advance
	default:
		return s.Rules.Payment.Pending
	}
}

// ProjectValue keeps the jump between the ramp cap and the first band as configured;
// the default table has 40 just below 50,000 and 60 at it.
func (s Scorer) ProjectValue(budget float64) float64 {
	if score, ok := firstAtLeast(s.Rules.Value.Bands, budget); ok {
		return score
	}
	v := s.Rules.Value
	return math.Min(v.RampCap, budget/v.RampBase*v.RampScale)
}

func (s Scorer) ClientImportance(ct domain.ClientType) float64 {
	parsed, _ := domain.ParseClientType(string(ct))
	if score, ok := s.Rules.Client.Scores[parsed]; ok {
		return score
	}
	return s.Rules.Client.Unknown
}

func (s Scorer) TeamLoadPenalty(load float64) float64 {
	if score, ok := firstAtLeast(s.Rules.TeamLoad.Bands, load); ok {
		return score
	}
	return s.Rules.TeamLoad.Below
}

// Level maps a post-override score to its tier; band minimums are inclusive.
func (s Scorer) Level(score float64) domain.PriorityLevel {
	for _, b := range s.Rules.Levels.Bands {
		if score >= b.Min {
			return b.Level
		}
	}
	return s.Rules.Levels.Fallback
}

func firstAtLeast(bands []LowerBand, v float64) (float64, bool) {
	for _, b := range bands {
		if v >= b.Min {
			return b.Score, true
		}
	}
	return 0, false
}

// reasoning lists justification lines in fixed order:
// deadline, payment, value, client, team load, penalty.
func reasoning(p domain.ProjectRecord, deadline, value, team float64) []string {
	reasons := make([]string, 0, 6)

	switch {
	case deadline >= urgentDeadlineScore:
		reasons = append(reasons, "Urgent deadline (<=7 days)")
	case deadline >= moderateDeadlineScore:
		reasons = append(reasons, "Moderate deadline (<=14 days)")
	}

	switch {
	case p.FullPaymentDone:
		reasons = append(reasons, "Full payment received")
	case p.AdvancePaid:
		reasons = append(reasons, "Advance payment received")
	default:
		reasons = append(reasons, "Payment pending")
	}

	if value >= highValueScore {
		reasons = append(reasons, "High-value project")
	}

	if ct, _ := domain.ParseClientType(string(p.ClientType)); ct == domain.ClientRepeat || ct == domain.ClientLongTerm {
		reasons = append(reasons, clientLabel(ct)+" client")
	}

	switch {
	case team >= teamAtCapacityScore:
		reasons = append(reasons, "[!] Team near/at capacity")
	case team <= teamAvailableScore:
		reasons = append(reasons, "Team available")
	}

	if p.PenaltyExists {
		reasons = append(reasons, "[!!] SLA/Penalty risk - OVERRIDE PRIORITY")
	}
	return reasons
}

// clientLabel renders long_term as "Long Term".
func clientLabel(ct domain.ClientType) string {
	words := strings.Split(string(ct), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
