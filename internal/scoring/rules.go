package scoring

import (
	"fmt"

	"priorityline/internal/domain"
)

// Weights for the composite. TeamLoadPenalty is subtracted.
type Weights struct {
	DeadlineUrgency  float64 `yaml:"deadline_urgency" json:"deadline_urgency"`
	PaymentStatus    float64 `yaml:"payment_status" json:"payment_status"`
	ProjectValue     float64 `yaml:"project_value" json:"project_value"`
	ClientImportance float64 `yaml:"client_importance" json:"client_importance"`
	TeamLoadPenalty  float64 `yaml:"team_load_penalty" json:"team_load_penalty"`
}

// UpperBand matches when the measured value is <= Max.
type UpperBand struct {
	Max   float64 `yaml:"max" json:"max"`
	Score float64 `yaml:"score" json:"score"`
}

// LowerBand matches when the measured value is >= Min.
type LowerBand struct {
	Min   float64 `yaml:"min" json:"min"`
	Score float64 `yaml:"score" json:"score"`
}

type DeadlineRules struct {
	Missing float64     `yaml:"missing" json:"missing"`
	Bands   []UpperBand `yaml:"bands" json:"bands"`
	Beyond  float64     `yaml:"beyond" json:"beyond"`
}

type PaymentRules struct {
	Full    float64 `yaml:"full" json:"full"`
	Advance float64 `yaml:"advance" json:"advance"`
	Pending float64 `yaml:"pending" json:"pending"`
}

// ValueRules scores budget. Below the last band the score ramps as
// min(RampCap, budget/RampBase*RampScale).
type ValueRules struct {
	Bands     []LowerBand `yaml:"bands" json:"bands"`
	RampBase  float64     `yaml:"ramp_base" json:"ramp_base"`
	RampScale float64     `yaml:"ramp_scale" json:"ramp_scale"`
	RampCap   float64     `yaml:"ramp_cap" json:"ramp_cap"`
}

type ClientRules struct {
	Scores  map[domain.ClientType]float64 `yaml:"scores" json:"scores"`
	Unknown float64                       `yaml:"unknown" json:"unknown"`
}

type TeamLoadRules struct {
	Bands []LowerBand `yaml:"bands" json:"bands"`
	Below float64     `yaml:"below" json:"below"`
}

type LevelBand struct {
	Min   float64              `yaml:"min" json:"min"`
	Level domain.PriorityLevel `yaml:"level" json:"level"`
}

type LevelRules struct {
	Bands    []LevelBand          `yaml:"bands" json:"bands"`
	Fallback domain.PriorityLevel `yaml:"fallback" json:"fallback"`
}

// Rules is the full scoring table. Bands are evaluated in order, first match wins.
type Rules struct {
	Weights      Weights       `yaml:"weights" json:"weights"`
	Deadline     DeadlineRules `yaml:"deadline" json:"deadline"`
	Payment      PaymentRules  `yaml:"payment" json:"payment"`
	Value        ValueRules    `yaml:"value" json:"value"`
	Client       ClientRules   `yaml:"client" json:"client"`
	TeamLoad     TeamLoadRules `yaml:"team_load" json:"team_load"`
	PenaltyFloor float64       `yaml:"penalty_floor" json:"penalty_floor"`
	Levels       LevelRules    `yaml:"levels" json:"levels"`
}

// DefaultRules returns the production table for service engagements.
func DefaultRules() Rules {
	return Rules{
		Weights: Weights{
			DeadlineUrgency:  0.40,
			PaymentStatus:    0.25,
			ProjectValue:     0.15,
			ClientImportance: 0.10,
			TeamLoadPenalty:  0.10,
		},
		Deadline: DeadlineRules{
			Missing: 50,
			Bands: []UpperBand{
				{Max: 3, Score: 100},
				{Max: 7, Score: 80},
				{Max: 14, Score: 60},
				{Max: 30, Score: 40},
			},
			Beyond: 20,
		},
		Payment: PaymentRules{Full: 100, Advance: 70, Pending: 30},
		Value: ValueRules{
			Bands: []LowerBand{
				{Min: 100000, Score: 100},
				{Min: 50000, Score: 60},
			},
			RampBase:  50000,
			RampScale: 60,
			RampCap:   40,
		},
		Client: ClientRules{
			Scores: map[domain.ClientType]float64{
				domain.ClientLongTerm: 100,
				domain.ClientRepeat:   80,
				domain.ClientNew:      50,
				domain.ClientTrial:    30,
			},
			Unknown: 50,
		},
		TeamLoad: TeamLoadRules{
			Bands: []LowerBand{
				{Min: 90, Score: 100},
				{Min: 80, Score: 70},
				{Min: 60, Score: 40},
			},
			Below: 10,
		},
		PenaltyFloor: 90,
		Levels: LevelRules{
			Bands: []LevelBand{
				{Min: 80, Level: domain.LevelCritical},
				{Min: 60, Level: domain.LevelHigh},
				{Min: 40, Level: domain.LevelNormal},
			},
			Fallback: domain.LevelLow,
		},
	}
}

// Validate checks that the table is well formed: band order, weight signs and score ranges.
func (r Rules) Validate() error {
	w := r.Weights
	for name, v := range map[string]float64{
		"deadline_urgency":  w.DeadlineUrgency,
		"payment_status":    w.PaymentStatus,
		"project_value":     w.ProjectValue,
		"client_importance": w.ClientImportance,
		"team_load_penalty": w.TeamLoadPenalty,
	} {
		if v < 0 {
			return fmt.Errorf("scoring.weights.%s must be >= 0", name)
		}
	}
	if len(r.Deadline.Bands) == 0 {
		return fmt.Errorf("scoring.deadline.bands is required")
	}
	for i, b := range r.Deadline.Bands {
		if err := checkScore("scoring.deadline.bands", b.Score); err != nil {
			return err
		}
		if i > 0 && b.Max <= r.Deadline.Bands[i-1].Max {
			return fmt.Errorf("scoring.deadline.bands must be ascending by max")
		}
	}
	if err := checkDescending("scoring.value.bands", r.Value.Bands); err != nil {
		return err
	}
	if r.Value.RampBase <= 0 {
		return fmt.Errorf("scoring.value.ramp_base must be > 0")
	}
	if err := checkDescending("scoring.team_load.bands", r.TeamLoad.Bands); err != nil {
		return err
	}
	if len(r.Client.Scores) == 0 {
		return fmt.Errorf("scoring.client.scores is required")
	}
	for ct, s := range r.Client.Scores {
		if !ct.IsValid() {
			return fmt.Errorf("scoring.client.scores has unknown client type %s", ct)
		}
		if err := checkScore("scoring.client.scores", s); err != nil {
			return err
		}
	}
	if len(r.Levels.Bands) == 0 {
		return fmt.Errorf("scoring.levels.bands is required")
	}
	for i, b := range r.Levels.Bands {
		if !b.Level.IsValid() {
			return fmt.Errorf("scoring.levels.bands has unknown level %s", b.Level)
		}
		if i > 0 && b.Min >= r.Levels.Bands[i-1].Min {
			return fmt.Errorf("scoring.levels.bands must be descending by min")
		}
	}
	if !r.Levels.Fallback.IsValid() {
		return fmt.Errorf("scoring.levels.fallback has unknown level %s", r.Levels.Fallback)
	}
	return nil
}

func checkDescending(field string, bands []LowerBand) error {
	if len(bands) == 0 {
		return fmt.Errorf("%s is required", field)
	}
	for i, b := range bands {
		if err := checkScore(field, b.Score); err != nil {
			return err
		}
		if i > 0 && b.Min >= bands[i-1].Min {
			return fmt.Errorf("%s must be descending by min", field)
		}
	}
	return nil
}

func checkScore(field string, s float64) error {
	if s < 0 || s > 100 {
		return fmt.Errorf("%s score %v out of range 0-100", field, s)
	}
	return nil
}
