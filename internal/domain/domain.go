package domain

import "strings"

type ClientType string

const (
	ClientNew      ClientType = "new"
	ClientRepeat   ClientType = "repeat"
	ClientLongTerm ClientType = "long_term"
	ClientTrial    ClientType = "trial"
)

// ParseClientType matches case-insensitively. Unknown labels come back as-is with ok=false.
func ParseClientType(s string) (ClientType, bool) {
	ct := ClientType(strings.ToLower(strings.TrimSpace(s)))
	return ct, ct.IsValid()
}

func (c ClientType) String() string { return string(c) }

func (c ClientType) IsValid() bool {
	switch c {
	case ClientNew, ClientRepeat, ClientLongTerm, ClientTrial:
		return true
	default:
		return false
	}
}

type PriorityLevel string

const (
	LevelCritical PriorityLevel = "critical"
	LevelHigh     PriorityLevel = "high"
	LevelNormal   PriorityLevel = "normal"
	LevelLow      PriorityLevel = "low"
)

func (l PriorityLevel) String() string { return string(l) }

func (l PriorityLevel) IsValid() bool {
	switch l {
	case LevelCritical, LevelHigh, LevelNormal, LevelLow:
		return true
	default:
		return false
	}
}

type ProjectStatus string

const (
	ProjectPending    ProjectStatus = "pending"
	ProjectAccepted   ProjectStatus = "accepted"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectDelayed    ProjectStatus = "delayed"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectPending, ProjectAccepted, ProjectInProgress, ProjectDelayed, ProjectCompleted, ProjectCancelled:
		return true
	default:
		return false
	}
}

// Active reports whether the project still competes for the team and is monitored.
func (s ProjectStatus) Active() bool {
	switch s {
	case ProjectPending, ProjectAccepted, ProjectInProgress, ProjectDelayed:
		return true
	default:
		return false
	}
}

func ActiveStatuses() []ProjectStatus {
	return []ProjectStatus{ProjectPending, ProjectAccepted, ProjectInProgress, ProjectDelayed}
}

// ProjectRecord is the structured request handed over by the requirement-extraction collaborator.
// Deadline stays a raw string: a malformed value must degrade scoring, not reject the record.
type ProjectRecord struct {
	ID                  string        `json:"project_id" validate:"required,max=128"`
	Title               string        `json:"title,omitempty"`
	Deadline            string        `json:"deadline,omitempty"`
	Budget              *float64      `json:"budget,omitempty" validate:"omitempty,gte=0"`
	AdvancePaid         bool          `json:"advance_paid" required:"false"`
	FullPaymentDone     bool          `json:"full_payment_done" required:"false"`
	ClientType          ClientType    `json:"client_type,omitempty"`
	TeamLoad            float64       `json:"team_load" required:"false" validate:"gte=0,lte=100"`
	PenaltyExists       bool          `json:"penalty_exists" required:"false"`
	EstimatedEffortDays *int          `json:"estimated_effort_days,omitempty" validate:"omitempty,gte=0"`
	Status              ProjectStatus `json:"status,omitempty" enum:"pending,accepted,in_progress,delayed,completed,cancelled"`
	CreatedAt           string        `json:"created_at,omitempty" format:"date-time"`
	UpdatedAt           string        `json:"updated_at,omitempty" format:"date-time"`
}

// BudgetValue returns the budget with absent treated as zero.
func (p ProjectRecord) BudgetValue() float64 {
	if p.Budget == nil {
		return 0
	}
	return *p.Budget
}

type ScoreBreakdown struct {
	ProjectID        string        `json:"project_id"`
	DeadlineUrgency  float64       `json:"deadline_urgency"`
	PaymentStatus    float64       `json:"payment_status"`
	ProjectValue     float64       `json:"project_value"`
	ClientImportance float64       `json:"client_importance"`
	TeamLoadPenalty  float64       `json:"team_load_penalty"`
	PriorityScore    float64       `json:"priority_score"`
	PriorityLevel    PriorityLevel `json:"priority_level" enum:"critical,high,normal,low"`
	Reasoning        []string      `json:"reasoning"`
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	default:
		return false
	}
}

type Task struct {
	ID         string     `json:"task_id" required:"false"`
	ProjectID  string     `json:"project_id,omitempty"`
	Title      string     `json:"title,omitempty"`
	Status     TaskStatus `json:"status" enum:"pending,in_progress,completed" validate:"required,oneof=pending in_progress completed"`
	AssignedTo *string    `json:"assigned_to,omitempty"`
	CreatedAt  string     `json:"created_at,omitempty" format:"date-time"`
	UpdatedAt  string     `json:"updated_at,omitempty" format:"date-time"`
}

type Action string

const (
	ActionAcceptAndAssign   Action = "accept_and_assign"
	ActionAcceptAndSchedule Action = "accept_and_schedule"
	ActionNegotiateTimeline Action = "negotiate_timeline"
)

type AlertType string

const (
	AlertTeamOverloadRisk AlertType = "team_overload_risk"
	AlertPaymentRisk      AlertType = "payment_risk"
	AlertDelayRisk        AlertType = "delay_risk"
	AlertUrgentDeadline   AlertType = "urgent_deadline"
	AlertTeamOverload     AlertType = "team_overload"
)

type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Alert struct {
	Type      AlertType `json:"type"`
	ProjectID string    `json:"project_id,omitempty"`
	MemberID  string    `json:"member_id,omitempty"`
	Severity  Severity  `json:"severity,omitempty"`
	Message   string    `json:"message"`
}

type RankedProject struct {
	Rank      int            `json:"priority_rank"`
	Project   ProjectRecord  `json:"project"`
	Score     ScoreBreakdown `json:"score"`
	Action    Action         `json:"action" enum:"accept_and_assign,accept_and_schedule,negotiate_timeline"`
	Reasoning string         `json:"reasoning"`
	Alerts    []Alert        `json:"alerts"`
}

type Decision struct {
	Ranked    []RankedProject `json:"ranked_projects"`
	Alerts    []Alert         `json:"alerts"`
	DecidedAt string          `json:"decided_at" format:"date-time"`
}

type DelayRisk struct {
	AtRisk             bool     `json:"is_at_risk"`
	Severity           Severity `json:"severity" enum:"none,medium,high"`
	Message            string   `json:"message"`
	Gap                float64  `json:"progress_gap"`
	EstimatedDelayDays int      `json:"estimated_delay_days"`
}

type ProgressReport struct {
	ProjectID          string    `json:"project_id"`
	TotalTasks         int       `json:"total_tasks"`
	CompletedTasks     int       `json:"completed_tasks"`
	InProgressTasks    int       `json:"in_progress_tasks"`
	PendingTasks       int       `json:"pending_tasks"`
	ProgressPercentage float64   `json:"progress_percentage"`
	DaysRemaining      int       `json:"days_remaining"`
	DelayRisk          DelayRisk `json:"delay_risk"`
	Alerts             []Alert   `json:"alerts"`
	CheckedAt          string    `json:"checked_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
