package prioritylinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Priorityline HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Project is the request record the API scores and ranks.
type Project struct {
	ID                  string   `json:"project_id"`
	Title               string   `json:"title,omitempty"`
	Deadline            string   `json:"deadline,omitempty"`
	Budget              *float64 `json:"budget,omitempty"`
	AdvancePaid         bool     `json:"advance_paid"`
	FullPaymentDone     bool     `json:"full_payment_done"`
	ClientType          string   `json:"client_type,omitempty"`
	TeamLoad            float64  `json:"team_load"`
	PenaltyExists       bool     `json:"penalty_exists"`
	EstimatedEffortDays *int     `json:"estimated_effort_days,omitempty"`
	Status              string   `json:"status,omitempty"`
}

// Task is a unit of work counted by progress checks.
type Task struct {
	ID         string  `json:"task_id,omitempty"`
	ProjectID  string  `json:"project_id,omitempty"`
	Title      string  `json:"title,omitempty"`
	Status     string  `json:"status"`
	AssignedTo *string `json:"assigned_to,omitempty"`
}

// Score is the per-factor breakdown of a priority score.
type Score struct {
	ProjectID        string   `json:"project_id"`
	DeadlineUrgency  float64  `json:"deadline_urgency"`
	PaymentStatus    float64  `json:"payment_status"`
	ProjectValue     float64  `json:"project_value"`
	ClientImportance float64  `json:"client_importance"`
	TeamLoadPenalty  float64  `json:"team_load_penalty"`
	PriorityScore    float64  `json:"priority_score"`
	PriorityLevel    string   `json:"priority_level"`
	Reasoning        []string `json:"reasoning"`
}

type Alert struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id,omitempty"`
	MemberID  string `json:"member_id,omitempty"`
	Severity  string `json:"severity,omitempty"`
	Message   string `json:"message"`
}

type RankedProject struct {
	Rank      int     `json:"priority_rank"`
	Project   Project `json:"project"`
	Score     Score   `json:"score"`
	Action    string  `json:"action"`
	Reasoning string  `json:"reasoning"`
	Alerts    []Alert `json:"alerts"`
}

// Decision is a ranked batch with its advisory alerts.
type Decision struct {
	Ranked    []RankedProject `json:"ranked_projects"`
	Alerts    []Alert         `json:"alerts"`
	DecidedAt string          `json:"decided_at"`
}

type ProgressReport struct {
	ProjectID          string  `json:"project_id"`
	TotalTasks         int     `json:"total_tasks"`
	CompletedTasks     int     `json:"completed_tasks"`
	ProgressPercentage float64 `json:"progress_percentage"`
	DaysRemaining      int     `json:"days_remaining"`
	DelayRisk          struct {
		AtRisk             bool    `json:"is_at_risk"`
		Severity           string  `json:"severity"`
		Message            string  `json:"message"`
		Gap                float64 `json:"progress_gap"`
		EstimatedDelayDays int     `json:"estimated_delay_days"`
	} `json:"delay_risk"`
	Alerts []Alert `json:"alerts"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id"`
	EntityID   string `json:"entity_id"`
	EntityKind string `json:"entity_kind"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// Rank ranks a batch of projects without storing them. A zero now uses server time.
func (c *Client) Rank(ctx context.Context, projects []Project, now time.Time) (Decision, error) {
	body := map[string]any{"projects": projects}
	if !now.IsZero() {
		body["now"] = now.Format(time.RFC3339)
	}
	var resp Decision
	err := c.do(ctx, http.MethodPost, "v0/rank", body, &resp)
	return resp, err
}

// Score scores one project without storing it.
func (c *Client) Score(ctx context.Context, p Project, now time.Time) (Score, error) {
	body := map[string]any{"project": p}
	if !now.IsZero() {
		body["now"] = now.Format(time.RFC3339)
	}
	var resp Score
	err := c.do(ctx, http.MethodPost, "v0/score", body, &resp)
	return resp, err
}

// Progress builds a progress report from a project and its tasks without storing them.
func (c *Client) Progress(ctx context.Context, p Project, tasks []Task, now time.Time) (ProgressReport, error) {
	body := map[string]any{"project": p, "tasks": tasks}
	if !now.IsZero() {
		body["now"] = now.Format(time.RFC3339)
	}
	var resp ProgressReport
	err := c.do(ctx, http.MethodPost, "v0/progress", body, &resp)
	return resp, err
}

// CreateProject stores a project.
func (c *Client) CreateProject(ctx context.Context, p Project) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPost, "v0/projects", p, &resp)
	return resp, err
}

// CreateTask adds a task to a stored project.
func (c *Client) CreateTask(ctx context.Context, projectID string, t Task) (Task, error) {
	body := map[string]any{"status": t.Status}
	if t.ID != "" {
		body["task_id"] = t.ID
	}
	if t.Title != "" {
		body["title"] = t.Title
	}
	if t.AssignedTo != nil {
		body["assigned_to"] = *t.AssignedTo
	}
	var resp Task
	endpoint := fmt.Sprintf("v0/projects/%s/tasks", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// CheckProgress checks a stored project and records the result.
func (c *Client) CheckProgress(ctx context.Context, projectID string) (ProgressReport, error) {
	var resp ProgressReport
	endpoint := fmt.Sprintf("v0/projects/%s/progress", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// ListDecisions ranks all active stored projects.
func (c *Client) ListDecisions(ctx context.Context) (Decision, error) {
	var resp Decision
	err := c.do(ctx, http.MethodGet, "v0/decisions", nil, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, limit, "")
	return page.Items, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := "v0/events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
