package server

import (
	"priorityline/internal/domain"
	"priorityline/internal/worker"
)

// RankRequest ranks a batch without touching storage. Now pins the clock; empty means server time.
type RankRequest struct {
	Projects []domain.ProjectRecord `json:"projects"`
	Now      string                 `json:"now,omitempty" format:"date-time"`
}

type ScoreRequest struct {
	Project domain.ProjectRecord `json:"project"`
	Now     string               `json:"now,omitempty" format:"date-time"`
}

type ProgressRequest struct {
	Project domain.ProjectRecord `json:"project"`
	Tasks   []domain.Task        `json:"tasks" required:"false"`
	Now     string               `json:"now,omitempty" format:"date-time"`
}

type UpdateProjectRequest struct {
	Status domain.ProjectStatus `json:"status" enum:"pending,accepted,in_progress,delayed,completed,cancelled"`
}

type CreateTaskRequest struct {
	ID         string            `json:"task_id,omitempty"`
	Title      string            `json:"title,omitempty"`
	Status     domain.TaskStatus `json:"status,omitempty" enum:"pending,in_progress,completed"`
	AssignedTo string            `json:"assigned_to,omitempty"`
}

type UpdateTaskRequest struct {
	Title      *string           `json:"title,omitempty"`
	Status     domain.TaskStatus `json:"status,omitempty" enum:"pending,in_progress,completed"`
	AssignedTo *string           `json:"assigned_to,omitempty"`
}

type paginatedEvents struct {
	Items      []domain.Event `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type MonitorStatusResponse struct {
	Enabled bool         `json:"enabled"`
	Stats   worker.Stats `json:"stats"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	SchemaVersion int    `json:"schema_version"`
}
