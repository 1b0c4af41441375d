package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	ProjectCreated  = "project.created"
	ProjectStatus   = "project.status"
	ProjectDeleted  = "project.deleted"
	TaskCreated     = "task.created"
	TaskUpdated     = "task.updated"
	DecisionRanked  = "decision.ranked"
	ProgressChecked = "progress.checked"
	ProgressAlert   = "progress.alert"
	RulesImported   = "rules.imported"
)

const (
	KindProject  = "project"
	KindTask     = "task"
	KindDecision = "decision"
	KindAlert    = "alert"
	KindRules    = "rules"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

// Append records one event inside the caller's transaction so state and log commit together.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, projectID, entityKind, entityID, actorID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	if actorID == "" {
		actorID = "system"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,project_id,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?,?)`,
		ts, evtType, nullable(projectID), entityKind, nullable(entityID), actorID, string(data))
	if err != nil {
		return fmt.Errorf("append %s event: %w", evtType, err)
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
