package repo

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priorityline/internal/config"
	"priorityline/internal/db"
	"priorityline/internal/domain"
	"priorityline/internal/events"
	"priorityline/internal/migrate"
)

func newTestRepo(t *testing.T) Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(context.Background(), conn))
	return Repo{DB: conn}
}

func inTx(t *testing.T, r Repo, fn func(tx *sql.Tx) error) {
	t.Helper()
	tx, err := r.DB.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()
	require.NoError(t, fn(tx))
	require.NoError(t, tx.Commit())
}

func TestProjectRoundTripAndFilters(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	budget := 80000.0
	effort := 12
	records := []domain.ProjectRecord{
		{ID: "B", Status: domain.ProjectCompleted, CreatedAt: "2026-01-02T00:00:00Z", UpdatedAt: "2026-01-02T00:00:00Z"},
		{ID: "A", Status: domain.ProjectPending, Budget: &budget, EstimatedEffortDays: &effort, ClientType: domain.ClientRepeat,
			AdvancePaid: true, TeamLoad: 40, CreatedAt: "2026-01-01T00:00:00Z", UpdatedAt: "2026-01-01T00:00:00Z"},
		{ID: "C", Status: domain.ProjectDelayed, CreatedAt: "2026-01-03T00:00:00Z", UpdatedAt: "2026-01-03T00:00:00Z"},
	}
	inTx(t, r, func(tx *sql.Tx) error {
		for _, p := range records {
			if err := r.InsertProject(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})

	got, err := r.GetProject(ctx, "A")
	require.NoError(t, err)
	require.NotNil(t, got.Budget)
	assert.Equal(t, 80000.0, *got.Budget)
	require.NotNil(t, got.EstimatedEffortDays)
	assert.Equal(t, 12, *got.EstimatedEffortDays)
	assert.True(t, got.AdvancePaid)

	b, err := r.GetProject(ctx, "B")
	require.NoError(t, err)
	assert.Nil(t, b.Budget)
	assert.Nil(t, b.EstimatedEffortDays)

	_, err = r.GetProject(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := r.ListProjects(ctx, ProjectFilters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, ids(all))

	active, err := r.ListProjects(ctx, ProjectFilters{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, ids(active))

	done, err := r.ListProjects(ctx, ProjectFilters{Statuses: []domain.ProjectStatus{domain.ProjectCompleted}})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, ids(done))

	tx, err := r.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	err = r.InsertProject(ctx, tx, records[0])
	tx.Rollback()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestDeleteProjectCascadesTasks(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	amy := "amy"
	inTx(t, r, func(tx *sql.Tx) error {
		if err := r.InsertProject(ctx, tx, domain.ProjectRecord{ID: "P", Status: domain.ProjectPending}); err != nil {
			return err
		}
		if err := r.InsertTask(ctx, tx, domain.Task{ID: "T1", ProjectID: "P", Status: domain.TaskCompleted, AssignedTo: &amy}); err != nil {
			return err
		}
		return r.InsertTask(ctx, tx, domain.Task{ID: "T2", ProjectID: "P", Status: domain.TaskPending})
	})

	counts, err := r.CountTasksByStatus(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, map[domain.TaskStatus]int{domain.TaskCompleted: 1, domain.TaskPending: 1}, counts)

	mine, err := r.ListTasks(ctx, TaskFilters{AssignedTo: "amy"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "T1", mine[0].ID)

	inTx(t, r, func(tx *sql.Tx) error { return r.DeleteProject(ctx, tx, "P") })
	_, err = r.GetTask(ctx, "T1")
	assert.ErrorIs(t, err, ErrNotFound)

	tx, err := r.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	assert.ErrorIs(t, r.DeleteProject(ctx, tx, "P"), ErrNotFound)
}

func TestEventQueries(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	w := events.Writer{DB: r.DB}
	inTx(t, r, func(tx *sql.Tx) error {
		for _, pid := range []string{"P1", "P2", "P1", "P1"} {
			if err := w.Append(ctx, tx, events.ProgressChecked, pid, events.KindProject, pid, "", nil); err != nil {
				return err
			}
		}
		return w.Append(ctx, tx, events.RulesImported, "", events.KindRules, "", "amy", nil)
	})

	latest, err := r.LatestEvents(ctx, EventFilters{ProjectID: "P1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, int64(4), latest[0].ID)
	assert.Equal(t, "system", latest[0].ActorID)

	older, err := r.LatestEvents(ctx, EventFilters{ProjectID: "P1", Before: latest[1].ID})
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, int64(1), older[0].ID)

	after, err := r.EventsAfter(ctx, 10, 2, "")
	require.NoError(t, err)
	require.Len(t, after, 3)
	assert.Equal(t, int64(3), after[0].ID)
	assert.Equal(t, "", after[2].ProjectID)

	maxID, err := r.LatestEventID(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), maxID)
	maxP2, err := r.LatestEventID(ctx, "P2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), maxP2)
}

func TestRulesConfigBlob(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	_, err := r.GetRulesConfig(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	cfg := config.Default()
	cfg.Worker.Concurrency = 9
	require.NoError(t, r.UpsertRulesConfig(ctx, cfg))
	got, err := r.GetRulesConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Worker.Concurrency)

	cfg.Worker.Concurrency = -1
	assert.Error(t, r.UpsertRulesConfig(ctx, cfg))
}

func ids(items []domain.ProjectRecord) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}
