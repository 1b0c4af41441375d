package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"priorityline/internal/domain"
	"priorityline/internal/engine"
	"priorityline/internal/metrics"
	"priorityline/internal/migrate"
	"priorityline/internal/repo"
	"priorityline/internal/worker"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
	// Monitor serves /monitor endpoints. When nil an idle coordinator is created so
	// manual runs still work; MonitorEnabled reports whether a background loop is running.
	Monitor        *worker.MonitorCoordinator
	MonitorEnabled bool
	CORSOrigins    []string
	Logger         *slog.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"project P101 not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope {"error":{code,message,details}}.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the priorityline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Monitor == nil {
		cfg.Monitor = worker.NewMonitorCoordinator(cfg.Engine, time.Hour)
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))
	router.Use(newAuthMiddleware(basePath, cfg.Auth, logger))

	router.Handle("/metrics", metrics.Handler())
	hcfg := huma.DefaultConfig("Priorityline API", "0.1.0")
	hcfg.OpenAPIPath = ""
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group, cfg.Engine)
	registerStateless(group, cfg.Engine)
	registerProjects(group, cfg.Engine)
	registerTasks(group, cfg.Engine)
	registerDecisions(group, cfg.Engine)
	registerMonitor(group, cfg.Monitor, cfg.MonitorEnabled)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}).Handler(router), nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newAPIError(http.StatusServiceUnavailable, "unavailable", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "already exists"):
		return newAPIError(http.StatusConflict, "conflict", msg, nil)
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "required"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"component", "server",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", middleware.GetReqID(r.Context()),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	r.Get(path.Join(basePath, "openapi.json"), func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{item.Get, item.Put, item.Post, item.Delete, item.Patch} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"}},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	security := []map[string][]string{{"bearerAuth": {}}}
	oas.Security = security
	healthPath := path.Join(basePath, "health")
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{item.Get, item.Put, item.Post, item.Delete, item.Patch} {
			if op == nil {
				continue
			}
			if route == healthPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func registerHealth(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body HealthResponse `json:"body"`
	}, error) {
		version, err := migrate.Version(ctx, e.DB)
		if err != nil {
			return nil, newAPIError(http.StatusServiceUnavailable, "unavailable", "database unavailable", map[string]any{"error": err.Error()})
		}
		return &struct {
			Body HealthResponse `json:"body"`
		}{Body: HealthResponse{Status: "ok", SchemaVersion: version}}, nil
	})
}

func registerStateless(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "rank-projects",
		Method:      http.MethodPost,
		Path:        "/rank",
		Summary:     "Rank a batch of project records",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body RankRequest `json:"body"`
	}) (*struct {
		Body domain.Decision `json:"body"`
	}, error) {
		now, err := requestNow(e, input.Body.Now)
		if err != nil {
			return nil, err
		}
		for _, p := range input.Body.Projects {
			if err := domain.ValidateProject(p); err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"project_id": p.ID})
			}
		}
		d := e.Decider().Decide(input.Body.Projects, now)
		metrics.ObserveDecision(d)
		return &struct {
			Body domain.Decision `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "score-project",
		Method:      http.MethodPost,
		Path:        "/score",
		Summary:     "Score a single project record",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body ScoreRequest `json:"body"`
	}) (*struct {
		Body domain.ScoreBreakdown `json:"body"`
	}, error) {
		now, err := requestNow(e, input.Body.Now)
		if err != nil {
			return nil, err
		}
		if err := domain.ValidateProject(input.Body.Project); err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		b := e.Scorer().Score(input.Body.Project, now)
		metrics.ObserveScore(b)
		return &struct {
			Body domain.ScoreBreakdown `json:"body"`
		}{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "check-progress",
		Method:      http.MethodPost,
		Path:        "/progress",
		Summary:     "Build a progress report from a project and its tasks",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body ProgressRequest `json:"body"`
	}) (*struct {
		Body domain.ProgressReport `json:"body"`
	}, error) {
		now, err := requestNow(e, input.Body.Now)
		if err != nil {
			return nil, err
		}
		if err := domain.ValidateProject(input.Body.Project); err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		for _, t := range input.Body.Tasks {
			if err := domain.ValidateTask(t); err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"task_id": t.ID})
			}
		}
		report := e.Monitor().Check(input.Body.Project, input.Body.Tasks, now)
		metrics.ObserveProgress(report)
		return &struct {
			Body domain.ProgressReport `json:"body"`
		}{Body: report}, nil
	})
}

func registerProjects(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body domain.ProjectRecord `json:"body"`
	}) (*struct {
		Body domain.ProjectRecord `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CreateProject(ctx, input.Body, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ProjectRecord `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" doc:"comma separated statuses"`
		Active bool   `query:"active"`
		Limit  int    `query:"limit"`
	}) (*struct {
		Body []domain.ProjectRecord `json:"body"`
	}, error) {
		f := repo.ProjectFilters{ActiveOnly: input.Active, Limit: input.Limit}
		for _, raw := range strings.Split(input.Status, ",") {
			s := domain.ProjectStatus(strings.TrimSpace(raw))
			if s == "" {
				continue
			}
			if !s.IsValid() {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid status %q", s), nil)
			}
			f.Statuses = append(f.Statuses, s)
		}
		items, err := e.Repo.ListProjects(ctx, f)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.ProjectRecord `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Get project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body domain.ProjectRecord `json:"body"`
	}, error) {
		p, err := e.Repo.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(notFound(err, "project", input.ProjectID))
		}
		return &struct {
			Body domain.ProjectRecord `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project-status",
		Method:      http.MethodPatch,
		Path:        "/projects/{project_id}",
		Summary:     "Change project status",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string               `path:"project_id"`
		Body      UpdateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.ProjectRecord `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.UpdateProjectStatus(ctx, input.ProjectID, input.Body.Status, actorID)
		if err != nil {
			return nil, handleError(notFound(err, "project", input.ProjectID))
		}
		return &struct {
			Body domain.ProjectRecord `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-project",
		Method:        http.MethodDelete,
		Path:          "/projects/{project_id}",
		Summary:       "Delete project and its tasks",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteProject(ctx, input.ProjectID, actorID); err != nil {
			return nil, handleError(notFound(err, "project", input.ProjectID))
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project-score",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/score",
		Summary:     "Score a stored project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body domain.ScoreBreakdown `json:"body"`
	}, error) {
		b, err := e.Score(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(notFound(err, "project", input.ProjectID))
		}
		return &struct {
			Body domain.ScoreBreakdown `json:"body"`
		}{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project-progress",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/progress",
		Summary:     "Check progress of a stored project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body domain.ProgressReport `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		report, err := e.CheckProgress(ctx, input.ProjectID, actorID)
		if err != nil {
			return nil, handleError(notFound(err, "project", input.ProjectID))
		}
		return &struct {
			Body domain.ProgressReport `json:"body"`
		}{Body: report}, nil
	})
}

func registerTasks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/projects/{project_id}/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string            `path:"project_id"`
		Body      CreateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
			ID:         input.Body.ID,
			ProjectID:  input.ProjectID,
			Title:      input.Body.Title,
			Status:     input.Body.Status,
			AssignedTo: input.Body.AssignedTo,
			ActorID:    actorID,
		})
		if err != nil {
			return nil, handleError(notFound(err, "project", input.ProjectID))
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/tasks",
		Summary:     "List tasks of a project",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		ProjectID  string `path:"project_id"`
		Status     string `query:"status"`
		AssignedTo string `query:"assigned_to"`
		Limit      int    `query:"limit"`
	}) (*struct {
		Body []domain.Task `json:"body"`
	}, error) {
		if input.Status != "" && !domain.TaskStatus(input.Status).IsValid() {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid status %q", input.Status), nil)
		}
		items, err := e.Repo.ListTasks(ctx, repo.TaskFilters{
			ProjectID:  input.ProjectID,
			Status:     domain.TaskStatus(input.Status),
			AssignedTo: input.AssignedTo,
			Limit:      input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Task `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{task_id}",
		Summary:     "Update task",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string            `path:"task_id"`
		Body   UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.UpdateTask(ctx, engine.TaskUpdateOptions{
			ID:      input.TaskID,
			Title:   input.Body.Title,
			Status:  input.Body.Status,
			Assign:  input.Body.AssignedTo,
			ActorID: actorID,
		})
		if err != nil {
			return nil, handleError(notFound(err, "task", input.TaskID))
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})
}

func registerDecisions(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-decisions",
		Method:      http.MethodGet,
		Path:        "/decisions",
		Summary:     "Rank all active projects",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.Decision `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		d, err := e.Decide(ctx, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Decision `json:"body"`
		}{Body: d}, nil
	})
}

func registerMonitor(api huma.API, coordinator *worker.MonitorCoordinator, enabled bool) {
	huma.Register(api, huma.Operation{
		OperationID: "monitor-status",
		Method:      http.MethodGet,
		Path:        "/monitor/status",
		Summary:     "Last monitoring pass",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body MonitorStatusResponse `json:"body"`
	}, error) {
		return &struct {
			Body MonitorStatusResponse `json:"body"`
		}{Body: MonitorStatusResponse{Enabled: enabled, Stats: coordinator.Stats()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "monitor-run",
		Method:      http.MethodPost,
		Path:        "/monitor/run",
		Summary:     "Run one monitoring pass now",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body MonitorStatusResponse `json:"body"`
	}, error) {
		stats := coordinator.RunOnce(ctx)
		return &struct {
			Body MonitorStatusResponse `json:"body"`
		}{Body: MonitorStatusResponse{Enabled: enabled, Stats: stats}}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent events",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		ProjectID  string `query:"project_id"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit" default:"50"`
		Cursor     string `query:"cursor"`
	}) (*struct {
		Body paginatedEvents `json:"body"`
	}, error) {
		limit := normalizeLimit(input.Limit)
		var cursorID int64
		if input.Cursor != "" {
			parsed, err := strconv.ParseInt(input.Cursor, 10, 64)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
			}
			cursorID = parsed
		}
		items, err := e.Repo.LatestEvents(ctx, repo.EventFilters{
			ProjectID:  input.ProjectID,
			Type:       input.Type,
			EntityKind: input.EntityKind,
			EntityID:   input.EntityID,
			Before:     cursorID,
			Limit:      limit + 1,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedEvents{Items: []domain.Event{}}
		if len(items) > limit {
			resp.NextCursor = strconv.FormatInt(items[limit-1].ID, 10)
			items = items[:limit]
		}
		resp.Items = append(resp.Items, items...)
		return &struct {
			Body paginatedEvents `json:"body"`
		}{Body: resp}, nil
	})
}

func requestNow(e engine.Engine, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		if e.Now != nil {
			return e.Now(), nil
		}
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, newAPIError(http.StatusBadRequest, "bad_request", "invalid now timestamp", map[string]any{"now": raw})
	}
	return t, nil
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%s %s %w", kind, id, repo.ErrNotFound)
	}
	return err
}

func normalizeLimit(in int) int {
	if in <= 0 {
		return 50
	}
	if in > 200 {
		return 200
	}
	return in
}
