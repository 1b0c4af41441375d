package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"priorityline/internal/app"
	"priorityline/internal/config"
	"priorityline/internal/db"
	"priorityline/internal/domain"
	"priorityline/internal/engine"
	"priorityline/internal/migrate"
	"priorityline/internal/repo"
	"priorityline/internal/server"
	"priorityline/internal/worker"
)

var rootCmd = &cobra.Command{
	Use:   "pl",
	Short: "Priorityline CLI",
	Long: `Priorityline ranks incoming projects for a small team and watches them while they run.
- Project: a request with deadline, budget, payment state, client type and team load.
- Score: five weighted factors minus a load penalty, 0-100, mapped to critical/high/normal/low.
- Decision: active projects ranked by score with an action and advisory alerts each.
- Progress: task completion against the time left; a large gap marks the project delayed.
- Rules: the scoring, decision and monitoring tables, stored in the workspace database.
- Event log: every change and decision, view with 'pl log tail'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PRIORITYLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", server.AnonymousActor, "actor identifier")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(rankCmd())
	rootCmd.AddCommand(progressCmd())
	rootCmd.AddCommand(monitorCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectAddCmd())
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectStatusCmd())
	prj.AddCommand(projectDeleteCmd())
	return prj
}

func projectAddCmd() *cobra.Command {
	var (
		p                  domain.ProjectRecord
		clientType, status string
		budget             float64
		effortDays         int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a project request",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("budget") {
				p.Budget = &budget
			}
			if cmd.Flags().Changed("effort-days") {
				p.EstimatedEffortDays = &effortDays
			}
			p.ClientType = domain.ClientType(clientType)
			p.Status = domain.ProjectStatus(status)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				created, err := e.CreateProject(ctx, p, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().StringVar(&p.ID, "id", "", "project id")
	cmd.Flags().StringVar(&p.Title, "title", "", "title")
	cmd.Flags().StringVar(&p.Deadline, "deadline", "", "deadline (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().Float64Var(&budget, "budget", 0, "budget")
	cmd.Flags().BoolVar(&p.AdvancePaid, "advance-paid", false, "advance payment received")
	cmd.Flags().BoolVar(&p.FullPaymentDone, "full-payment", false, "paid in full")
	cmd.Flags().StringVar(&clientType, "client-type", "", "new, repeat, long_term or trial")
	cmd.Flags().Float64Var(&p.TeamLoad, "team-load", 0, "team load percent (0-100)")
	cmd.Flags().BoolVar(&p.PenaltyExists, "penalty", false, "late delivery penalty applies")
	cmd.Flags().IntVar(&effortDays, "effort-days", 0, "estimated effort in days")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default pending)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func projectListCmd() *cobra.Command {
	var f repo.ProjectFilters
	var statuses []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range statuses {
				status := domain.ProjectStatus(s)
				if !status.IsValid() {
					return fmt.Errorf("invalid status %q", s)
				}
				f.Statuses = append(f.Statuses, status)
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListProjects(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Deadline", "Client", "Budget", "Load", "Tasks"})
				for _, p := range items {
					budget := ""
					if p.Budget != nil {
						budget = fmt.Sprintf("%.0f", *p.Budget)
					}
					counts, err := r.CountTasksByStatus(ctx, p.ID)
					if err != nil {
						return err
					}
					total := counts[domain.TaskPending] + counts[domain.TaskInProgress] + counts[domain.TaskCompleted]
					tasks := fmt.Sprintf("%d/%d", counts[domain.TaskCompleted], total)
					tw.AppendRow(table.Row{p.ID, p.Title, p.Status, p.Deadline, p.ClientType, budget, p.TeamLoad, tasks})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "status filter")
	cmd.Flags().BoolVar(&f.ActiveOnly, "active", false, "only projects still competing for the team")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max rows")
	return cmd
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				p, err := r.GetProject(ctx, args[0])
				if err != nil {
					return notFound(err, "project", args[0])
				}
				return printJSONOrTable(p)
			})
		},
	}
}

func projectStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change project status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.UpdateProjectStatus(ctx, args[0], domain.ProjectStatus(args[1]), viper.GetString("actor-id"))
				if err != nil {
					return notFound(err, "project", args[0])
				}
				return printJSONOrTable(p)
			})
		},
	}
}

func projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteProject(ctx, args[0], viper.GetString("actor-id")); err != nil {
					return notFound(err, "project", args[0])
				}
				fmt.Printf("deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func taskCmd() *cobra.Command {
	t := &cobra.Command{Use: "task", Short: "Manage project tasks"}
	t.AddCommand(taskAddCmd())
	t.AddCommand(taskListCmd())
	t.AddCommand(taskUpdateCmd())
	return t
}

func taskAddCmd() *cobra.Command {
	var opts engine.TaskCreateOptions
	var status string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task to a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Status = domain.TaskStatus(status)
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CreateTask(ctx, opts)
				if err != nil {
					return notFound(err, "project", opts.ProjectID)
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&opts.ID, "id", "", "task id (generated when empty)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title")
	cmd.Flags().StringVar(&status, "status", "", "pending, in_progress or completed")
	cmd.Flags().StringVar(&opts.AssignedTo, "assign", "", "team member")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func taskListCmd() *cobra.Command {
	var f repo.TaskFilters
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Status = domain.TaskStatus(status)
			if f.Status != "" && !f.Status.IsValid() {
				return fmt.Errorf("invalid status %q", status)
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				tasks, err := r.ListTasks(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Project", "Title", "Status", "Assignee"})
				for _, t := range tasks {
					assignee := ""
					if t.AssignedTo != nil {
						assignee = *t.AssignedTo
					}
					tw.AppendRow(table.Row{t.ID, t.ProjectID, t.Title, t.Status, assignee})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.AssignedTo, "assignee", "", "assignee filter")
	return cmd
}

func taskUpdateCmd() *cobra.Command {
	var title, status, assign string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := engine.TaskUpdateOptions{
				ID:      args[0],
				Status:  domain.TaskStatus(status),
				ActorID: viper.GetString("actor-id"),
			}
			if cmd.Flags().Changed("title") {
				opts.Title = &title
			}
			if cmd.Flags().Changed("assign") {
				opts.Assign = &assign
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.UpdateTask(ctx, opts)
				if err != nil {
					return notFound(err, "task", args[0])
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&status, "status", "", "pending, in_progress or completed")
	cmd.Flags().StringVar(&assign, "assign", "", "team member (empty clears)")
	return cmd
}

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <project-id>",
		Short: "Score a stored project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				b, err := e.Score(ctx, args[0])
				if err != nil {
					return notFound(err, "project", args[0])
				}
				if viper.GetBool("json") {
					return printJSON(b)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"Factor", "Value"})
				tw.AppendRows([]table.Row{
					{"deadline_urgency", b.DeadlineUrgency},
					{"payment_status", b.PaymentStatus},
					{"project_value", b.ProjectValue},
					{"client_importance", b.ClientImportance},
					{"team_load_penalty", b.TeamLoadPenalty},
				})
				tw.AppendFooter(table.Row{b.PriorityLevel, b.PriorityScore})
				tw.Render()
				for _, line := range b.Reasoning {
					fmt.Println("-", line)
				}
				return nil
			})
		},
	}
}

func rankCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank active projects, or a JSON batch with --file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var (
					d   domain.Decision
					err error
				)
				if file != "" {
					projects, rerr := readProjects(file)
					if rerr != nil {
						return rerr
					}
					for _, p := range projects {
						if err := domain.ValidateProject(p); err != nil {
							return err
						}
					}
					d = e.Decider().Decide(projects, time.Now())
				} else {
					d, err = e.Decide(ctx, viper.GetString("actor-id"))
					if err != nil {
						return err
					}
				}
				if viper.GetBool("json") {
					return printJSON(d)
				}
				printDecision(d)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with a list of project records (- for stdin)")
	return cmd
}

func progressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <project-id>",
		Short: "Check progress and delay risk of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				report, err := e.CheckProgress(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return notFound(err, "project", args[0])
				}
				if viper.GetBool("json") {
					return printJSON(report)
				}
				printReports([]domain.ProgressReport{report})
				return nil
			})
		},
	}
}

func monitorCmd() *cobra.Command {
	m := &cobra.Command{Use: "monitor", Short: "Periodic progress checks"}
	m.AddCommand(monitorRunCmd())
	return m
}

func monitorRunCmd() *cobra.Command {
	var once bool
	var interval string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Check all active projects, repeatedly unless --once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if once {
					summary, err := e.CheckActive(ctx, "monitor")
					if err != nil {
						return err
					}
					if viper.GetBool("json") {
						return printJSON(summary)
					}
					printReports(summary.Reports)
					for id, msg := range summary.Failures {
						fmt.Printf("failed %s: %s\n", id, msg)
					}
					return nil
				}
				every := e.Config.MonitorInterval()
				if interval != "" {
					d, err := time.ParseDuration(interval)
					if err != nil || d <= 0 {
						return fmt.Errorf("invalid interval %q", interval)
					}
					every = d
				}
				worker.NewMonitorCoordinator(e, every).Run(ctx)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single pass and exit")
	cmd.Flags().StringVar(&interval, "interval", "", "override worker.monitor_interval")
	return cmd
}

func rulesCmd() *cobra.Command {
	r := &cobra.Command{Use: "rules", Short: "Manage scoring, decision and monitoring rules"}
	r.AddCommand(rulesShowCmd())
	r.AddCommand(rulesImportCmd())
	r.AddCommand(rulesInitCmd())
	return r
}

func rulesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the rules stored in the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if viper.GetBool("json") {
					return printJSON(e.Config)
				}
				data, err := config.ToYAML(e.Config)
				if err != nil {
					return err
				}
				fmt.Print(string(data))
				return nil
			})
		},
	}
}

func rulesImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate a YAML rules file and store it in the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := file
			if path == "" {
				path = config.Path(viper.GetString("workspace"))
			}
			cfg, err := config.FromFile(path)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if _, err := e.ImportRules(ctx, cfg, viper.GetString("actor-id")); err != nil {
					return err
				}
				fmt.Printf("imported rules from %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "rules file (default <workspace>/priorityline.yml)")
	return cmd
}

func rulesInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default rules file into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func logCmd() *cobra.Command {
	l := &cobra.Command{Use: "log", Short: "Event log"}
	l.AddCommand(logTailCmd())
	return l
}

func logTailCmd() *cobra.Command {
	var f repo.EventFilters
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.LatestEvents(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "TS", "Type", "Project", "Entity", "Actor"})
				for _, evt := range items {
					tw.AppendRow(table.Row{evt.ID, evt.TS, evt.Type, evt.ProjectID, evt.EntityKind + ":" + evt.EntityID, evt.ActorID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&f.Limit, "n", 20, "number of events")
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project filter")
	cmd.Flags().StringVar(&f.Type, "type", "", "event type filter")
	cmd.Flags().StringVar(&f.EntityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&f.EntityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var withMonitor bool
	var corsOrigins []string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server with the background monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				logger := e.Log
				coordinator := worker.NewMonitorCoordinator(e, e.Config.MonitorInterval())
				authCfg := server.AuthConfig{JWTSecret: viper.GetString("jwt-secret")}
				handler, err := server.New(server.Config{
					Engine:         e,
					BasePath:       basePath,
					Auth:           authCfg,
					Monitor:        coordinator,
					MonitorEnabled: withMonitor,
					CORSOrigins:    corsOrigins,
					Logger:         logger,
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				dispatcher := server.NewWebhookDispatcher(e, e.Config.Webhooks, logger)

				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					logger.Info("serving priorityline api", "component", "server", "addr", addr, "base_path", basePath)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
				g.Go(func() error {
					<-gctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
				if withMonitor {
					g.Go(func() error {
						coordinator.Run(gctx)
						return nil
					})
				}
				g.Go(func() error {
					dispatcher.Run(gctx)
					return nil
				})
				return g.Wait()
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().BoolVar(&withMonitor, "monitor", true, "run periodic progress checks")
	cmd.Flags().StringSliceVar(&corsOrigins, "cors-origin", nil, "allowed CORS origins (default any)")
	cmd.Flags().String("jwt-secret", "", "HS256 secret for bearer tokens (env PRIORITYLINE_JWT_SECRET); empty disables auth")
	_ = viper.BindPFlag("jwt-secret", cmd.Flags().Lookup("jwt-secret"))
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(ctx, conn); err != nil {
		return err
	}
	cfg, err := app.ResolveConfig(ctx, workspace, repo.Repo{DB: conn})
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if v := viper.GetString("log-level"); v != "" {
		level = v
	}
	logger := app.NewLogger(level, cfg.Log.Format, os.Stderr)
	slog.SetDefault(logger)
	e := engine.New(conn, cfg)
	e.Log = logger
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(ctx, conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func readProjects(path string) ([]domain.ProjectRecord, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	var projects []domain.ProjectRecord
	if err := json.Unmarshal(data, &projects); err == nil {
		return projects, nil
	}
	var wrapped struct {
		Projects []domain.ProjectRecord `json:"projects"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return wrapped.Projects, nil
}

func printDecision(d domain.Decision) {
	tw := newTable()
	tw.AppendHeader(table.Row{"Rank", "Project", "Score", "Level", "Action"})
	for _, r := range d.Ranked {
		tw.AppendRow(table.Row{r.Rank, r.Project.ID, r.Score.PriorityScore, r.Score.PriorityLevel, r.Action})
	}
	tw.Render()
	printAlerts(d.Alerts)
}

func printReports(reports []domain.ProgressReport) {
	tw := newTable()
	tw.AppendHeader(table.Row{"Project", "Done", "Progress", "Days Left", "Risk", "Delay Days"})
	var alerts []domain.Alert
	for _, r := range reports {
		tw.AppendRow(table.Row{
			r.ProjectID,
			fmt.Sprintf("%d/%d", r.CompletedTasks, r.TotalTasks),
			fmt.Sprintf("%.1f%%", r.ProgressPercentage),
			r.DaysRemaining,
			r.DelayRisk.Severity,
			r.DelayRisk.EstimatedDelayDays,
		})
		alerts = append(alerts, r.Alerts...)
	}
	tw.Render()
	printAlerts(alerts)
}

func printAlerts(alerts []domain.Alert) {
	if len(alerts) == 0 {
		return
	}
	tw := newTable()
	tw.AppendHeader(table.Row{"Alert", "Project", "Member", "Message"})
	for _, a := range alerts {
		tw.AppendRow(table.Row{a.Type, a.ProjectID, a.MemberID, a.Message})
	}
	tw.Render()
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	return tw
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%s %s not found", kind, id)
	}
	return err
}
