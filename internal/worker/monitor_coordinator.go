package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"priorityline/internal/engine"
	"priorityline/internal/metrics"
)

// ActiveChecker runs one progress pass over the active projects.
// Implemented by engine.Engine.
type ActiveChecker interface {
	CheckActive(ctx context.Context, actorID string) (engine.CheckSummary, error)
}

// Stats describes the most recent monitoring pass.
type Stats struct {
	Runs      int               `json:"runs"`
	LastRunAt string            `json:"last_run_at,omitempty" format:"date-time"`
	Duration  string            `json:"duration,omitempty"`
	Checked   int               `json:"checked"`
	AtRisk    int               `json:"at_risk"`
	Alerts    int               `json:"alerts"`
	Failures  map[string]string `json:"failures,omitempty"`
	LastError string            `json:"last_error,omitempty"`
}

// MonitorCoordinator checks active projects on a fixed interval.
type MonitorCoordinator struct {
	checker  ActiveChecker
	interval time.Duration
	actorID  string
	now      func() time.Time

	mu    sync.Mutex
	stats Stats
}

func NewMonitorCoordinator(checker ActiveChecker, interval time.Duration) *MonitorCoordinator {
	return &MonitorCoordinator{
		checker:  checker,
		interval: interval,
		actorID:  "monitor",
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled. The first pass runs immediately so a fresh
// server reports status without waiting a full interval.
func (c *MonitorCoordinator) Run(ctx context.Context) {
	slog.Info("monitor coordinator started",
		"component", "worker",
		"worker", "monitor-coordinator",
		"interval", c.interval.String(),
	)
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor coordinator stopped",
				"component", "worker",
				"worker", "monitor-coordinator",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single pass and records its stats.
func (c *MonitorCoordinator) RunOnce(ctx context.Context) Stats {
	start := c.now()
	summary, err := c.checker.CheckActive(ctx, c.actorID)
	elapsed := c.now().Sub(start)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Runs++
	c.stats.LastRunAt = start.UTC().Format(time.RFC3339)
	c.stats.Duration = elapsed.String()
	if err != nil {
		c.stats.LastError = err.Error()
		if ctx.Err() == nil {
			slog.Error("monitor pass failed",
				"component", "worker",
				"worker", "monitor-coordinator",
				"error", err,
			)
		}
		return c.stats
	}
	c.stats.LastError = ""
	c.stats.Checked = summary.Checked
	c.stats.AtRisk = summary.AtRisk
	c.stats.Alerts = summary.Alerts
	c.stats.Failures = summary.Failures
	metrics.ObserveMonitorTick(elapsed, len(summary.Failures))

	slog.Info("monitor pass completed",
		"component", "worker",
		"worker", "monitor-coordinator",
		"projects_checked", summary.Checked,
		"projects_at_risk", summary.AtRisk,
		"alerts", summary.Alerts,
		"failures", len(summary.Failures),
		"duration_ms", elapsed.Milliseconds(),
	)
	return c.stats
}

// Stats returns a copy of the last pass.
func (c *MonitorCoordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.stats
	if c.stats.Failures != nil {
		out.Failures = make(map[string]string, len(c.stats.Failures))
		for k, v := range c.stats.Failures {
			out.Failures[k] = v
		}
	}
	return out
}
