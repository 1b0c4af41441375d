package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDefaultRoundTrips(t *testing.T) {
	cfg, err := FromYAML([]byte(GenerateDefault()))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 15*time.Minute, cfg.MonitorInterval())
}

func TestFromYAMLOverridesOnlyGivenKeys(t *testing.T) {
	cfg, err := FromYAML([]byte(`
scoring:
  penalty_floor: 95
  deadline:
    bands:
      - {max: 2, score: 100}
      - {max: 10, score: 50}
worker:
  monitor_interval: 1h
webhooks:
  - url: http://hooks.local/priorityline
    events: [progress.alert]
`))
	require.NoError(t, err)
	assert.Equal(t, 95.0, cfg.Scoring.PenaltyFloor)
	require.Len(t, cfg.Scoring.Deadline.Bands, 2)
	assert.Equal(t, 50.0, cfg.Scoring.Deadline.Bands[1].Score)
	assert.Equal(t, 20.0, cfg.Scoring.Deadline.Beyond)
	assert.Equal(t, 0.25, cfg.Scoring.Weights.PaymentStatus)
	assert.Equal(t, time.Hour, cfg.MonitorInterval())
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	require.Len(t, cfg.Webhooks, 1)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"interval":    "worker:\n  monitor_interval: soon\n",
		"zero":        "worker:\n  monitor_interval: 0s\n",
		"concurrency": "worker:\n  concurrency: 0\n",
		"log level":   "log:\n  level: loud\n",
		"log format":  "log:\n  format: xml\n",
		"webhook":     "webhooks:\n  - events: [progress.alert]\n",
		"weights":     "scoring:\n  weights:\n    deadline_urgency: -1\n",
		"monitor":     "monitor:\n  default_effort_days: 0\n",
		"decision":    "decision:\n  overload_team_load: 120\n",
		"yaml":        "scoring: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromYAML([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromWorkspace(t *testing.T) {
	ws := t.TempDir()
	_, err := Load(ws)
	assert.ErrorContains(t, err, "not found")

	cfg, err := LoadOptional(ws)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	require.NoError(t, os.WriteFile(filepath.Join(ws, "priorityline.yml"), []byte("log:\n  format: json\n"), 0o644))
	cfg, err = Load(ws)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)

	cfg, err = FromFile(Path(ws))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}
