package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unichance/internal/scoring"
)

const baseYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: unichance
    user: ${TEST_DB_USER}
  redis:
    address: localhost:6379
workers:
  score-admission-chance:
    enabled: true
  smart-search:
    enabled: false
    max_jobs_active: 2
scoring:
  weight_set: standard
  target_threshold: 45
  safety_threshold: 75
  curve:
    meet_credit: 0.75
    headroom: 0.1
    slope: 1.5
    floor: 0.25
  currency_rates:
    inr: 0.012
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TEST_DB_USER", "scorer")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "scorer", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, 30, cfg.RateLimit.Search.Limit)
	assert.Equal(t, 60, cfg.RateLimit.Search.Window)
	assert.Equal(t, "programs", cfg.Search.ProgramsIndex)

	score := GetWorkerConfig(cfg, "score-admission-chance")
	assert.True(t, score.Enabled)
	assert.Equal(t, 5, score.MaxJobsActive)
	assert.Equal(t, 30000, score.Timeout)

	assert.False(t, IsWorkerEnabled(cfg, "smart-search"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "smart-search").MaxJobsActive)
	assert.True(t, IsWorkerEnabled(cfg, "send-score-report"))
}

func TestScoringConfig_Options(t *testing.T) {
	t.Setenv("TEST_DB_USER", "scorer")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	opts, err := cfg.Scoring.Options()
	require.NoError(t, err)
	assert.Equal(t, scoring.StandardWeights, opts.Weights)
	assert.Equal(t, scoring.Thresholds{Target: 45, Safety: 75}, opts.Thresholds)
	assert.Equal(t, 0.75, opts.Curve.MeetCredit)
	assert.Equal(t, 0.012, opts.CurrencyRates["inr"])

	s, err := scoring.NewScorer(opts)
	require.NoError(t, err)
	assert.Equal(t, 75, s.Thresholds().Safety)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "missing broker",
			content: "database:\n  postgres:\n    host: localhost\n",
			errMsg:  "camunda.broker_address is required",
		},
		{
			name: "unknown rate limit backend",
			content: `
camunda: {broker_address: "localhost:26500"}
database:
  postgres: {host: localhost, database: unichance, user: u}
  redis: {address: "localhost:6379"}
rate_limit: {backend: memcached}
`,
			errMsg: "rate_limit.backend must be memory or redis",
		},
		{
			name: "bad scoring weight set",
			content: `
camunda: {broker_address: "localhost:26500"}
database:
  postgres: {host: localhost, database: unichance, user: u}
  redis: {address: "localhost:6379"}
scoring: {weight_set: premium}
`,
			errMsg: `unknown weight set "premium"`,
		},
		{
			name: "inverted thresholds",
			content: `
camunda: {broker_address: "localhost:26500"}
database:
  postgres: {host: localhost, database: unichance, user: u}
  redis: {address: "localhost:6379"}
scoring: {target_threshold: 80, safety_threshold: 60}
`,
			errMsg: "thresholds must satisfy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "unichance", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=unichance sslmode=disable", p.GetDSN())
}
