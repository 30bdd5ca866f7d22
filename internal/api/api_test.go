package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unichance/internal/common/errors"
	"unichance/internal/common/logger"
	"unichance/internal/models"
	"unichance/internal/ratelimit"
	"unichance/internal/scoring"
	scoreadmissionchance "unichance/internal/workers/admission/score-admission-chance"
	smartsearch "unichance/internal/workers/admission/smart-search"
)

type fakeScorer struct {
	got *scoreadmissionchance.Input
	err error
}

func (f *fakeScorer) Execute(_ context.Context, input *scoreadmissionchance.Input) (*scoreadmissionchance.Output, error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return &scoreadmissionchance.Output{
		ProgramID: input.ProgramID,
		Score:     64,
		Category:  scoring.CategoryTarget,
		Breakdown: scoring.Breakdown{GPA: 30, Language: 16, Tests: 10, Extras: 8},
		Reasons:   []string{"GPA meets the minimum"},
		Advice:    "Solid profile.",
		ImprovementPath: &scoring.ImprovementPath{
			NextCategory: scoring.CategorySafety,
			TargetScore:  70,
			GapPoints:    6,
			NextSteps:    []string{"Raise your IELTS score to 7.0"},
		},
		WeightSet: scoring.WeightSetStandard,
		ScoredAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

type fakeSearcher struct {
	got *smartsearch.Input
}

func (f *fakeSearcher) Execute(_ context.Context, input *smartsearch.Input) (*smartsearch.Output, error) {
	f.got = input
	return &smartsearch.Output{
		Reach:  []smartsearch.ScoredProgram{},
		Target: []smartsearch.ScoredProgram{{Program: models.ProgramCard{ID: 11, Title: "BSc Computer Science"}, Score: 55, Category: scoring.CategoryTarget}},
		Safety: []smartsearch.ScoredProgram{},
		Total:  1,
	}, nil
}

func newTestServer(t *testing.T, opts Options) *Server {
	if opts.Scorer == nil {
		opts.Scorer = &fakeScorer{}
	}
	if opts.Searcher == nil {
		opts.Searcher = &fakeSearcher{}
	}
	opts.Logger = logger.NewTestLogger(t)
	return New(opts)
}

func post(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

const validChance = `{
	"program_id": 11,
	"gpa": 3.4,
	"gpa_scale": "4.0",
	"english_test": "IELTS",
	"english_score": 6.5,
	"sat_score": 1300,
	"has_portfolio": true,
	"achievements_count": 2
}`

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{Version: "1.2.0"})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.2.0", body["version"])
}

func TestReady(t *testing.T) {
	s := newTestServer(t, Options{Readiness: map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return stderrors.New("dial tcp: connection refused") },
	}})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "not_ready", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["postgres"])
	assert.Contains(t, checks["redis"], "connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestScore(t *testing.T) {
	scorer := &fakeScorer{}
	s := newTestServer(t, Options{Scorer: scorer})

	rec := post(t, s, "/api/v1/score", validChance)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, float64(11), body["program_id"])
	assert.Equal(t, float64(64), body["score"])
	assert.Equal(t, "target", body["category"])
	assert.Equal(t, "standard", body["weight_set"])
	assert.Contains(t, body, "breakdown")
	assert.Contains(t, body, "improvement_path")
	assert.NotContains(t, body, "financial_info")

	require.NotNil(t, scorer.got)
	assert.Equal(t, int64(11), scorer.got.ProgramID)
	assert.Equal(t, scoring.EnglishTestIELTS, scorer.got.Profile.EnglishTest)
	assert.True(t, scorer.got.Profile.HasPortfolio)
}

func TestChancesCalculate(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := post(t, s, "/api/v1/chances/calculate", validChance)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, 0.64, body["chance"])
	assert.Equal(t, "target", body["category"])
	factors := body["factors"].(map[string]interface{})
	assert.Equal(t, float64(30), factors["gpa"])
	assert.Equal(t, []interface{}{"Solid profile.", "Raise your IELTS score to 7.0"}, body["recommendations"])
}

func TestScore_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad scale", `{"program_id": 11, "gpa": 3.4, "gpa_scale": "10"}`, "gpa_scale"},
		{"missing program", `{"gpa": 3.4, "gpa_scale": "4.0"}`, "program_id"},
		{"gpa over scale", `{"program_id": 11, "gpa": 4.4, "gpa_scale": "4.0"}`, "gpa"},
		{"not json", `{"program_id": 11,`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &fakeScorer{}
			s := newTestServer(t, Options{Scorer: scorer})

			rec := post(t, s, "/api/v1/score", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "Invalid request data", resp.Error)
			require.NotEmpty(t, resp.Details)

			var fields []string
			for _, d := range resp.Details {
				fields = append(fields, d.Field)
			}
			assert.Contains(t, fields, tt.field)
			assert.Nil(t, scorer.got, "no score is computed for invalid input")
		})
	}
}

func TestScore_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"unknown program", errors.NewProgramNotFoundError(11), http.StatusNotFound, "Program not found"},
		{"database down", errors.NewRequirementsLoadFailedError(11, stderrors.New("conn reset")), http.StatusServiceUnavailable, ""},
		{"unexpected", stderrors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, Options{Scorer: &fakeScorer{err: tt.err}})

			rec := post(t, s, "/api/v1/score", validChance)
			assert.Equal(t, tt.status, rec.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, decode(t, rec)["error"])
			}
		})
	}
}

func TestSmartSearch(t *testing.T) {
	searcher := &fakeSearcher{}
	s := newTestServer(t, Options{Searcher: searcher})

	rec := post(t, s, "/api/v1/smart-search", `{
		"profile": {"gpa": 88, "gpa_scale": "100"},
		"countries": ["kz", "uz"],
		"degree_levels": ["bachelor"],
		"take": 10
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, float64(1), body["total"])
	assert.Len(t, body["target"], 1)
	assert.Equal(t, []interface{}{}, body["reach"])

	require.NotNil(t, searcher.got)
	assert.Equal(t, []string{"kz", "uz"}, searcher.got.Countries)
	assert.Equal(t, 10, searcher.got.Take)
	assert.Equal(t, scoring.GPAScale100, searcher.got.Profile.GPAScale)
}

func TestSmartSearch_TakeOutOfRange(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := post(t, s, "/api/v1/smart-search", `{"profile": {"gpa": 3.0, "gpa_scale": "4.0"}, "take": 51}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	limiter := &ratelimit.Limiter{Name: "search", Store: ratelimit.NewMemoryStore(), Limit: 2, Window: time.Minute}
	s := newTestServer(t, Options{SearchLimiter: limiter})

	for i := 0; i < 2; i++ {
		rec := post(t, s, "/api/v1/score", validChance)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := post(t, s, "/api/v1/chances/calculate", validChance)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "Too many requests", decode(t, rec)["error"])

	health := httptest.NewRecorder()
	s.Handler().ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}
