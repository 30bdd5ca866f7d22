package smartsearch

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unichance/internal/common/errors"
	"unichance/internal/common/logger"
	"unichance/internal/models"
	"unichance/internal/repository"
	"unichance/internal/scoring"
)

func ptr[T any](v T) *T { return &v }

type fakeStore struct {
	candidates []models.ProgramRecord
	listErr    error
	profiles   map[string]*models.StudentProfileRecord
	gotParams  models.SmartSearchParams
	gotYear    int
}

func (f *fakeStore) ListSmartSearchCandidates(_ context.Context, params models.SmartSearchParams, asOfYear int) ([]models.ProgramRecord, error) {
	f.gotParams = params
	f.gotYear = asOfYear
	return f.candidates, f.listErr
}

func (f *fakeStore) LoadProgram(context.Context, int64, int) (*models.ProgramRecord, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeStore) LoadStudentProfile(_ context.Context, userID string) (*models.StudentProfileRecord, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("profile for user %s: %w", userID, repository.ErrNotFound)
}

func easyProgram(id int64, title string) models.ProgramRecord {
	return models.ProgramRecord{
		ID:          id,
		Title:       title,
		CountryCode: "KZ",
		DegreeLevel: "bachelor",
		MinGPA:      ptr(2.0),
		MinGPAScale: "4.0",
		MinIELTS:    ptr(5.0),
		Stats:       []scoring.AdmissionStat{{Year: 2024, AcceptanceRate: ptr(0.9)}},
	}
}

func hardProgram(id int64, title string) models.ProgramRecord {
	return models.ProgramRecord{
		ID:          id,
		Title:       title,
		CountryCode: "US",
		DegreeLevel: "bachelor",
		MinGPA:      ptr(3.95),
		MinGPAScale: "4.0",
		MinIELTS:    ptr(8.5),
		MinSAT:      ptr(1570.0),
		Stats:       []scoring.AdmissionStat{{Year: 2024, AcceptanceRate: ptr(0.04)}},
	}
}

func moderateProfile() *scoring.StudentProfile {
	return &scoring.StudentProfile{
		GPA:          3.0,
		GPAScale:     scoring.GPAScale4,
		EnglishTest:  scoring.EnglishTestIELTS,
		EnglishScore: ptr(6.0),
		SAT:          ptr(1200.0),
	}
}

func newTestHandler(t *testing.T, store *fakeStore) *Handler {
	base, err := scoring.NewScorer(scoring.DefaultOptions())
	require.NoError(t, err)
	h, err := NewHandler(&Config{Timeout: 5 * time.Second, AsOfYear: 2025}, store, store, base, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

func all(out *Output) []ScoredProgram {
	var res []ScoredProgram
	res = append(res, out.Reach...)
	res = append(res, out.Target...)
	return append(res, out.Safety...)
}

func TestHandler_Execute_GroupsAndSorts(t *testing.T) {
	store := &fakeStore{candidates: []models.ProgramRecord{
		hardProgram(1, "Ivy Engineering"),
		easyProgram(2, "Applied IT"),
		easyProgram(3, "Business Informatics"),
		hardProgram(4, "Ivy Physics"),
	}}
	h := newTestHandler(t, store)

	out, err := h.Execute(context.Background(), &Input{
		Profile:           moderateProfile(),
		SmartSearchParams: models.SmartSearchParams{Countries: []string{"KZ", "US"}, Take: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, out.Total)
	assert.Equal(t, []string{"KZ", "US"}, store.gotParams.Countries)
	assert.Equal(t, 2025, store.gotYear)

	scores := map[int64]int{}
	for _, sp := range all(out) {
		scores[sp.Program.ID] = sp.Score
		assert.Equal(t, sp.Score, sp.Breakdown.Total())
		assert.Equal(t, scoring.Classify(sp.Score, scoring.DefaultThresholds), sp.Category)
	}
	require.Len(t, scores, 4)
	assert.Less(t, scores[1], scores[2])

	for _, group := range [][]ScoredProgram{out.Reach, out.Target, out.Safety} {
		for i := 1; i < len(group); i++ {
			assert.GreaterOrEqual(t, group[i-1].Score, group[i].Score)
		}
	}
}

func TestHandler_Execute_TiesKeepCandidateOrder(t *testing.T) {
	store := &fakeStore{candidates: []models.ProgramRecord{
		easyProgram(7, "Zoology"),
		easyProgram(8, "Anthropology"),
	}}
	h := newTestHandler(t, store)

	out, err := h.Execute(context.Background(), &Input{Profile: moderateProfile()})
	require.NoError(t, err)

	ranked := all(out)
	require.Len(t, ranked, 2)
	assert.Equal(t, ranked[0].Score, ranked[1].Score)
	assert.Equal(t, int64(7), ranked[0].Program.ID)
	assert.Equal(t, int64(8), ranked[1].Program.ID)
}

func TestHandler_Execute_NoCandidates(t *testing.T) {
	h := newTestHandler(t, &fakeStore{})

	out, err := h.Execute(context.Background(), &Input{Profile: moderateProfile()})
	require.NoError(t, err)
	assert.Zero(t, out.Total)
	assert.NotNil(t, out.Reach)
	assert.NotNil(t, out.Target)
	assert.NotNil(t, out.Safety)
}

func TestHandler_Execute_UsesSmartSearchWeights(t *testing.T) {
	store := &fakeStore{candidates: []models.ProgramRecord{easyProgram(2, "Applied IT")}}
	h := newTestHandler(t, store)

	_, err := h.Execute(context.Background(), &Input{Profile: moderateProfile()})
	require.NoError(t, err)
	assert.Equal(t, scoring.WeightSetSmartSearch, h.scorer.Weights().Name)
}

func TestHandler_Execute_StoredProfile(t *testing.T) {
	store := &fakeStore{
		candidates: []models.ProgramRecord{easyProgram(2, "Applied IT")},
		profiles: map[string]*models.StudentProfileRecord{
			"u-1": {UserID: "u-1", GPA: 85, GPAScale: "100"},
		},
	}
	h := newTestHandler(t, store)

	out, err := h.Execute(context.Background(), &Input{UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		store     *fakeStore
		input     *Input
		code      errors.ErrorCode
		retryable bool
	}{
		{"unknown user", &fakeStore{}, &Input{UserID: "ghost"}, errors.ErrCodeProfileNotFound, false},
		{"no profile source", &fakeStore{}, &Input{}, errors.ErrCodeInvalidProfile, false},
		{"gpa above scale", &fakeStore{}, &Input{Profile: &scoring.StudentProfile{GPA: 5.5, GPAScale: scoring.GPAScale5}}, errors.ErrCodeInvalidProfile, false},
		{"candidate query fails", &fakeStore{listErr: stderrors.New("relation \"programs\" does not exist")}, &Input{Profile: moderateProfile()}, errors.ErrCodeQueryExecutionFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, tt.store)
			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)

			stdErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}

func TestHandler_ParseAndExecute_Validation(t *testing.T) {
	h := newTestHandler(t, &fakeStore{candidates: []models.ProgramRecord{easyProgram(2, "Applied IT")}})

	out, err := h.parseAndExecute(context.Background(), `{"profile": {"gpa": 3.1, "gpaScale": "4.0"}, "countries": ["kz"], "programIds": [2]}`)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)

	_, err = h.parseAndExecute(context.Background(), `{"profile": {"gpa": 3.1, "gpaScale": "4.0"}, "countries": ["KAZ"]}`)
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidProfile, stdErr.Code)

	_, err = h.parseAndExecute(context.Background(), `{"profile": {"gpa": 3.1, "gpaScale": "4.0"}, "take": 80}`)
	require.Error(t, err)
}
