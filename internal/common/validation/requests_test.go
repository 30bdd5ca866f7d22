package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unichance/internal/common/errors"
	"unichance/internal/scoring"
)

func TestParseChanceRequest_Valid(t *testing.T) {
	body := []byte(`{
		"program_id": 42,
		"gpa": 3.6,
		"gpa_scale": "4.0",
		"english_test": "IELTS",
		"english_score": 7.0,
		"sat_score": 1400,
		"has_portfolio": true,
		"achievements_count": 3,
		"budget_usd": 25000,
		"citizenship": "kz"
	}`)

	req, result, err := ParseChanceRequest(body)
	require.NoError(t, err)
	require.True(t, result.Valid, result.GetErrorMessages())

	assert.Equal(t, int64(42), req.ProgramID)

	p := req.Profile()
	assert.Equal(t, scoring.GPAScale4, p.GPAScale)
	assert.Equal(t, scoring.EnglishTestIELTS, p.EnglishTest)
	require.NotNil(t, p.SAT)
	assert.Equal(t, 1400.0, *p.SAT)
	assert.Equal(t, "KZ", p.Citizenship)
	assert.True(t, p.HasPortfolio)
}

func TestParseChanceRequest_SchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{
			name:   "missing required fields",
			body:   `{"gpa": 3.2}`,
			fields: []string{"program_id", "gpa_scale"},
		},
		{
			name:   "unknown gpa scale",
			body:   `{"program_id": 1, "gpa": 3.2, "gpa_scale": "10"}`,
			fields: []string{"gpa_scale"},
		},
		{
			name:   "sat out of range",
			body:   `{"program_id": 1, "gpa": 3.2, "gpa_scale": "4.0", "sat_score": 1700}`,
			fields: []string{"sat_score"},
		},
		{
			name:   "non integer program id",
			body:   `{"program_id": 1.5, "gpa": 3.2, "gpa_scale": "4.0"}`,
			fields: []string{"program_id"},
		},
		{
			name:   "unknown weight set",
			body:   `{"program_id": 1, "gpa": 3.2, "gpa_scale": "4.0", "weight_set": "premium"}`,
			fields: []string{"weight_set"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, result, err := ParseChanceRequest([]byte(tt.body))
			require.NoError(t, err)
			assert.False(t, result.Valid)
			for _, f := range tt.fields {
				assert.True(t, result.HasErrors(f), "expected error for %s, got %v", f, result.GetErrorMessages())
			}
			assert.Error(t, result.Err())
		})
	}
}

func TestParseChanceRequest_CrossFieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		code  string
	}{
		{
			name:  "gpa above scale",
			body:  `{"program_id": 1, "gpa": 4.5, "gpa_scale": "4.0"}`,
			field: "gpa",
			code:  "GPA_EXCEEDS_SCALE",
		},
		{
			name:  "ielts above band nine",
			body:  `{"program_id": 1, "gpa": 3.5, "gpa_scale": "4.0", "english_test": "IELTS", "english_score": 95}`,
			field: "english_score",
			code:  "SCORE_EXCEEDS_SCALE",
		},
		{
			name:  "score without test",
			body:  `{"program_id": 1, "gpa": 3.5, "gpa_scale": "4.0", "english_score": 7}`,
			field: "english_test",
			code:  "REQUIRED_WITH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, result, err := ParseChanceRequest([]byte(tt.body))
			require.NoError(t, err)
			assert.False(t, result.Valid)

			errs := result.GetErrorsForField(tt.field)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.code, errs[0].Code)
		})
	}
}

func TestParseChanceRequest_MalformedJSON(t *testing.T) {
	_, result, err := ParseChanceRequest([]byte(`{"program_id":`))
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestParseSmartSearchRequest(t *testing.T) {
	body := []byte(`{
		"profile": {"gpa": 88, "gpa_scale": "100", "english_test": "TOEFL", "english_score": 100},
		"countries": ["US", "gb"],
		"degree_levels": ["bachelor"],
		"max_tuition": 40000,
		"take": 20
	}`)

	req, result, err := ParseSmartSearchRequest(body)
	require.NoError(t, err)
	require.True(t, result.Valid, result.GetErrorMessages())
	assert.Equal(t, []string{"US", "gb"}, req.Countries)
	assert.Equal(t, 20, req.Take)
	assert.Equal(t, scoring.GPAScale100, req.Profile.Profile().GPAScale)

	_, result, err = ParseSmartSearchRequest([]byte(`{"profile": {"gpa": 3.0, "gpa_scale": "4.0"}, "countries": ["USA"], "take": 80}`))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Len(t, result.GetErrorsForField("countries"), 1)
	assert.True(t, result.HasErrors("take"))

	_, result, err = ParseSmartSearchRequest([]byte(`{"profile": {"gpa": 6, "gpa_scale": "5.0"}}`))
	require.NoError(t, err)
	assert.True(t, result.HasErrors("profile.gpa"))
}

func TestValidateJob(t *testing.T) {
	vars := map[string]interface{}{
		"programId": float64(7),
		"profile": map[string]interface{}{
			"gpa":      3.9,
			"gpaScale": "4.0",
		},
	}
	profile := scoring.StudentProfile{GPA: 3.9, GPAScale: scoring.GPAScale4}

	result, err := ValidateJob(ScoreJobSchema, vars, &profile)
	require.NoError(t, err)
	assert.True(t, result.Valid, result.GetErrorMessages())

	result, err = ValidateJob(ScoreJobSchema, map[string]interface{}{"programId": float64(7)}, nil)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	bad := scoring.StudentProfile{GPA: 5.5, GPAScale: scoring.GPAScale5}
	vars["profile"] = map[string]interface{}{"gpa": 5.5, "gpaScale": "5.0"}
	result, err = ValidateJob(ScoreJobSchema, vars, &bad)
	require.NoError(t, err)
	assert.True(t, result.HasErrors("profile.gpa"))
	assert.Equal(t, []string{"profile.gpa"}, result.Fields())
}

func TestValidationResult_Helpers(t *testing.T) {
	vr := &ValidationResult{Valid: true}
	assert.NoError(t, vr.Err())

	vr.Merge([]ValidationError{
		{Field: "profile.gpa", Message: "too high"},
		{Field: "profile.gpa", Message: "still too high"},
		{Field: "take", Message: "too many"},
	})
	assert.False(t, vr.Valid)
	assert.Equal(t, []string{"profile.gpa", "take"}, vr.Fields())
	assert.Len(t, vr.GetErrorsForField("profile"), 2)
	assert.Equal(t, "take: too many", vr.GetErrorMessages()[2])
	assert.EqualError(t, vr.Err(), "validation failed: profile.gpa: too high; profile.gpa: still too high; take: too many")

	stdErr := vr.ProfileError()
	assert.Equal(t, errors.ErrCodeInvalidProfile, stdErr.Code)
	assert.Equal(t, []string{"profile.gpa", "take"}, stdErr.Metadata["fields"])
}
