package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"unichance/internal/scoring"
)

// Naming selects how profile property names are spelled: snake_case on the HTTP
// API, camelCase in process variables.
type Naming int

const (
	SnakeCase Naming = iota
	CamelCase
)

type profileField struct {
	snake  string
	camel  string
	schema string
}

var profileFields = []profileField{
	{"gpa", "gpa", `{"type": "number", "minimum": 0, "maximum": 100}`},
	{"gpa_scale", "gpaScale", `{"type": "string", "enum": ["4.0", "5.0", "100"]}`},
	{"english_test", "englishTest", `{"type": ["string", "null"], "enum": ["IELTS", "TOEFL", "", null]}`},
	{"english_score", "englishScore", `{"type": ["number", "null"], "minimum": 0, "maximum": 120}`},
	{"sat_score", "satScore", `{"type": ["number", "null"], "minimum": 400, "maximum": 1600}`},
	{"act_score", "actScore", `{"type": ["number", "null"], "minimum": 1, "maximum": 36}`},
	{"gre_score", "greScore", `{"type": ["number", "null"], "minimum": 260, "maximum": 340}`},
	{"gmat_score", "gmatScore", `{"type": ["number", "null"], "minimum": 200, "maximum": 800}`},
	{"has_portfolio", "hasPortfolio", `{"type": "boolean"}`},
	{"work_experience_years", "workExperienceYears", `{"type": "number", "minimum": 0, "maximum": 60}`},
	{"achievements_count", "achievementsCount", `{"type": "integer", "minimum": 0, "maximum": 1000}`},
	{"achievements", "achievements", `{
		"type": ["object", "null"],
		"properties": {
			"olympiads": {"type": "integer", "minimum": 0},
			"leadership": {"type": "integer", "minimum": 0},
			"sports": {"type": "integer", "minimum": 0},
			"volunteering": {"type": "integer", "minimum": 0},
			"other": {"type": "integer", "minimum": 0}
		}
	}`},
	{"budget_usd", "budgetUsd", `{"type": ["number", "null"], "minimum": 0}`},
	{"citizenship", "citizenship", `{"type": "string", "maxLength": 3}`},
}

func (n Naming) name(f profileField) string {
	if n == CamelCase {
		return f.camel
	}
	return f.snake
}

// field returns the spelling of a profile property given its snake_case name.
func (n Naming) field(snake string) string {
	for _, f := range profileFields {
		if f.snake == snake {
			return n.name(f)
		}
	}
	return snake
}

func profileProperties(n Naming) string {
	props := make([]string, 0, len(profileFields))
	for _, f := range profileFields {
		props = append(props, fmt.Sprintf("%q: %s", n.name(f), f.schema))
	}
	return strings.Join(props, ",\n")
}

func profileObject(n Naming) string {
	return fmt.Sprintf(`{
		"type": "object",
		"properties": {%s},
		"required": [%q, %q]
	}`, profileProperties(n), n.field("gpa"), n.field("gpa_scale"))
}

var weightSetEnum = fmt.Sprintf(`{"type": "string", "enum": [%q, %q, ""]}`,
	scoring.WeightSetStandard, scoring.WeightSetSmartSearch)

// ChanceRequestSchema validates POST /chances/calculate and /score bodies.
var ChanceRequestSchema = NewSchema("chance-request", fmt.Sprintf(`{
	"type": "object",
	"properties": {
		"program_id": {"type": "integer", "minimum": 1},
		"weight_set": %s,
		%s
	},
	"required": ["program_id", "gpa", "gpa_scale"]
}`, weightSetEnum, profileProperties(SnakeCase)))

// SmartSearchRequestSchema validates POST /smart-search bodies.
var SmartSearchRequestSchema = NewSchema("smart-search-request", fmt.Sprintf(`{
	"type": "object",
	"properties": {
		"profile": %s,
		"countries": {"type": "array", "items": {"type": "string", "pattern": "^[A-Za-z]{2}$"}},
		"fields": {"type": "array", "items": {"type": "string", "minLength": 1}},
		"degree_levels": {"type": "array", "items": {"type": "string", "minLength": 1}},
		"max_tuition": {"type": ["number", "null"], "minimum": 0},
		"take": {"type": "integer", "minimum": 1, "maximum": 50},
		"program_ids": {"type": "array", "items": {"type": "integer", "minimum": 1}, "maxItems": 100}
	},
	"required": ["profile"]
}`, profileObject(SnakeCase)))

// ScoreJobSchema validates score-admission-chance job variables.
var ScoreJobSchema = NewSchema("score-admission-chance", fmt.Sprintf(`{
	"type": "object",
	"properties": {
		"programId": {"type": "integer", "minimum": 1},
		"userId": {"type": "string", "minLength": 1},
		"weightSet": %s,
		"profile": %s
	},
	"required": ["programId"],
	"anyOf": [{"required": ["profile"]}, {"required": ["userId"]}]
}`, weightSetEnum, profileObject(CamelCase)))

// SmartSearchJobSchema validates smart-search job variables.
var SmartSearchJobSchema = NewSchema("smart-search", fmt.Sprintf(`{
	"type": "object",
	"properties": {
		"userId": {"type": "string", "minLength": 1},
		"profile": %s,
		"countries": {"type": "array", "items": {"type": "string", "pattern": "^[A-Za-z]{2}$"}},
		"fields": {"type": "array", "items": {"type": "string"}},
		"degreeLevels": {"type": "array", "items": {"type": "string"}},
		"maxTuition": {"type": ["number", "null"], "minimum": 0},
		"take": {"type": "integer", "minimum": 1, "maximum": 50},
		"programIds": {"type": "array", "items": {"type": "integer", "minimum": 1}, "maxItems": 100}
	},
	"anyOf": [{"required": ["profile"]}, {"required": ["userId"]}]
}`, profileObject(CamelCase)))

// ScoreReportJobSchema validates send-score-report job variables.
var ScoreReportJobSchema = NewSchema("send-score-report", `{
	"type": "object",
	"properties": {
		"userId": {"type": "string", "minLength": 1},
		"programId": {"type": "integer", "minimum": 1},
		"programTitle": {"type": "string"},
		"score": {"type": "integer", "minimum": 0, "maximum": 100},
		"category": {"type": "string", "enum": ["reach", "target", "safety"]},
		"advice": {"type": "string"},
		"nextSteps": {"type": ["array", "null"], "items": {"type": "string"}},
		"notifySms": {"type": "boolean"}
	},
	"required": ["userId", "score", "category"]
}`)

// ProfileRequest is a student profile as sent to the HTTP API.
type ProfileRequest struct {
	GPA                 float64               `json:"gpa"`
	GPAScale            string                `json:"gpa_scale"`
	EnglishTest         string                `json:"english_test,omitempty"`
	EnglishScore        *float64              `json:"english_score,omitempty"`
	SATScore            *float64              `json:"sat_score,omitempty"`
	ACTScore            *float64              `json:"act_score,omitempty"`
	GREScore            *float64              `json:"gre_score,omitempty"`
	GMATScore           *float64              `json:"gmat_score,omitempty"`
	HasPortfolio        bool                  `json:"has_portfolio"`
	WorkExperienceYears float64               `json:"work_experience_years"`
	AchievementsCount   int                   `json:"achievements_count"`
	Achievements        *scoring.Achievements `json:"achievements,omitempty"`
	BudgetUSD           *float64              `json:"budget_usd,omitempty"`
	Citizenship         string                `json:"citizenship,omitempty"`
}

func (p ProfileRequest) Profile() scoring.StudentProfile {
	return scoring.StudentProfile{
		GPA:                 p.GPA,
		GPAScale:            scoring.GPAScale(p.GPAScale),
		EnglishTest:         scoring.EnglishTest(p.EnglishTest),
		EnglishScore:        p.EnglishScore,
		SAT:                 p.SATScore,
		ACT:                 p.ACTScore,
		GRE:                 p.GREScore,
		GMAT:                p.GMATScore,
		HasPortfolio:        p.HasPortfolio,
		WorkExperienceYears: p.WorkExperienceYears,
		AchievementsCount:   p.AchievementsCount,
		Achievements:        p.Achievements,
		BudgetUSD:           p.BudgetUSD,
		Citizenship:         strings.ToUpper(p.Citizenship),
	}
}

type ChanceRequest struct {
	ProgramID int64  `json:"program_id"`
	WeightSet string `json:"weight_set,omitempty"`
	ProfileRequest
}

type SmartSearchRequest struct {
	Profile      ProfileRequest `json:"profile"`
	Countries    []string       `json:"countries,omitempty"`
	Fields       []string       `json:"fields,omitempty"`
	DegreeLevels []string       `json:"degree_levels,omitempty"`
	MaxTuition   *float64       `json:"max_tuition,omitempty"`
	Take         int            `json:"take,omitempty"`
	ProgramIDs   []int64        `json:"program_ids,omitempty"`
}

// ParseChanceRequest decodes and validates a chance request body. A non-nil error
// means the body is not JSON; validation problems are reported in the result.
func ParseChanceRequest(body []byte) (ChanceRequest, *ValidationResult, error) {
	var req ChanceRequest
	result, err := parse(body, ChanceRequestSchema, &req)
	if err != nil || !result.Valid {
		return req, result, err
	}
	result.Merge(CheckProfile(req.Profile(), SnakeCase, ""))
	return req, result, nil
}

// ParseSmartSearchRequest decodes and validates a smart search request body.
func ParseSmartSearchRequest(body []byte) (SmartSearchRequest, *ValidationResult, error) {
	var req SmartSearchRequest
	result, err := parse(body, SmartSearchRequestSchema, &req)
	if err != nil || !result.Valid {
		return req, result, err
	}
	result.Merge(CheckProfile(req.Profile.Profile(), SnakeCase, "profile"))
	return req, result, nil
}

func parse(body []byte, schema *Schema, into interface{}) (*ValidationResult, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}

	result, err := schema.Validate(doc)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return result, nil
	}

	if err := json.Unmarshal(body, into); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}
	return result, nil
}

// CheckProfile applies the rules a schema cannot express: scores must fit the
// scale they are reported on. prefix is prepended to field names when non-empty.
func CheckProfile(p scoring.StudentProfile, n Naming, prefix string) []ValidationError {
	name := func(snake string) string {
		if prefix == "" {
			return n.field(snake)
		}
		return prefix + "." + n.field(snake)
	}

	var errs []ValidationError

	if max := p.GPAScale.Max(); max > 0 && p.GPA > max {
		errs = append(errs, ValidationError{
			Field:   name("gpa"),
			Message: fmt.Sprintf("gpa must not exceed %s on the %s scale", p.GPAScale, p.GPAScale),
			Code:    "GPA_EXCEEDS_SCALE",
		})
	}

	if p.EnglishScore != nil {
		switch {
		case p.EnglishTest == "":
			errs = append(errs, ValidationError{
				Field:   name("english_test"),
				Message: "an English test is required when an English score is given",
				Code:    "REQUIRED_WITH",
			})
		case *p.EnglishScore > p.EnglishTest.Max():
			errs = append(errs, ValidationError{
				Field:   name("english_score"),
				Message: fmt.Sprintf("%s scores range from 0 to %g", p.EnglishTest, p.EnglishTest.Max()),
				Code:    "SCORE_EXCEEDS_SCALE",
			})
		}
	}

	return errs
}

// ValidateJob checks decoded job variables against schema and, when profile is
// non-nil, the cross-field profile rules.
func ValidateJob(schema *Schema, vars map[string]interface{}, profile *scoring.StudentProfile) (*ValidationResult, error) {
	result, err := schema.Validate(vars)
	if err != nil {
		return nil, err
	}
	if result.Valid && profile != nil {
		result.Merge(CheckProfile(*profile, CamelCase, "profile"))
	}
	return result, nil
}
