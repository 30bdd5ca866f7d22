// Package registry builds and checks the activity registry describing every
// job worker this service runs.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"unichance/internal/common/errors"
	"unichance/internal/common/validation"
	sac "unichance/internal/workers/admission/score-admission-chance"
	ssr "unichance/internal/workers/admission/send-score-report"
	ss "unichance/internal/workers/admission/smart-search"
	qe "unichance/internal/workers/data-access/query-elasticsearch"
	qp "unichance/internal/workers/data-access/query-postgresql"
)

const (
	Version = "1.0.0"

	CategoryAdmission  = "admission"
	CategoryDataAccess = "data-access"

	defaultRetries = 3
)

func codes(cs ...errors.ErrorCode) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func schemaDoc(s *validation.Schema) map[string]interface{} {
	doc, err := s.Document()
	if err != nil {
		// job schemas are compiled into the binary
		panic(err)
	}
	return doc
}

// Activities describes the workers compiled into this binary, ordered by ID.
func Activities() []Activity {
	activities := []Activity{
		{
			ID:          sac.TaskType,
			DisplayName: "Score Admission Chance",
			Description: "Scores a student profile against one program's requirements and admission history.",
			Category:    CategoryAdmission,
			TaskType:    sac.TaskType,
			InputSchema: schemaDoc(validation.ScoreJobSchema),
			ErrorCodes: codes(
				errors.ErrCodeInvalidProfile, errors.ErrCodeInvalidWeightSet,
				errors.ErrCodeProgramNotFound, errors.ErrCodeProfileNotFound,
				errors.ErrCodeRequirementsLoadFailed, errors.ErrCodeQueryTimeout,
				errors.ErrCodeQueryExecutionFailed,
			),
			Timeout: sac.LoadConfig().Timeout.String(),
			Tags:    []string{"scoring"},
		},
		{
			ID:          ss.TaskType,
			DisplayName: "Smart Search",
			Description: "Scores candidate programs for a student and groups them into reach, target and safety.",
			Category:    CategoryAdmission,
			TaskType:    ss.TaskType,
			InputSchema: schemaDoc(validation.SmartSearchJobSchema),
			ErrorCodes: codes(
				errors.ErrCodeInvalidProfile, errors.ErrCodeProfileNotFound,
				errors.ErrCodeQueryTimeout, errors.ErrCodeQueryExecutionFailed,
			),
			Timeout: ss.LoadConfig().Timeout.String(),
			Tags:    []string{"scoring", "search"},
		},
		{
			ID:          ssr.TaskType,
			DisplayName: "Send Score Report",
			Description: "Emails, and optionally texts, a scored admission chance to the student.",
			Category:    CategoryAdmission,
			TaskType:    ssr.TaskType,
			InputSchema: schemaDoc(validation.ScoreReportJobSchema),
			ErrorCodes: codes(
				errors.ErrCodeInvalidProfile, errors.ErrCodeRecipientNotFound,
				errors.ErrCodeQueryTimeout, errors.ErrCodeQueryExecutionFailed,
			),
			Timeout: ssr.LoadConfig().Timeout.String(),
			Tags:    []string{"notification", "email", "sms"},
		},
		{
			ID:          qp.TaskType,
			DisplayName: "Query PostgreSQL",
			Description: "Runs a named read query for programs, profiles or smart search candidates.",
			Category:    CategoryDataAccess,
			TaskType:    qp.TaskType,
			ErrorCodes: codes(
				errors.ErrCodeInvalidQueryType, errors.ErrCodeInvalidFilterFormat,
				errors.ErrCodeQueryTimeout, errors.ErrCodeQueryExecutionFailed,
			),
			Timeout: qp.LoadConfig().Timeout.String(),
			Tags:    []string{"postgres"},
		},
		{
			ID:          qe.TaskType,
			DisplayName: "Query Elasticsearch",
			Description: "Full-text program search with country, degree, field and tuition filters.",
			Category:    CategoryDataAccess,
			TaskType:    qe.TaskType,
			ErrorCodes: codes(
				errors.ErrCodeInvalidFilterFormat, errors.ErrCodeIndexNotFound,
				errors.ErrCodeSearchTimeout, errors.ErrCodeSearchQueryFailed,
			),
			Timeout: qe.LoadConfig().Timeout.String(),
			Tags:    []string{"elasticsearch", "search"},
		},
	}

	for i := range activities {
		activities[i].Version = Version
		activities[i].Retries = defaultRetries
	}
	sort.Slice(activities, func(i, j int) bool { return activities[i].ID < activities[j].ID })
	return activities
}

// Build returns a registry of every compiled worker stamped with now.
func Build(now time.Time) *ActivityRegistry {
	return &ActivityRegistry{
		Version:     Version,
		LastUpdated: now.UTC().Format(time.RFC3339),
		Activities:  Activities(),
	}
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", path, err)
	}
	return &reg, nil
}

func SaveRegistry(reg *ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Validate checks that reg is well formed and lists exactly the compiled
// workers. Every problem found is returned.
func Validate(reg *ActivityRegistry) []error {
	var problems []error

	seen := make(map[string]Activity, len(reg.Activities))
	for _, a := range reg.Activities {
		switch {
		case a.ID == "":
			problems = append(problems, fmt.Errorf("activity missing required field: id"))
			continue
		case a.DisplayName == "":
			problems = append(problems, fmt.Errorf("activity %s missing required field: displayName", a.ID))
		case a.TaskType == "":
			problems = append(problems, fmt.Errorf("activity %s missing required field: taskType", a.ID))
		case a.Category == "":
			problems = append(problems, fmt.Errorf("activity %s missing required field: category", a.ID))
		}
		if _, dup := seen[a.ID]; dup {
			problems = append(problems, fmt.Errorf("duplicate activity id: %s", a.ID))
		}
		seen[a.ID] = a
	}

	for _, want := range Activities() {
		got, ok := seen[want.ID]
		if !ok {
			problems = append(problems, fmt.Errorf("activity %s is not in the registry", want.ID))
			continue
		}
		if got.TaskType != want.TaskType {
			problems = append(problems, fmt.Errorf("activity %s: taskType is %q, worker uses %q", want.ID, got.TaskType, want.TaskType))
		}
		delete(seen, want.ID)
	}
	for id := range seen {
		problems = append(problems, fmt.Errorf("activity %s has no worker", id))
	}
	return problems
}
