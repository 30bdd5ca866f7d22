package models

type QueryType string

const (
	QueryTypeProgramRequirements   QueryType = "program_requirements"
	QueryTypeStudentProfile        QueryType = "student_profile"
	QueryTypeSmartSearchCandidates QueryType = "smart_search_candidates"
)

// SmartSearchParams filters smart search candidates. Empty filters match everything.
type SmartSearchParams struct {
	Countries    []string `json:"countries,omitempty"`
	Fields       []string `json:"fields,omitempty"`
	DegreeLevels []string `json:"degreeLevels,omitempty"`
	MaxTuition   *float64 `json:"maxTuition,omitempty"`
	Take         int      `json:"take,omitempty"`
	ProgramIDs   []int64  `json:"programIds,omitempty"`
}
