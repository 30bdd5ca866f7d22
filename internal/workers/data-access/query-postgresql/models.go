package querypostgresql

import "unichance/internal/models"

type Input struct {
	QueryType string `json:"queryType"`
	ProgramID int64  `json:"programId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	AsOfYear  int    `json:"asOfYear,omitempty"`
	// Search filters smart_search_candidates.
	Search *models.SmartSearchParams `json:"search,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

var (
	QueryTypeProgramRequirements   = models.QueryTypeProgramRequirements
	QueryTypeStudentProfile        = models.QueryTypeStudentProfile
	QueryTypeSmartSearchCandidates = models.QueryTypeSmartSearchCandidates
)
