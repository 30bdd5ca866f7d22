package smartsearch

import (
	"unichance/internal/models"
	"unichance/internal/scoring"
)

// Input filters the candidate programs. ProgramIDs, when set by a preceding
// search step, restricts scoring to those programs.
type Input struct {
	UserID  string                  `json:"userId,omitempty"`
	Profile *scoring.StudentProfile `json:"profile,omitempty"`
	models.SmartSearchParams
	AsOfYear int `json:"asOfYear,omitempty"`
}

// ScoredProgram is one program scored for the student.
type ScoredProgram struct {
	Program         models.ProgramCard       `json:"program"`
	Score           int                      `json:"score"`
	Category        scoring.Category         `json:"category"`
	Breakdown       scoring.Breakdown        `json:"breakdown"`
	Reasons         []string                 `json:"reasons"`
	Advice          string                   `json:"advice"`
	FinancialInfo   *scoring.FinancialFit    `json:"financial_info,omitempty"`
	ImprovementPath *scoring.ImprovementPath `json:"improvement_path,omitempty"`
}

type Output struct {
	Reach      []ScoredProgram `json:"reach"`
	Target     []ScoredProgram `json:"target"`
	Safety     []ScoredProgram `json:"safety"`
	Total      int             `json:"total"`
	SearchedAt string          `json:"searchedAt"`
}
