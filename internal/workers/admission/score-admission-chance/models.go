package scoreadmissionchance

import "unichance/internal/scoring"

// Input carries either an inline profile or a userId whose stored profile is used.
type Input struct {
	ProgramID int64                   `json:"programId"`
	UserID    string                  `json:"userId,omitempty"`
	Profile   *scoring.StudentProfile `json:"profile,omitempty"`
	WeightSet string                  `json:"weightSet,omitempty"`
	AsOfYear  int                     `json:"asOfYear,omitempty"`
}

type Output struct {
	ProgramID       int64                    `json:"programId"`
	Score           int                      `json:"score"`
	Category        scoring.Category         `json:"category"`
	Breakdown       scoring.Breakdown        `json:"breakdown"`
	Reasons         []string                 `json:"reasons"`
	Advice          string                   `json:"advice"`
	FinancialInfo   *scoring.FinancialFit    `json:"financialInfo,omitempty"`
	ImprovementPath *scoring.ImprovementPath `json:"improvementPath,omitempty"`
	WeightSet       string                   `json:"weightSet"`
	ScoredAt        string                   `json:"scoredAt"`
}
