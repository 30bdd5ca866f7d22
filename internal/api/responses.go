package api

import (
	"encoding/json"
	"net/http"

	"unichance/internal/common/errors"
	"unichance/internal/common/logger"
	"unichance/internal/common/validation"
	"unichance/internal/scoring"
	smartsearch "unichance/internal/workers/admission/smart-search"
)

type ScoreResponse struct {
	ProgramID       int64                    `json:"program_id"`
	Score           int                      `json:"score"`
	Category        scoring.Category         `json:"category"`
	Breakdown       scoring.Breakdown        `json:"breakdown"`
	Reasons         []string                 `json:"reasons"`
	Advice          string                   `json:"advice"`
	FinancialInfo   *scoring.FinancialFit    `json:"financial_info,omitempty"`
	ImprovementPath *scoring.ImprovementPath `json:"improvement_path,omitempty"`
	WeightSet       string                   `json:"weight_set"`
}

type ChanceResponse struct {
	ProgramID int64 `json:"program_id"`
	// Chance is the score as a probability in [0, 1].
	Chance          float64                  `json:"chance"`
	Score           int                      `json:"score"`
	Category        scoring.Category         `json:"category"`
	Factors         scoring.Breakdown        `json:"factors"`
	Reasons         []string                 `json:"reasons"`
	Recommendations []string                 `json:"recommendations"`
	FinancialInfo   *scoring.FinancialFit    `json:"financial_info,omitempty"`
	ImprovementPath *scoring.ImprovementPath `json:"improvement_path,omitempty"`
}

type SmartSearchResponse struct {
	Reach  []smartsearch.ScoredProgram `json:"reach"`
	Target []smartsearch.ScoredProgram `json:"target"`
	Safety []smartsearch.ScoredProgram `json:"safety"`
	Total  int                         `json:"total"`
}

type ErrorResponse struct {
	Error   string                       `json:"error"`
	Code    errors.ErrorCode             `json:"code,omitempty"`
	Details []validation.ValidationError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeValidationError(w http.ResponseWriter, details []validation.ValidationError) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request data",
		Code:    errors.ErrCodeInvalidProfile,
		Details: details,
	})
}

// writeError maps err to a status. Server-side failures hide their details.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := errors.Normalize(err)
	status := errors.HTTPStatus(stdErr.Code)

	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), s.log).Error("request failed", map[string]interface{}{
			"code":    stdErr.Code,
			"details": stdErr.Details,
		})
	}

	resp := ErrorResponse{Error: stdErr.Message, Code: stdErr.Code}
	if status == http.StatusInternalServerError {
		resp.Error = "Internal server error"
	}
	writeJSON(w, status, resp)
}
