package api

import (
	"context"
	"io"
	"net/http"
	"sort"
	"time"

	"unichance/internal/common/errors"
	"unichance/internal/common/validation"
	"unichance/internal/models"
	scoreadmissionchance "unichance/internal/workers/admission/score-admission-chance"
	smartsearch "unichance/internal/workers/admission/smart-search"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"version":   s.opts.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady runs every readiness check and reports 503 if any fails.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.opts.Readiness))
	for name := range s.opts.Readiness {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.opts.Readiness[name](ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{"status": state, "checks": checks})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	out, ok := s.scoreRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ScoreResponse{
		ProgramID:       out.ProgramID,
		Score:           out.Score,
		Category:        out.Category,
		Breakdown:       out.Breakdown,
		Reasons:         out.Reasons,
		Advice:          out.Advice,
		FinancialInfo:   out.FinancialInfo,
		ImprovementPath: out.ImprovementPath,
		WeightSet:       out.WeightSet,
	})
}

func (s *Server) handleChance(w http.ResponseWriter, r *http.Request) {
	out, ok := s.scoreRequest(w, r)
	if !ok {
		return
	}

	recommendations := []string{out.Advice}
	if out.ImprovementPath != nil {
		recommendations = append(recommendations, out.ImprovementPath.NextSteps...)
	}

	writeJSON(w, http.StatusOK, ChanceResponse{
		ProgramID:       out.ProgramID,
		Chance:          float64(out.Score) / 100,
		Score:           out.Score,
		Category:        out.Category,
		Factors:         out.Breakdown,
		Reasons:         out.Reasons,
		Recommendations: recommendations,
		FinancialInfo:   out.FinancialInfo,
		ImprovementPath: out.ImprovementPath,
	})
}

// scoreRequest validates the body and scores it. It writes the error response
// itself and reports false when scoring did not happen.
func (s *Server) scoreRequest(w http.ResponseWriter, r *http.Request) (*scoreadmissionchance.Output, bool) {
	body, ok := readBody(w, r)
	if !ok {
		return nil, false
	}

	req, result, err := validation.ParseChanceRequest(body)
	if err != nil {
		writeValidationError(w, []validation.ValidationError{{Field: "body", Message: err.Error(), Code: "INVALID_JSON"}})
		return nil, false
	}
	if !result.Valid {
		writeValidationError(w, result.Errors)
		return nil, false
	}

	profile := req.Profile()
	out, err := s.opts.Scorer.Execute(r.Context(), &scoreadmissionchance.Input{
		ProgramID: req.ProgramID,
		Profile:   &profile,
		WeightSet: req.WeightSet,
	})
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return out, true
}

func (s *Server) handleSmartSearch(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	req, result, err := validation.ParseSmartSearchRequest(body)
	if err != nil {
		writeValidationError(w, []validation.ValidationError{{Field: "body", Message: err.Error(), Code: "INVALID_JSON"}})
		return
	}
	if !result.Valid {
		writeValidationError(w, result.Errors)
		return
	}

	profile := req.Profile.Profile()
	out, err := s.opts.Searcher.Execute(r.Context(), &smartsearch.Input{
		Profile: &profile,
		SmartSearchParams: models.SmartSearchParams{
			Countries:    req.Countries,
			Fields:       req.Fields,
			DegreeLevels: req.DegreeLevels,
			MaxTuition:   req.MaxTuition,
			Take:         req.Take,
			ProgramIDs:   req.ProgramIDs,
		},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SmartSearchResponse{
		Reach:  out.Reach,
		Target: out.Target,
		Safety: out.Safety,
		Total:  out.Total,
	})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: "Request body too large",
			Code:  errors.ErrCodeInvalidProfile,
		})
		return nil, false
	}
	return body, true
}
