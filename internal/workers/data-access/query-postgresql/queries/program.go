package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unichance/internal/models"
	"unichance/internal/repository"
)

// ProgramRequirements returns the program with scholarships and the admission
// stats inside the window. A missing program yields no rows.
func ProgramRequirements(ctx context.Context, store *repository.Store, params map[string]interface{}) (interface{}, int, int64, error) {
	programID, ok := params["programId"].(int64)
	if !ok || programID <= 0 {
		return nil, 0, 0, fmt.Errorf("%w: programId", ErrMissingParam)
	}

	start := time.Now()
	program, err := store.LoadProgram(ctx, programID, intParam(params, "asOfYear"))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, 0, time.Since(start).Milliseconds(), nil
	}
	if err != nil {
		return nil, 0, 0, err
	}
	return program, 1, time.Since(start).Milliseconds(), nil
}

func SmartSearchCandidates(ctx context.Context, store *repository.Store, params map[string]interface{}) (interface{}, int, int64, error) {
	search, _ := params["search"].(models.SmartSearchParams)

	start := time.Now()
	programs, err := store.ListSmartSearchCandidates(ctx, search, intParam(params, "asOfYear"))
	if err != nil {
		return nil, 0, 0, err
	}

	cards := make([]models.ProgramCard, 0, len(programs))
	for _, p := range programs {
		cards = append(cards, p.Card())
	}
	return cards, len(cards), time.Since(start).Milliseconds(), nil
}
