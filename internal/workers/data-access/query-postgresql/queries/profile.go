package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unichance/internal/repository"
)

func StudentProfile(ctx context.Context, store *repository.Store, params map[string]interface{}) (interface{}, int, int64, error) {
	userID, ok := params["userId"].(string)
	if !ok || userID == "" {
		return nil, 0, 0, fmt.Errorf("%w: userId", ErrMissingParam)
	}

	start := time.Now()
	profile, err := store.LoadStudentProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, 0, time.Since(start).Milliseconds(), nil
	}
	if err != nil {
		return nil, 0, 0, err
	}
	return profile, 1, time.Since(start).Milliseconds(), nil
}
