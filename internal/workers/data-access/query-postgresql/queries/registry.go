package queries

import (
	"context"
	"errors"
	"fmt"

	"unichance/internal/models"
	"unichance/internal/repository"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
)

// QueryFunc returns: data, rowCount, executionTime (ms), error
type QueryFunc func(ctx context.Context, store *repository.Store, params map[string]interface{}) (interface{}, int, int64, error)

var Registry = map[models.QueryType]QueryFunc{
	models.QueryTypeProgramRequirements:   ProgramRequirements,
	models.QueryTypeStudentProfile:        StudentProfile,
	models.QueryTypeSmartSearchCandidates: SmartSearchCandidates,
}

func Execute(ctx context.Context, store *repository.Store, queryType models.QueryType, params map[string]interface{}) (interface{}, int, int64, error) {
	fn, exists := Registry[queryType]
	if !exists {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}
	return fn(ctx, store, params)
}

func intParam(params map[string]interface{}, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
