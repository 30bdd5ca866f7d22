package smartsearch

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"unichance/internal/common/errors"
	"unichance/internal/common/logger"
	"unichance/internal/common/metrics"
	"unichance/internal/common/observability"
	"unichance/internal/common/validation"
	"unichance/internal/models"
	"unichance/internal/repository"
	"unichance/internal/scoring"
)

const (
	TaskType = "smart-search"
)

// CandidateLister is satisfied by *repository.Store.
type CandidateLister interface {
	ListSmartSearchCandidates(ctx context.Context, params models.SmartSearchParams, asOfYear int) ([]models.ProgramRecord, error)
}

type Handler struct {
	config       *Config
	lister       CandidateLister
	profiles     repository.Loader
	scorer       *scoring.Scorer
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler scores with base's options and the smart_search weight set.
func NewHandler(config *Config, lister CandidateLister, profiles repository.Loader, base *scoring.Scorer, obs *observability.Observability, log logger.Logger) (*Handler, error) {
	scorer, err := base.WithWeights(scoring.SmartSearchWeights)
	if err != nil {
		return nil, fmt.Errorf("smart search scorer: %w", err)
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		lister:       lister,
		profiles:     profiles,
		scorer:       scorer,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	timer := metrics.StartJob(TaskType)
	start := time.Now()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.parseAndExecute(ctx, job.Variables)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), status)

	if err != nil {
		stdErr := errors.Normalize(err)
		timer.Done(string(stdErr.Code))
		h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
		return
	}

	timer.Done("")
	h.completeJob(client, job, output)
}

func (h *Handler) parseAndExecute(ctx context.Context, variables string) (*Output, error) {
	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &vars); err != nil {
		return nil, errors.NewInvalidProfileError(fmt.Sprintf("parse input: %v", err), nil)
	}

	result, err := validation.ValidateJob(validation.SmartSearchJobSchema, vars, nil)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, result.ProfileError()
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidProfileError(fmt.Sprintf("parse input: %v", err), nil)
	}
	return h.execute(ctx, &input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	profile, err := h.resolveProfile(ctx, input)
	if err != nil {
		return nil, err
	}
	if errs := validation.CheckProfile(profile, validation.CamelCase, "profile"); len(errs) > 0 {
		vr := &validation.ValidationResult{}
		vr.Merge(errs)
		return nil, vr.ProfileError()
	}

	asOfYear := input.AsOfYear
	if asOfYear == 0 {
		asOfYear = h.config.AsOfYear
	}

	candidates, err := h.lister.ListSmartSearchCandidates(ctx, input.SmartSearchParams, asOfYear)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.NewQueryTimeoutError(string(models.QueryTypeSmartSearchCandidates))
		}
		return nil, errors.NewQueryExecutionFailedError(string(models.QueryTypeSmartSearchCandidates), err)
	}

	output := h.rank(ctx, profile, candidates, asOfYear)

	h.logger.Info("smart search completed", map[string]interface{}{
		"userId":     input.UserID,
		"candidates": len(candidates),
		"reach":      len(output.Reach),
		"target":     len(output.Target),
		"safety":     len(output.Safety),
	})
	return output, nil
}

// rank scores every candidate and groups the results by category, each group
// ordered by score descending. Ties keep candidate order.
func (h *Handler) rank(ctx context.Context, profile scoring.StudentProfile, candidates []models.ProgramRecord, asOfYear int) *Output {
	out := &Output{
		Reach:      []ScoredProgram{},
		Target:     []ScoredProgram{},
		Safety:     []ScoredProgram{},
		SearchedAt: time.Now().UTC().Format(time.RFC3339),
	}

	for _, c := range candidates {
		res := h.scorer.Score(profile, c.Requirements(asOfYear))
		metrics.RecordScore(res.WeightSet, string(res.Category), res.Score)
		h.obs.RecordScore(ctx, res.WeightSet, string(res.Category), res.Score)

		sp := ScoredProgram{
			Program:         c.Card(),
			Score:           res.Score,
			Category:        res.Category,
			Breakdown:       res.Breakdown,
			Reasons:         res.Reasons,
			Advice:          res.Advice,
			FinancialInfo:   res.Financial,
			ImprovementPath: res.ImprovementPath,
		}
		switch res.Category {
		case scoring.CategorySafety:
			out.Safety = append(out.Safety, sp)
		case scoring.CategoryTarget:
			out.Target = append(out.Target, sp)
		default:
			out.Reach = append(out.Reach, sp)
		}
	}

	for _, group := range [][]ScoredProgram{out.Reach, out.Target, out.Safety} {
		sort.SliceStable(group, func(i, j int) bool { return group[i].Score > group[j].Score })
	}
	out.Total = len(out.Reach) + len(out.Target) + len(out.Safety)
	return out
}

func (h *Handler) resolveProfile(ctx context.Context, input *Input) (scoring.StudentProfile, error) {
	if input.Profile != nil {
		return *input.Profile, nil
	}
	if input.UserID == "" {
		return scoring.StudentProfile{}, errors.NewInvalidProfileError("profile or userId is required", []string{"profile"})
	}

	rec, err := h.profiles.LoadStudentProfile(ctx, input.UserID)
	switch {
	case err == nil:
		return rec.Profile(), nil
	case stderrors.Is(err, repository.ErrNotFound):
		return scoring.StudentProfile{}, errors.NewProfileNotFoundError(input.UserID)
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return scoring.StudentProfile{}, errors.NewQueryTimeoutError(string(models.QueryTypeStudentProfile))
	default:
		return scoring.StudentProfile{}, errors.NewQueryExecutionFailedError(string(models.QueryTypeStudentProfile), err)
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
