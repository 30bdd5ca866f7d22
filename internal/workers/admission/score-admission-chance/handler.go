package scoreadmissionchance

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"unichance/internal/common/errors"
	"unichance/internal/common/logger"
	"unichance/internal/common/metrics"
	"unichance/internal/common/observability"
	"unichance/internal/common/validation"
	"unichance/internal/repository"
	"unichance/internal/scoring"
)

const (
	TaskType = "score-admission-chance"
)

type Handler struct {
	config       *Config
	loader       repository.Loader
	scorer       *scoring.Scorer
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, loader repository.Loader, scorer *scoring.Scorer, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		loader:       loader,
		scorer:       scorer,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
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
	if err != nil {
		stdErr := errors.Normalize(err)
		timer.Done(string(stdErr.Code))
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
		h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
		return
	}

	timer.Done("")
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
	h.completeJob(client, job, output)
}

func (h *Handler) parseAndExecute(ctx context.Context, variables string) (*Output, error) {
	input, err := parseInput(variables)
	if err != nil {
		return nil, err
	}
	return h.execute(ctx, input)
}

// parseInput validates the raw variables before decoding them.
func parseInput(variables string) (*Input, error) {
	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &vars); err != nil {
		return nil, errors.NewInvalidProfileError(fmt.Sprintf("parse input: %v", err), nil)
	}

	result, err := validation.ValidateJob(validation.ScoreJobSchema, vars, nil)
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
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	weights, ok := scoring.LookupWeightSet(input.WeightSet)
	if !ok {
		return nil, errors.NewInvalidWeightSetError(input.WeightSet)
	}
	scorer := h.scorer
	if weights != scorer.Weights() {
		var err error
		if scorer, err = scorer.WithWeights(weights); err != nil {
			return nil, errors.NewInternalError(err)
		}
	}

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

	program, err := h.loader.LoadProgram(ctx, input.ProgramID, asOfYear)
	if err != nil {
		switch {
		case stderrors.Is(err, repository.ErrNotFound):
			return nil, errors.NewProgramNotFoundError(input.ProgramID)
		case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, errors.NewQueryTimeoutError("program_requirements")
		default:
			return nil, errors.NewRequirementsLoadFailedError(input.ProgramID, err)
		}
	}

	result := scorer.Score(profile, program.Requirements(asOfYear))

	metrics.RecordScore(result.WeightSet, string(result.Category), result.Score)
	h.obs.RecordScore(ctx, result.WeightSet, string(result.Category), result.Score)

	h.logger.Info("admission chance scored", map[string]interface{}{
		"programId": input.ProgramID,
		"userId":    input.UserID,
		"score":     result.Score,
		"category":  result.Category,
		"weightSet": result.WeightSet,
	})

	return &Output{
		ProgramID:       input.ProgramID,
		Score:           result.Score,
		Category:        result.Category,
		Breakdown:       result.Breakdown,
		Reasons:         result.Reasons,
		Advice:          result.Advice,
		FinancialInfo:   result.Financial,
		ImprovementPath: result.ImprovementPath,
		WeightSet:       result.WeightSet,
		ScoredAt:        time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// resolveProfile prefers the inline profile over the stored one.
func (h *Handler) resolveProfile(ctx context.Context, input *Input) (scoring.StudentProfile, error) {
	if input.Profile != nil {
		return *input.Profile, nil
	}

	rec, err := h.loader.LoadStudentProfile(ctx, input.UserID)
	switch {
	case err == nil:
		return rec.Profile(), nil
	case stderrors.Is(err, repository.ErrNotFound):
		return scoring.StudentProfile{}, errors.NewProfileNotFoundError(input.UserID)
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return scoring.StudentProfile{}, errors.NewQueryTimeoutError("student_profile")
	default:
		return scoring.StudentProfile{}, errors.NewQueryExecutionFailedError("student_profile", err)
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
