package querypostgresql

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
	"unichance/internal/models"
	"unichance/internal/repository"
	"unichance/internal/workers/data-access/query-postgresql/queries"
)

const (
	TaskType = "query-postgresql"
)

type Handler struct {
	config       *Config
	store        *repository.Store
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, store *repository.Store, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		stdErr := errors.NewInvalidFilterFormatError(fmt.Sprintf("parse input: %v", err))
		timer.Done(string(stdErr.Code))
		h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidFilterFormatError("input cannot be nil")
	}

	queryType := models.QueryType(input.QueryType)
	if _, exists := queries.Registry[queryType]; !exists {
		return nil, errors.NewInvalidQueryTypeError(input.QueryType)
	}

	params := make(map[string]interface{})
	if input.ProgramID != 0 {
		params["programId"] = input.ProgramID
	}
	if input.UserID != "" {
		params["userId"] = input.UserID
	}
	if input.AsOfYear != 0 {
		params["asOfYear"] = input.AsOfYear
	}
	if input.Search != nil {
		params["search"] = *input.Search
	}

	data, rowCount, execTime, err := queries.Execute(ctx, h.store, queryType, params)
	if err != nil {
		switch {
		case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, errors.NewQueryTimeoutError(input.QueryType)
		case stderrors.Is(err, queries.ErrMissingParam):
			return nil, errors.NewInvalidFilterFormatError(err.Error())
		default:
			return nil, errors.NewQueryExecutionFailedError(input.QueryType, err)
		}
	}

	h.logger.Debug("query executed", map[string]interface{}{
		"queryType":     input.QueryType,
		"rowCount":      rowCount,
		"executionTime": execTime,
	})

	return &Output{
		Data:               data,
		RowCount:           rowCount,
		QueryExecutionTime: execTime,
	}, nil
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
