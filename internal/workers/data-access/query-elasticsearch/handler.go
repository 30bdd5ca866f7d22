package queryelasticsearch

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"

	"unichance/internal/common/errors"
	"unichance/internal/common/logger"
	"unichance/internal/common/metrics"
	"unichance/internal/common/observability"
	"unichance/internal/workers/data-access/query-elasticsearch/queries"
)

const (
	TaskType = "query-elasticsearch"
)

type Handler struct {
	config       *Config
	client       *elasticsearch.Client
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		client:       client,
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

	index := input.IndexName
	if index == "" {
		index = h.config.ProgramsIndex
	}

	q := queries.ProgramQuery{
		Index:        index,
		QueryType:    input.QueryType,
		Keywords:     input.Filters.Keywords,
		Countries:    input.Filters.Countries,
		DegreeLevels: input.Filters.DegreeLevels,
		Fields:       input.Filters.Fields,
		MinTuition:   input.Filters.MinTuition,
		MaxTuition:   input.Filters.MaxTuition,
		SortBy:       input.Sort.By,
		SortOrder:    input.Sort.Order,
		From:         input.From,
		Size:         input.Size,
	}

	result, err := queries.Execute(ctx, h.client, q)
	if err != nil {
		var notFound *queries.IndexNotFoundError
		switch {
		case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, errors.NewSearchTimeoutError(index)
		case stderrors.As(err, &notFound):
			return nil, errors.NewIndexNotFoundError(notFound.Index)
		case stderrors.Is(err, queries.ErrUnknownQueryType),
			stderrors.Is(err, queries.ErrInvalidSort),
			stderrors.Is(err, queries.ErrMissingIndex):
			return nil, errors.NewInvalidFilterFormatError(err.Error())
		default:
			return nil, errors.NewSearchQueryFailedError(index, err)
		}
	}

	h.logger.Debug("search executed", map[string]interface{}{
		"index":     index,
		"totalHits": result.TotalHits,
		"returned":  len(result.Hits),
		"took":      result.Took,
	})

	return &Output{
		ProgramIDs: result.ProgramIDs,
		Hits:       result.Hits,
		TotalHits:  result.TotalHits,
		MaxScore:   result.MaxScore,
		Took:       result.Took,
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
