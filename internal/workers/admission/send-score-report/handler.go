package sendscorereport

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"unichance/internal/common/errors"
	"unichance/internal/common/logger"
	"unichance/internal/common/metrics"
	"unichance/internal/common/observability"
	"unichance/internal/common/validation"
	"unichance/internal/models"
	"unichance/internal/repository"
)

const (
	TaskType = "send-score-report"
)

// RecipientLoader is satisfied by *repository.Store.
type RecipientLoader interface {
	LoadRecipient(ctx context.Context, userID string) (*models.Recipient, error)
}

// EmailSender is satisfied by *aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, text, html string) (string, error)
}

// SMSSender is satisfied by *aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config       *Config
	recipients   RecipientLoader
	email        EmailSender
	sms          SMSSender
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, recipients RecipientLoader, email EmailSender, sms SMSSender, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		recipients:   recipients,
		email:        email,
		sms:          sms,
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

	result, err := validation.ValidateJob(validation.ScoreReportJobSchema, vars, nil)
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
	recipient, err := h.recipients.LoadRecipient(ctx, input.UserID)
	switch {
	case err == nil:
	case stderrors.Is(err, repository.ErrNotFound):
		return nil, errors.NewRecipientNotFoundError(input.UserID)
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, errors.NewQueryTimeoutError("recipient")
	default:
		return nil, errors.NewQueryExecutionFailedError("recipient", err)
	}

	msg, err := render(input, recipient)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	out := &Output{
		NotificationID: uuid.New().String(),
		Status:         models.NotificationDisabled,
		Channels:       []string{},
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	if h.config.EmailEnabled && h.email != nil && recipient.Email != "" {
		if _, err := h.email.SendEmail(ctx, recipient.Email, msg.Subject, msg.Text, msg.HTML); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":  err.Error(),
				"userId": input.UserID,
			})
			metrics.NotificationsSent.WithLabelValues(models.ChannelEmail, models.NotificationFailed).Inc()
			out.Status = models.NotificationFailed
			return out, nil
		}
		metrics.NotificationsSent.WithLabelValues(models.ChannelEmail, models.NotificationSent).Inc()
		out.Channels = append(out.Channels, models.ChannelEmail)
	}

	if h.config.SMSEnabled && h.sms != nil && input.NotifySMS && recipient.Phone != "" {
		if _, err := h.sms.SendSMS(ctx, recipient.Phone, msg.SMS); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":  err.Error(),
				"userId": input.UserID,
			})
			metrics.NotificationsSent.WithLabelValues(models.ChannelSMS, models.NotificationFailed).Inc()
			out.Status = models.NotificationFailed
			return out, nil
		}
		metrics.NotificationsSent.WithLabelValues(models.ChannelSMS, models.NotificationSent).Inc()
		out.Channels = append(out.Channels, models.ChannelSMS)
	}

	if len(out.Channels) > 0 {
		out.Status = models.NotificationSent
	}

	h.logger.Info("score report processed", map[string]interface{}{
		"userId":         input.UserID,
		"notificationId": out.NotificationID,
		"status":         out.Status,
		"channels":       out.Channels,
	})
	return out, nil
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
