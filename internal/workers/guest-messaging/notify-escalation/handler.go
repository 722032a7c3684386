// internal/workers/guest-messaging/notify-escalation/handler.go
package notifyescalation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"stayflow-workers/internal/common/errors"
	"stayflow-workers/internal/common/logger"
	"stayflow-workers/internal/common/metrics"
	"stayflow-workers/internal/models"
)

const (
	TaskType = "notify-escalation"

	// Guest messages get clipped in the email body so a rambling message
	// doesn't bury the escalation reason.
	messageExcerptLimit = 300
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// EscalationStore resolves the host responsible for a thread's property and
// keeps the delivery audit trail.
type EscalationStore interface {
	LoadHostContact(ctx context.Context, threadID string) (*models.HostContact, error)
	RecordNotification(ctx context.Context, rec *models.NotificationRecord) error
}

type Handler struct {
	config    *Config
	store     EscalationStore
	logger    logger.Logger
	errs      *errors.ErrorHandler
	sesClient SESService
	snsClient SNSService
}

func NewHandler(config *Config, store EscalationStore, log logger.Logger) (*Handler, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:    config,
		store:     store,
		logger:    scoped,
		errs:      errors.NewErrorHandler(scoped),
		sesClient: ses.NewFromConfig(awsCfg),
		snsClient: sns.NewFromConfig(awsCfg),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, errors.NewJobValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output := h.execute(ctx, &input)
	h.completeJob(client, job, output)
}

// execute notifies the responsible host and records the outcome. A missing
// contact or a delivery failure completes the job with a non-sent status
// rather than failing it; the guest-facing flow already escalated and must
// not stall on this leg.
func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	output := h.notify(ctx, input)
	h.recordOutcome(ctx, input.ThreadID, output)
	return output
}

func (h *Handler) notify(ctx context.Context, input *Input) *Output {
	notificationID := uuid.New().String()
	sentAt := time.Now().UTC().Format(time.RFC3339)

	contact, err := h.store.LoadHostContact(ctx, input.ThreadID)
	if err != nil {
		h.logger.Warn("no host contact for thread", map[string]interface{}{
			"threadId": input.ThreadID,
			"error":    err.Error(),
		})
		return &Output{NotificationID: notificationID, Status: StatusSkipped, SentAt: sentAt}
	}

	subject, body := h.renderNotification(input, contact)

	emailSent := false
	smsSent := false

	if h.config.EmailEnabled && contact.Email != "" {
		if err := h.sendEmail(ctx, contact.Email, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"threadId": input.ThreadID,
				"error":    err.Error(),
			})
			return &Output{NotificationID: notificationID, Status: StatusFailed, SentAt: sentAt}
		}
		emailSent = true
	}

	// SMS is reserved for urgent escalations so hosts are not paged for
	// routine confidence dips.
	if h.config.SMSEnabled && contact.Phone != "" && input.Urgency == h.config.UrgencyThreshold {
		if err := h.sendSMS(ctx, contact.Phone, h.renderSMS(input)); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"threadId": input.ThreadID,
				"error":    err.Error(),
			})
			return &Output{NotificationID: notificationID, Status: StatusFailed, EmailSent: emailSent, SentAt: sentAt}
		}
		smsSent = true
	}

	status := StatusSkipped
	if emailSent || smsSent {
		status = StatusSent
	}

	return &Output{
		NotificationID: notificationID,
		Status:         status,
		EmailSent:      emailSent,
		SMSSent:        smsSent,
		SentAt:         sentAt,
	}
}

// recordOutcome writes the audit row. Failures are logged and swallowed; the
// delivery attempt already happened.
func (h *Handler) recordOutcome(ctx context.Context, threadID string, output *Output) {
	sentAt, err := time.Parse(time.RFC3339, output.SentAt)
	if err != nil {
		sentAt = time.Now().UTC()
	}

	err = h.store.RecordNotification(ctx, &models.NotificationRecord{
		ID:        output.NotificationID,
		ThreadID:  threadID,
		Status:    output.Status,
		EmailSent: output.EmailSent,
		SMSSent:   output.SMSSent,
		SentAt:    sentAt,
	})
	if err != nil {
		h.logger.Warn("notification record write failed", map[string]interface{}{
			"threadId": threadID,
			"error":    err.Error(),
		})
	}
}

func (h *Handler) renderNotification(input *Input, contact *models.HostContact) (string, string) {
	subject := "Guest conversation needs your attention"
	if input.PropertyName != "" {
		subject = fmt.Sprintf("Guest conversation at %s needs your attention", input.PropertyName)
	}

	excerpt := input.GuestMessage
	if len(excerpt) > messageExcerptLimit {
		excerpt = excerpt[:messageExcerptLimit] + "..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", contact.Name)
	fmt.Fprintf(&b, "An automatic reply was held back and needs your review.\n\n")
	fmt.Fprintf(&b, "Reason: %s\n", input.EscalationReason)
	if input.GuestName != "" {
		fmt.Fprintf(&b, "Guest: %s\n", input.GuestName)
	}
	fmt.Fprintf(&b, "Thread: %s\n\n", input.ThreadID)
	fmt.Fprintf(&b, "Guest message:\n%s\n", excerpt)

	return subject, b.String()
}

func (h *Handler) renderSMS(input *Input) string {
	return fmt.Sprintf("Urgent guest escalation: %s (thread %s)", input.EscalationReason, input.ThreadID)
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
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
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *errors.StandardError) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errs.HandleJobError(context.Background(), client, job, stdErr)
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	return h.execute(ctx, input)
}
