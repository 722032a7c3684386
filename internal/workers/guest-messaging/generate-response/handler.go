// internal/workers/guest-messaging/generate-response/handler.go
package generateresponse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/xeipuuv/gojsonschema"

	"stayflow-workers/internal/ai/orchestrator"
	"stayflow-workers/internal/common/errors"
	"stayflow-workers/internal/common/logger"
	"stayflow-workers/internal/common/metrics"
)

const (
	TaskType = "generate-guest-response"
)

// inputSchema guards against malformed process variables before the pipeline
// runs. Validation failures are not retryable.
const inputSchema = `{
	"type": "object",
	"required": ["threadId", "message"],
	"properties": {
		"threadId": {"type": "string", "minLength": 1},
		"message": {"type": "string", "minLength": 1}
	}
}`

// ResponseGenerator is the orchestration pipeline behind this worker.
type ResponseGenerator interface {
	GenerateResponse(ctx context.Context, threadID, userMessage string) *orchestrator.Result
}

type Handler struct {
	config    *Config
	generator ResponseGenerator
	schema    *gojsonschema.Schema
	logger    logger.Logger
	errs      *errors.ErrorHandler
}

func NewHandler(config *Config, generator ResponseGenerator, log logger.Logger) (*Handler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(inputSchema))
	if err != nil {
		return nil, fmt.Errorf("compile input schema: %w", err)
	}

	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:    config,
		generator: generator,
		schema:    schema,
		logger:    scoped,
		errs:      errors.NewErrorHandler(scoped),
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

	if err := h.validateVariables(job.Variables); err != nil {
		h.failJob(client, job, errors.NewJobValidationFailedError(err.Error()))
		return
	}

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

// execute runs the pipeline and flattens its result into job variables. The
// pipeline never errors; failure shapes arrive as escalations with the
// apology text already in place.
func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	result := h.generator.GenerateResponse(ctx, input.ThreadID, input.Message)

	if result.Error != "" {
		h.logger.Warn("pipeline degraded to escalation", map[string]interface{}{
			"threadId": input.ThreadID,
			"reason":   result.EscalationReason,
			"error":    result.Error,
		})
	}

	return &Output{
		ResponseContent:  result.Content,
		Confidence:       result.Confidence,
		ShouldEscalate:   result.ShouldEscalate,
		EscalationReason: result.EscalationReason,
		Intent:           string(result.Intent),
		AITraceID:        result.TraceID,
		Provider:         result.Provider,
	}
}

func (h *Handler) validateVariables(variables string) error {
	result, err := h.schema.Validate(gojsonschema.NewStringLoader(variables))
	if err != nil {
		return fmt.Errorf("validate input: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("invalid job variables: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
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
