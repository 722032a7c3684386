// cmd/tools/worker-generator/main.go
//
// Scaffolds a new job worker package under internal/workers/<domain>/<task>
// following the layout used by the existing guest-messaging workers.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// WorkerData holds data for templates
type WorkerData struct {
	Name        string
	PackageName string
	TaskType    string
	Domain      string
}

const configTemplate = `// internal/workers/{{ .Domain }}/{{ .TaskType }}/config.go
package {{ .PackageName }}

import "time"

type Config struct {
	Timeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
`

const modelsTemplate = `// internal/workers/{{ .Domain }}/{{ .TaskType }}/models.go
package {{ .PackageName }}

type Input struct {
	// Add input fields with json tags matching the process variables.
}

type Output struct {
	// Add output fields with json tags matching the process variables.
}
`

const handlerTemplate = `// internal/workers/{{ .Domain }}/{{ .TaskType }}/handler.go
package {{ .PackageName }}

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"stayflow-workers/internal/common/logger"
	"stayflow-workers/internal/common/metrics"
)

const TaskType = "{{ .TaskType }}"

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
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
		h.failJob(client, job, "JOB_VALIDATION_FAILED", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output := h.execute(ctx, &input)
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	// Business logic goes here.
	return &Output{}
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	return h.execute(ctx, input)
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"stayflow-workers/internal/common/logger"
)

func TestExecute(t *testing.T) {
	h := NewHandler(DefaultConfig(), logger.NewTestLogger(t))

	output := h.Execute(context.Background(), &Input{})

	assert.NotNil(t, output)
}
`

func main() {
	taskType := flag.String("task", "", "Task type for the new worker (e.g., sync-calendar)")
	domain := flag.String("domain", "guest-messaging", "Domain directory under internal/workers/")
	outputDir := flag.String("output", "./internal/workers/", "Output directory for the generated worker")
	flag.Parse()

	if *taskType == "" {
		fmt.Println("Usage: worker-generator --task <task-type> [--domain <domain>] [--output <dir>]")
		fmt.Println("\nExample:")
		fmt.Println("  go run cmd/tools/worker-generator/main.go --task sync-calendar --domain guest-messaging")
		os.Exit(1)
	}

	data := WorkerData{
		Name:        *taskType,
		PackageName: strings.ReplaceAll(*taskType, "-", ""),
		TaskType:    *taskType,
		Domain:      *domain,
	}

	workerDir := filepath.Join(*outputDir, *domain, *taskType)
	if err := os.MkdirAll(workerDir, 0755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}

	templates := map[string]string{
		"config.go":       configTemplate,
		"models.go":       modelsTemplate,
		"handler.go":      handlerTemplate,
		"handler_test.go": testTemplate,
	}

	for filename, tmplStr := range templates {
		tmpl, err := template.New(filename).Parse(tmplStr)
		if err != nil {
			fmt.Printf("Error parsing template %s: %v\n", filename, err)
			continue
		}

		filePath := filepath.Join(workerDir, filename)
		file, err := os.Create(filePath)
		if err != nil {
			fmt.Printf("Error creating file %s: %v\n", filePath, err)
			continue
		}

		if err := tmpl.Execute(file, data); err != nil {
			fmt.Printf("Error executing template for %s: %v\n", filename, err)
		}
		file.Close()

		fmt.Printf("Generated %s\n", filePath)
	}

	fmt.Printf("\nWorker scaffold generated at: %s\n", workerDir)
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  1. Fill in Input/Output in models.go\n")
	fmt.Printf("  2. Implement execute in handler.go\n")
	fmt.Printf("  3. Register the worker in cmd/worker-manager/main.go\n")
	fmt.Printf("  4. Add configuration to configs/config.yaml\n")
}
