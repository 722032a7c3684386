// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"stayflow-workers/internal/ai/escalation"
	"stayflow-workers/internal/ai/orchestrator"
	"stayflow-workers/internal/ai/provider"
	"stayflow-workers/internal/common/camunda"
	"stayflow-workers/internal/common/config"
	"stayflow-workers/internal/common/database"
	"stayflow-workers/internal/common/logger"
	"stayflow-workers/internal/common/observability"
	"stayflow-workers/internal/store"

	gr "stayflow-workers/internal/workers/guest-messaging/generate-response"
	ne "stayflow-workers/internal/workers/guest-messaging/notify-escalation"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// buildProviders returns the configured AI backends, primary first. The
// orchestrator tries them in order, so the slice order is the fallback order.
func buildProviders(cfg *config.Config) []provider.Provider {
	gemini := provider.NewGeminiProvider(provider.GeminiConfig{
		APIKey:  cfg.Providers.Gemini.APIKey,
		Model:   cfg.Providers.Gemini.Model,
		BaseURL: cfg.Providers.Gemini.BaseURL,
	})
	openai := provider.NewOpenAIProvider(provider.OpenAIConfig{
		APIKey:  cfg.Providers.OpenAI.APIKey,
		Model:   cfg.Providers.OpenAI.Model,
		BaseURL: cfg.Providers.OpenAI.BaseURL,
	})

	if cfg.Providers.Primary == "openai" {
		return []provider.Provider{openai, gemini}
	}
	return []provider.Provider{gemini, openai}
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      time.Duration(cfg.Camunda.Timeout) * time.Millisecond,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Build stores and the response orchestrator ---
	contexts := store.NewContextStore(pg, redis, time.Duration(cfg.AI.ContextCacheTTL)*time.Second, log)
	traces := store.NewTraceStore(esClient, cfg.AI.TraceIndex, log)

	engine := orchestrator.New(
		buildProviders(cfg),
		contexts,
		traces,
		orchestrator.Config{
			ProviderTimeout: time.Duration(cfg.AI.ProviderTimeout) * time.Millisecond,
			Escalation: escalation.Config{
				ConfidenceThreshold: cfg.AI.ConfidenceThreshold,
				MaxMessageLength:    cfg.AI.MaxMessageLength,
				MaxQuestionMarks:    cfg.AI.MaxQuestionMarks,
			},
		},
		log,
	)
	zapLog.Info("Response orchestrator initialized",
		zap.String("primaryProvider", cfg.Providers.Primary),
	)

	// --- Register Workers ---

	if cfg.Workers[gr.TaskType].Enabled {
		handler, err := gr.NewHandler(
			&gr.Config{
				Timeout: time.Duration(cfg.Workers[gr.TaskType].Timeout) * time.Millisecond,
			},
			engine, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create generate-guest-response handler", zap.Error(err))
		}
		startWorker(zeebeClient, gr.TaskType, cfg.Workers[gr.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ne.TaskType].Enabled {
		handler, err := ne.NewHandler(
			&ne.Config{
				Timeout:          time.Duration(cfg.Workers[ne.TaskType].Timeout) * time.Millisecond,
				EmailEnabled:     cfg.Notifications.Email.Enabled,
				FromEmail:        cfg.Notifications.Email.FromEmail,
				SMSEnabled:       cfg.Notifications.SMS.Enabled,
				UrgencyThreshold: cfg.Notifications.SMS.UrgencyThreshold,
				AWSRegion:        cfg.Notifications.AWS.Region,
			},
			contexts, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create notify-escalation handler", zap.Error(err))
		}
		startWorker(zeebeClient, ne.TaskType, cfg.Workers[ne.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			if err := pg.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"reason": "postgres unreachable",
				})
				return
			}
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"reason": "zeebe unreachable",
				})
				return
			}

			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
