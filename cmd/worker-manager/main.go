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

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"formdesk-workers/internal/common/aws"
	"formdesk-workers/internal/common/camunda"
	"formdesk-workers/internal/common/config"
	"formdesk-workers/internal/common/database"
	"formdesk-workers/internal/common/logger"
	"formdesk-workers/internal/common/observability"
	"formdesk-workers/internal/export/pdf"
	"formdesk-workers/internal/syncstate"
	"formdesk-workers/internal/wordpress"
	"formdesk-workers/pkg/registry"

	csvw "formdesk-workers/internal/workers/export/export-submissions-csv"
	pdfw "formdesk-workers/internal/workers/export/generate-consent-pdf"
	fetchw "formdesk-workers/internal/workers/submission/fetch-submissions"
	syncw "formdesk-workers/internal/workers/sync/sync-client"
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

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client (retries transient connect failures itself) ---
	camundaClient, err := camunda.Connect(&camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init collaborator clients ---
	wpClient, err := wordpress.NewClient(
		config.GetDuration(cfg.WordPress.RequestTimeout),
		config.GetDuration(cfg.WordPress.SignatureTimeout),
		log,
	)
	if err != nil {
		zapLog.Fatal("wordpress client init failed", zap.Error(err))
	}

	var sesClient *aws.SESClient
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err = aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
	}

	var snsClient *aws.SNSClient
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err = aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
	}

	reducer := syncstate.NewReducer(
		time.Duration(cfg.Export.SyncStatusTTL)*time.Second,
		redis,
		log,
	)
	defer reducer.Stop()

	zapLog.Info("All external service clients initialized")

	// --- Activity registry ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	zapLog.Info("Activity registry loaded",
		zap.String("version", reg.Version),
		zap.Strings("taskTypes", reg.TaskTypes()),
	)

	// --- Register workers ---
	var workers []*camunda.CamundaWorker

	if wcfg := config.GetWorkerConfig(cfg, fetchw.TaskType); wcfg.Enabled {
		handler := fetchw.NewHandler(
			&fetchw.Config{
				Enabled:       true,
				MaxJobsActive: wcfg.MaxJobsActive,
				Timeout:       config.GetDuration(wcfg.Timeout),
				CacheTTL:      time.Duration(cfg.WordPress.CacheTTL) * time.Second,
			},
			log, wpClient, redis,
		)
		workers = append(workers, startWorker(zeebeClient, fetchw.TaskType, wcfg, handler, obs, log, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, csvw.TaskType); wcfg.Enabled {
		var sesService csvw.SESService
		if sesClient != nil {
			sesService = sesClient
		}
		handler := csvw.NewHandler(
			&csvw.Config{
				Enabled:       true,
				MaxJobsActive: wcfg.MaxJobsActive,
				Timeout:       config.GetDuration(wcfg.Timeout),
				FromEmail:     cfg.Integrations.AWS.SES.FromEmail,
				EmailEnabled:  cfg.Integrations.AWS.SES.Enabled,
			},
			log, sesService,
		)
		workers = append(workers, startWorker(zeebeClient, csvw.TaskType, wcfg, handler, obs, log, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, pdfw.TaskType); wcfg.Enabled {
		generator := pdf.NewGenerator(wpClient, log)
		handler := pdfw.NewHandler(
			&pdfw.Config{
				Enabled:       true,
				MaxJobsActive: wcfg.MaxJobsActive,
				Timeout:       config.GetDuration(wcfg.Timeout),
			},
			log, generator,
		)
		workers = append(workers, startWorker(zeebeClient, pdfw.TaskType, wcfg, handler, obs, log, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, syncw.TaskType); wcfg.Enabled {
		var snsService syncw.SNSService
		if snsClient != nil {
			snsService = snsClient
		}
		handler := syncw.NewHandler(
			&syncw.Config{
				Enabled:       true,
				MaxJobsActive: wcfg.MaxJobsActive,
				Timeout:       config.GetDuration(wcfg.Timeout),
				TopicARN:      cfg.Integrations.AWS.SNS.TopicARN,
				NoticeEnabled: cfg.Integrations.AWS.SNS.Enabled,
			},
			log, wpClient, reducer, snsService,
		)
		workers = append(workers, startWorker(zeebeClient, syncw.TaskType, wcfg, handler, obs, log, zapLog))
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
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/sync-status", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			status := reducer.Current()
			if status == nil {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			json.NewEncoder(w).Encode(status)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler camunda.JobHandler, obs *observability.Observability, log logger.Logger, zapLog *zap.Logger) *camunda.CamundaWorker {
	w := camunda.NewWorker(client, taskType, wcfg.MaxJobsActive, config.GetDuration(wcfg.Timeout), camunda.Instrumented(taskType, handler, obs), log)
	w.Start()

	zapLog.Info("worker registered",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return w
}
