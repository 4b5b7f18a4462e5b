package scheduler

import (
	"context"
	"fmt"

	"rfv_copilot_backend/internal/rfv/service"
	"rfv_copilot_backend/platform/config"
	"rfv_copilot_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Engine is the slice of the RFV service the worker drives.
type Engine interface {
	Recalculate(ctx context.Context) (service.RecalculateResult, error)
	AttributeRevenue(ctx context.Context) (service.AttributionResult, error)
}

// Worker consumes scheduled engine passes from the asynq queue.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	engine Engine
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, engine Engine, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		engine: engine,
		log:    log,
	}

	mux.HandleFunc(TaskRecalculate, w.handleRecalculate)
	mux.HandleFunc(TaskAttributeRevenue, w.handleAttributeRevenue)

	return w, nil
}

func (w *Worker) handleRecalculate(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePassPayload(task)
	if err != nil {
		return err
	}

	result, err := w.engine.Recalculate(ctx)
	if err != nil {
		// Returning the error lets asynq retry the pass; it is idempotent.
		return err
	}

	w.log.Info("scheduled recalculation finished",
		"triggered_by", payload.TriggeredBy,
		"snapshots", result.Snapshots,
		"tasks_generated", result.TasksGenerated,
	)
	return nil
}

func (w *Worker) handleAttributeRevenue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePassPayload(task)
	if err != nil {
		return err
	}

	result, err := w.engine.AttributeRevenue(ctx)
	if err != nil {
		return err
	}

	w.log.Info("scheduled attribution finished",
		"triggered_by", payload.TriggeredBy,
		"tasks_converted", result.TasksConverted,
		"revenue_credited_cents", result.RevenueCreditedCents,
	)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
