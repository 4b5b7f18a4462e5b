package service

import (
	"context"
	"sync"
	"time"

	"rfv_copilot_backend/internal/events"
	"rfv_copilot_backend/internal/rfv/classifier"
	"rfv_copilot_backend/internal/rfv/domain"
	"rfv_copilot_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// classifyConcurrency bounds the per-customer fan-out of a recalculation pass.
const classifyConcurrency = 8

// RecalculateResult reports what a recalculation pass did. Running the pass
// again on an unchanged ledger yields the same snapshots and zero new tasks.
type RecalculateResult struct {
	Snapshots       int
	TasksGenerated  int
	TasksByPriority map[domain.Priority]int
	TasksByType     map[domain.TaskType]int
}

// Recalculate rebuilds every customer snapshot from the ledger and generates
// the day's outreach tasks. The (customer, day) uniqueness rule in the task
// repository makes repeated runs idempotent.
func (s *Service) Recalculate(ctx context.Context) (RecalculateResult, error) {
	start := s.now()
	result := RecalculateResult{
		TasksByPriority: make(map[domain.Priority]int),
		TasksByType:     make(map[domain.TaskType]int),
	}

	ordersByCustomer, err := s.ledger.PaidOrdersByCustomer(ctx)
	if err != nil {
		return result, s.passFailed("recalculate", start, err)
	}

	snapshots := s.calculator.Compute(ordersByCustomer, start)
	if err := s.snapshots.Replace(ctx, snapshots); err != nil {
		return result, s.passFailed("recalculate", start, err)
	}
	result.Snapshots = len(snapshots)

	names, err := s.ledger.CustomerNames(ctx)
	if err != nil {
		return result, s.passFailed("recalculate", start, err)
	}

	templateBodies, err := s.loadTemplateBodies(ctx)
	if err != nil {
		return result, s.passFailed("recalculate", start, err)
	}

	classifierCfg := classifier.Config{
		PostPurchaseDays: s.cfg.PostPurchaseDays,
		TaskExpiryDays:   s.cfg.TaskExpiryDays,
		Bands:            s.cfg.Policy.Deviation,
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(classifyConcurrency)

	for _, snap := range snapshots {
		group.Go(func() error {
			decision, ok := classifier.Classify(snap, ordersByCustomer[snap.CustomerID], start, classifierCfg)
			if !ok {
				return nil
			}

			message := s.renderMessage(templateBodies, decision.Type, snap, names[snap.CustomerID])
			task := classifier.BuildTask(snap, decision, message, start, s.now(), s.cfg.TaskExpiryDays)
			task.ID = uuid.New()

			inserted, err := s.tasks.InsertIfAbsent(groupCtx, task)
			if err != nil {
				return err
			}
			if !inserted {
				return nil
			}

			mu.Lock()
			result.TasksGenerated++
			result.TasksByPriority[task.Priority]++
			result.TasksByType[task.Type]++
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return result, s.passFailed("recalculate", start, err)
	}

	duration := s.now().Sub(start)
	if s.log != nil {
		s.log.BatchPass("recalculate", result.TasksGenerated, duration, nil)
	}
	if s.metrics != nil {
		s.metrics.SnapshotsRecalculated.Add(float64(result.Snapshots))
		for taskType, count := range result.TasksByType {
			s.metrics.TasksGenerated.WithLabelValues(string(taskType)).Add(float64(count))
		}
		s.metrics.PassDuration.WithLabelValues("recalculate").Observe(duration.Seconds())
	}
	if s.bus != nil {
		byPriority := make(map[string]int, len(result.TasksByPriority))
		for priority, count := range result.TasksByPriority {
			byPriority[string(priority)] = count
		}
		s.bus.Publish(ctx, events.RecalculationCompleted{
			BaseEvent:       events.NewBaseEvent(),
			Snapshots:       result.Snapshots,
			TasksGenerated:  result.TasksGenerated,
			TasksByPriority: byPriority,
			Duration:        duration,
		})
	}

	return result, nil
}

// loadTemplateBodies preloads all message templates so the fan-out never hits
// the template store per customer.
func (s *Service) loadTemplateBodies(ctx context.Context) (map[domain.TaskType]map[domain.ChannelContext]string, error) {
	templates, err := s.templates.List(ctx)
	if err != nil {
		return nil, err
	}

	bodies := make(map[domain.TaskType]map[domain.ChannelContext]string)
	for _, tpl := range templates {
		if bodies[tpl.TaskType] == nil {
			bodies[tpl.TaskType] = make(map[domain.ChannelContext]string)
		}
		bodies[tpl.TaskType][tpl.ChannelContext] = tpl.Body
	}
	return bodies, nil
}

// renderMessage resolves the template body for the task type and the
// customer's channel context, falling back first to the general context and
// then to the built-in message.
func (s *Service) renderMessage(bodies map[domain.TaskType]map[domain.ChannelContext]string, taskType domain.TaskType, snap domain.Snapshot, customerName string) string {
	data := classifier.MessageData{
		CustomerName:   customerName,
		Segment:        snap.Segment,
		AvgTicketCents: snap.AvgTicketCents,
	}

	if byChannel, ok := bodies[taskType]; ok {
		if body, ok := byChannel[snap.PreferredChannel]; ok {
			return classifier.RenderMessage(body, data)
		}
		if body, ok := byChannel[domain.ChannelContextGeneral]; ok {
			return classifier.RenderMessage(body, data)
		}
	}
	return classifier.FallbackMessage(taskType, data)
}

func (s *Service) passFailed(pass string, start time.Time, err error) error {
	if s.log != nil {
		s.log.BatchPass(pass, 0, s.now().Sub(start), err)
	}
	if s.metrics != nil {
		s.metrics.PassFailures.WithLabelValues(pass).Inc()
	}
	return apperr.Wrap(apperr.KindInternal, pass+" pass failed", err)
}
