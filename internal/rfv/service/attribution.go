package service

import (
	"context"

	"rfv_copilot_backend/internal/events"
)

// AttributionResult reports what an attribution pass did.
type AttributionResult struct {
	TasksConverted       int
	RevenueCreditedCents int64
}

// AttributeRevenue binds executed, unconverted tasks to the customer's
// earliest order paid after execution. The conditional update in the task
// repository guarantees each task is credited at most once, however many
// passes run.
func (s *Service) AttributeRevenue(ctx context.Context) (AttributionResult, error) {
	start := s.now()
	var result AttributionResult

	candidates, err := s.tasks.ListAttributable(ctx)
	if err != nil {
		return result, s.passFailed("attribute_revenue", start, err)
	}

	for _, task := range candidates {
		if task.ExecutedAt == nil {
			continue
		}

		order, err := s.ledger.EarliestPaidOrderAfter(ctx, task.CustomerID, *task.ExecutedAt)
		if err != nil {
			return result, s.passFailed("attribute_revenue", start, err)
		}
		if order == nil {
			continue
		}

		converted, err := s.tasks.Convert(ctx, task.ID, order.ID, order.TotalCents, order.PaidAt)
		if err != nil {
			return result, s.passFailed("attribute_revenue", start, err)
		}
		if !converted {
			// Another pass bound this task first; not an error.
			continue
		}

		result.TasksConverted++
		result.RevenueCreditedCents += order.TotalCents

		if s.bus != nil {
			s.bus.Publish(ctx, events.RevenueAttributed{
				BaseEvent:    events.NewBaseEvent(),
				TaskID:       task.ID,
				CustomerID:   task.CustomerID,
				OrderID:      order.ID,
				RevenueCents: order.TotalCents,
			})
		}
	}

	duration := s.now().Sub(start)
	if s.log != nil {
		s.log.BatchPass("attribute_revenue", result.TasksConverted, duration, nil)
	}
	if s.metrics != nil {
		s.metrics.TasksConverted.Add(float64(result.TasksConverted))
		s.metrics.RevenueCreditedCents.Add(float64(result.RevenueCreditedCents))
		s.metrics.PassDuration.WithLabelValues("attribute_revenue").Observe(duration.Seconds())
	}

	return result, nil
}
