// Package scheduler runs the engine's batch passes on a schedule: an asynq
// worker consumes the pass tasks and a dispatcher enqueues them periodically.
package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskRecalculate = "rfv.recalculate"

const TaskAttributeRevenue = "rfv.attribute_revenue"

// PassPayload identifies one scheduled engine pass. RequestedAt is carried
// for observability only; passes always run against the current ledger.
type PassPayload struct {
	RequestedAt time.Time `json:"requestedAt"`
	TriggeredBy string    `json:"triggeredBy"`
}

func NewRecalculateTask(payload PassPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecalculate, data), nil
}

func NewAttributeRevenueTask(payload PassPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAttributeRevenue, data), nil
}

func ParsePassPayload(task *asynq.Task) (PassPayload, error) {
	var payload PassPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PassPayload{}, err
	}
	return payload, nil
}
