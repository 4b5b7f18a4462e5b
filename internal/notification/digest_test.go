package notification

import (
	"strings"
	"testing"
	"time"

	"rfv_copilot_backend/internal/events"
)

func TestBuildDigest(t *testing.T) {
	event := events.RecalculationCompleted{
		BaseEvent:      events.BaseEvent{Timestamp: time.Date(2026, 7, 1, 6, 0, 0, 0, time.UTC)},
		Snapshots:      240,
		TasksGenerated: 17,
		TasksByPriority: map[string]int{
			"critico":      5,
			"importante":   8,
			"oportunidade": 4,
		},
	}

	subject, body := BuildDigest(event)

	if !strings.Contains(subject, "17") {
		t.Errorf("subject %q must carry the task count", subject)
	}
	if !strings.Contains(body, "Clientes analisados: 240") {
		t.Errorf("body missing snapshot count:\n%s", body)
	}

	// Critical work is listed before the rest.
	criticoIdx := strings.Index(body, "critico: 5")
	oportunidadeIdx := strings.Index(body, "oportunidade: 4")
	if criticoIdx == -1 || oportunidadeIdx == -1 || criticoIdx > oportunidadeIdx {
		t.Errorf("priorities out of order:\n%s", body)
	}
}

func TestBuildDigestZeroTasks(t *testing.T) {
	subject, body := BuildDigest(events.RecalculationCompleted{
		BaseEvent: events.NewBaseEvent(),
		Snapshots: 100,
	})

	if !strings.Contains(subject, "0 tarefas") {
		t.Errorf("subject = %q, want zero-task wording", subject)
	}
	if strings.Contains(body, "Por prioridade") {
		t.Errorf("zero-task digest must not list priorities:\n%s", body)
	}
}
