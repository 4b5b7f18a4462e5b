package notification

import (
	"fmt"
	"sort"
	"strings"

	"rfv_copilot_backend/internal/events"
)

// digestPriorityOrder renders critical counts first.
var digestPriorityOrder = []string{"critico", "importante", "oportunidade"}

// BuildDigest renders the operator digest for a completed recalculation.
// Pure so the wording is testable without SMTP.
func BuildDigest(event events.RecalculationCompleted) (subject, body string) {
	subject = fmt.Sprintf("RFV Copilot: %d tarefas geradas hoje", event.TasksGenerated)

	var b strings.Builder
	fmt.Fprintf(&b, "Recálculo concluído em %s.\n\n", event.OccurredAt().Format("02/01/2006 15:04"))
	fmt.Fprintf(&b, "Clientes analisados: %d\n", event.Snapshots)
	fmt.Fprintf(&b, "Tarefas geradas: %d\n", event.TasksGenerated)

	if event.TasksGenerated > 0 {
		b.WriteString("\nPor prioridade:\n")
		for _, priority := range digestPriorityOrder {
			if count, ok := event.TasksByPriority[priority]; ok && count > 0 {
				fmt.Fprintf(&b, "  - %s: %d\n", priority, count)
			}
		}
		// Any priority outside the known set still shows up.
		extras := make([]string, 0)
		for priority, count := range event.TasksByPriority {
			if !knownPriority(priority) && count > 0 {
				extras = append(extras, fmt.Sprintf("  - %s: %d\n", priority, count))
			}
		}
		sort.Strings(extras)
		for _, line := range extras {
			b.WriteString(line)
		}
	}

	b.WriteString("\nAcesse o painel para trabalhar a fila do dia.\n")
	return subject, b.String()
}

func knownPriority(priority string) bool {
	for _, p := range digestPriorityOrder {
		if p == priority {
			return true
		}
	}
	return false
}
