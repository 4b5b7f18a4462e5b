// Package classifier decides, once per calendar day per customer, whether an
// outreach task is due, what kind, and with which suggested message. The
// decision is pure; persistence and the (customer, day) uniqueness rule live
// in the repository.
package classifier

import (
	"fmt"
	"strings"
	"time"

	"rfv_copilot_backend/internal/rfv/domain"
	"rfv_copilot_backend/internal/rfv/policy"
)

// Config carries the classifier's tuning knobs.
type Config struct {
	// PostPurchaseDays is the D+N offset for post-purchase follow-ups.
	PostPurchaseDays int
	// TaskExpiryDays is how long a generated task stays actionable.
	TaskExpiryDays int
	// Bands are the cycle-deviation thresholds from the policy table.
	Bands policy.DeviationBands
}

// Decision is the outcome of classifying one customer for one day.
type Decision struct {
	Type     domain.TaskType
	Priority domain.Priority
	Reason   domain.Reason
}

// Classify returns the task decision for a customer, or ok=false when no
// task is due today. The post-purchase check takes precedence over the
// cycle-deviation checks: only one task type fires per customer per day.
func Classify(snap domain.Snapshot, orders []domain.Order, today time.Time, cfg Config) (Decision, bool) {
	if hasOrderExactlyDaysAgo(orders, today, cfg.PostPurchaseDays) {
		return Decision{
			Type:     domain.TaskTypePosCompra,
			Priority: domain.PriorityOportunidade,
			Reason:   domain.PostPurchaseReason{Days: cfg.PostPurchaseDays},
		}, true
	}

	// No personal cadence yet: cycle-based tasks are ineligible, full stop.
	if snap.CycleDeviationPercent == nil {
		return Decision{}, false
	}

	deviation := *snap.CycleDeviationPercent
	switch {
	case deviation >= cfg.Bands.ReactivationMinPct:
		reason := domain.CycleExceededReason{Deviation: deviation}
		if deviation >= cfg.Bands.EscalationMinPct {
			reason.EscalationPct = int(cfg.Bands.EscalationMinPct)
		}
		return Decision{
			Type:     domain.TaskTypeReativacao,
			Priority: domain.PriorityCritico,
			Reason:   reason,
		}, true

	case deviation >= cfg.Bands.PreventiveMinPct:
		return Decision{
			Type:     domain.TaskTypePreventivo,
			Priority: domain.PriorityImportante,
			Reason:   domain.ApproachingCycleReason{Deviation: deviation},
		}, true
	}

	return Decision{}, false
}

// hasOrderExactlyDaysAgo reports whether any order was paid exactly n
// calendar days before today.
func hasOrderExactlyDaysAgo(orders []domain.Order, today time.Time, n int) bool {
	for _, o := range orders {
		if calendarDaysBetween(o.PaidAt, today) == n {
			return true
		}
	}
	return false
}

// calendarDaysBetween counts whole calendar days from a to b, ignoring the
// time of day.
func calendarDaysBetween(a, b time.Time) int {
	aDay := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bDay := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bDay.Sub(aDay).Hours() / 24)
}

// MessageData carries the substitution values for a template body.
type MessageData struct {
	CustomerName   string
	Segment        domain.Segment
	AvgTicketCents int64
}

// RenderMessage substitutes the {{nome}}, {{segmento}}, and {{ticket_medio}}
// placeholders of a template body.
func RenderMessage(body string, data MessageData) string {
	replacer := strings.NewReplacer(
		"{{nome}}", data.CustomerName,
		"{{segmento}}", string(data.Segment),
		"{{ticket_medio}}", FormatCentsBRL(data.AvgTicketCents),
	)
	return replacer.Replace(body)
}

// FormatCentsBRL renders cents as a Brazilian currency string (R$ 1.234,56).
func FormatCentsBRL(cents int64) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}

	reais := cents / 100
	rest := cents % 100

	digits := fmt.Sprintf("%d", reais)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(d)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped.String(), rest)
}

// FallbackMessage is used when no template row exists for the task type and
// channel context.
func FallbackMessage(taskType domain.TaskType, data MessageData) string {
	name := data.CustomerName
	if strings.TrimSpace(name) == "" {
		name = "cliente"
	}

	switch taskType {
	case domain.TaskTypePosCompra:
		return fmt.Sprintf("Olá %s! Passando para agradecer sua compra e saber se está tudo certo com o pedido. Qualquer coisa, estamos à disposição!", name)
	case domain.TaskTypePreventivo:
		return fmt.Sprintf("Olá %s! Temos novidades que combinam com você. Que tal dar uma olhada antes que acabe?", name)
	default:
		return fmt.Sprintf("Olá %s! Sentimos sua falta por aqui. Preparamos uma seleção especial para você voltar a comprar com a gente!", name)
	}
}

// BuildTask assembles a persistable task from a decision and a rendered
// message. The task date is normalized to midnight UTC: it is the daily
// idempotency key, not a timestamp.
func BuildTask(snap domain.Snapshot, decision Decision, message string, today, now time.Time, expiryDays int) domain.Task {
	taskDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	return domain.Task{
		CustomerID:           snap.CustomerID,
		TaskDate:             taskDate,
		Type:                 decision.Type,
		Priority:             decision.Priority,
		Reason:               decision.Reason,
		SuggestedMessage:     message,
		ChannelContext:       snap.PreferredChannel,
		EstimatedImpactCents: snap.AvgTicketCents,
		Status:               domain.StatusPendente,
		CreatedAt:            now,
		ExpiresAt:            taskDate.AddDate(0, 0, expiryDays),
	}
}
