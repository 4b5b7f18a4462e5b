package domain

import "fmt"

// Reason is the typed justification attached to a generated task. Using a
// closed set of reason types keeps the rendered text and the reporting
// contract (the escalation threshold must appear verbatim) in one place.
type Reason interface {
	// Code identifies the reason type for persistence and reporting.
	Code() string
	// Render produces the operator-facing justification text.
	Render() string
	// DeviationPercent returns the cycle deviation behind the reason,
	// or 0 when the reason is not cycle-based.
	DeviationPercent() float64
}

const (
	ReasonCodePostPurchase     = "pos_compra_dn"
	ReasonCodeApproachingCycle = "ciclo_aproximando"
	ReasonCodeCycleExceeded    = "ciclo_excedido"
)

// PostPurchaseReason marks a D+N follow-up after a recent purchase.
type PostPurchaseReason struct {
	Days int
}

func (r PostPurchaseReason) Code() string { return ReasonCodePostPurchase }

func (r PostPurchaseReason) DeviationPercent() float64 { return 0 }

func (r PostPurchaseReason) Render() string {
	return fmt.Sprintf("Acompanhamento D+%d: cliente realizou uma compra há %d dias; momento ideal para agradecer e coletar feedback.", r.Days, r.Days)
}

// ApproachingCycleReason marks a customer inside the preventive window,
// approaching their typical repurchase interval.
type ApproachingCycleReason struct {
	Deviation float64 // percent of the individual cycle already elapsed
}

func (r ApproachingCycleReason) Code() string { return ReasonCodeApproachingCycle }

func (r ApproachingCycleReason) DeviationPercent() float64 { return r.Deviation }

func (r ApproachingCycleReason) Render() string {
	return fmt.Sprintf("Cliente atingiu %.0f%% do ciclo individual de recompra; janela preventiva para antecipar a próxima compra.", r.Deviation)
}

// CycleExceededReason marks a customer past their typical repurchase
// interval. When the deviation also crossed the escalation threshold, the
// rendered text states that threshold verbatim for escalation reporting.
type CycleExceededReason struct {
	Deviation     float64
	EscalationPct int // 0 when the escalation threshold was not crossed
}

func (r CycleExceededReason) Code() string { return ReasonCodeCycleExceeded }

func (r CycleExceededReason) DeviationPercent() float64 { return r.Deviation }

func (r CycleExceededReason) Render() string {
	text := fmt.Sprintf("Ciclo de recompra excedido: cliente está em %.0f%% do ciclo individual sem nova compra.", r.Deviation)
	if r.EscalationPct > 0 {
		text += fmt.Sprintf(" Limite de escalonamento de %d%% ultrapassado.", r.EscalationPct)
	}
	return text
}

// ReasonFromRecord rebuilds a typed Reason from its persisted columns.
// Unknown codes fall back to a cycle-exceeded reason so old rows stay readable.
func ReasonFromRecord(code string, deviation float64, escalationPct, days int) Reason {
	switch code {
	case ReasonCodePostPurchase:
		return PostPurchaseReason{Days: days}
	case ReasonCodeApproachingCycle:
		return ApproachingCycleReason{Deviation: deviation}
	default:
		return CycleExceededReason{Deviation: deviation, EscalationPct: escalationPct}
	}
}
