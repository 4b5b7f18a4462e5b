package classifier

import (
	"strings"
	"testing"
	"time"

	"rfv_copilot_backend/internal/rfv/domain"
	"rfv_copilot_backend/internal/rfv/policy"

	"github.com/google/uuid"
)

var today = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		PostPurchaseDays: 3,
		TaskExpiryDays:   7,
		Bands:            policy.Default().Deviation,
	}
}

func snapWithDeviation(deviation *float64) domain.Snapshot {
	avg := 10.0
	snap := domain.Snapshot{
		CustomerID:       uuid.New(),
		Frequency:        4,
		AvgTicketCents:   15000,
		PreferredChannel: domain.ChannelContextSite,
	}
	if deviation != nil {
		snap.CycleAvgDays = &avg
		snap.CycleDeviationPercent = deviation
	}
	return snap
}

func dev(v float64) *float64 { return &v }

func orderPaidDaysAgo(daysAgo int) domain.Order {
	return domain.Order{
		ID:     uuid.New(),
		PaidAt: today.AddDate(0, 0, -daysAgo),
	}
}

func TestClassifyPostPurchaseTakesPrecedence(t *testing.T) {
	// Customer is deep into reactivation territory but bought 3 days ago.
	snap := snapWithDeviation(dev(150))
	orders := []domain.Order{orderPaidDaysAgo(30), orderPaidDaysAgo(3)}

	decision, ok := Classify(snap, orders, today, testConfig())
	if !ok {
		t.Fatal("expected a decision")
	}
	if decision.Type != domain.TaskTypePosCompra {
		t.Errorf("type = %q, want %q", decision.Type, domain.TaskTypePosCompra)
	}
	if decision.Priority != domain.PriorityOportunidade {
		t.Errorf("priority = %q, want %q", decision.Priority, domain.PriorityOportunidade)
	}
	if !strings.Contains(decision.Reason.Render(), "D+3") {
		t.Errorf("reason %q must reference the D+3 follow-up", decision.Reason.Render())
	}
}

func TestClassifyPostPurchaseOnlyOnExactDay(t *testing.T) {
	snap := snapWithDeviation(nil)

	for _, daysAgo := range []int{1, 2, 4, 10} {
		orders := []domain.Order{orderPaidDaysAgo(daysAgo)}
		if _, ok := Classify(snap, orders, today, testConfig()); ok {
			t.Errorf("order paid %d days ago must not trigger a D+3 task", daysAgo)
		}
	}
}

func TestClassifyDeviationBands(t *testing.T) {
	tests := []struct {
		name         string
		deviation    *float64
		wantOK       bool
		wantType     domain.TaskType
		wantPriority domain.Priority
		wantInReason string
	}{
		{"below preventive band", dev(69.9), false, "", "", ""},
		{"start of preventive band", dev(70), true, domain.TaskTypePreventivo, domain.PriorityImportante, ""},
		{"inside preventive band", dev(85), true, domain.TaskTypePreventivo, domain.PriorityImportante, ""},
		{"end of preventive band", dev(99.9), true, domain.TaskTypePreventivo, domain.PriorityImportante, ""},
		{"reactivation threshold", dev(100), true, domain.TaskTypeReativacao, domain.PriorityCritico, ""},
		{"escalated reactivation", dev(130), true, domain.TaskTypeReativacao, domain.PriorityCritico, "130%"},
		{"far past escalation", dev(250), true, domain.TaskTypeReativacao, domain.PriorityCritico, "130%"},
		{"undefined cycle", nil, false, "", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := snapWithDeviation(tc.deviation)
			decision, ok := Classify(snap, nil, today, testConfig())
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if decision.Type != tc.wantType {
				t.Errorf("type = %q, want %q", decision.Type, tc.wantType)
			}
			if decision.Priority != tc.wantPriority {
				t.Errorf("priority = %q, want %q", decision.Priority, tc.wantPriority)
			}
			if tc.wantInReason != "" && !strings.Contains(decision.Reason.Render(), tc.wantInReason) {
				t.Errorf("reason %q missing %q", decision.Reason.Render(), tc.wantInReason)
			}
		})
	}
}

func TestClassifySingleOrderNeverCycleBased(t *testing.T) {
	// One paid order: no cadence. Only the post-purchase check may fire.
	snap := snapWithDeviation(nil)
	snap.Frequency = 1

	orders := []domain.Order{orderPaidDaysAgo(3)}
	decision, ok := Classify(snap, orders, today, testConfig())
	if !ok || decision.Type != domain.TaskTypePosCompra {
		t.Fatalf("expected pos_compra for the D+3 order, got ok=%v type=%q", ok, decision.Type)
	}

	orders = []domain.Order{orderPaidDaysAgo(90)}
	if _, ok := Classify(snap, orders, today, testConfig()); ok {
		t.Error("a customer with one old order must receive no cycle-based task")
	}
}

func TestRenderMessage(t *testing.T) {
	body := "Olá {{nome}}! Seu perfil {{segmento}} tem ticket médio de {{ticket_medio}}."
	got := RenderMessage(body, MessageData{
		CustomerName:   "Maria",
		Segment:        domain.SegmentFiel,
		AvgTicketCents: 123456,
	})
	want := "Olá Maria! Seu perfil fiel tem ticket médio de R$ 1.234,56."
	if got != want {
		t.Errorf("RenderMessage = %q, want %q", got, want)
	}
}

func TestFormatCentsBRL(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "R$ 0,00"},
		{5, "R$ 0,05"},
		{123456, "R$ 1.234,56"},
		{100000000, "R$ 1.000.000,00"},
		{-9950, "-R$ 99,50"},
	}

	for _, tc := range tests {
		if got := FormatCentsBRL(tc.cents); got != tc.want {
			t.Errorf("FormatCentsBRL(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestFallbackMessageNamesEveryTaskType(t *testing.T) {
	for _, taskType := range []domain.TaskType{domain.TaskTypePosCompra, domain.TaskTypePreventivo, domain.TaskTypeReativacao} {
		msg := FallbackMessage(taskType, MessageData{CustomerName: "João"})
		if !strings.Contains(msg, "João") {
			t.Errorf("fallback for %q must greet the customer, got %q", taskType, msg)
		}
	}

	msg := FallbackMessage(domain.TaskTypePosCompra, MessageData{})
	if !strings.Contains(msg, "cliente") {
		t.Errorf("fallback without a name must use a generic greeting, got %q", msg)
	}
}

func TestBuildTask(t *testing.T) {
	snap := snapWithDeviation(dev(140))
	decision, ok := Classify(snap, nil, today, testConfig())
	if !ok {
		t.Fatal("expected a decision")
	}

	task := BuildTask(snap, decision, "mensagem", today, today, 7)

	wantDate := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	if !task.TaskDate.Equal(wantDate) {
		t.Errorf("task date = %v, want %v", task.TaskDate, wantDate)
	}
	if !task.ExpiresAt.Equal(wantDate.AddDate(0, 0, 7)) {
		t.Errorf("expires at = %v, want task date + 7d", task.ExpiresAt)
	}
	if task.Status != domain.StatusPendente {
		t.Errorf("status = %q, want pendente", task.Status)
	}
	if task.EstimatedImpactCents != snap.AvgTicketCents {
		t.Errorf("estimated impact = %d, want avg ticket %d", task.EstimatedImpactCents, snap.AvgTicketCents)
	}
	if task.ChannelContext != snap.PreferredChannel {
		t.Errorf("channel context = %q, want %q", task.ChannelContext, snap.PreferredChannel)
	}
}
