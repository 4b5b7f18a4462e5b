package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"rfv_copilot_backend/internal/rfv/domain"
	"rfv_copilot_backend/internal/rfv/policy"
	"rfv_copilot_backend/internal/rfv/repository"
	"rfv_copilot_backend/platform/apperr"

	"github.com/google/uuid"
)

var fixedNow = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

// =============================================================================
// In-memory fakes
// =============================================================================

type fakeLedger struct {
	orders map[uuid.UUID][]domain.Order
	names  map[uuid.UUID]string
}

func (f *fakeLedger) PaidOrdersByCustomer(ctx context.Context) (map[uuid.UUID][]domain.Order, error) {
	return f.orders, nil
}

func (f *fakeLedger) EarliestPaidOrderAfter(ctx context.Context, customerID uuid.UUID, after time.Time) (*domain.Order, error) {
	var earliest *domain.Order
	for _, o := range f.orders[customerID] {
		if !o.PaidAt.After(after) {
			continue
		}
		if earliest == nil || o.PaidAt.Before(earliest.PaidAt) {
			copied := o
			earliest = &copied
		}
	}
	return earliest, nil
}

func (f *fakeLedger) CustomerNames(ctx context.Context) (map[uuid.UUID]string, error) {
	return f.names, nil
}

type fakeSnapshots struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]domain.Snapshot
	wrote int
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{byID: make(map[uuid.UUID]domain.Snapshot)}
}

func (f *fakeSnapshots) Replace(ctx context.Context, snapshots []domain.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range snapshots {
		f.byID[s.CustomerID] = s
	}
	f.wrote += len(snapshots)
	return nil
}

func (f *fakeSnapshots) Get(ctx context.Context, customerID uuid.UUID) (domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[customerID]
	if !ok {
		return domain.Snapshot{}, apperr.NotFound("customer metrics not found")
	}
	return s, nil
}

func (f *fakeSnapshots) SegmentSummary(ctx context.Context) (map[domain.Segment]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summary := make(map[domain.Segment]int)
	for _, s := range f.byID {
		summary[s.Segment]++
	}
	return summary, nil
}

type dayKey struct {
	customer uuid.UUID
	day      int64
}

type fakeTasks struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]domain.Task
	byDay  map[dayKey]uuid.UUID
	names  map[uuid.UUID]string
	phones map[uuid.UUID]string
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{
		byID:   make(map[uuid.UUID]domain.Task),
		byDay:  make(map[dayKey]uuid.UUID),
		names:  make(map[uuid.UUID]string),
		phones: make(map[uuid.UUID]string),
	}
}

func (f *fakeTasks) InsertIfAbsent(ctx context.Context, task domain.Task) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := dayKey{customer: task.CustomerID, day: task.TaskDate.Unix()}
	if _, exists := f.byDay[key]; exists {
		return false, nil
	}
	f.byDay[key] = task.ID
	f.byID[task.ID] = task
	return true, nil
}

func (f *fakeTasks) Get(ctx context.Context, id uuid.UUID) (repository.TaskWithCustomer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.byID[id]
	if !ok {
		return repository.TaskWithCustomer{}, apperr.NotFound("task not found")
	}
	return repository.TaskWithCustomer{
		Task:          task,
		CustomerName:  f.names[task.CustomerID],
		CustomerPhone: f.phones[task.CustomerID],
	}, nil
}

func (f *fakeTasks) List(ctx context.Context, filter repository.TaskFilter) ([]repository.TaskWithCustomer, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]repository.TaskWithCustomer, 0, len(f.byID))
	for _, task := range f.byID {
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && task.Priority != *filter.Priority {
			continue
		}
		items = append(items, repository.TaskWithCustomer{Task: task})
	}
	return items, len(items), nil
}

func (f *fakeTasks) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.Status, executedAt *time.Time, executedBy *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.byID[id]
	if !ok || task.Status != expected {
		return false, nil
	}
	task.Status = next
	task.ExecutedAt = executedAt
	task.ExecutedBy = executedBy
	f.byID[id] = task
	return true, nil
}

func (f *fakeTasks) ListAttributable(ctx context.Context) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := make([]domain.Task, 0)
	for _, task := range f.byID {
		if task.ExecutedAt == nil || task.ConvertedOrderID != nil {
			continue
		}
		for _, status := range domain.AttributableStatuses() {
			if task.Status == status {
				tasks = append(tasks, task)
				break
			}
		}
	}
	return tasks, nil
}

func (f *fakeTasks) Convert(ctx context.Context, taskID, orderID uuid.UUID, revenueCents int64, paidAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.byID[taskID]
	if !ok || task.ConvertedOrderID != nil {
		return false, nil
	}
	task.Status = domain.StatusConverteu
	task.RevenueGeneratedCents = revenueCents
	task.ConvertedOrderID = &orderID
	task.ConversionTimestamp = &paidAt
	f.byID[taskID] = task
	return true, nil
}

type fakeTemplates struct {
	byKey map[string]domain.Template
}

func newFakeTemplates() *fakeTemplates {
	return &fakeTemplates{byKey: make(map[string]domain.Template)}
}

func templateKey(t domain.TaskType, c domain.ChannelContext) string {
	return string(t) + "/" + string(c)
}

func (f *fakeTemplates) Get(ctx context.Context, taskType domain.TaskType, channel domain.ChannelContext) (domain.Template, error) {
	tpl, ok := f.byKey[templateKey(taskType, channel)]
	if !ok {
		return domain.Template{}, apperr.NotFound("template not found")
	}
	return tpl, nil
}

func (f *fakeTemplates) Upsert(ctx context.Context, tpl domain.Template) error {
	f.byKey[templateKey(tpl.TaskType, tpl.ChannelContext)] = tpl
	return nil
}

func (f *fakeTemplates) List(ctx context.Context) ([]domain.Template, error) {
	templates := make([]domain.Template, 0, len(f.byKey))
	for _, tpl := range f.byKey {
		templates = append(templates, tpl)
	}
	return templates, nil
}

// =============================================================================
// Helpers
// =============================================================================

func newTestService(ledger *fakeLedger, tasks *fakeTasks) (*Service, *fakeSnapshots) {
	snaps := newFakeSnapshots()
	svc := New(Config{
		PostPurchaseDays: 3,
		TaskExpiryDays:   7,
		PhoneRegion:      "BR",
		Policy:           policy.Default(),
	}, ledger, snaps, tasks, newFakeTemplates(), nil)
	svc.SetClock(func() time.Time { return fixedNow })
	return svc, snaps
}

func orderAt(customerID uuid.UUID, paidAt time.Time, cents int64) domain.Order {
	return domain.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		TotalCents: cents,
		PaidAt:     paidAt,
		Channel:    domain.ChannelSite,
	}
}

// overdueCustomer returns a ledger with one customer whose cycle deviation is
// far past the reactivation threshold.
func overdueCustomer() (*fakeLedger, uuid.UUID) {
	customerID := uuid.New()
	return &fakeLedger{
		orders: map[uuid.UUID][]domain.Order{
			customerID: {
				orderAt(customerID, fixedNow.AddDate(0, 0, -40), 10000),
				orderAt(customerID, fixedNow.AddDate(0, 0, -30), 20000),
			},
		},
		names: map[uuid.UUID]string{customerID: "Maria"},
	}, customerID
}

// =============================================================================
// Recalculation
// =============================================================================

func TestRecalculateGeneratesOneTaskPerCustomerPerDay(t *testing.T) {
	ledger, customerID := overdueCustomer()
	tasks := newFakeTasks()
	svc, snaps := newTestService(ledger, tasks)

	for run := 1; run <= 3; run++ {
		result, err := svc.Recalculate(context.Background())
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if result.Snapshots != 1 {
			t.Errorf("run %d: snapshots = %d, want 1", run, result.Snapshots)
		}
		wantGenerated := 0
		if run == 1 {
			wantGenerated = 1
		}
		if result.TasksGenerated != wantGenerated {
			t.Errorf("run %d: tasks generated = %d, want %d", run, result.TasksGenerated, wantGenerated)
		}
	}

	if len(tasks.byID) != 1 {
		t.Fatalf("stored tasks = %d, want exactly 1", len(tasks.byID))
	}

	for _, task := range tasks.byID {
		if task.CustomerID != customerID {
			t.Errorf("task customer = %v, want %v", task.CustomerID, customerID)
		}
		if task.Type != domain.TaskTypeReativacao {
			t.Errorf("task type = %q, want reativacao", task.Type)
		}
		if task.Priority != domain.PriorityCritico {
			t.Errorf("priority = %q, want critico", task.Priority)
		}
		// 30 days of recency over a 10-day cycle is deep past escalation.
		if !strings.Contains(task.Reason.Render(), "130%") {
			t.Errorf("reason %q must state the escalation threshold", task.Reason.Render())
		}
		if task.Status != domain.StatusPendente {
			t.Errorf("status = %q, want pendente", task.Status)
		}
	}

	if _, err := snaps.Get(context.Background(), customerID); err != nil {
		t.Errorf("snapshot missing after recalculation: %v", err)
	}
}

func TestRecalculateEmptyLedgerIsSuccessWithZeroCounts(t *testing.T) {
	ledger := &fakeLedger{orders: map[uuid.UUID][]domain.Order{}, names: map[uuid.UUID]string{}}
	svc, _ := newTestService(ledger, newFakeTasks())

	result, err := svc.Recalculate(context.Background())
	if err != nil {
		t.Fatalf("empty ledger must not fail: %v", err)
	}
	if result.Snapshots != 0 || result.TasksGenerated != 0 {
		t.Errorf("result = %+v, want zero counts", result)
	}
}

func TestRecalculateUsesTemplateForChannelContext(t *testing.T) {
	ledger, customerID := overdueCustomer()
	tasks := newFakeTasks()
	snaps := newFakeSnapshots()
	templates := newFakeTemplates()
	_ = templates.Upsert(context.Background(), domain.Template{
		TaskType:       domain.TaskTypeReativacao,
		ChannelContext: domain.ChannelContextSite,
		Body:           "Oi {{nome}}, volte para a loja!",
	})

	svc := New(Config{
		PostPurchaseDays: 3,
		TaskExpiryDays:   7,
		PhoneRegion:      "BR",
		Policy:           policy.Default(),
	}, ledger, snaps, tasks, templates, nil)
	svc.SetClock(func() time.Time { return fixedNow })

	if _, err := svc.Recalculate(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, task := range tasks.byID {
		if task.CustomerID == customerID && task.SuggestedMessage != "Oi Maria, volte para a loja!" {
			t.Errorf("suggested message = %q, want rendered template", task.SuggestedMessage)
		}
	}
}

// =============================================================================
// Revenue attribution
// =============================================================================

func executedTask(tasks *fakeTasks, customerID uuid.UUID, executedAt time.Time) uuid.UUID {
	id := uuid.New()
	when := executedAt
	by := "Ana"
	tasks.byID[id] = domain.Task{
		ID:         id,
		CustomerID: customerID,
		TaskDate:   executedAt.Truncate(24 * time.Hour),
		Type:       domain.TaskTypeReativacao,
		Priority:   domain.PriorityCritico,
		Reason:     domain.CycleExceededReason{Deviation: 150, EscalationPct: 130},
		Status:     domain.StatusEnviado,
		ExecutedAt: &when,
		ExecutedBy: &by,
	}
	return id
}

func TestAttributeRevenueBindsEarliestOrderAfterExecution(t *testing.T) {
	customerID := uuid.New()
	executedAt := fixedNow.AddDate(0, 0, -5)

	// Deliberately out of insertion order: the later order first.
	later := orderAt(customerID, executedAt.Add(72*time.Hour), 50000)
	earlier := orderAt(customerID, executedAt.Add(24*time.Hour), 30000)
	before := orderAt(customerID, executedAt.Add(-24*time.Hour), 99999)

	ledger := &fakeLedger{
		orders: map[uuid.UUID][]domain.Order{customerID: {later, earlier, before}},
		names:  map[uuid.UUID]string{customerID: "Maria"},
	}
	tasks := newFakeTasks()
	taskID := executedTask(tasks, customerID, executedAt)
	svc, _ := newTestService(ledger, tasks)

	result, err := svc.AttributeRevenue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.TasksConverted != 1 {
		t.Fatalf("converted = %d, want 1", result.TasksConverted)
	}
	if result.RevenueCreditedCents != earlier.TotalCents {
		t.Errorf("revenue = %d, want the earlier order's %d", result.RevenueCreditedCents, earlier.TotalCents)
	}

	task := tasks.byID[taskID]
	if task.Status != domain.StatusConverteu {
		t.Errorf("status = %q, want converteu", task.Status)
	}
	if task.ConvertedOrderID == nil || *task.ConvertedOrderID != earlier.ID {
		t.Errorf("converted order = %v, want %v", task.ConvertedOrderID, earlier.ID)
	}
}

func TestAttributeRevenueNeverCreditsTwice(t *testing.T) {
	customerID := uuid.New()
	executedAt := fixedNow.AddDate(0, 0, -5)
	ledger := &fakeLedger{
		orders: map[uuid.UUID][]domain.Order{
			customerID: {orderAt(customerID, executedAt.Add(24*time.Hour), 30000)},
		},
		names: map[uuid.UUID]string{customerID: "Maria"},
	}
	tasks := newFakeTasks()
	executedTask(tasks, customerID, executedAt)
	svc, _ := newTestService(ledger, tasks)

	first, err := svc.AttributeRevenue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.AttributeRevenue(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if first.TasksConverted != 1 || first.RevenueCreditedCents != 30000 {
		t.Errorf("first pass = %+v, want one conversion of 30000", first)
	}
	if second.TasksConverted != 0 || second.RevenueCreditedCents != 0 {
		t.Errorf("second pass = %+v, want zero", second)
	}
}

func TestAttributeRevenueSkipsTasksWithoutLaterOrder(t *testing.T) {
	customerID := uuid.New()
	executedAt := fixedNow.AddDate(0, 0, -5)
	ledger := &fakeLedger{
		orders: map[uuid.UUID][]domain.Order{
			customerID: {orderAt(customerID, executedAt.Add(-48*time.Hour), 10000)},
		},
		names: map[uuid.UUID]string{customerID: "Maria"},
	}
	tasks := newFakeTasks()
	taskID := executedTask(tasks, customerID, executedAt)
	svc, _ := newTestService(ledger, tasks)

	result, err := svc.AttributeRevenue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.TasksConverted != 0 {
		t.Errorf("converted = %d, want 0", result.TasksConverted)
	}
	if tasks.byID[taskID].Status != domain.StatusEnviado {
		t.Errorf("status = %q, task must stay open for later passes", tasks.byID[taskID].Status)
	}
}

// =============================================================================
// Task transitions
// =============================================================================

func pendingTask(tasks *fakeTasks, customerID uuid.UUID) uuid.UUID {
	id := uuid.New()
	tasks.byID[id] = domain.Task{
		ID:         id,
		CustomerID: customerID,
		TaskDate:   fixedNow.Truncate(24 * time.Hour),
		Type:       domain.TaskTypePreventivo,
		Priority:   domain.PriorityImportante,
		Reason:     domain.ApproachingCycleReason{Deviation: 80},
		Status:     domain.StatusPendente,
	}
	return id
}

func TestTransitionTaskStampsExecution(t *testing.T) {
	customerID := uuid.New()
	ledger := &fakeLedger{orders: map[uuid.UUID][]domain.Order{}, names: map[uuid.UUID]string{}}
	tasks := newFakeTasks()
	taskID := pendingTask(tasks, customerID)
	svc, _ := newTestService(ledger, tasks)

	operatorID := uuid.New()
	item, err := svc.TransitionTask(context.Background(), taskID, domain.StatusEnviado, operatorID, "Ana Souza")
	if err != nil {
		t.Fatal(err)
	}

	if item.Task.Status != domain.StatusEnviado {
		t.Errorf("status = %q, want enviado", item.Task.Status)
	}
	if item.Task.ExecutedAt == nil || !item.Task.ExecutedAt.Equal(fixedNow) {
		t.Errorf("executed_at = %v, want %v", item.Task.ExecutedAt, fixedNow)
	}
	if item.Task.ExecutedBy == nil || *item.Task.ExecutedBy != "Ana Souza" {
		t.Errorf("executed_by = %v, want operator name", item.Task.ExecutedBy)
	}
}

func TestTransitionTaskReopenClearsExecution(t *testing.T) {
	customerID := uuid.New()
	ledger := &fakeLedger{orders: map[uuid.UUID][]domain.Order{}, names: map[uuid.UUID]string{}}
	tasks := newFakeTasks()
	taskID := pendingTask(tasks, customerID)
	svc, _ := newTestService(ledger, tasks)

	operatorID := uuid.New()
	if _, err := svc.TransitionTask(context.Background(), taskID, domain.StatusEnviado, operatorID, "Ana"); err != nil {
		t.Fatal(err)
	}
	item, err := svc.TransitionTask(context.Background(), taskID, domain.StatusPendente, operatorID, "Ana")
	if err != nil {
		t.Fatal(err)
	}

	if item.Task.Status != domain.StatusPendente {
		t.Errorf("status = %q, want pendente", item.Task.Status)
	}
	if item.Task.ExecutedAt != nil || item.Task.ExecutedBy != nil {
		t.Error("reopen must clear the execution stamp")
	}
}

func TestTransitionTaskRejectsIllegalMoves(t *testing.T) {
	customerID := uuid.New()
	ledger := &fakeLedger{orders: map[uuid.UUID][]domain.Order{}, names: map[uuid.UUID]string{}}
	tasks := newFakeTasks()
	taskID := pendingTask(tasks, customerID)
	svc, _ := newTestService(ledger, tasks)
	operatorID := uuid.New()

	// pendente cannot jump straight to respondeu.
	if _, err := svc.TransitionTask(context.Background(), taskID, domain.StatusRespondeu, operatorID, "Ana"); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("pendente→respondeu error = %v, want conflict", err)
	}

	// Operators never set converteu.
	if _, err := svc.TransitionTask(context.Background(), taskID, domain.StatusConverteu, operatorID, "Ana"); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("operator converteu error = %v, want forbidden", err)
	}

	// Terminal states stay terminal.
	if _, err := svc.TransitionTask(context.Background(), taskID, domain.StatusSkipped, operatorID, "Ana"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.TransitionTask(context.Background(), taskID, domain.StatusPendente, operatorID, "Ana"); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("reopen from skipped error = %v, want conflict", err)
	}
}

func TestOutreachLinkCarriesSuggestedMessage(t *testing.T) {
	ledger := &fakeLedger{orders: map[uuid.UUID][]domain.Order{}, names: map[uuid.UUID]string{}}
	svc, _ := newTestService(ledger, newFakeTasks())

	link := svc.OutreachLink(repository.TaskWithCustomer{
		Task:          domain.Task{SuggestedMessage: "Olá Maria"},
		CustomerPhone: "+5511987654321",
	})
	if !strings.HasPrefix(link, "https://wa.me/5511987654321?text=") {
		t.Errorf("link = %q, want wa.me deep link", link)
	}

	if got := svc.OutreachLink(repository.TaskWithCustomer{CustomerPhone: "not-a-phone"}); got != "" {
		t.Errorf("invalid phone link = %q, want empty", got)
	}
}
