package service

import (
	"context"
	"sync"
	"testing"

	"cmga_backend/internal/delivery/domain"
	"cmga_backend/internal/delivery/repository"
	"cmga_backend/internal/events"
	"cmga_backend/platform/apperr"
	"cmga_backend/platform/logger"
)

// fakeStore is an in-memory Store/TxOps with snapshot-based rollback, so a
// failed transaction leaves state untouched like the real database would.
type fakeStore struct {
	invoice       repository.Invoice
	order         []domain.LineItem
	notes         []*fakeNote
	confirmations []fakeConfirmation
	nextNoteID    int64
}

type fakeNote struct {
	repository.DeliveryNote
	items []domain.LineItem
}

type fakeConfirmation struct {
	userID int64
	noteID int64
}

func newFakeStore(number string, order []domain.LineItem) *fakeStore {
	return &fakeStore{
		invoice: repository.Invoice{
			ID:     1,
			Number: number,
			Status: domain.InvoiceEnAttente,
		},
		order:      order,
		nextNoteID: 100,
	}
}

func (f *fakeStore) Tx(ctx context.Context, fn func(ops repository.TxOps) error) error {
	snapshot := f.clone()
	if err := fn(f); err != nil {
		*f = *snapshot
		return err
	}
	return nil
}

func (f *fakeStore) clone() *fakeStore {
	c := &fakeStore{
		invoice:       f.invoice,
		order:         append([]domain.LineItem(nil), f.order...),
		confirmations: append([]fakeConfirmation(nil), f.confirmations...),
		nextNoteID:    f.nextNoteID,
	}
	for _, n := range f.notes {
		copied := *n
		copied.items = append([]domain.LineItem(nil), n.items...)
		c.notes = append(c.notes, &copied)
	}
	return c
}

func (f *fakeStore) InvoiceForUpdate(ctx context.Context, number string) (repository.Invoice, error) {
	if number != f.invoice.Number {
		return repository.Invoice{}, repository.ErrNotFound
	}
	return f.invoice, nil
}

func (f *fakeStore) OrderLines(ctx context.Context, invoiceID int64) ([]domain.LineItem, error) {
	return append([]domain.LineItem(nil), f.order...), nil
}

func (f *fakeStore) LatestNote(ctx context.Context, invoiceID int64) (*repository.DeliveryNote, error) {
	if len(f.notes) == 0 {
		return nil, nil
	}
	note := f.notes[len(f.notes)-1].DeliveryNote
	return &note, nil
}

func (f *fakeStore) LatestValidatedNote(ctx context.Context, invoiceID int64) (*repository.DeliveryNote, error) {
	for i := len(f.notes) - 1; i >= 0; i-- {
		if f.notes[i].Status == domain.NoteValidated {
			note := f.notes[i].DeliveryNote
			return &note, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) PendingNote(ctx context.Context, invoiceID int64) (*repository.DeliveryNote, error) {
	for _, n := range f.notes {
		if n.Status == domain.NotePending {
			note := n.DeliveryNote
			return &note, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) NoteItems(ctx context.Context, noteID int64) ([]domain.LineItem, error) {
	for _, n := range f.notes {
		if n.ID == noteID {
			return append([]domain.LineItem(nil), n.items...), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) CreateNote(ctx context.Context, params repository.CreateNoteParams) (repository.DeliveryNote, error) {
	f.nextNoteID++
	note := repository.DeliveryNote{
		ID:          f.nextNoteID,
		InvoiceID:   params.InvoiceID,
		DriverID:    params.DriverID,
		CreatedBy:   params.CreatedBy,
		Status:      params.Status,
		IsDelivered: params.IsDelivered,
		TotalCents:  domain.SumTotal(params.Items),
	}
	f.notes = append(f.notes, &fakeNote{
		DeliveryNote: note,
		items:        append([]domain.LineItem(nil), params.Items...),
	})
	return note, nil
}

func (f *fakeStore) ValidateNote(ctx context.Context, noteID int64, items []domain.LineItem, totalCents int64) error {
	for _, n := range f.notes {
		if n.ID == noteID {
			n.Status = domain.NoteValidated
			n.IsDelivered = true
			n.TotalCents = totalCents
			n.items = append([]domain.LineItem(nil), items...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) AddConfirmation(ctx context.Context, userID, noteID int64) error {
	f.confirmations = append(f.confirmations, fakeConfirmation{userID: userID, noteID: noteID})
	return nil
}

func (f *fakeStore) UpdateInvoiceDelivery(ctx context.Context, params repository.UpdateInvoiceParams) error {
	f.invoice.Status = params.Status
	f.invoice.IsCompleted = params.IsCompleted
	f.invoice.IsCompleteDelivery = params.IsCompleteDelivery
	f.invoice.DeliveredAt = params.DeliveredAt
	return nil
}

func (f *fakeStore) NoteByID(ctx context.Context, id int64) (repository.DeliveryNote, []domain.LineItem, error) {
	for _, n := range f.notes {
		if n.ID == id {
			return n.DeliveryNote, append([]domain.LineItem(nil), n.items...), nil
		}
	}
	return repository.DeliveryNote{}, nil, repository.ErrNotFound
}

func (f *fakeStore) NotesByInvoiceNumber(ctx context.Context, number string) ([]repository.DeliveryNote, error) {
	var out []repository.DeliveryNote
	for i := len(f.notes) - 1; i >= 0; i-- {
		out = append(out, f.notes[i].DeliveryNote)
	}
	return out, nil
}

type fakeDepots struct {
	needDoubleCheck bool
}

func (f fakeDepots) PolicyForUser(ctx context.Context, userID int64) (bool, error) {
	return f.needDoubleCheck, nil
}

type fakeDrivers struct {
	missing bool
}

func (f fakeDrivers) Exists(ctx context.Context, driverID int64) (bool, error) {
	return !f.missing, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, evt events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
}

func (b *recordingBus) PublishSync(ctx context.Context, evt events.Event) error {
	b.Publish(ctx, evt)
	return nil
}

func (b *recordingBus) Subscribe(eventName string, handler events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var names []string
	for _, evt := range b.events {
		names = append(names, evt.EventName())
	}
	return names
}

func testOrder() []domain.LineItem {
	return []domain.LineItem{
		{Reference: "A", Designation: "Produit A", Quantity: 10, UnitPriceCents: 100},
		{Reference: "B", Designation: "Produit B", Quantity: 5, UnitPriceCents: 200},
	}
}

func newTestService(store *fakeStore, doubleCheck bool) (*Service, *recordingBus) {
	bus := &recordingBus{}
	svc := New(store, fakeDepots{needDoubleCheck: doubleCheck}, fakeDrivers{}, bus, logger.New("test"))
	return svc, bus
}

func input(complete bool, lines ...domain.LineItem) ProcessDeliveryInput {
	return ProcessDeliveryInput{
		InvoiceNumber:    "F-100",
		Lines:            lines,
		CompleteDelivery: complete,
		DriverID:         7,
		ActorID:          42,
		ActorRole:        "magasinier",
	}
}

func TestFullDeliveryWithoutDoubleCheck(t *testing.T) {
	store := newFakeStore("F-100", testOrder())
	svc, bus := newTestService(store, false)

	result, err := svc.ProcessDelivery(context.Background(), input(true))
	if err != nil {
		t.Fatalf("ProcessDelivery: %v", err)
	}
	if result.Pending {
		t.Fatal("result should not be pending on a single-check depot")
	}
	if result.Outcome != events.OutcomeDelivered {
		t.Fatalf("outcome = %s, want %s", result.Outcome, events.OutcomeDelivered)
	}

	if len(store.notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(store.notes))
	}
	note := store.notes[0]
	if note.Status != domain.NoteValidated || !note.IsDelivered {
		t.Fatalf("note = %+v, want validated and delivered", note.DeliveryNote)
	}
	for i, item := range note.items {
		if item.Quantity != testOrder()[i].Quantity || item.RemainingQty != 0 {
			t.Fatalf("item %s = %+v, want order quantity with zero remaining", item.Reference, item)
		}
	}
	if !store.invoice.IsCompleted || store.invoice.Status != domain.InvoiceLivree {
		t.Fatalf("invoice = %+v, want completed LIVREE", store.invoice)
	}
	if store.invoice.DeliveredAt == nil {
		t.Fatal("deliveredAt not set")
	}
	if len(store.confirmations) != 1 || store.confirmations[0].userID != 42 {
		t.Fatalf("confirmations = %+v, want single record by actor 42", store.confirmations)
	}
	if got := bus.names(); len(got) != 3 {
		t.Fatalf("events = %v, want created+validated+completed", got)
	}
}

func TestPartialRoundsWithoutDoubleCheck(t *testing.T) {
	store := newFakeStore("F-100", testOrder())
	svc, _ := newTestService(store, false)
	ctx := context.Background()

	result, err := svc.ProcessDelivery(ctx, input(false, domain.LineItem{Reference: "A", Quantity: 6}))
	if err != nil {
		t.Fatalf("first round: %v", err)
	}
	if result.Outcome != events.OutcomePartial {
		t.Fatalf("outcome = %s, want partial", result.Outcome)
	}
	if store.invoice.IsCompleted {
		t.Fatal("invoice completed after a partial round")
	}

	_, err = svc.ProcessDelivery(ctx, input(false,
		domain.LineItem{Reference: "A", Quantity: 4},
		domain.LineItem{Reference: "B", Quantity: 5},
	))
	if err != nil {
		t.Fatalf("second round: %v", err)
	}
	if !store.invoice.IsCompleted || store.invoice.Status != domain.InvoiceLivree {
		t.Fatalf("invoice = %+v, want completed after final round", store.invoice)
	}

	// Conservation across both rounds.
	delivered := map[string]int{}
	for _, note := range store.notes {
		for _, item := range note.items {
			delivered[item.Reference] += item.Quantity
		}
	}
	for _, line := range testOrder() {
		if delivered[line.Reference] > line.Quantity {
			t.Fatalf("reference %s: delivered %d exceeds ordered %d", line.Reference, delivered[line.Reference], line.Quantity)
		}
	}
}

// The full double-check partial cycle: pending note, idempotent resubmission,
// confirmation, second round, final confirmation completing the invoice.
func TestDoubleCheckPartialCycle(t *testing.T) {
	store := newFakeStore("F-100", testOrder())
	svc, _ := newTestService(store, true)
	ctx := context.Background()

	first, err := svc.ProcessDelivery(ctx, input(false, domain.LineItem{Reference: "A", Quantity: 6}))
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	if !first.Pending {
		t.Fatal("first request should leave a pending note")
	}
	if store.invoice.Status != domain.InvoiceEnCours {
		t.Fatalf("invoice status = %s, want EN_COURS", store.invoice.Status)
	}
	items, _ := store.NoteItems(ctx, first.NoteID)
	remaining := map[string]int{}
	for _, item := range items {
		remaining[item.Reference] = item.RemainingQty
	}
	if remaining["A"] != 4 || remaining["B"] != 5 {
		t.Fatalf("remaining = %v, want A:4 B:5", remaining)
	}

	// Idempotent resubmission: same response, no second note.
	again, err := svc.ProcessDelivery(ctx, input(false, domain.LineItem{Reference: "A", Quantity: 6}))
	if err != nil {
		t.Fatalf("resubmission: %v", err)
	}
	if again.Message != first.Message || again.NoteID != first.NoteID {
		t.Fatalf("resubmission = %+v, want identical pending result", again)
	}
	if len(store.notes) != 1 {
		t.Fatalf("notes = %d after resubmission, want 1", len(store.notes))
	}

	confirmed, err := svc.ConfirmDelivery(ctx, "F-100", 99, "controleur")
	if err != nil {
		t.Fatalf("first confirmation: %v", err)
	}
	if confirmed.Completed {
		t.Fatal("invoice completed with quantities still remaining")
	}
	if store.invoice.Status != domain.InvoiceEnCours || store.invoice.IsCompleted {
		t.Fatalf("invoice = %+v, want EN_COURS not completed", store.invoice)
	}

	second, err := svc.ProcessDelivery(ctx, input(false,
		domain.LineItem{Reference: "A", Quantity: 4},
		domain.LineItem{Reference: "B", Quantity: 5},
	))
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if !second.Pending {
		t.Fatal("second request should leave a pending note")
	}

	final, err := svc.ConfirmDelivery(ctx, "F-100", 99, "controleur")
	if err != nil {
		t.Fatalf("final confirmation: %v", err)
	}
	if !final.Completed || final.Outcome != events.OutcomeDelivered {
		t.Fatalf("final = %+v, want completed delivery", final)
	}
	if !store.invoice.IsCompleted || store.invoice.Status != domain.InvoiceLivree {
		t.Fatalf("invoice = %+v, want LIVREE completed", store.invoice)
	}
	if store.invoice.DeliveredAt == nil {
		t.Fatal("deliveredAt not set on completion")
	}
}

func TestDoubleCheckFullClaim(t *testing.T) {
	store := newFakeStore("F-100", testOrder())
	svc, _ := newTestService(store, true)
	ctx := context.Background()

	result, err := svc.ProcessDelivery(ctx, input(true))
	if err != nil {
		t.Fatalf("ProcessDelivery: %v", err)
	}
	if !result.Pending {
		t.Fatal("full claim on a double-check depot should be pending")
	}
	if store.invoice.IsCompleted {
		t.Fatal("invoice completed before confirmation")
	}
	if !store.invoice.IsCompleteDelivery || store.invoice.Status != domain.InvoiceEnCours {
		t.Fatalf("invoice = %+v, want EN_COURS with full-delivery flag", store.invoice)
	}

	confirmed, err := svc.ConfirmDelivery(ctx, "F-100", 99, "controleur")
	if err != nil {
		t.Fatalf("ConfirmDelivery: %v", err)
	}
	if !confirmed.Completed {
		t.Fatal("full claim confirmation should complete the invoice")
	}
	if !store.invoice.IsCompleted || store.invoice.Status != domain.InvoiceLivree {
		t.Fatalf("invoice = %+v, want LIVREE completed", store.invoice)
	}
}

func TestCompletedInvoiceRejectsFurtherCalls(t *testing.T) {
	store := newFakeStore("F-100", testOrder())
	svc, _ := newTestService(store, false)
	ctx := context.Background()

	if _, err := svc.ProcessDelivery(ctx, input(true)); err != nil {
		t.Fatalf("ProcessDelivery: %v", err)
	}

	_, err := svc.ProcessDelivery(ctx, input(false, domain.LineItem{Reference: "A", Quantity: 1}))
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("ProcessDelivery after completion: err = %v, want Conflict", err)
	}
	_, err = svc.ConfirmDelivery(ctx, "F-100", 99, "controleur")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("ConfirmDelivery after completion: err = %v, want Conflict", err)
	}
	if len(store.notes) != 1 {
		t.Fatalf("notes = %d, want the single completed note", len(store.notes))
	}
}

func TestPartialWithoutLinesRejected(t *testing.T) {
	for _, doubleCheck := range []bool{false, true} {
		store := newFakeStore("F-100", testOrder())
		svc, _ := newTestService(store, doubleCheck)

		_, err := svc.ProcessDelivery(context.Background(), input(false))
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("doubleCheck=%v: err = %v, want Validation", doubleCheck, err)
		}
		if len(store.notes) != 0 {
			t.Fatalf("doubleCheck=%v: an empty partial round must not persist a note", doubleCheck)
		}
	}
}

func TestOverDeliveryRejected(t *testing.T) {
	store := newFakeStore("F-100", testOrder())
	svc, _ := newTestService(store, false)

	_, err := svc.ProcessDelivery(context.Background(), input(false, domain.LineItem{Reference: "A", Quantity: 11}))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want Validation", err)
	}
	if len(store.notes) != 0 {
		t.Fatal("over-delivery must not persist a note")
	}
	if store.invoice.Status != domain.InvoiceEnAttente {
		t.Fatalf("invoice status = %s, want unchanged", store.invoice.Status)
	}
}

func TestConfirmWithNothingPending(t *testing.T) {
	store := newFakeStore("F-100", testOrder())
	svc, _ := newTestService(store, false)
	ctx := context.Background()

	_, err := svc.ConfirmDelivery(ctx, "F-100", 99, "controleur")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("confirm without notes: err = %v, want Conflict", err)
	}

	// A validated (but not completing) note still leaves nothing to confirm.
	if _, err := svc.ProcessDelivery(ctx, input(false, domain.LineItem{Reference: "A", Quantity: 6})); err != nil {
		t.Fatalf("ProcessDelivery: %v", err)
	}
	_, err = svc.ConfirmDelivery(ctx, "F-100", 99, "controleur")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("confirm validated note: err = %v, want Conflict", err)
	}
}

func TestUnknownInvoiceAndDriver(t *testing.T) {
	store := newFakeStore("F-100", testOrder())
	svc, _ := newTestService(store, false)
	ctx := context.Background()

	in := input(true)
	in.InvoiceNumber = "F-999"
	if _, err := svc.ProcessDelivery(ctx, in); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown invoice: err = %v, want NotFound", err)
	}
	if _, err := svc.ConfirmDelivery(ctx, "F-999", 99, "controleur"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("confirm unknown invoice: err = %v, want NotFound", err)
	}

	bus := &recordingBus{}
	svcNoDriver := New(store, fakeDepots{}, fakeDrivers{missing: true}, bus, logger.New("test"))
	if _, err := svcNoDriver.ProcessDelivery(ctx, input(true)); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown driver: err = %v, want NotFound", err)
	}
}

func TestFullClaimReissueCopiesPreviousProducts(t *testing.T) {
	store := newFakeStore("F-100", testOrder())
	svc, _ := newTestService(store, true)
	ctx := context.Background()

	// First partial round, validated through the gate.
	if _, err := svc.ProcessDelivery(ctx, input(false, domain.LineItem{Reference: "A", Quantity: 6})); err != nil {
		t.Fatalf("partial request: %v", err)
	}
	if _, err := svc.ConfirmDelivery(ctx, "F-100", 99, "controleur"); err != nil {
		t.Fatalf("confirmation: %v", err)
	}

	// Full claim re-issue copies the previous round's products and records a
	// provisional sign-off by the requester.
	result, err := svc.ProcessDelivery(ctx, input(true))
	if err != nil {
		t.Fatalf("re-issue: %v", err)
	}
	if !result.Pending {
		t.Fatal("re-issue should be pending")
	}
	prevItems, _ := store.NoteItems(ctx, store.notes[0].ID)
	newItems, _ := store.NoteItems(ctx, result.NoteID)
	if len(newItems) != len(prevItems) {
		t.Fatalf("re-issued items = %d, want %d", len(newItems), len(prevItems))
	}
	var provisional bool
	for _, c := range store.confirmations {
		if c.noteID == result.NoteID && c.userID == 42 {
			provisional = true
		}
	}
	if !provisional {
		t.Fatal("missing provisional confirmation on re-issue")
	}
}
