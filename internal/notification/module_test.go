package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"cmga_backend/internal/email"
	"cmga_backend/internal/events"
	"cmga_backend/internal/notification/inapp"
	"cmga_backend/internal/notification/outbox"
	"cmga_backend/platform/logger"
)

type fakeInapp struct {
	sent       []inapp.SendParams
	recipients []inapp.Recipient
}

func (f *fakeInapp) Send(ctx context.Context, p inapp.SendParams) error {
	f.sent = append(f.sent, p)
	return nil
}

func (f *fakeInapp) AdminRecipients(ctx context.Context) ([]inapp.Recipient, error) {
	return f.recipients, nil
}

type fakeOutbox struct {
	records   map[uuid.UUID]outbox.Record
	succeeded []uuid.UUID
	failed    []uuid.UUID
}

func newFakeOutbox() *fakeOutbox {
	return &fakeOutbox{records: map[uuid.UUID]outbox.Record{}}
}

func (f *fakeOutbox) Insert(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error) {
	payload, err := json.Marshal(p.Payload)
	if err != nil {
		return uuid.Nil, err
	}
	id := uuid.New()
	f.records[id] = outbox.Record{
		ID:      id,
		Kind:    p.Kind,
		Payload: payload,
		RunAt:   time.Now(),
		Status:  outbox.StatusPending,
	}
	return id, nil
}

func (f *fakeOutbox) GetByID(ctx context.Context, id uuid.UUID) (outbox.Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return outbox.Record{}, outbox.ErrNotFound
	}
	return rec, nil
}

func (f *fakeOutbox) MarkProcessing(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeOutbox) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	f.succeeded = append(f.succeeded, id)
	return nil
}

func (f *fakeOutbox) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeMailer struct {
	alerts []email.DeliveryAlert
	err    error
}

func (f *fakeMailer) SendDeliveryAlert(ctx context.Context, alert email.DeliveryAlert) error {
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, alert)
	return nil
}

func newTestModule(inappStore *fakeInapp, outboxStore *fakeOutbox, mailer *fakeMailer) *Module {
	return &Module{
		inapp:         inappStore,
		outbox:        outboxStore,
		mailer:        mailer,
		log:           logger.New("test"),
		alertsEnabled: true,
	}
}

func validatedEvent() events.DeliveryNoteValidated {
	return events.DeliveryNoteValidated{
		BaseEvent:     events.NewBaseEvent(),
		NoteID:        12,
		InvoiceID:     1,
		InvoiceNumber: "F-100",
		ActorID:       42,
		Outcome:       events.OutcomePartial,
		TotalCents:    150000,
	}
}

func TestNoteValidatedNotifiesAdminsAndQueuesEmail(t *testing.T) {
	inappStore := &fakeInapp{recipients: []inapp.Recipient{
		{UserID: 1, Email: "admin1@example.test"},
		{UserID: 2, Email: "admin2@example.test"},
	}}
	outboxStore := newFakeOutbox()
	m := newTestModule(inappStore, outboxStore, &fakeMailer{})

	if err := m.Handle(context.Background(), validatedEvent()); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(inappStore.sent) != 2 {
		t.Fatalf("in-app notifications = %d, want 2", len(inappStore.sent))
	}
	if len(outboxStore.records) != 1 {
		t.Fatalf("outbox records = %d, want 1", len(outboxStore.records))
	}
	for _, rec := range outboxStore.records {
		var payload deliveryAlertPayload
		if err := json.Unmarshal(rec.Payload, &payload); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if payload.InvoiceNumber != "F-100" || len(payload.Recipients) != 2 {
			t.Fatalf("payload = %+v", payload)
		}
	}
}

func TestOutboxDueSendsEmail(t *testing.T) {
	inappStore := &fakeInapp{recipients: []inapp.Recipient{{UserID: 1, Email: "admin@example.test"}}}
	outboxStore := newFakeOutbox()
	mailer := &fakeMailer{}
	m := newTestModule(inappStore, outboxStore, mailer)
	ctx := context.Background()

	if err := m.Handle(ctx, validatedEvent()); err != nil {
		t.Fatalf("Handle validated: %v", err)
	}
	var id uuid.UUID
	for recID := range outboxStore.records {
		id = recID
	}

	if err := m.Handle(ctx, events.NotificationOutboxDue{BaseEvent: events.NewBaseEvent(), OutboxID: id}); err != nil {
		t.Fatalf("Handle due: %v", err)
	}
	if len(mailer.alerts) != 1 {
		t.Fatalf("alerts sent = %d, want 1", len(mailer.alerts))
	}
	if mailer.alerts[0].InvoiceNumber != "F-100" || mailer.alerts[0].NoteID != 12 {
		t.Fatalf("alert = %+v", mailer.alerts[0])
	}
	if len(outboxStore.succeeded) != 1 {
		t.Fatalf("succeeded = %v, want one record", outboxStore.succeeded)
	}
}

func TestOutboxDueFailureMarksFailed(t *testing.T) {
	inappStore := &fakeInapp{recipients: []inapp.Recipient{{UserID: 1, Email: "admin@example.test"}}}
	outboxStore := newFakeOutbox()
	mailer := &fakeMailer{err: errors.New("smtp down")}
	m := newTestModule(inappStore, outboxStore, mailer)
	ctx := context.Background()

	if err := m.Handle(ctx, validatedEvent()); err != nil {
		t.Fatalf("Handle validated: %v", err)
	}
	var id uuid.UUID
	for recID := range outboxStore.records {
		id = recID
	}

	if err := m.Handle(ctx, events.NotificationOutboxDue{BaseEvent: events.NewBaseEvent(), OutboxID: id}); err != nil {
		t.Fatalf("Handle due: %v", err)
	}
	if len(outboxStore.failed) != 1 {
		t.Fatalf("failed = %v, want one record", outboxStore.failed)
	}
	if len(mailer.alerts) != 0 {
		t.Fatal("no alert should be recorded on failure")
	}
}

func TestAlertsDisabledSkipsOutbox(t *testing.T) {
	inappStore := &fakeInapp{recipients: []inapp.Recipient{{UserID: 1, Email: "admin@example.test"}}}
	outboxStore := newFakeOutbox()
	m := newTestModule(inappStore, outboxStore, &fakeMailer{})
	m.alertsEnabled = false

	if err := m.Handle(context.Background(), validatedEvent()); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(inappStore.sent) != 1 {
		t.Fatalf("in-app notifications = %d, want 1", len(inappStore.sent))
	}
	if len(outboxStore.records) != 0 {
		t.Fatal("outbox record written while alerts disabled")
	}
}
