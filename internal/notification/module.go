// Package notification turns delivery events into admin alerts: an in-app
// notification written immediately and an outbox record that the scheduler
// drains into an email. Subscribing to events here keeps the delivery engine
// ignorant of alert channels.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"cmga_backend/internal/email"
	"cmga_backend/internal/events"
	apphttp "cmga_backend/internal/http"
	notifhandler "cmga_backend/internal/notification/handler"
	"cmga_backend/internal/notification/inapp"
	"cmga_backend/internal/notification/outbox"
	"cmga_backend/platform/logger"
)

const kindDeliveryAlert = "delivery_alert"

// deliveryAlertPayload is what an outbox record of kind delivery_alert holds.
type deliveryAlertPayload struct {
	InvoiceNumber string   `json:"invoiceNumber"`
	NoteID        int64    `json:"blId"`
	Outcome       string   `json:"outcome"`
	TotalCents    int64    `json:"totalCents"`
	Recipients    []string `json:"recipients"`
}

// AlertMailer sends the delivery alert email.
type AlertMailer interface {
	SendDeliveryAlert(ctx context.Context, alert email.DeliveryAlert) error
}

// InappStore is the slice of the in-app service the module needs.
type InappStore interface {
	Send(ctx context.Context, p inapp.SendParams) error
	AdminRecipients(ctx context.Context) ([]inapp.Recipient, error)
}

// OutboxStore is the slice of the outbox repository the module needs.
type OutboxStore interface {
	Insert(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (outbox.Record, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkSucceeded(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

// Module is the notification bounded context module implementing http.Module
// and events.Handler.
type Module struct {
	inapp   InappStore
	outbox  OutboxStore
	mailer  AlertMailer
	handler *notifhandler.Handler
	log     *logger.Logger

	alertsEnabled bool
}

func NewModule(pool *pgxpool.Pool, bus events.Bus, mailer AlertMailer, alertsEnabled bool, log *logger.Logger) *Module {
	inappRepo := inapp.NewRepository(pool)
	inappSvc := inapp.NewService(inappRepo, log)
	m := &Module{
		inapp:         inappSvc,
		outbox:        outbox.New(pool),
		mailer:        mailer,
		handler:       notifhandler.New(inappSvc),
		log:           log,
		alertsEnabled: alertsEnabled,
	}
	bus.Subscribe(events.DeliveryNoteValidated{}.EventName(), m)
	bus.Subscribe(events.NotificationOutboxDue{}.EventName(), m)
	return m
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// Handle reacts to delivery validations and due outbox records.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.DeliveryNoteValidated:
		return m.onNoteValidated(ctx, e)
	case events.NotificationOutboxDue:
		return m.processOutboxRecord(ctx, e.OutboxID)
	}
	return nil
}

func (m *Module) onNoteValidated(ctx context.Context, e events.DeliveryNoteValidated) error {
	recipients, err := m.inapp.AdminRecipients(ctx)
	if err != nil {
		return err
	}

	title := "Bon de livraison validé"
	content := fmt.Sprintf("BL n°%d — facture %s : %s", e.NoteID, e.InvoiceNumber, e.Outcome)
	noteID := e.NoteID
	for _, rec := range recipients {
		if err := m.inapp.Send(ctx, inapp.SendParams{
			UserID:   rec.UserID,
			Title:    title,
			Content:  content,
			Category: "success",
			NoteID:   &noteID,
		}); err != nil {
			m.log.Error("in-app delivery alert failed", "error", err, "user_id", rec.UserID)
		}
	}

	if !m.alertsEnabled {
		return nil
	}

	emails := make([]string, 0, len(recipients))
	for _, rec := range recipients {
		if rec.Email != "" {
			emails = append(emails, rec.Email)
		}
	}
	if len(emails) == 0 {
		return nil
	}

	_, err = m.outbox.Insert(ctx, outbox.InsertParams{
		Kind: kindDeliveryAlert,
		Payload: deliveryAlertPayload{
			InvoiceNumber: e.InvoiceNumber,
			NoteID:        e.NoteID,
			Outcome:       string(e.Outcome),
			TotalCents:    e.TotalCents,
			Recipients:    emails,
		},
	})
	return err
}

func (m *Module) processOutboxRecord(ctx context.Context, id uuid.UUID) error {
	rec, err := m.outbox.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.Kind != kindDeliveryAlert {
		m.log.Warn("unknown outbox kind", "kind", rec.Kind, "outbox_id", id)
		return m.outbox.MarkFailed(ctx, id, "unknown kind "+rec.Kind)
	}

	if err := m.outbox.MarkProcessing(ctx, id); err != nil {
		return err
	}

	var payload deliveryAlertPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return m.outbox.MarkFailed(ctx, id, "bad payload: "+err.Error())
	}

	err = m.mailer.SendDeliveryAlert(ctx, email.DeliveryAlert{
		InvoiceNumber: payload.InvoiceNumber,
		NoteID:        payload.NoteID,
		Outcome:       payload.Outcome,
		TotalCents:    payload.TotalCents,
		Recipients:    payload.Recipients,
	})
	if err != nil {
		m.log.Error("delivery alert email failed", "error", err, "outbox_id", id)
		return m.outbox.MarkFailed(ctx, id, err.Error())
	}
	return m.outbox.MarkSucceeded(ctx, id)
}

// RegisterRoutes mounts the notification endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	notifications := ctx.Protected.Group("/notifications")
	notifications.GET("", m.handler.List)
	notifications.GET("/unread-count", m.handler.UnreadCount)
	notifications.POST("/:id/read", m.handler.MarkRead)
	notifications.POST("/read-all", m.handler.MarkAllRead)
}
