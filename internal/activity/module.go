// Package activity records the delivery engine's audit trail. It subscribes
// to delivery events so domain modules never write log entries directly.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"cmga_backend/internal/activity/repository"
	"cmga_backend/internal/events"
	apphttp "cmga_backend/internal/http"
	"cmga_backend/platform/httpkit"
	"cmga_backend/platform/logger"
)

// Module is the activity bounded context module implementing http.Module and
// events.Handler.
type Module struct {
	repo *repository.Repository
	log  *logger.Logger
}

func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Module {
	m := &Module{repo: repository.New(pool), log: log}
	bus.Subscribe(events.DeliveryNoteCreated{}.EventName(), m)
	bus.Subscribe(events.DeliveryNoteValidated{}.EventName(), m)
	bus.Subscribe(events.InvoiceCompleted{}.EventName(), m)
	return m
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "activity"
}

// Handle writes one audit entry per delivery event.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.DeliveryNoteCreated:
		action := "bl_cree"
		if e.Pending {
			action = "bl_en_attente"
		}
		return m.repo.Insert(ctx, repository.InsertParams{
			ActorID:   e.ActorID,
			Action:    action,
			Role:      e.ActorRole,
			InvoiceID: e.InvoiceID,
			Metadata: map[string]any{
				"blId":          e.NoteID,
				"invoiceNumber": e.InvoiceNumber,
				"driverId":      e.DriverID,
			},
		})
	case events.DeliveryNoteValidated:
		return m.repo.Insert(ctx, repository.InsertParams{
			ActorID:   e.ActorID,
			Action:    "bl_valide",
			Role:      e.ActorRole,
			InvoiceID: e.InvoiceID,
			Metadata: map[string]any{
				"blId":          e.NoteID,
				"invoiceNumber": e.InvoiceNumber,
				"outcome":       string(e.Outcome),
				"total":         e.TotalCents,
			},
		})
	case events.InvoiceCompleted:
		return m.repo.Insert(ctx, repository.InsertParams{
			ActorID:   e.ActorID,
			Action:    "facture_livree",
			InvoiceID: e.InvoiceID,
			Metadata: map[string]any{
				"blId":          e.NoteID,
				"invoiceNumber": e.InvoiceNumber,
			},
		})
	}
	return nil
}

// RegisterRoutes mounts the audit trail view.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/invoices/:number/activity", m.listByInvoice)
}

type entryResponse struct {
	ID        int64           `json:"id"`
	ActorID   int64           `json:"actorId"`
	Action    string          `json:"action"`
	Role      string          `json:"role,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// GET /api/v1/invoices/:number/activity
func (m *Module) listByInvoice(c *gin.Context) {
	entries, err := m.repo.ListByInvoiceNumber(c.Request.Context(), c.Param("number"))
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:        e.ID,
			ActorID:   e.ActorID,
			Action:    e.Action,
			Role:      e.Role,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	httpkit.OK(c, out)
}
