// Package delivery provides the delivery fulfillment bounded context: note
// creation, quantity reconciliation across rounds, and the double-check
// confirmation gate.
package delivery

import (
	"cmga_backend/internal/delivery/handler"
	"cmga_backend/internal/delivery/repository"
	"cmga_backend/internal/delivery/service"
	"cmga_backend/internal/events"
	apphttp "cmga_backend/internal/http"
	"cmga_backend/platform/httpkit"
	"cmga_backend/platform/logger"
	"cmga_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the delivery bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the delivery module. Depot policy and
// driver lookups are owned by their own modules and injected as interfaces.
func NewModule(pool *pgxpool.Pool, depots service.DepotPolicyReader, drivers service.DriverDirectory, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, depots, drivers, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "delivery"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the delivery routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/process-delivery", m.handler.ProcessDelivery)

	confirm := ctx.Protected.Group("")
	confirm.Use(httpkit.RequireRole("controleur", "admin"))
	confirm.POST("/confirm-bl", m.handler.ConfirmBL)

	notes := ctx.Protected.Group("/delivery-notes")
	notes.GET("/:id", m.handler.GetNote)
	notes.GET("/:id/qr", m.handler.NoteQR)

	ctx.Protected.GET("/invoices/:number/delivery-notes", m.handler.ListNotesForInvoice)
}
