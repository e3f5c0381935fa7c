// Package invoices provides the read-only invoice bounded context.
package invoices

import (
	apphttp "cmga_backend/internal/http"
	"cmga_backend/internal/invoices/handler"
	"cmga_backend/internal/invoices/repository"
	"cmga_backend/internal/invoices/service"
	"cmga_backend/platform/logger"
	"cmga_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the invoices bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "invoices"
}

// RegisterRoutes mounts the invoice read routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	invoices := ctx.Protected.Group("/invoices")
	invoices.GET("", m.handler.List)
	invoices.GET("/:number", m.handler.Get)
}
