// Package depots provides the depot policy bounded context.
package depots

import (
	"cmga_backend/internal/depots/handler"
	"cmga_backend/internal/depots/repository"
	"cmga_backend/internal/depots/service"
	apphttp "cmga_backend/internal/http"
	"cmga_backend/platform/logger"
	"cmga_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the depots bounded context module implementing http.Module.
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
	return "depots"
}

// Service exposes the policy reader for the delivery module.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts depot routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	depots := ctx.Protected.Group("/depots")
	depots.GET("", m.handler.List)
	depots.GET("/:id", m.handler.Get)

	ctx.Admin.PATCH("/depots/:id/double-check", m.handler.SetDoubleCheck)
}
