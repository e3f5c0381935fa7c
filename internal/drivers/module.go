// Package drivers provides the driver directory bounded context.
package drivers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"cmga_backend/internal/drivers/repository"
	"cmga_backend/internal/drivers/service"
	apphttp "cmga_backend/internal/http"
	"cmga_backend/platform/httpkit"
)

// Module is the drivers bounded context module implementing http.Module.
type Module struct {
	service *service.Service
}

func NewModule(pool *pgxpool.Pool) *Module {
	return &Module{service: service.New(repository.New(pool))}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "drivers"
}

// Service exposes the directory for the delivery module.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts driver routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/drivers", m.list)
}

func (m *Module) list(c *gin.Context) {
	includeInactive := c.Query("includeInactive") == "true"
	drivers, err := m.service.List(c.Request.Context(), includeInactive)
	if httpkit.HandleError(c, err) {
		return
	}

	type driverResponse struct {
		ID       int64  `json:"id"`
		FullName string `json:"fullName"`
		Phone    string `json:"phone"`
		IsActive bool   `json:"isActive"`
	}
	out := make([]driverResponse, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, driverResponse{ID: d.ID, FullName: d.FullName, Phone: d.Phone, IsActive: d.IsActive})
	}
	c.JSON(http.StatusOK, out)
}
