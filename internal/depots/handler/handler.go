package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cmga_backend/internal/depots/service"
	"cmga_backend/platform/httpkit"
	"cmga_backend/platform/validator"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

type depotResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	NeedDoubleCheck bool   `json:"needDoubleCheck"`
}

type setDoubleCheckRequest struct {
	NeedDoubleCheck *bool `json:"needDoubleCheck" validate:"required"`
}

// List returns all depots.
// GET /api/v1/depots
func (h *Handler) List(c *gin.Context) {
	depots, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]depotResponse, 0, len(depots))
	for _, d := range depots {
		out = append(out, depotResponse{ID: d.ID, Name: d.Name, NeedDoubleCheck: d.NeedDoubleCheck})
	}
	httpkit.OK(c, out)
}

// Get returns one depot.
// GET /api/v1/depots/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "identifiant de dépôt invalide", nil)
		return
	}
	depot, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, depotResponse{ID: depot.ID, Name: depot.Name, NeedDoubleCheck: depot.NeedDoubleCheck})
}

// SetDoubleCheck toggles a depot's double-check policy.
// PATCH /api/v1/admin/depots/:id/double-check
func (h *Handler) SetDoubleCheck(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "identifiant de dépôt invalide", nil)
		return
	}
	var req setDoubleCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "requête invalide", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "données invalides", err.Error())
		return
	}

	depot, err := h.svc.SetDoubleCheck(c.Request.Context(), id, *req.NeedDoubleCheck)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, depotResponse{ID: depot.ID, Name: depot.Name, NeedDoubleCheck: depot.NeedDoubleCheck})
}
