package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cmga_backend/internal/invoices/service"
	"cmga_backend/internal/invoices/transport"
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

// List returns a page of invoices.
// GET /api/v1/invoices?status=&page=&pageSize=
func (h *Handler) List(c *gin.Context) {
	var req transport.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "requête invalide", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "données invalides", err.Error())
		return
	}

	invoices, err := h.svc.List(c.Request.Context(), req.Status, req.Page, req.PageSize)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromInvoices(invoices))
}

// Get returns one invoice with its order lines.
// GET /api/v1/invoices/:number
func (h *Handler) Get(c *gin.Context) {
	inv, lines, err := h.svc.ByNumber(c.Request.Context(), c.Param("number"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromInvoice(inv, lines))
}
