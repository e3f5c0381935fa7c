package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"cmga_backend/internal/delivery/service"
	"cmga_backend/internal/delivery/transport"
	"cmga_backend/platform/httpkit"
	"cmga_backend/platform/validator"
)

// Handler handles HTTP requests for the delivery workflow.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "requête invalide"
	msgValidationFailed = "données invalides"
	msgInvalidID        = "identifiant de bon de livraison invalide"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ProcessDelivery records a delivery round for an invoice.
// POST /api/v1/process-delivery
func (h *Handler) ProcessDelivery(c *gin.Context) {
	var req transport.ProcessDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ProcessDelivery(c.Request.Context(), service.ProcessDeliveryInput{
		InvoiceNumber:    req.InvoiceNumber,
		Lines:            req.Lines(),
		CompleteDelivery: req.IsCompleteDelivery,
		DriverID:         req.DriverID,
		ActorID:          identity.UserID(),
		ActorRole:        identity.Role(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ProcessDeliveryResponse{
		Message: result.Message,
		BlID:    result.NoteID,
		Pending: result.Pending,
		Outcome: string(result.Outcome),
	})
}

// ConfirmBL validates the pending delivery note of an invoice.
// POST /api/v1/confirm-bl
func (h *Handler) ConfirmBL(c *gin.Context) {
	var req transport.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ConfirmDelivery(c.Request.Context(), req.InvoiceNumber, identity.UserID(), identity.Role())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ConfirmResponse{
		Message:   result.Message,
		BlID:      result.NoteID,
		Outcome:   string(result.Outcome),
		Completed: result.Completed,
	})
}

// GetNote returns a delivery note with its reconciled lines.
// GET /api/v1/delivery-notes/:id
func (h *Handler) GetNote(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	note, items, err := h.svc.Note(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromNote(note, items))
}

// NoteQR returns a QR code identifying the note, printed on the paper BL so
// the depot can scan it back at confirmation time.
// GET /api/v1/delivery-notes/:id/qr
func (h *Handler) NoteQR(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	note, _, err := h.svc.Note(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	payload := "bl:" + strconv.FormatInt(note.ID, 10) + ";facture:" + strconv.FormatInt(note.InvoiceID, 10)
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ListNotesForInvoice lists an invoice's delivery rounds.
// GET /api/v1/invoices/:number/delivery-notes
func (h *Handler) ListNotesForInvoice(c *gin.Context) {
	notes, err := h.svc.NotesForInvoice(c.Request.Context(), c.Param("number"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromNotes(notes))
}
