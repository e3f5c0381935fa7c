package service

import (
	"context"

	"cmga_backend/internal/delivery/domain"
	"cmga_backend/internal/delivery/repository"
	"cmga_backend/internal/events"
	"cmga_backend/platform/apperr"
)

// ConfirmDeliveryResult reports the outcome of a confirmation.
type ConfirmDeliveryResult struct {
	Message   string
	NoteID    int64
	Outcome   events.DeliveryOutcome
	Completed bool
}

// ConfirmDelivery is the second-check gate: a controller validates the
// pending note of the invoice. The lines are recomputed against the current
// canonical baseline rather than trusted from the note, so a baseline that
// moved between submission and confirmation cannot smuggle in an
// over-delivery. When nothing remains after this round the invoice is
// finalized.
func (s *Service) ConfirmDelivery(ctx context.Context, invoiceNumber string, actorID int64, actorRole string) (ConfirmDeliveryResult, error) {
	var result ConfirmDeliveryResult
	var pending []events.Event
	err := s.store.Tx(ctx, func(ops repository.TxOps) error {
		inv, err := s.lockInvoice(ctx, ops, invoiceNumber)
		if err != nil {
			return err
		}

		note, err := ops.LatestNote(ctx, inv.ID)
		if err != nil {
			return err
		}
		if note == nil {
			return apperr.Conflict("aucun bon de livraison à confirmer")
		}
		if note.Status == domain.NoteValidated {
			return apperr.Conflict("bon de livraison déjà validé")
		}

		order, err := ops.OrderLines(ctx, inv.ID)
		if err != nil {
			return err
		}
		reported, err := ops.NoteItems(ctx, note.ID)
		if err != nil {
			return err
		}
		baseline, err := s.baselineFor(ctx, ops, inv.ID, order, inv.IsCompleteDelivery)
		if err != nil {
			return err
		}
		lines, err := s.reconcileOrReject(baseline, reported, inv.IsCompleteDelivery)
		if err != nil {
			return err
		}

		if err := ops.AddConfirmation(ctx, actorID, note.ID); err != nil {
			return err
		}
		total := domain.SumTotal(lines)
		if err := ops.ValidateNote(ctx, note.ID, lines, total); err != nil {
			return err
		}

		outcome := events.OutcomePartial
		completed := domain.TotalRemaining(lines) == 0
		params := repository.UpdateInvoiceParams{
			InvoiceID:          inv.ID,
			Status:             domain.InvoiceEnCours,
			IsCompleteDelivery: inv.IsCompleteDelivery,
		}
		if completed {
			outcome = events.OutcomeDelivered
			deliveredAt := s.now()
			params.Status = domain.InvoiceLivree
			params.IsCompleted = true
			params.DeliveredAt = &deliveredAt
		}
		if err := ops.UpdateInvoiceDelivery(ctx, params); err != nil {
			return err
		}

		pending = []events.Event{events.DeliveryNoteValidated{
			BaseEvent:     events.NewBaseEvent(),
			NoteID:        note.ID,
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.Number,
			ActorID:       actorID,
			ActorRole:     actorRole,
			Outcome:       outcome,
			TotalCents:    total,
		}}
		if completed {
			pending = append(pending, events.InvoiceCompleted{
				BaseEvent:     events.NewBaseEvent(),
				InvoiceID:     inv.ID,
				InvoiceNumber: inv.Number,
				NoteID:        note.ID,
				ActorID:       actorID,
			})
		}

		message := "bon de livraison validé, livraison partielle"
		if completed {
			message = "bon de livraison validé, facture livrée"
		}
		result = ConfirmDeliveryResult{
			Message:   message,
			NoteID:    note.ID,
			Outcome:   outcome,
			Completed: completed,
		}
		return nil
	})
	if err != nil {
		return ConfirmDeliveryResult{}, err
	}

	s.log.DeliveryEvent("note_confirmed", invoiceNumber, result.NoteID, actorID)
	s.publish(ctx, pending)
	return result, nil
}
