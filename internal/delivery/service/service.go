// Package service implements the delivery fulfillment workflow: turning an
// invoice's order into delivery notes across one or more rounds, and the
// second-check confirmation gate for depots that require it.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cmga_backend/internal/delivery/domain"
	"cmga_backend/internal/delivery/repository"
	"cmga_backend/internal/events"
	"cmga_backend/platform/apperr"
	"cmga_backend/platform/logger"
)

// DepotPolicyReader resolves the double-check policy of the depot a user
// belongs to.
type DepotPolicyReader interface {
	PolicyForUser(ctx context.Context, userID int64) (needDoubleCheck bool, err error)
}

// DriverDirectory verifies driver references before they land on a note.
type DriverDirectory interface {
	Exists(ctx context.Context, driverID int64) (bool, error)
}

type Service struct {
	store   repository.Store
	depots  DepotPolicyReader
	drivers DriverDirectory
	bus     events.Bus
	log     *logger.Logger
	now     func() time.Time
}

func New(store repository.Store, depots DepotPolicyReader, drivers DriverDirectory, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		depots:  depots,
		drivers: drivers,
		bus:     bus,
		log:     log,
		now:     time.Now,
	}
}

// ProcessDeliveryInput is the delivery request a dispatcher or warehouse
// operator submits for one invoice.
type ProcessDeliveryInput struct {
	InvoiceNumber    string
	Lines            []domain.LineItem
	CompleteDelivery bool
	DriverID         int64
	ActorID          int64
	ActorRole        string
}

// ProcessDeliveryResult reports what the workflow did. Pending is true when
// the note still awaits a second-party confirmation.
type ProcessDeliveryResult struct {
	Message string
	NoteID  int64
	Pending bool
	Outcome events.DeliveryOutcome
}

const msgAwaitingConfirmation = "bon de livraison en attente de confirmation"

// ProcessDelivery creates a delivery note for the invoice. The depot policy
// of the requesting user and the delivery mode select the workflow variant:
// without double-check the note is validated in the same call; with
// double-check a pending note is created and a controller finalizes it later
// through ConfirmDelivery.
//
// Resubmitting while a note is pending is not an error: the pending state is
// returned unchanged, so warehouse scanners may safely retry on timeout.
func (s *Service) ProcessDelivery(ctx context.Context, in ProcessDeliveryInput) (ProcessDeliveryResult, error) {
	if strings.TrimSpace(in.InvoiceNumber) == "" {
		return ProcessDeliveryResult{}, apperr.Validation("numéro de facture requis")
	}
	// A full-delivery claim carries no quantities; a partial round without
	// any reported line would persist a note that delivers nothing.
	if !in.CompleteDelivery && len(in.Lines) == 0 {
		return ProcessDeliveryResult{}, apperr.Validation("aucun produit livré")
	}

	needDoubleCheck, err := s.depots.PolicyForUser(ctx, in.ActorID)
	if err != nil {
		return ProcessDeliveryResult{}, err
	}
	ok, err := s.drivers.Exists(ctx, in.DriverID)
	if err != nil {
		return ProcessDeliveryResult{}, err
	}
	if !ok {
		return ProcessDeliveryResult{}, apperr.NotFound("chauffeur introuvable")
	}

	var result ProcessDeliveryResult
	var pending []events.Event
	err = s.store.Tx(ctx, func(ops repository.TxOps) error {
		inv, err := s.lockInvoice(ctx, ops, in.InvoiceNumber)
		if err != nil {
			return err
		}
		order, err := ops.OrderLines(ctx, inv.ID)
		if err != nil {
			return err
		}
		if len(order) == 0 {
			return apperr.Validation("la facture ne comporte aucune ligne")
		}

		switch domain.Decide(needDoubleCheck, in.CompleteDelivery) {
		case domain.VariantImmediate:
			result, pending, err = s.processImmediate(ctx, ops, inv, order, in)
		case domain.VariantPendingFull:
			result, pending, err = s.processPendingFull(ctx, ops, inv, order, in)
		default:
			result, pending, err = s.processPendingPartial(ctx, ops, inv, order, in)
		}
		return err
	})
	if err != nil {
		return ProcessDeliveryResult{}, err
	}

	event := "note_validated"
	if result.Pending {
		event = "note_pending"
	}
	s.log.DeliveryEvent(event, in.InvoiceNumber, result.NoteID, in.ActorID)
	s.publish(ctx, pending)
	return result, nil
}

// lockInvoice loads the invoice under a row lock and rejects terminal ones.
// The lock serializes concurrent rounds for the same invoice.
func (s *Service) lockInvoice(ctx context.Context, ops repository.TxOps, number string) (repository.Invoice, error) {
	inv, err := ops.InvoiceForUpdate(ctx, number)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Invoice{}, apperr.NotFound("facture introuvable")
	}
	if err != nil {
		return repository.Invoice{}, err
	}
	if inv.IsCompleted || inv.Status.IsTerminal() {
		return repository.Invoice{}, apperr.Conflict("facture déjà livrée")
	}
	return inv, nil
}

// processImmediate handles depots without double-check: the note is created
// already validated and the requester's sign-off is the only confirmation.
func (s *Service) processImmediate(ctx context.Context, ops repository.TxOps, inv repository.Invoice, order []domain.LineItem, in ProcessDeliveryInput) (ProcessDeliveryResult, []events.Event, error) {
	baseline, err := s.baselineFor(ctx, ops, inv.ID, order, in.CompleteDelivery)
	if err != nil {
		return ProcessDeliveryResult{}, nil, err
	}
	lines, err := s.reconcileOrReject(baseline, in.Lines, in.CompleteDelivery)
	if err != nil {
		return ProcessDeliveryResult{}, nil, err
	}

	note, err := ops.CreateNote(ctx, repository.CreateNoteParams{
		InvoiceID:   inv.ID,
		DriverID:    in.DriverID,
		CreatedBy:   in.ActorID,
		Status:      domain.NoteValidated,
		IsDelivered: true,
		Items:       lines,
	})
	if err != nil {
		return ProcessDeliveryResult{}, nil, err
	}
	if err := ops.AddConfirmation(ctx, in.ActorID, note.ID); err != nil {
		return ProcessDeliveryResult{}, nil, err
	}

	outcome := events.OutcomePartial
	completed := domain.TotalRemaining(lines) == 0
	if completed {
		outcome = events.OutcomeDelivered
		deliveredAt := s.now()
		if err := ops.UpdateInvoiceDelivery(ctx, repository.UpdateInvoiceParams{
			InvoiceID:          inv.ID,
			Status:             domain.InvoiceLivree,
			IsCompleted:        true,
			IsCompleteDelivery: in.CompleteDelivery,
			DeliveredAt:        &deliveredAt,
		}); err != nil {
			return ProcessDeliveryResult{}, nil, err
		}
	}

	evts := []events.Event{
		events.DeliveryNoteCreated{
			BaseEvent:     events.NewBaseEvent(),
			NoteID:        note.ID,
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.Number,
			DriverID:      in.DriverID,
			ActorID:       in.ActorID,
			ActorRole:     in.ActorRole,
			Pending:       false,
		},
		events.DeliveryNoteValidated{
			BaseEvent:     events.NewBaseEvent(),
			NoteID:        note.ID,
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.Number,
			ActorID:       in.ActorID,
			ActorRole:     in.ActorRole,
			Outcome:       outcome,
			TotalCents:    domain.SumTotal(lines),
		},
	}
	if completed {
		evts = append(evts, events.InvoiceCompleted{
			BaseEvent:     events.NewBaseEvent(),
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.Number,
			NoteID:        note.ID,
			ActorID:       in.ActorID,
		})
	}

	return ProcessDeliveryResult{
		Message: "bon de livraison validé",
		NoteID:  note.ID,
		Outcome: outcome,
	}, evts, nil
}

// processPendingFull handles a full-delivery claim on a double-check depot.
// The first note carries the original order with nothing remaining; a
// re-issue after a validated round copies that round's recorded products and
// records the requester's provisional sign-off.
func (s *Service) processPendingFull(ctx context.Context, ops repository.TxOps, inv repository.Invoice, order []domain.LineItem, in ProcessDeliveryInput) (ProcessDeliveryResult, []events.Event, error) {
	if result, ok, err := s.pendingState(ctx, ops, inv.ID); err != nil || ok {
		return result, nil, err
	}

	latest, err := ops.LatestNote(ctx, inv.ID)
	if err != nil {
		return ProcessDeliveryResult{}, nil, err
	}

	var items []domain.LineItem
	reissue := latest != nil
	if reissue {
		items, err = ops.NoteItems(ctx, latest.ID)
	} else {
		items, err = domain.Reconcile(domain.BaselineFromOrder(order), nil, true)
	}
	if err != nil {
		return ProcessDeliveryResult{}, nil, err
	}

	note, err := ops.CreateNote(ctx, repository.CreateNoteParams{
		InvoiceID: inv.ID,
		DriverID:  in.DriverID,
		CreatedBy: in.ActorID,
		Status:    domain.NotePending,
		Items:     items,
	})
	if err != nil {
		return ProcessDeliveryResult{}, nil, err
	}
	if reissue {
		// Provisional sign-off by the requester; the controller adds the
		// final one at validation.
		if err := ops.AddConfirmation(ctx, in.ActorID, note.ID); err != nil {
			return ProcessDeliveryResult{}, nil, err
		}
	}
	if err := ops.UpdateInvoiceDelivery(ctx, repository.UpdateInvoiceParams{
		InvoiceID:          inv.ID,
		Status:             domain.InvoiceEnCours,
		IsCompleteDelivery: true,
	}); err != nil {
		return ProcessDeliveryResult{}, nil, err
	}

	return s.pendingCreated(inv, note, in)
}

// processPendingPartial handles explicit partial quantities on a double-check
// depot: the reconciled lines are frozen on a pending note for the controller
// to validate.
func (s *Service) processPendingPartial(ctx context.Context, ops repository.TxOps, inv repository.Invoice, order []domain.LineItem, in ProcessDeliveryInput) (ProcessDeliveryResult, []events.Event, error) {
	if result, ok, err := s.pendingState(ctx, ops, inv.ID); err != nil || ok {
		return result, nil, err
	}

	baseline, err := s.baselineFor(ctx, ops, inv.ID, order, false)
	if err != nil {
		return ProcessDeliveryResult{}, nil, err
	}
	lines, err := s.reconcileOrReject(baseline, in.Lines, false)
	if err != nil {
		return ProcessDeliveryResult{}, nil, err
	}

	note, err := ops.CreateNote(ctx, repository.CreateNoteParams{
		InvoiceID: inv.ID,
		DriverID:  in.DriverID,
		CreatedBy: in.ActorID,
		Status:    domain.NotePending,
		Items:     lines,
	})
	if err != nil {
		return ProcessDeliveryResult{}, nil, err
	}
	if err := ops.UpdateInvoiceDelivery(ctx, repository.UpdateInvoiceParams{
		InvoiceID: inv.ID,
		Status:    domain.InvoiceEnCours,
	}); err != nil {
		return ProcessDeliveryResult{}, nil, err
	}

	return s.pendingCreated(inv, note, in)
}

// pendingState returns the idempotent "awaiting confirmation" result when a
// note is already pending on the invoice.
func (s *Service) pendingState(ctx context.Context, ops repository.TxOps, invoiceID int64) (ProcessDeliveryResult, bool, error) {
	note, err := ops.PendingNote(ctx, invoiceID)
	if err != nil {
		return ProcessDeliveryResult{}, false, err
	}
	if note == nil {
		return ProcessDeliveryResult{}, false, nil
	}
	return ProcessDeliveryResult{
		Message: msgAwaitingConfirmation,
		NoteID:  note.ID,
		Pending: true,
	}, true, nil
}

func (s *Service) pendingCreated(inv repository.Invoice, note repository.DeliveryNote, in ProcessDeliveryInput) (ProcessDeliveryResult, []events.Event, error) {
	evts := []events.Event{events.DeliveryNoteCreated{
		BaseEvent:     events.NewBaseEvent(),
		NoteID:        note.ID,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.Number,
		DriverID:      in.DriverID,
		ActorID:       in.ActorID,
		ActorRole:     in.ActorRole,
		Pending:       true,
	}}
	return ProcessDeliveryResult{
		Message: msgAwaitingConfirmation,
		NoteID:  note.ID,
		Pending: true,
	}, evts, nil
}

// baselineFor returns the reconciliation baseline: the original order for a
// full-delivery claim, otherwise the most recently validated note's recorded
// lines, falling back to the order when no round was validated yet.
func (s *Service) baselineFor(ctx context.Context, ops repository.TxOps, invoiceID int64, order []domain.LineItem, fullDelivery bool) ([]domain.LineItem, error) {
	if fullDelivery {
		return domain.BaselineFromOrder(order), nil
	}
	prev, err := ops.LatestValidatedNote(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return domain.BaselineFromOrder(order), nil
	}
	return ops.NoteItems(ctx, prev.ID)
}

// reconcileOrReject runs the reconciler and turns structural problems and
// over-delivery into validation errors.
func (s *Service) reconcileOrReject(baseline, reported []domain.LineItem, fullDelivery bool) ([]domain.LineItem, error) {
	lines, err := domain.Reconcile(baseline, reported, fullDelivery)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if refs := domain.OverDelivered(lines); len(refs) > 0 {
		return nil, apperr.Validation(fmt.Sprintf(
			"quantité livrée supérieure au restant pour: %s", strings.Join(refs, ", ")))
	}
	return lines, nil
}

// publish sends events after the transaction committed. Failures are the
// bus's problem; delivery state is already durable.
func (s *Service) publish(ctx context.Context, evts []events.Event) {
	for _, evt := range evts {
		s.bus.Publish(context.WithoutCancel(ctx), evt)
	}
}
