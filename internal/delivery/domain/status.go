// Package domain provides core business rules for the delivery bounded
// context: line reconciliation, note/invoice statuses, and the workflow
// decision table. Everything here is pure and store-agnostic.
package domain

// InvoiceStatus is the lifecycle status of an invoice. Values are the
// business codes used by the upstream invoicing subsystem.
type InvoiceStatus string

const (
	InvoiceNonReceptionnee InvoiceStatus = "NON_RECEPTIONNEE"
	InvoiceEnAttente       InvoiceStatus = "EN_ATTENTE"
	InvoiceEnCours         InvoiceStatus = "EN_COURS"
	InvoiceLivree          InvoiceStatus = "LIVREE"
	InvoiceRetour          InvoiceStatus = "RETOUR"
	InvoiceRegule          InvoiceStatus = "REGULE"
)

// NoteStatus is the lifecycle status of a delivery note (BL). The French
// wording is the stored business value, shared with the dashboard.
type NoteStatus string

const (
	// NotePending marks a note awaiting second-party confirmation.
	NotePending NoteStatus = "en attente de confirmation"
	// NoteValidated marks a finalized note. Terminal.
	NoteValidated NoteStatus = "validée"
)

// IsTerminal reports whether an invoice can no longer accept deliveries.
// LIVREE is the only terminal delivery state; RETOUR and REGULE are handled
// by the recovery subsystem, outside this engine.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceLivree
}
