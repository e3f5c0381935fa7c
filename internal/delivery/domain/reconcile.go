package domain

import "fmt"

// LineItem is one reconciled line of a delivery round. Quantity is what the
// round delivers for the reference; RemainingQty is what is still owed after
// it. Money is integer cents.
type LineItem struct {
	Reference      string
	Designation    string
	Quantity       int
	UnitPriceCents int64
	TotalCents     int64
	RemainingQty   int
}

// BaselineFromOrder converts an invoice's original order lines into a
// reconciliation baseline: nothing delivered yet, so the full ordered
// quantity of every line is remaining.
func BaselineFromOrder(order []LineItem) []LineItem {
	baseline := make([]LineItem, len(order))
	for i, line := range order {
		line.RemainingQty = line.Quantity
		baseline[i] = line
	}
	return baseline
}

// Reconcile computes the line list for a new delivery round.
//
// The baseline is the last validated note's recorded lines (whose
// RemainingQty carries what is still owed) or, when no validated note
// exists, BaselineFromOrder(order). When fullDelivery is true the caller
// asserts the whole invoice is delivered in this round: the baseline MUST
// then be the original order, and the output is that order with every
// RemainingQty forced to zero; reported is ignored.
//
// Otherwise each reported line is matched to its baseline line by reference:
// Quantity is the reported quantity, TotalCents = Quantity * UnitPriceCents,
// RemainingQty = baseline remaining - reported quantity. Baseline lines
// absent from reported keep their prior remaining quantity and deliver
// nothing. Over-delivery is NOT clamped: a negative RemainingQty passes
// through for the caller to reject (see OverDelivered).
//
// The function is deterministic and side-effect free. It returns an error
// only for structurally invalid input: a reported reference unknown to the
// baseline, a duplicated reported reference, or a negative reported
// quantity.
func Reconcile(baseline []LineItem, reported []LineItem, fullDelivery bool) ([]LineItem, error) {
	if fullDelivery {
		out := make([]LineItem, len(baseline))
		for i, line := range baseline {
			line.TotalCents = int64(line.Quantity) * line.UnitPriceCents
			line.RemainingQty = 0
			out[i] = line
		}
		return out, nil
	}

	byRef := make(map[string]LineItem, len(reported))
	for _, line := range reported {
		if line.Quantity < 0 {
			return nil, fmt.Errorf("negative quantity for reference %q", line.Reference)
		}
		if _, dup := byRef[line.Reference]; dup {
			return nil, fmt.Errorf("duplicate reference %q in reported delivery", line.Reference)
		}
		byRef[line.Reference] = line
	}

	out := make([]LineItem, len(baseline))
	known := make(map[string]bool, len(baseline))
	for i, base := range baseline {
		known[base.Reference] = true
		line := base
		if rep, ok := byRef[base.Reference]; ok {
			line.Quantity = rep.Quantity
			line.TotalCents = int64(rep.Quantity) * base.UnitPriceCents
			line.RemainingQty = base.RemainingQty - rep.Quantity
		} else {
			// Not part of this round: nothing delivered, remaining unchanged.
			line.Quantity = 0
			line.TotalCents = 0
		}
		out[i] = line
	}

	for ref := range byRef {
		if !known[ref] {
			return nil, fmt.Errorf("reference %q not on the invoice order", ref)
		}
	}

	return out, nil
}

// OverDelivered returns the references whose RemainingQty went negative,
// i.e. the round reports more than is still owed. The workflow must reject
// the request when this is non-empty.
func OverDelivered(lines []LineItem) []string {
	var refs []string
	for _, line := range lines {
		if line.RemainingQty < 0 {
			refs = append(refs, line.Reference)
		}
	}
	return refs
}

// TotalRemaining sums the remaining quantity across all lines. Zero means
// the invoice is fully delivered.
func TotalRemaining(lines []LineItem) int {
	total := 0
	for _, line := range lines {
		total += line.RemainingQty
	}
	return total
}

// SumTotal sums the monetary total of a round's lines.
func SumTotal(lines []LineItem) int64 {
	var total int64
	for _, line := range lines {
		total += line.TotalCents
	}
	return total
}
