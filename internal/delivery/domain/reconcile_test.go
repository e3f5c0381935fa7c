package domain

import "testing"

func order() []LineItem {
	return []LineItem{
		{Reference: "EAU-50", Designation: "Eau minérale 50cl", Quantity: 100, UnitPriceCents: 250},
		{Reference: "SODA-33", Designation: "Soda 33cl", Quantity: 40, UnitPriceCents: 400},
	}
}

func TestBaselineFromOrder(t *testing.T) {
	baseline := BaselineFromOrder(order())
	for _, line := range baseline {
		if line.RemainingQty != line.Quantity {
			t.Fatalf("reference %s: remaining = %d, want %d", line.Reference, line.RemainingQty, line.Quantity)
		}
	}
}

func TestReconcileFullDelivery(t *testing.T) {
	lines, err := Reconcile(BaselineFromOrder(order()), nil, true)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := TotalRemaining(lines); got != 0 {
		t.Fatalf("total remaining = %d, want 0", got)
	}
	if lines[0].Quantity != 100 || lines[0].TotalCents != 25000 {
		t.Fatalf("line EAU-50 = %+v, want qty 100, total 25000", lines[0])
	}
	if got := SumTotal(lines); got != 25000+16000 {
		t.Fatalf("sum total = %d, want %d", got, 25000+16000)
	}
}

func TestReconcilePartialRound(t *testing.T) {
	reported := []LineItem{
		{Reference: "EAU-50", Quantity: 60},
		{Reference: "SODA-33", Quantity: 40},
	}
	lines, err := Reconcile(BaselineFromOrder(order()), reported, false)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if lines[0].RemainingQty != 40 {
		t.Fatalf("EAU-50 remaining = %d, want 40", lines[0].RemainingQty)
	}
	if lines[1].RemainingQty != 0 {
		t.Fatalf("SODA-33 remaining = %d, want 0", lines[1].RemainingQty)
	}
	if lines[0].TotalCents != 60*250 {
		t.Fatalf("EAU-50 total = %d, want %d", lines[0].TotalCents, 60*250)
	}
}

// A second round reconciles against the previous round's remaining
// quantities, and delivered quantities across rounds sum to the order.
func TestReconcileSuccessiveRounds(t *testing.T) {
	first, err := Reconcile(BaselineFromOrder(order()), []LineItem{
		{Reference: "EAU-50", Quantity: 60},
	}, false)
	if err != nil {
		t.Fatalf("first round: %v", err)
	}

	second, err := Reconcile(first, []LineItem{
		{Reference: "EAU-50", Quantity: 40},
		{Reference: "SODA-33", Quantity: 40},
	}, false)
	if err != nil {
		t.Fatalf("second round: %v", err)
	}
	if got := TotalRemaining(second); got != 0 {
		t.Fatalf("total remaining after second round = %d, want 0", got)
	}

	// Conservation per reference: delivered sums match the order.
	delivered := map[string]int{}
	for _, line := range first {
		delivered[line.Reference] += line.Quantity
	}
	for _, line := range second {
		delivered[line.Reference] += line.Quantity
	}
	for _, line := range order() {
		if delivered[line.Reference] != line.Quantity {
			t.Fatalf("reference %s: delivered %d, want %d", line.Reference, delivered[line.Reference], line.Quantity)
		}
	}
}

func TestReconcileAbsentLineKeepsRemaining(t *testing.T) {
	lines, err := Reconcile(BaselineFromOrder(order()), []LineItem{
		{Reference: "SODA-33", Quantity: 10},
	}, false)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if lines[0].Quantity != 0 || lines[0].TotalCents != 0 {
		t.Fatalf("absent line delivered %+v, want zero quantity and total", lines[0])
	}
	if lines[0].RemainingQty != 100 {
		t.Fatalf("absent line remaining = %d, want 100", lines[0].RemainingQty)
	}
}

func TestReconcileOverDeliveryNotClamped(t *testing.T) {
	lines, err := Reconcile(BaselineFromOrder(order()), []LineItem{
		{Reference: "SODA-33", Quantity: 55},
	}, false)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if lines[1].RemainingQty != -15 {
		t.Fatalf("remaining = %d, want -15", lines[1].RemainingQty)
	}
	refs := OverDelivered(lines)
	if len(refs) != 1 || refs[0] != "SODA-33" {
		t.Fatalf("over-delivered refs = %v, want [SODA-33]", refs)
	}
}

func TestReconcileRejectsBadInput(t *testing.T) {
	baseline := BaselineFromOrder(order())

	if _, err := Reconcile(baseline, []LineItem{{Reference: "BIERE-75", Quantity: 5}}, false); err == nil {
		t.Fatal("expected error for reference not on the order")
	}
	if _, err := Reconcile(baseline, []LineItem{
		{Reference: "EAU-50", Quantity: 5},
		{Reference: "EAU-50", Quantity: 3},
	}, false); err == nil {
		t.Fatal("expected error for duplicate reference")
	}
	if _, err := Reconcile(baseline, []LineItem{{Reference: "EAU-50", Quantity: -1}}, false); err == nil {
		t.Fatal("expected error for negative quantity")
	}
}

func TestReconcileIsPure(t *testing.T) {
	baseline := BaselineFromOrder(order())
	reported := []LineItem{{Reference: "EAU-50", Quantity: 30}}

	if _, err := Reconcile(baseline, reported, false); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if baseline[0].RemainingQty != 100 || reported[0].TotalCents != 0 {
		t.Fatal("inputs were mutated")
	}
}
