package domain

import "testing"

func TestDecide(t *testing.T) {
	cases := []struct {
		name            string
		needDoubleCheck bool
		complete        bool
		want            Variant
	}{
		{"no check, full", false, true, VariantImmediate},
		{"no check, partial", false, false, VariantImmediate},
		{"check, full", true, true, VariantPendingFull},
		{"check, partial", true, false, VariantPendingPartial},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.needDoubleCheck, tc.complete); got != tc.want {
				t.Fatalf("Decide(%v, %v) = %s, want %s", tc.needDoubleCheck, tc.complete, got, tc.want)
			}
		})
	}
}

func TestInvoiceStatusIsTerminal(t *testing.T) {
	if !InvoiceLivree.IsTerminal() {
		t.Fatal("LIVREE should be terminal")
	}
	for _, s := range []InvoiceStatus{InvoiceNonReceptionnee, InvoiceEnAttente, InvoiceEnCours, InvoiceRetour, InvoiceRegule} {
		if s.IsTerminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}
