package transport

import "testing"

func intp(v int) *int { return &v }

func TestDeliveredQuantityPrefersQuantiteLivree(t *testing.T) {
	cases := []struct {
		name string
		line ProductLine
		want int
	}{
		{"quantiteLivree only", ProductLine{QuantiteLivree: intp(6)}, 6},
		{"quantite only", ProductLine{Quantite: intp(4)}, 4},
		{"both set", ProductLine{QuantiteLivree: intp(6), Quantite: intp(4)}, 6},
		{"zero quantiteLivree wins over quantite", ProductLine{QuantiteLivree: intp(0), Quantite: intp(4)}, 0},
		{"neither set", ProductLine{}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.line.DeliveredQuantity(); got != tc.want {
				t.Fatalf("DeliveredQuantity() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestLinesKeepsOrderAndReferences(t *testing.T) {
	req := ProcessDeliveryRequest{
		Products: []ProductLine{
			{Reference: "EAU-50", QuantiteLivree: intp(10)},
			{Reference: "SODA-33", Quantite: intp(3)},
		},
	}

	lines := req.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Reference != "EAU-50" || lines[0].Quantity != 10 {
		t.Fatalf("unexpected first line: %+v", lines[0])
	}
	if lines[1].Reference != "SODA-33" || lines[1].Quantity != 3 {
		t.Fatalf("unexpected second line: %+v", lines[1])
	}
}
