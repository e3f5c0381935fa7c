package domain

// Variant identifies which workflow path a delivery request takes. The
// depot policy and the delivery mode fan out into exactly three variants;
// keeping the combination in one table avoids duplicated branch logic.
type Variant int

const (
	// VariantImmediate finalizes the note in the same call: no second check.
	VariantImmediate Variant = iota
	// VariantPendingFull creates a pending full-delivery note for later
	// confirmation by a controller.
	VariantPendingFull
	// VariantPendingPartial creates a pending note from explicit partial
	// quantities for later confirmation.
	VariantPendingPartial
)

func (v Variant) String() string {
	switch v {
	case VariantImmediate:
		return "immediate"
	case VariantPendingFull:
		return "pending_full"
	case VariantPendingPartial:
		return "pending_partial"
	default:
		return "unknown"
	}
}

// Decide maps (depot policy × delivery mode) to the workflow variant.
//
//	needDoubleCheck=false, any mode      → immediate
//	needDoubleCheck=true, complete       → pending full
//	needDoubleCheck=true, partial        → pending partial
func Decide(needDoubleCheck, completeDelivery bool) Variant {
	if !needDoubleCheck {
		return VariantImmediate
	}
	if completeDelivery {
		return VariantPendingFull
	}
	return VariantPendingPartial
}
