package domain

// ReceiptStatus represents the lifecycle of an uploaded receipt.
type ReceiptStatus string

const (
	ReceiptStatusProcessing ReceiptStatus = "processing"
	ReceiptStatusPending    ReceiptStatus = "pending"
	ReceiptStatusReview     ReceiptStatus = "review"
	ReceiptStatusConfirmed  ReceiptStatus = "confirmed"
	ReceiptStatusError      ReceiptStatus = "error"
)

// receiptTransitions lists the statuses each status may advance to.
var receiptTransitions = map[ReceiptStatus][]ReceiptStatus{
	ReceiptStatusProcessing: {ReceiptStatusPending, ReceiptStatusReview, ReceiptStatusError},
	ReceiptStatusPending:    {ReceiptStatusReview, ReceiptStatusConfirmed, ReceiptStatusError},
	ReceiptStatusReview:     {ReceiptStatusConfirmed, ReceiptStatusError},
}

// CanTransitionTo reports whether a receipt in status s may move to next.
// Statuses only advance forward; confirmed and error are terminal.
func (s ReceiptStatus) CanTransitionTo(next ReceiptStatus) bool {
	for _, allowed := range receiptTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Unit is the canonical unit vocabulary shared by receipt items and catalog packaging.
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLiter      Unit = "l"
	UnitMilliliter Unit = "ml"
	UnitPiece      Unit = "piece"
	UnitNone       Unit = "none"
)

// IsMass reports whether the unit measures mass.
func (u Unit) IsMass() bool { return u == UnitKilogram || u == UnitGram }

// IsVolume reports whether the unit measures volume.
func (u Unit) IsVolume() bool { return u == UnitLiter || u == UnitMilliliter }

// ParserID identifies the store grammar that produced a receipt.
type ParserID string

const (
	ParserCarrefour ParserID = "carrefour"
	ParserLeclerc   ParserID = "leclerc"
	ParserGeneric   ParserID = "generic"
)

// DiscountTag marks a receipt item produced by a discount line.
const DiscountTag = "(Réduction)"
