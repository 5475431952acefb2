package pricing

import (
	"strings"

	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
)

// Usage derives metered consumption for a variable item, floored at zero.
// Reading values prefer in-progress edits over stored values; a missing
// reading counts as zero.
func Usage(item invoicedomain.InvoiceItem, edits ItemEdits) int64 {
	prev, _ := effectiveReading(item, FieldPreviousReading, edits)
	cur, _ := effectiveReading(item, FieldCurrentReading, edits)
	usage := cur - prev
	if usage < 0 {
		return 0
	}
	return usage
}

// CommitAmount is the canonical amount computation used by every write path.
//
// Fixed items bill quantity × unitPrice; variable items bill usage ×
// unitPrice with quantity overwritten to the derived usage. Under perPerson
// pricing the result is additionally multiplied by the occupant count when
// the item opts in and a positive count is set. Amounts are integer VND.
func CommitAmount(item invoicedomain.InvoiceItem, mode Mode, edits ItemEdits) (quantity, amount int64) {
	switch item.Type {
	case invoicedomain.TypeVariable:
		quantity = Usage(item, edits)
	default:
		quantity = item.Quantity
	}

	amount = quantity * item.UnitPrice
	if mode == ModePerPerson && item.IsPerPerson && item.PersonCount > 0 {
		amount *= item.PersonCount
	}
	return quantity, amount
}

// DisplayAmount reproduces the historical display-only recompute, which
// omits the occupant multiplier that CommitAmount applies under perPerson
// pricing. The two disagree for perPerson items; keeping both named and
// tested makes the divergence visible until product decides which one is
// canonical. No write path calls this function.
func DisplayAmount(item invoicedomain.InvoiceItem, mode Mode, edits ItemEdits) int64 {
	_ = mode

	quantity := item.Quantity
	if item.Type == invoicedomain.TypeVariable {
		quantity = Usage(item, edits)
	}
	return quantity * item.UnitPrice
}

// ApplyEdit validates and commits one raw field edit to the item, rederiving
// quantity and amount in the same step. On a validation failure the item is
// left untouched and the error is returned for inline display.
func ApplyEdit(item *invoicedomain.InvoiceItem, mode Mode, field Field, raw string, edits ItemEdits) *FieldError {
	if fieldErr := ValidateField(field, raw, *item, edits); fieldErr != nil {
		return fieldErr
	}

	value, _ := parseDigits(strings.TrimSpace(raw))
	switch field {
	case FieldPreviousReading:
		item.PreviousReading = &value
	case FieldCurrentReading:
		item.CurrentReading = &value
	case FieldQuantity:
		// Quantity is only programmatically set for fixed items; variable
		// items rederive it below regardless.
		item.Quantity = value
	case FieldUnitPrice:
		// Not user-facing; recomputation still occurs when a template
		// apply changes the price programmatically.
		item.UnitPrice = value
	}

	// The committed field supersedes its pending edit for derivation.
	remaining := make(ItemEdits, len(edits))
	for f, v := range edits {
		if f != field {
			remaining[f] = v
		}
	}

	item.Quantity, item.Amount = CommitAmount(*item, mode, remaining)
	return nil
}

func parseDigits(raw string) (int64, bool) {
	var value int64
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
		value = value*10 + int64(r-'0')
	}
	return value, raw != ""
}
