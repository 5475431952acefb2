package pricing

import (
	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
)

// IsContractOrigin reports whether an item is a standard contract-derived
// line: it did not come from a saved template, and it either matches a known
// service keyword set or is the rent line itself.
func IsContractOrigin(item invoicedomain.InvoiceItem, kw KeywordTable) bool {
	if item.TemplateID != nil {
		return false
	}
	if item.Category == invoicedomain.CategoryRent {
		return true
	}
	return kw.MatchKnownService(item.Name)
}

// Classify derives the capability record for an item. It must be recomputed
// on every edit cycle: the pricing mode depends on contract data that may
// itself refresh.
//
// Unit price and quantity are read-only in every branch. Meter readings are
// editable iff the resolved mode is perUsage.
func Classify(item invoicedomain.InvoiceItem, mode Mode, kw KeywordTable) Editability {
	if IsContractOrigin(item, kw) {
		return Editability{
			IsEditable:           true,
			CanEditDescription:   true,
			CanEditMeterReadings: mode == ModePerUsage,
		}
	}

	switch item.Category {
	case invoicedomain.CategoryUtility,
		invoicedomain.CategoryService,
		invoicedomain.CategoryMaintenance,
		invoicedomain.CategoryOther:
		return Editability{
			IsEditable:           true,
			CanEditDescription:   true,
			CanEditMeterReadings: mode == ModePerUsage,
		}
	case invoicedomain.CategoryRent:
		// Rent with a template origin is malformed data; lock it down.
		return Editability{}
	default:
		return Editability{}
	}
}
