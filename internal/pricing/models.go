// Package pricing derives consumption, per-line amounts and invoice totals
// from contract pricing rules and user-edited field values. Everything in
// this package is pure: no I/O, no clocks other than explicit parameters.
package pricing

import (
	"fmt"

	contractdomain "github.com/openrentals/rentbill/internal/contract/domain"
	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
)

// Mode is the pricing mode resolved for an item from its contract.
// The zero value means no contract-level rule governs the item.
type Mode string

const (
	ModeNone      Mode = ""
	ModePerRoom   Mode = "perRoom"
	ModePerUsage  Mode = "perUsage"
	ModePerPerson Mode = "perPerson"
)

func modeFromPriceType(pt contractdomain.PriceType) Mode {
	switch pt {
	case contractdomain.PriceTypePerRoom:
		return ModePerRoom
	case contractdomain.PriceTypePerUsage:
		return ModePerUsage
	case contractdomain.PriceTypePerPerson:
		return ModePerPerson
	default:
		return ModeNone
	}
}

// Field identifies a user-editable numeric field on an item.
type Field string

const (
	FieldPreviousReading Field = "previousReading"
	FieldCurrentReading  Field = "currentReading"
	FieldQuantity        Field = "quantity"
	FieldUnitPrice       Field = "unitPrice"
)

// Editability is the capability record derived for one item. Unit price and
// quantity are read-only in every branch; meter readings open up only under
// perUsage pricing.
type Editability struct {
	IsEditable           bool `json:"is_editable"`
	CanEditName          bool `json:"can_edit_name"`
	CanEditDescription   bool `json:"can_edit_description"`
	CanEditQuantity      bool `json:"can_edit_quantity"`
	CanEditUnitPrice     bool `json:"can_edit_unit_price"`
	CanEditMeterReadings bool `json:"can_edit_meter_readings"`
}

// ItemEdits holds the raw in-progress string values for one item's fields.
type ItemEdits map[Field]string

// PendingEdits maps item keys to their in-progress field values. It is owned
// by the caller and passed by value into every engine call; the engine never
// keeps edit state of its own.
type PendingEdits map[string]ItemEdits

// Key returns the pending-edit key for an item: its id when persisted,
// otherwise the positional index.
func Key(item invoicedomain.InvoiceItem, index int) string {
	if item.ID != 0 {
		return item.ID.String()
	}
	return fmt.Sprintf("idx:%d", index)
}

func (p PendingEdits) forItem(item invoicedomain.InvoiceItem, index int) ItemEdits {
	if p == nil {
		return nil
	}
	return p[Key(item, index)]
}
