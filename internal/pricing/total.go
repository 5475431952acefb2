package pricing

import (
	"time"

	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
)

// Total sums line amounts into the invoice total. No taxes or discounts
// apply at this layer.
func Total(items []invoicedomain.InvoiceItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Amount
	}
	return total
}

// ItemSnapshot captures the dirty-checked fields of one line.
type ItemSnapshot struct {
	Name            string
	Description     string
	Quantity        int64
	UnitPrice       int64
	PreviousReading *int64
	CurrentReading  *int64
	Amount          int64
}

// Snapshot is the baseline taken at load time, used purely for change
// detection before deciding whether a save round-trip is needed.
type Snapshot struct {
	DueDate string // date-only ISO
	Note    string
	Items   []ItemSnapshot
}

// NewSnapshot deep-copies the dirty-checked state of an invoice.
func NewSnapshot(invoice invoicedomain.Invoice) Snapshot {
	snap := Snapshot{
		DueDate: invoice.DueDate.UTC().Format("2006-01-02"),
		Note:    invoice.Note,
		Items:   make([]ItemSnapshot, 0, len(invoice.Items)),
	}
	for _, item := range invoice.Items {
		snap.Items = append(snap.Items, snapshotItem(item, nil))
	}
	return snap
}

func snapshotItem(item invoicedomain.InvoiceItem, edits ItemEdits) ItemSnapshot {
	snap := ItemSnapshot{
		Name:        item.Name,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Amount:      item.Amount,
	}
	if item.PreviousReading != nil {
		v := *item.PreviousReading
		snap.PreviousReading = &v
	}
	if item.CurrentReading != nil {
		v := *item.CurrentReading
		snap.CurrentReading = &v
	}

	// In-progress edits count as divergence from the baseline even before
	// they are committed to the item.
	if prev, ok := edits[FieldPreviousReading]; ok {
		if value, valid := parseDigits(prev); valid {
			snap.PreviousReading = &value
		}
	}
	if cur, ok := edits[FieldCurrentReading]; ok {
		if value, valid := parseDigits(cur); valid {
			snap.CurrentReading = &value
		}
	}
	return snap
}

// Changed deep-compares the current invoice state (plus pending edits)
// against the baseline snapshot. A false result means a save round-trip
// would be a no-op and can be skipped.
func Changed(invoice invoicedomain.Invoice, dueDate time.Time, note string, edits PendingEdits, baseline Snapshot) bool {
	if dueDate.UTC().Format("2006-01-02") != baseline.DueDate {
		return true
	}
	if note != baseline.Note {
		return true
	}
	if len(invoice.Items) != len(baseline.Items) {
		return true
	}
	for i, item := range invoice.Items {
		current := snapshotItem(item, edits.forItem(item, i))
		if !equalItemSnapshots(current, baseline.Items[i]) {
			return true
		}
	}
	return false
}

func equalItemSnapshots(a, b ItemSnapshot) bool {
	return a.Name == b.Name &&
		a.Description == b.Description &&
		a.Quantity == b.Quantity &&
		a.UnitPrice == b.UnitPrice &&
		a.Amount == b.Amount &&
		equalReadings(a.PreviousReading, b.PreviousReading) &&
		equalReadings(a.CurrentReading, b.CurrentReading)
}

func equalReadings(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
