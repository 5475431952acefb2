package pricing

import (
	"testing"

	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsage(t *testing.T) {
	item := invoicedomain.InvoiceItem{
		PreviousReading: ptr(100),
		CurrentReading:  ptr(150),
	}
	assert.Equal(t, int64(50), Usage(item, nil))

	// Pending edits win over stored values.
	assert.Equal(t, int64(80), Usage(item, ItemEdits{FieldCurrentReading: "180"}))
	assert.Equal(t, int64(140), Usage(item, ItemEdits{FieldPreviousReading: "10"}))

	// Decreasing readings floor at zero rather than going negative.
	item.CurrentReading = ptr(40)
	assert.Equal(t, int64(0), Usage(item, nil))

	// Missing readings count as zero.
	assert.Equal(t, int64(30), Usage(invoicedomain.InvoiceItem{CurrentReading: ptr(30)}, nil))
	assert.Equal(t, int64(0), Usage(invoicedomain.InvoiceItem{}, nil))
}

func TestCommitAmount_FixedItem(t *testing.T) {
	item := invoicedomain.InvoiceItem{
		Type:      invoicedomain.TypeFixed,
		Quantity:  2,
		UnitPrice: 150000,
	}
	qty, amount := CommitAmount(item, ModePerRoom, nil)
	assert.Equal(t, int64(2), qty)
	assert.Equal(t, int64(300000), amount)
}

func TestCommitAmount_VariableItemDerivesQuantity(t *testing.T) {
	item := invoicedomain.InvoiceItem{
		Type:            invoicedomain.TypeVariable,
		Quantity:        999, // stale, must be overwritten
		UnitPrice:       3500,
		PreviousReading: ptr(100),
		CurrentReading:  ptr(150),
	}
	qty, amount := CommitAmount(item, ModePerUsage, nil)
	assert.Equal(t, int64(50), qty)
	assert.Equal(t, int64(175000), amount)
}

func TestCommitAmount_Idempotent(t *testing.T) {
	item := invoicedomain.InvoiceItem{
		Type:            invoicedomain.TypeVariable,
		UnitPrice:       3500,
		PreviousReading: ptr(100),
		CurrentReading:  ptr(135),
	}

	qty, amount := CommitAmount(item, ModePerUsage, nil)
	assert.Equal(t, int64(35), qty)
	assert.Equal(t, int64(122500), amount)

	// Re-running over the committed state changes nothing.
	item.Quantity, item.Amount = qty, amount
	qty2, amount2 := CommitAmount(item, ModePerUsage, nil)
	assert.Equal(t, qty, qty2)
	assert.Equal(t, amount, amount2)
}

func TestCommitAmount_PerPersonMultiplier(t *testing.T) {
	item := invoicedomain.InvoiceItem{
		Type:        invoicedomain.TypeFixed,
		Quantity:    1,
		UnitPrice:   100000,
		IsPerPerson: true,
		PersonCount: 3,
	}

	_, amount := CommitAmount(item, ModePerPerson, nil)
	assert.Equal(t, int64(300000), amount)

	// The multiplier applies only under perPerson pricing.
	_, amount = CommitAmount(item, ModePerRoom, nil)
	assert.Equal(t, int64(100000), amount)

	// Opt-out or missing count disables it.
	item.IsPerPerson = false
	_, amount = CommitAmount(item, ModePerPerson, nil)
	assert.Equal(t, int64(100000), amount)

	item.IsPerPerson = true
	item.PersonCount = 0
	_, amount = CommitAmount(item, ModePerPerson, nil)
	assert.Equal(t, int64(100000), amount)
}

// The display-only recompute historically omits the occupant multiplier.
// Both functions stay in place so the divergence is visible; only
// CommitAmount feeds persisted amounts.
func TestDisplayAmount_DivergesUnderPerPerson(t *testing.T) {
	item := invoicedomain.InvoiceItem{
		Type:        invoicedomain.TypeFixed,
		Quantity:    1,
		UnitPrice:   100000,
		IsPerPerson: true,
		PersonCount: 3,
	}

	_, commit := CommitAmount(item, ModePerPerson, nil)
	display := DisplayAmount(item, ModePerPerson, nil)

	assert.Equal(t, int64(300000), commit)
	assert.Equal(t, int64(100000), display)
}

func TestDisplayAmount_PerPersonCleaningFee(t *testing.T) {
	item := invoicedomain.InvoiceItem{
		Type:        invoicedomain.TypeFixed,
		Quantity:    1,
		UnitPrice:   50000,
		IsPerPerson: true,
		PersonCount: 4,
	}
	_, commit := CommitAmount(item, ModePerPerson, nil)
	assert.Equal(t, int64(200000), commit)
	assert.Equal(t, int64(50000), DisplayAmount(item, ModePerPerson, nil))
}

func TestDisplayAmount_AgreesOutsidePerPerson(t *testing.T) {
	item := invoicedomain.InvoiceItem{
		Type:            invoicedomain.TypeVariable,
		UnitPrice:       3500,
		PreviousReading: ptr(100),
		CurrentReading:  ptr(160),
	}
	_, commit := CommitAmount(item, ModePerUsage, nil)
	assert.Equal(t, commit, DisplayAmount(item, ModePerUsage, nil))
}

func TestApplyEdit_CommitsAndRecomputes(t *testing.T) {
	item := invoicedomain.InvoiceItem{
		Type:            invoicedomain.TypeVariable,
		UnitPrice:       3500,
		PreviousReading: ptr(100),
		CurrentReading:  ptr(120),
	}

	fieldErr := ApplyEdit(&item, ModePerUsage, FieldCurrentReading, "160", nil)
	require.Nil(t, fieldErr)
	require.NotNil(t, item.CurrentReading)
	assert.Equal(t, int64(160), *item.CurrentReading)
	assert.Equal(t, int64(60), item.Quantity)
	assert.Equal(t, int64(210000), item.Amount)
}

func TestApplyEdit_RemainingEditsStillApply(t *testing.T) {
	item := invoicedomain.InvoiceItem{
		Type:            invoicedomain.TypeVariable,
		UnitPrice:       1000,
		PreviousReading: ptr(10),
		CurrentReading:  ptr(20),
	}
	edits := ItemEdits{
		FieldPreviousReading: "100",
		FieldCurrentReading:  "150",
	}

	// Committing the previous reading still derives usage against the
	// pending current reading.
	fieldErr := ApplyEdit(&item, ModePerUsage, FieldPreviousReading, "100", edits)
	require.Nil(t, fieldErr)
	assert.Equal(t, int64(50), item.Quantity)
	assert.Equal(t, int64(50000), item.Amount)
}

func TestApplyEdit_ValidationFailureLeavesItemUntouched(t *testing.T) {
	item := invoicedomain.InvoiceItem{
		Type:            invoicedomain.TypeVariable,
		UnitPrice:       3500,
		PreviousReading: ptr(100),
		CurrentReading:  ptr(120),
		Quantity:        20,
		Amount:          70000,
	}
	before := item

	fieldErr := ApplyEdit(&item, ModePerUsage, FieldCurrentReading, "90", nil)
	require.NotNil(t, fieldErr)
	assert.Equal(t, CodeReadingDecreased, fieldErr.Code)
	assert.Equal(t, before, item)
}
