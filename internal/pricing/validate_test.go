package pricing

import (
	"testing"

	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateField_RuleOrder(t *testing.T) {
	item := invoicedomain.InvoiceItem{PreviousReading: ptr(100)}

	cases := []struct {
		raw  string
		code string
	}{
		{"", CodeRequired},
		{"   ", CodeRequired},
		{"12a", CodeNumericOnly},
		{"-5", CodeNumericOnly}, // the sign itself fails digits-only first
		{"1.5", CodeNumericOnly},
		{"50", CodeReadingDecreased},
	}
	for _, tc := range cases {
		err := ValidateField(FieldCurrentReading, tc.raw, item, nil)
		require.NotNil(t, err, "raw=%q", tc.raw)
		assert.Equal(t, tc.code, err.Code, "raw=%q", tc.raw)
	}

	assert.Nil(t, ValidateField(FieldCurrentReading, "100", item, nil))
	assert.Nil(t, ValidateField(FieldCurrentReading, " 150 ", item, nil))
}

func TestValidateField_MonotonicityPrefersPendingPrevious(t *testing.T) {
	// Stored previous is 100, but an in-progress edit raises it to 200:
	// the live value wins the comparison.
	item := invoicedomain.InvoiceItem{PreviousReading: ptr(100)}
	edits := ItemEdits{FieldPreviousReading: "200"}

	err := ValidateField(FieldCurrentReading, "150", item, edits)
	require.NotNil(t, err)
	assert.Equal(t, CodeReadingDecreased, err.Code)

	assert.Nil(t, ValidateField(FieldCurrentReading, "250", item, edits))
}

func TestValidateField_NoPreviousSkipsMonotonicity(t *testing.T) {
	item := invoicedomain.InvoiceItem{}
	assert.Nil(t, ValidateField(FieldCurrentReading, "0", item, nil))
}

func TestValidateField_PreviousReadingNotChecked(t *testing.T) {
	// Raising the previous reading above the current one is allowed at
	// field level; only the current reading carries the monotonicity rule.
	item := invoicedomain.InvoiceItem{CurrentReading: ptr(50)}
	assert.Nil(t, ValidateField(FieldPreviousReading, "100", item, nil))
}

func TestFormErrors_PerUsageReadingsRequired(t *testing.T) {
	kw := DefaultKeywords()
	contract := testContract()

	item := invoicedomain.InvoiceItem{
		ID:       testID(1),
		Name:     "Tiền điện",
		Category: invoicedomain.CategoryUtility,
		Type:     invoicedomain.TypeVariable,
	}

	violations := FormErrors([]invoicedomain.InvoiceItem{item}, contract, nil, kw)
	require.Len(t, violations, 2)
	assert.Equal(t, CodeRequired, violations[0].Code)
	assert.Equal(t, FieldPreviousReading, violations[0].Field)
	assert.Equal(t, CodeRequired, violations[1].Code)
	assert.Equal(t, FieldCurrentReading, violations[1].Field)
}

func TestFormErrors_ZeroReadingBlocks(t *testing.T) {
	kw := DefaultKeywords()
	contract := testContract()

	item := invoicedomain.InvoiceItem{
		ID:              testID(1),
		Name:            "Tiền điện",
		Category:        invoicedomain.CategoryUtility,
		Type:            invoicedomain.TypeVariable,
		PreviousReading: ptr(0),
		CurrentReading:  ptr(120),
	}

	violations := FormErrors([]invoicedomain.InvoiceItem{item}, contract, nil, kw)
	require.Len(t, violations, 1)
	assert.Equal(t, CodeZeroReading, violations[0].Code)
	assert.Equal(t, FieldPreviousReading, violations[0].Field)
}

func TestFormErrors_PendingEditsSatisfyReadings(t *testing.T) {
	kw := DefaultKeywords()
	contract := testContract()

	item := invoicedomain.InvoiceItem{
		ID:       testID(1),
		Name:     "Tiền điện",
		Category: invoicedomain.CategoryUtility,
		Type:     invoicedomain.TypeVariable,
	}
	edits := PendingEdits{
		testID(1).String(): {
			FieldPreviousReading: "100",
			FieldCurrentReading:  "150",
		},
	}

	assert.Empty(t, FormErrors([]invoicedomain.InvoiceItem{item}, contract, edits, kw))
	assert.False(t, HasFormErrors([]invoicedomain.InvoiceItem{item}, contract, edits, kw))
}

func TestFormErrors_InvalidPendingEditSurfaces(t *testing.T) {
	kw := DefaultKeywords()
	contract := testContract()

	item := invoicedomain.InvoiceItem{
		ID:              testID(1),
		Name:            "Tiền điện",
		Category:        invoicedomain.CategoryUtility,
		Type:            invoicedomain.TypeVariable,
		PreviousReading: ptr(100),
		CurrentReading:  ptr(150),
	}
	edits := PendingEdits{
		testID(1).String(): {FieldCurrentReading: "abc"},
	}

	violations := FormErrors([]invoicedomain.InvoiceItem{item}, contract, edits, kw)
	require.NotEmpty(t, violations)
	assert.Equal(t, CodeNumericOnly, violations[0].Code)
	assert.Equal(t, testID(1).String(), violations[0].ItemKey)
}

func TestFormErrors_FixedItemsSkipReadingGate(t *testing.T) {
	kw := DefaultKeywords()
	contract := testContract()

	// perRoom internet and the rent line carry no meter readings at all.
	items := []invoicedomain.InvoiceItem{
		{ID: testID(1), Name: "Internet", Category: invoicedomain.CategoryService, Type: invoicedomain.TypeFixed},
		{ID: testID(2), Name: "Tiền phòng", Category: invoicedomain.CategoryRent, Type: invoicedomain.TypeFixed},
	}
	assert.Empty(t, FormErrors(items, contract, nil, kw))
}
