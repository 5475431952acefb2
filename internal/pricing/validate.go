package pricing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	contractdomain "github.com/openrentals/rentbill/internal/contract/domain"
	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
)

// Error codes for field-level validation, in rule priority order.
const (
	CodeRequired         = "required"
	CodeNumericOnly      = "numeric_only"
	CodeNegative         = "negative"
	CodeReadingDecreased = "reading_decreased"
	CodeZeroReading      = "zero_reading"
)

// FieldError is a field-level validation failure. It blocks only the field
// it names; the user's unconfirmed input stays in the pending-edit map.
type FieldError struct {
	Field   Field  `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Code)
}

// Violation ties a field error to the item it occurred on.
type Violation struct {
	ItemKey string `json:"item_key"`
	Field   Field  `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// ValidateField checks one raw input against an item. Rules apply in
// priority order and the first failing rule wins: required, digits only,
// non-negative, and for the current reading monotonicity against the
// effective previous reading (pending edit preferred over stored value).
func ValidateField(field Field, raw string, item invoicedomain.InvoiceItem, edits ItemEdits) *FieldError {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return &FieldError{Field: field, Code: CodeRequired, Message: "value is required"}
	}
	if !digitsOnly.MatchString(trimmed) {
		return &FieldError{Field: field, Code: CodeNumericOnly, Message: "only digits 0-9 are allowed"}
	}

	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return &FieldError{Field: field, Code: CodeNumericOnly, Message: "only digits 0-9 are allowed"}
	}
	// Unreachable given the digits-only regex, kept as an explicit invariant.
	if value < 0 {
		return &FieldError{Field: field, Code: CodeNegative, Message: "value cannot be negative"}
	}

	if field == FieldCurrentReading {
		if prev, ok := effectiveReading(item, FieldPreviousReading, edits); ok && value < prev {
			return &FieldError{
				Field:   field,
				Code:    CodeReadingDecreased,
				Message: "new reading cannot be lower than old reading",
			}
		}
	}

	return nil
}

// effectiveReading resolves a meter reading preferring the in-progress
// edited value over the stored item value.
func effectiveReading(item invoicedomain.InvoiceItem, field Field, edits ItemEdits) (int64, bool) {
	if raw, ok := edits[field]; ok {
		trimmed := strings.TrimSpace(raw)
		if digitsOnly.MatchString(trimmed) {
			value, err := strconv.ParseInt(trimmed, 10, 64)
			if err == nil {
				return value, true
			}
		}
		return 0, false
	}

	switch field {
	case FieldPreviousReading:
		if item.PreviousReading != nil {
			return *item.PreviousReading, true
		}
	case FieldCurrentReading:
		if item.CurrentReading != nil {
			return *item.CurrentReading, true
		}
	}
	return 0, false
}

// effectiveRaw returns the raw string view of a reading: the pending edit if
// present, otherwise the stored value rendered back to text. Blank means the
// reading was never entered.
func effectiveRaw(item invoicedomain.InvoiceItem, field Field, edits ItemEdits) string {
	if raw, ok := edits[field]; ok {
		return strings.TrimSpace(raw)
	}
	switch field {
	case FieldPreviousReading:
		if item.PreviousReading != nil {
			return strconv.FormatInt(*item.PreviousReading, 10)
		}
	case FieldCurrentReading:
		if item.CurrentReading != nil {
			return strconv.FormatInt(*item.CurrentReading, 10)
		}
	}
	return ""
}

// FormErrors runs the submit-time whole-form check. Beyond any live field
// error in the pending edits, a perUsage variable item whose previous or
// current reading is blank or exactly zero blocks submission: a zero reading
// is treated as "never entered", not a legitimate meter value.
func FormErrors(
	items []invoicedomain.InvoiceItem,
	contract *contractdomain.Contract,
	edits PendingEdits,
	kw KeywordTable,
) []Violation {
	var violations []Violation

	for i, item := range items {
		key := Key(item, i)
		itemEdits := edits.forItem(item, i)

		for _, field := range []Field{FieldPreviousReading, FieldCurrentReading, FieldQuantity, FieldUnitPrice} {
			raw, ok := itemEdits[field]
			if !ok {
				continue
			}
			if fieldErr := ValidateField(field, raw, item, itemEdits); fieldErr != nil {
				violations = append(violations, Violation{
					ItemKey: key,
					Field:   fieldErr.Field,
					Code:    fieldErr.Code,
					Message: fieldErr.Message,
				})
			}
		}

		mode := ResolveMode(item, contract, kw)
		if mode != ModePerUsage || item.Type != invoicedomain.TypeVariable {
			continue
		}

		for _, field := range []Field{FieldPreviousReading, FieldCurrentReading} {
			raw := effectiveRaw(item, field, itemEdits)
			if raw == "" {
				violations = append(violations, Violation{
					ItemKey: key,
					Field:   field,
					Code:    CodeRequired,
					Message: "meter reading is required",
				})
				continue
			}
			if value, err := strconv.ParseInt(raw, 10, 64); err == nil && value == 0 {
				violations = append(violations, Violation{
					ItemKey: key,
					Field:   field,
					Code:    CodeZeroReading,
					Message: "meter reading has not been entered",
				})
			}
		}
	}

	return violations
}

// HasFormErrors is the boolean submit gate over FormErrors.
func HasFormErrors(
	items []invoicedomain.InvoiceItem,
	contract *contractdomain.Contract,
	edits PendingEdits,
	kw KeywordTable,
) bool {
	return len(FormErrors(items, contract, edits, kw)) > 0
}
