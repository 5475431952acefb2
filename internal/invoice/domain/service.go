package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	contractdomain "github.com/openrentals/rentbill/internal/contract/domain"
)

var (
	ErrInvalidInvoiceID    = errors.New("invalid_invoice_id")
	ErrInvoiceNotFound     = errors.New("invoice_not_found")
	ErrContractNotFound    = errors.New("contract_not_found")
	ErrInvoiceImmutable    = errors.New("invoice_immutable")
	ErrItemNotFound        = errors.New("invoice_item_not_found")
	ErrRentItemUndeletable = errors.New("rent_item_undeletable")
)

// FieldViolation is one blocking field error surfaced to the caller.
type FieldViolation struct {
	ItemKey string `json:"item_key"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError aggregates the whole-form blocking errors that stop a
// save, issue or template action until corrected.
type ValidationError struct {
	Violations []FieldViolation `json:"violations"`
}

func (e *ValidationError) Error() string { return "invoice_validation_failed" }

// RawEdits carries in-progress per-item, per-field string inputs keyed by
// item key (item id, or idx:N for not-yet-persisted lines).
type RawEdits map[string]map[string]string

type ListInvoiceRequest struct {
	Status     *InvoiceStatus
	ContractID *snowflake.ID
	TenantID   *snowflake.ID
	DueFrom    *time.Time
	DueTo      *time.Time
}

type ListInvoiceResponse struct {
	Invoices []Invoice `json:"invoices"`
}

// LoadInvoiceResponse is the edit-screen payload: the invoice, its contract
// pricing source, and the load-time due-date correction result. The
// corrected due date is a working value; it is persisted only on save.
type LoadInvoiceResponse struct {
	Invoice         Invoice                  `json:"invoice"`
	Contract        *contractdomain.Contract `json:"contract,omitempty"`
	WorkingDueDate  time.Time                `json:"working_due_date"`
	DueDateAdjusted bool                     `json:"due_date_adjusted"`
}

type AddItemRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    ItemCategory  `json:"category"`
	Type        ItemType      `json:"type"`
	Quantity    int64         `json:"quantity"`
	UnitPrice   int64         `json:"unit_price"`
	IsPerPerson bool          `json:"is_per_person"`
	PersonCount int64         `json:"person_count"`
	TemplateID  *snowflake.ID `json:"template_id,omitempty"`
}

type SaveStage string

const (
	StageItems  SaveStage = "items"
	StageBasics SaveStage = "basics"
	StageIssue  SaveStage = "issue"
)

// SaveChainRequest drives the strict persistence sequence: items commit
// before basic fields, which commit before issuance. A failure at any stage
// aborts the remainder.
type SaveChainRequest struct {
	InvoiceID string
	Items     []InvoiceItem
	DueDate   *time.Time
	Note      *string
	Edits     RawEdits
	Issue     bool
}

type SaveChainResult struct {
	Skipped     bool      `json:"skipped"`
	ItemsSaved  bool      `json:"items_saved"`
	BasicsSaved bool      `json:"basics_saved"`
	Issued      bool      `json:"issued"`
	FailedStage SaveStage `json:"failed_stage,omitempty"`
	Invoice     Invoice   `json:"invoice"`
}

type Service interface {
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	Load(ctx context.Context, id string) (LoadInvoiceResponse, error)
	UpdateItems(ctx context.Context, id string, items []InvoiceItem, edits RawEdits) (Invoice, error)
	UpdateBasics(ctx context.Context, id string, dueDate *time.Time, note *string) (Invoice, error)
	Issue(ctx context.Context, id string) (Invoice, error)
	SaveChain(ctx context.Context, req SaveChainRequest) (SaveChainResult, error)
	AddItem(ctx context.Context, invoiceID string, req AddItemRequest) (Invoice, error)
	DeleteItem(ctx context.Context, invoiceID, itemID string) (Invoice, error)
}
