package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/openrentals/rentbill/internal/clock"
	"github.com/openrentals/rentbill/internal/config"
	contractdomain "github.com/openrentals/rentbill/internal/contract/domain"
	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
	"github.com/openrentals/rentbill/internal/pricing"
	"github.com/openrentals/rentbill/pkg/db/option"
	"github.com/openrentals/rentbill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	PricingCfg *config.PricingConfigHolder
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	cfg   *config.PricingConfigHolder

	invoicerepo  repository.Repository[invoicedomain.Invoice]
	contractrepo repository.Repository[contractdomain.Contract]

	// Last known-good contract per id. A save response occasionally comes
	// back without the nested pricing config; we substitute the cached
	// value instead of failing, since that is a response quirk rather than
	// a real error.
	knownContracts sync.Map
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
		clock: p.Clock,
		cfg:   p.PricingCfg,

		invoicerepo:  repository.ProvideStore[invoicedomain.Invoice](p.DB),
		contractrepo: repository.ProvideStore[contractdomain.Contract](p.DB),
	}
}

func (s *Service) keywords() pricing.KeywordTable {
	return pricing.KeywordsFromConfig(s.cfg.Get())
}

func (s *Service) graceDays() int {
	return s.cfg.Get().DueDateGraceDays
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	filter := &invoicedomain.Invoice{}
	if req.Status != nil {
		filter.Status = *req.Status
	}
	if req.ContractID != nil {
		filter.ContractID = *req.ContractID
	}
	if req.TenantID != nil {
		filter.TenantID = *req.TenantID
	}

	options := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{
			Allow:   map[string]bool{"created_at": true, "due_date": true},
			Default: "created_at",
			Desc:    true,
		}),
	}
	if req.DueFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "due_date",
			Operator: option.GTE,
			Value:    *req.DueFrom,
		}))
	}
	if req.DueTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "due_date",
			Operator: option.LTE,
			Value:    *req.DueTo,
		}))
	}

	items, err := s.invoicerepo.Find(ctx, filter, options...)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	return invoicedomain.ListInvoiceResponse{Invoices: invoices}, nil
}

func (s *Service) Load(ctx context.Context, id string) (invoicedomain.LoadInvoiceResponse, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.LoadInvoiceResponse{}, invoicedomain.ErrInvalidInvoiceID
	}

	invoice, err := s.loadInvoice(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.LoadInvoiceResponse{}, err
	}
	if invoice == nil {
		return invoicedomain.LoadInvoiceResponse{}, invoicedomain.ErrInvoiceNotFound
	}

	contract, err := s.loadContract(ctx, invoice.ContractID)
	if err != nil {
		return invoicedomain.LoadInvoiceResponse{}, err
	}

	workingDue, adjusted := pricing.NormalizeDueDate(invoice.DueDate, s.clock.Now(), s.graceDays())

	return invoicedomain.LoadInvoiceResponse{
		Invoice:         *invoice,
		Contract:        contract,
		WorkingDueDate:  workingDue,
		DueDateAdjusted: adjusted,
	}, nil
}

func (s *Service) UpdateItems(ctx context.Context, id string, items []invoicedomain.InvoiceItem, edits invoicedomain.RawEdits) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	kw := s.keywords()
	var updated invoicedomain.Invoice

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if !invoice.Status.Mutable() {
			return invoicedomain.ErrInvoiceImmutable
		}

		contract, err := s.loadContract(ctx, invoice.ContractID)
		if err != nil {
			return err
		}

		merged, created, err := s.mergeItems(invoice, items, contract, kw)
		if err != nil {
			return err
		}

		pending := convertEdits(edits)
		if violations := pricing.FormErrors(merged, contract, pending, kw); len(violations) > 0 {
			return validationError(violations)
		}

		if err := commitPendingEdits(merged, contract, pending, kw); err != nil {
			return err
		}
		recomputeAll(merged, contract, kw)

		now := s.clock.Now()
		for i := range merged {
			merged[i].UpdatedAt = now
			if created[i] {
				if err := tx.Create(&merged[i]).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.Save(&merged[i]).Error; err != nil {
				return err
			}
		}

		invoice.Items = merged
		invoice.TotalAmount = pricing.Total(merged)
		invoice.UpdatedAt = now
		if err := tx.Model(&invoicedomain.Invoice{}).
			Where("id = ?", invoice.ID).
			Updates(map[string]any{
				"total_amount": invoice.TotalAmount,
				"updated_at":   now,
			}).Error; err != nil {
			return err
		}

		updated = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.log.Info("invoice items updated",
		zap.String("invoice_id", updated.ID.String()),
		zap.Int64("total_amount", updated.TotalAmount),
	)
	return updated, nil
}

func (s *Service) UpdateBasics(ctx context.Context, id string, dueDate *time.Time, note *string) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	var updated invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if !invoice.Status.Mutable() {
			return invoicedomain.ErrInvoiceImmutable
		}

		now := s.clock.Now()
		changes := map[string]any{"updated_at": now}
		if dueDate != nil {
			invoice.DueDate = dueDate.UTC()
			changes["due_date"] = invoice.DueDate
		}
		if note != nil {
			invoice.Note = *note
			changes["note"] = invoice.Note
		}
		if err := tx.Model(&invoicedomain.Invoice{}).
			Where("id = ?", invoice.ID).
			Updates(changes).Error; err != nil {
			return err
		}

		invoice.UpdatedAt = now
		updated = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return updated, nil
}

func (s *Service) Issue(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	kw := s.keywords()
	var issued invoicedomain.Invoice

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if !invoice.Status.Mutable() {
			return invoicedomain.ErrInvoiceImmutable
		}

		contract, err := s.loadContract(ctx, invoice.ContractID)
		if err != nil {
			return err
		}
		if violations := pricing.FormErrors(invoice.Items, contract, nil, kw); len(violations) > 0 {
			return validationError(violations)
		}

		now := s.clock.Now()
		if err := tx.Model(&invoicedomain.Invoice{}).
			Where("id = ?", invoice.ID).
			Updates(map[string]any{
				"status":     invoicedomain.InvoiceStatusIssued,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		invoice.Status = invoicedomain.InvoiceStatusIssued
		invoice.UpdatedAt = now
		issued = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.log.Info("invoice issued", zap.String("invoice_id", issued.ID.String()))
	return issued, nil
}

// SaveChain runs the strict persistence sequence: items, then basic fields,
// then issuance. The chain is skipped entirely when nothing diverges from
// the persisted state, and a failure at any stage aborts the remainder,
// leaving local state ahead of the server until retried.
func (s *Service) SaveChain(ctx context.Context, req invoicedomain.SaveChainRequest) (invoicedomain.SaveChainResult, error) {
	result := invoicedomain.SaveChainResult{}

	invoiceID, err := parseID(req.InvoiceID)
	if err != nil {
		return result, invoicedomain.ErrInvalidInvoiceID
	}

	invoice, err := s.loadInvoice(ctx, s.db, invoiceID)
	if err != nil {
		return result, err
	}
	if invoice == nil {
		return result, invoicedomain.ErrInvoiceNotFound
	}

	contract, err := s.loadContract(ctx, invoice.ContractID)
	if err != nil {
		return result, err
	}

	kw := s.keywords()
	baseline := pricing.NewSnapshot(*invoice)

	desired := *invoice
	mergedDesired, _, err := s.mergeItems(&desired, req.Items, contract, kw)
	if err != nil {
		return result, err
	}
	desired.Items = mergedDesired

	desiredDue := invoice.DueDate
	if req.DueDate != nil {
		desiredDue = *req.DueDate
	}
	desiredNote := invoice.Note
	if req.Note != nil {
		desiredNote = *req.Note
	}

	pending := convertEdits(req.Edits)
	if !req.Issue && !pricing.Changed(desired, desiredDue, desiredNote, pending, baseline) {
		result.Skipped = true
		result.Invoice = *invoice
		return result, nil
	}

	updated, err := s.UpdateItems(ctx, req.InvoiceID, req.Items, req.Edits)
	if err != nil {
		result.FailedStage = invoicedomain.StageItems
		return result, err
	}
	result.ItemsSaved = true
	result.Invoice = updated

	updated, err = s.UpdateBasics(ctx, req.InvoiceID, req.DueDate, req.Note)
	if err != nil {
		result.FailedStage = invoicedomain.StageBasics
		return result, err
	}
	result.BasicsSaved = true
	result.Invoice = updated

	if req.Issue {
		updated, err = s.Issue(ctx, req.InvoiceID)
		if err != nil {
			result.FailedStage = invoicedomain.StageIssue
			return result, err
		}
		result.Issued = true
		result.Invoice = updated
	}

	return result, nil
}

func (s *Service) AddItem(ctx context.Context, invoiceIDRaw string, req invoicedomain.AddItemRequest) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(invoiceIDRaw)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	kw := s.keywords()
	var updated invoicedomain.Invoice

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if !invoice.Status.Mutable() {
			return invoicedomain.ErrInvoiceImmutable
		}

		contract, err := s.loadContract(ctx, invoice.ContractID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		item := invoicedomain.InvoiceItem{
			ID:          s.genID.Generate(),
			InvoiceID:   invoice.ID,
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
			Category:    req.Category,
			Type:        req.Type,
			Quantity:    req.Quantity,
			UnitPrice:   req.UnitPrice,
			IsPerPerson: req.IsPerPerson,
			PersonCount: req.PersonCount,
			TemplateID:  req.TemplateID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		mode := pricing.ResolveMode(item, contract, kw)
		item.Quantity, item.Amount = pricing.CommitAmount(item, mode, nil)

		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		invoice.Items = append(invoice.Items, item)
		invoice.TotalAmount = pricing.Total(invoice.Items)
		invoice.UpdatedAt = now
		if err := tx.Model(&invoicedomain.Invoice{}).
			Where("id = ?", invoice.ID).
			Updates(map[string]any{
				"total_amount": invoice.TotalAmount,
				"updated_at":   now,
			}).Error; err != nil {
			return err
		}

		updated = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return updated, nil
}

func (s *Service) DeleteItem(ctx context.Context, invoiceIDRaw, itemIDRaw string) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(invoiceIDRaw)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}
	itemID, err := parseID(itemIDRaw)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrItemNotFound
	}

	var updated invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		var target *invoicedomain.InvoiceItem
		for i := range invoice.Items {
			if invoice.Items[i].ID == itemID {
				target = &invoice.Items[i]
				break
			}
		}
		if target == nil {
			return invoicedomain.ErrItemNotFound
		}

		// Rent lines are never deletable, regardless of invoice status.
		if target.Category == invoicedomain.CategoryRent {
			return invoicedomain.ErrRentItemUndeletable
		}
		if !invoice.Status.Mutable() {
			return invoicedomain.ErrInvoiceImmutable
		}

		if err := tx.Delete(&invoicedomain.InvoiceItem{}, "id = ?", itemID).Error; err != nil {
			return err
		}

		remaining := make([]invoicedomain.InvoiceItem, 0, len(invoice.Items)-1)
		for _, item := range invoice.Items {
			if item.ID != itemID {
				remaining = append(remaining, item)
			}
		}
		invoice.Items = remaining

		now := s.clock.Now()
		invoice.TotalAmount = pricing.Total(remaining)
		invoice.UpdatedAt = now
		if err := tx.Model(&invoicedomain.Invoice{}).
			Where("id = ?", invoice.ID).
			Updates(map[string]any{
				"total_amount": invoice.TotalAmount,
				"updated_at":   now,
			}).Error; err != nil {
			return err
		}

		updated = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return updated, nil
}

func (s *Service) loadInvoice(ctx context.Context, db *gorm.DB, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&invoice, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// loadContract fetches the invoice's contract, substituting the last
// known-good value when a fetch comes back without its nested pricing
// config.
func (s *Service) loadContract(ctx context.Context, contractID snowflake.ID) (*contractdomain.Contract, error) {
	if contractID == 0 {
		return nil, nil
	}

	contract, err := s.contractrepo.FindOne(ctx, &contractdomain.Contract{ID: contractID})
	if err != nil {
		return nil, err
	}

	if contract == nil || !hasPricingRules(contract) {
		if cached, ok := s.knownContracts.Load(contractID); ok {
			restored := cached.(contractdomain.Contract)
			s.log.Warn("contract pricing config missing, restored last known value",
				zap.String("contract_id", contractID.String()),
			)
			return &restored, nil
		}
		return contract, nil
	}

	s.knownContracts.Store(contractID, *contract)
	return contract, nil
}

func hasPricingRules(contract *contractdomain.Contract) bool {
	if contract == nil {
		return false
	}
	return contract.ServiceFeeConfig.Electricity != nil ||
		contract.ServiceFeeConfig.Water != nil ||
		len(contract.CustomServices) > 0
}

// mergeItems folds the caller-supplied item state into the stored items,
// honoring the editability record per line. Existing lines accept only the
// fields their classification opens up; lines without an id are new custom
// items whose name is settable at creation time only. Returns the merged
// slice and a parallel created-markers slice.
func (s *Service) mergeItems(
	invoice *invoicedomain.Invoice,
	incoming []invoicedomain.InvoiceItem,
	contract *contractdomain.Contract,
	kw pricing.KeywordTable,
) ([]invoicedomain.InvoiceItem, []bool, error) {
	merged := make([]invoicedomain.InvoiceItem, len(invoice.Items))
	copy(merged, invoice.Items)
	created := make([]bool, len(merged))

	for _, in := range incoming {
		if in.ID == 0 {
			item := in
			item.ID = s.genID.Generate()
			item.InvoiceID = invoice.ID
			item.Name = strings.TrimSpace(item.Name)
			item.CreatedAt = s.clock.Now()
			merged = append(merged, item)
			created = append(created, true)
			continue
		}

		idx := -1
		for i := range merged {
			if merged[i].ID == in.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil, invoicedomain.ErrItemNotFound
		}

		mode := pricing.ResolveMode(merged[idx], contract, kw)
		caps := pricing.Classify(merged[idx], mode, kw)
		if !caps.IsEditable {
			continue
		}
		if caps.CanEditDescription {
			merged[idx].Description = in.Description
		}
		if caps.CanEditMeterReadings {
			merged[idx].PreviousReading = copyReading(in.PreviousReading)
			merged[idx].CurrentReading = copyReading(in.CurrentReading)
		}
	}

	return merged, created, nil
}

// commitPendingEdits applies validated raw edits field by field, rederiving
// quantity and amount atomically with each write.
func commitPendingEdits(
	items []invoicedomain.InvoiceItem,
	contract *contractdomain.Contract,
	pending pricing.PendingEdits,
	kw pricing.KeywordTable,
) error {
	for i := range items {
		key := pricing.Key(items[i], i)
		itemEdits := pending[key]
		if len(itemEdits) == 0 {
			continue
		}

		mode := pricing.ResolveMode(items[i], contract, kw)
		for field, raw := range itemEdits {
			if fieldErr := pricing.ApplyEdit(&items[i], mode, field, raw, itemEdits); fieldErr != nil {
				return validationError([]pricing.Violation{{
					ItemKey: key,
					Field:   fieldErr.Field,
					Code:    fieldErr.Code,
					Message: fieldErr.Message,
				}})
			}
		}
	}
	return nil
}

func recomputeAll(items []invoicedomain.InvoiceItem, contract *contractdomain.Contract, kw pricing.KeywordTable) {
	for i := range items {
		mode := pricing.ResolveMode(items[i], contract, kw)
		items[i].Quantity, items[i].Amount = pricing.CommitAmount(items[i], mode, nil)
	}
}

func convertEdits(raw invoicedomain.RawEdits) pricing.PendingEdits {
	if len(raw) == 0 {
		return nil
	}
	pending := make(pricing.PendingEdits, len(raw))
	for key, fields := range raw {
		itemEdits := make(pricing.ItemEdits, len(fields))
		for field, value := range fields {
			itemEdits[pricing.Field(field)] = value
		}
		pending[key] = itemEdits
	}
	return pending
}

func validationError(violations []pricing.Violation) error {
	out := make([]invoicedomain.FieldViolation, 0, len(violations))
	for _, v := range violations {
		out = append(out, invoicedomain.FieldViolation{
			ItemKey: v.ItemKey,
			Field:   string(v.Field),
			Code:    v.Code,
			Message: v.Message,
		})
	}
	return &invoicedomain.ValidationError{Violations: out}
}

func copyReading(v *int64) *int64 {
	if v == nil {
		return nil
	}
	value := *v
	return &value
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
