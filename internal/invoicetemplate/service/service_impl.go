package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/openrentals/rentbill/internal/clock"
	"github.com/openrentals/rentbill/internal/config"
	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
	templatedomain "github.com/openrentals/rentbill/internal/invoicetemplate/domain"
	"github.com/openrentals/rentbill/internal/pricing"
	"github.com/openrentals/rentbill/pkg/db"
	"github.com/openrentals/rentbill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	PricingCfg *config.PricingConfigHolder
	InvoiceSvc invoicedomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	cfg        *config.PricingConfigHolder
	invoiceSvc invoicedomain.Service

	repo repository.Repository[templatedomain.InvoiceTemplate]
}

func NewService(p Params) templatedomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoicetemplate.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		cfg:        p.PricingCfg,
		invoiceSvc: p.InvoiceSvc,

		repo: repository.ProvideStore[templatedomain.InvoiceTemplate](p.DB),
	}
}

// CreateFromInvoice snapshots an invoice's lines into a reusable template.
// Like any submit action, it is blocked by whole-form validation errors on
// the source invoice.
func (s *Service) CreateFromInvoice(ctx context.Context, req templatedomain.CreateFromInvoiceRequest) (*templatedomain.InvoiceTemplate, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, templatedomain.ErrInvalidName
	}

	loaded, err := s.invoiceSvc.Load(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	kw := pricing.KeywordsFromConfig(s.cfg.Get())
	if violations := pricing.FormErrors(loaded.Invoice.Items, loaded.Contract, nil, kw); len(violations) > 0 {
		out := make([]invoicedomain.FieldViolation, 0, len(violations))
		for _, v := range violations {
			out = append(out, invoicedomain.FieldViolation{
				ItemKey: v.ItemKey,
				Field:   string(v.Field),
				Code:    v.Code,
				Message: v.Message,
			})
		}
		return nil, &invoicedomain.ValidationError{Violations: out}
	}

	items := make([]templatedomain.TemplateItem, 0, len(loaded.Invoice.Items))
	for _, item := range loaded.Invoice.Items {
		items = append(items, templatedomain.TemplateItem{
			Name:        item.Name,
			Description: item.Description,
			Category:    item.Category,
			Type:        item.Type,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			IsPerPerson: item.IsPerPerson,
		})
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	template := templatedomain.InvoiceTemplate{
		ID:        s.genID.Generate(),
		Code:      slug.Make(name),
		Name:      name,
		Items:     datatypes.JSON(payload),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, &template); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, templatedomain.ErrDuplicateCode
		}
		return nil, err
	}

	s.log.Info("invoice template created",
		zap.String("template_id", template.ID.String()),
		zap.String("code", template.Code),
	)
	return &template, nil
}

func (s *Service) List(ctx context.Context) ([]templatedomain.InvoiceTemplate, error) {
	rows, err := s.repo.Find(ctx, &templatedomain.InvoiceTemplate{})
	if err != nil {
		return nil, err
	}

	templates := make([]templatedomain.InvoiceTemplate, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		templates = append(templates, *row)
	}
	return templates, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*templatedomain.InvoiceTemplate, error) {
	template, err := s.repo.FindOne(ctx, &templatedomain.InvoiceTemplate{Code: strings.TrimSpace(code)})
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, templatedomain.ErrTemplateNotFound
	}
	return template, nil
}
