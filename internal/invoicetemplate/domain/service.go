package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidName      = errors.New("invalid_template_name")
	ErrDuplicateCode    = errors.New("duplicate_template_code")
	ErrTemplateNotFound = errors.New("template_not_found")
)

type CreateFromInvoiceRequest struct {
	InvoiceID string `json:"invoice_id"`
	Name      string `json:"name"`
}

type Service interface {
	CreateFromInvoice(ctx context.Context, req CreateFromInvoiceRequest) (*InvoiceTemplate, error)
	List(ctx context.Context) ([]InvoiceTemplate, error)
	GetByCode(ctx context.Context, code string) (*InvoiceTemplate, error)
}
