// Package domain contains persistence models for reusable invoice templates.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
	"gorm.io/datatypes"
)

// TemplateItem is one line snapshotted from an invoice. Meter readings are
// intentionally not carried over: applying a template starts a fresh
// metering period.
type TemplateItem struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Category    invoicedomain.ItemCategory `json:"category"`
	Type        invoicedomain.ItemType     `json:"type"`
	Quantity    int64                     `json:"quantity"`
	UnitPrice   int64                     `json:"unit_price"`
	IsPerPerson bool                      `json:"is_per_person"`
}

// InvoiceTemplate is a saved set of invoice lines a landlord can reapply.
type InvoiceTemplate struct {
	ID        snowflake.ID   `json:"id" gorm:"primaryKey"`
	Code      string         `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name      string         `json:"name" gorm:"type:text;not null"`
	Items     datatypes.JSON `json:"items" gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InvoiceTemplate) TableName() string { return "invoice_templates" }
