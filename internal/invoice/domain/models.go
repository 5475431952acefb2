// Package domain contains persistence models for rental invoices.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft               InvoiceStatus = "DRAFT"
	InvoiceStatusIssued              InvoiceStatus = "ISSUED"
	InvoiceStatusPendingConfirmation InvoiceStatus = "PENDING_CONFIRMATION"
	InvoiceStatusPaid                InvoiceStatus = "PAID"
	InvoiceStatusOverdue             InvoiceStatus = "OVERDUE"
	InvoiceStatusCanceled            InvoiceStatus = "CANCELED"
)

// Mutable reports whether invoices in this status accept edits.
// Everything past issuance is a read-only snapshot.
func (s InvoiceStatus) Mutable() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusOverdue
}

// ItemCategory classifies an invoice line.
type ItemCategory string

const (
	CategoryRent        ItemCategory = "rent"
	CategoryUtility     ItemCategory = "utility"
	CategoryService     ItemCategory = "service"
	CategoryMaintenance ItemCategory = "maintenance"
	CategoryOther       ItemCategory = "other"
)

// ItemType distinguishes flat-billed from metered lines.
type ItemType string

const (
	TypeFixed    ItemType = "fixed"
	TypeVariable ItemType = "variable"
)

// Invoice represents a monthly rental invoice.
type Invoice struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	ContractID  snowflake.ID      `json:"contract_id" gorm:"not null;index"`
	RoomID      snowflake.ID      `json:"room_id" gorm:"not null;index"`
	TenantID    snowflake.ID      `json:"tenant_id" gorm:"not null;index"`
	Status      InvoiceStatus     `json:"status" gorm:"type:text;not null;default:'DRAFT'"`
	TotalAmount int64             `json:"total_amount" gorm:"not null;default:0"`
	Note        string            `json:"note" gorm:"type:text"`
	DueDate     time.Time         `json:"due_date" gorm:"not null"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:text"`
	Items       []InvoiceItem     `json:"items" gorm:"foreignKey:InvoiceID"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem represents a billable line on an invoice.
//
// Quantity on variable items is derived from the meter delta and never
// entered directly. Amount is always computed, never user-settable.
type InvoiceItem struct {
	ID              snowflake.ID  `json:"id" gorm:"primaryKey"`
	InvoiceID       snowflake.ID  `json:"invoice_id" gorm:"not null;index"`
	Name            string        `json:"name" gorm:"type:text;not null"`
	Description     string        `json:"description" gorm:"type:text"`
	Category        ItemCategory  `json:"category" gorm:"type:text;not null"`
	Type            ItemType      `json:"type" gorm:"type:text;not null"`
	Quantity        int64         `json:"quantity" gorm:"not null;default:0"`
	UnitPrice       int64         `json:"unit_price" gorm:"not null"`
	PreviousReading *int64        `json:"previous_reading,omitempty" gorm:""`
	CurrentReading  *int64        `json:"current_reading,omitempty" gorm:""`
	IsPerPerson     bool          `json:"is_per_person" gorm:"not null;default:false"`
	PersonCount     int64         `json:"person_count" gorm:"not null;default:0"`
	Amount          int64         `json:"amount" gorm:"not null;default:0"`
	TemplateID      *snowflake.ID `json:"template_id,omitempty" gorm:"index"`
	CreatedAt       time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }
