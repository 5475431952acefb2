// Package domain contains persistence models for rental contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PriceType is the contract-level billing method for a service.
type PriceType string

const (
	PriceTypePerRoom   PriceType = "perRoom"
	PriceTypePerUsage  PriceType = "perUsage"
	PriceTypePerPerson PriceType = "perPerson"
)

// FeeRule configures one built-in service (electricity or water).
type FeeRule struct {
	PriceType PriceType `json:"priceType"`
	UnitPrice int64     `json:"unitPrice"`
}

// ServiceFeeConfig holds the built-in service rules of a contract.
type ServiceFeeConfig struct {
	Electricity *FeeRule `json:"electricity,omitempty"`
	Water       *FeeRule `json:"water,omitempty"`
}

// CustomService is a landlord-defined service matched by exact name.
type CustomService struct {
	Name      string    `json:"name"`
	PriceType PriceType `json:"priceType"`
	UnitPrice int64     `json:"unitPrice"`
}

type ContractStatus string

const (
	ContractStatusActive     ContractStatus = "ACTIVE"
	ContractStatusTerminated ContractStatus = "TERMINATED"
	ContractStatusExpired    ContractStatus = "EXPIRED"
)

// Contract represents a room-rental contract. The pricing engine only
// consumes ServiceFeeConfig/CustomServices; the rest is bookkeeping.
type Contract struct {
	ID               snowflake.ID     `json:"id" gorm:"primaryKey"`
	RoomID           snowflake.ID     `json:"room_id" gorm:"not null;index"`
	TenantID         snowflake.ID     `json:"tenant_id" gorm:"not null;index"`
	Status           ContractStatus   `json:"status" gorm:"type:text;not null;default:'ACTIVE'"`
	RentAmount       int64            `json:"rent_amount" gorm:"not null"`
	PersonCount      int64            `json:"person_count" gorm:"not null;default:1"`
	ServiceFeeConfig ServiceFeeConfig `json:"service_fee_config" gorm:"type:text;serializer:json"`
	CustomServices   []CustomService  `json:"custom_services" gorm:"type:text;serializer:json"`
	StartAt          time.Time        `json:"start_at" gorm:"not null"`
	EndAt            *time.Time       `json:"end_at,omitempty" gorm:""`
	CreatedAt        time.Time        `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time        `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Contract) TableName() string { return "contracts" }
