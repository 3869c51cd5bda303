package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill is the settlement snapshot of a session. The KOTs it covers are fixed
// by its BillKOT rows at creation.
type Bill struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	TableID     uint            `gorm:"not null;index" json:"table_id"`
	Table       Table           `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	TableName   string          `gorm:"column:table_name;type:varchar(50);not null" json:"table_name"`
	SessionID   uint            `gorm:"not null;index" json:"session_id"`
	Session     TableSession    `gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Tax         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	PaymentMode *string         `gorm:"type:varchar(10);check:chk_bills_payment_mode,payment_mode IS NULL OR payment_mode IN ('UPI','Cash','Swiggy','Zomato')" json:"payment_mode"`
	SettledBy   *string         `gorm:"type:varchar(100)" json:"settled_by"`
	SettledAt   *time.Time      `json:"settled_at"`
	Status      string          `gorm:"type:varchar(10);not null;default:'pending';check:chk_bills_status,status IN ('pending','settled')" json:"status"`
	KOTs        []KOT           `gorm:"-" json:"kots,omitempty"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

// BillKOT links a bill to one KOT it covers.
type BillKOT struct {
	BillID uint `gorm:"column:bill_id;primaryKey" json:"bill_id"`
	Bill   Bill `gorm:"foreignKey:BillID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	KOTID  uint `gorm:"column:kot_id;primaryKey" json:"kot_id"`
	KOT    KOT  `gorm:"foreignKey:KOTID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (BillKOT) TableName() string {
	return "bill_kots"
}
