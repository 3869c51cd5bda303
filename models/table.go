package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Table is a physical seating unit. ActiveSince, CurrentTotal, TotalKOTs and
// ActiveSessionID are a cache derived from the session and its KOTs; they are
// zeroed only when the session's bill settles.
type Table struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ZoneID          uint            `gorm:"not null;uniqueIndex:idx_tables_zone_name" json:"zone_id"`
	Zone            Zone            `gorm:"foreignKey:ZoneID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Name            string          `gorm:"column:table_name;type:varchar(50);not null;uniqueIndex:idx_tables_zone_name" json:"table_name"`
	Code            string          `gorm:"column:table_code;type:varchar(20);not null;uniqueIndex" json:"table_code"`
	Capacity        int             `gorm:"not null;default:4" json:"capacity"`
	Status          string          `gorm:"type:varchar(10);not null;default:'empty';check:chk_tables_status,status IN ('empty','active')" json:"status"`
	ActiveSince     *time.Time      `json:"active_since"`
	CurrentTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"current_total"`
	TotalKOTs       int             `gorm:"column:total_kots;not null;default:0" json:"total_kots"`
	ActiveSessionID *uint           `gorm:"index" json:"active_session_id"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

// IsActive reports whether the table currently has guests.
func (t *Table) IsActive() bool {
	return t.Status == TableStatusActive
}
