package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// KOT is one punch of cart contents to the kitchen. Subtotal is captured when
// the KOT is punched and is not touched by later item deletions.
type KOT struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	TableID       uint            `gorm:"not null;index" json:"table_id"`
	Table         Table           `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	SessionID     uint            `gorm:"not null;index" json:"session_id"`
	Session       TableSession    `gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	UserID        uint            `gorm:"not null" json:"user_id"`
	User          User            `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	PunchedByName string          `gorm:"type:varchar(100);not null" json:"punched_by_name"`
	PunchedAt     time.Time       `gorm:"not null" json:"punched_at"`
	ItemsCount    int             `gorm:"not null" json:"items_count"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Status        string          `gorm:"type:varchar(10);not null;default:'active';check:chk_kots_status,status IN ('active','completed')" json:"status"`
	Items         []KOTItem       `gorm:"foreignKey:KOTID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

func (KOT) TableName() string {
	return "kots"
}

// LiveItems returns the items that have not been soft-deleted.
func (k *KOT) LiveItems() []KOTItem {
	live := make([]KOTItem, 0, len(k.Items))
	for _, item := range k.Items {
		if !item.IsDeleted {
			live = append(live, item)
		}
	}
	return live
}

// LiveTotal sums item totals of the items that have not been soft-deleted.
func (k *KOT) LiveTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range k.LiveItems() {
		total = total.Add(item.ItemTotal)
	}
	return total
}
