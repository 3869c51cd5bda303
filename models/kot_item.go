package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ErrAlreadyDeleted is returned by MarkDeleted for an item that was already
// soft-deleted. Deletion is one-way.
var ErrAlreadyDeleted = errors.New("kot item already deleted")

// ExtraChoice is a frozen snapshot of one add-on choice picked for a line.
type ExtraChoice struct {
	Name     string          `json:"name"`
	Quantity int             `json:"qty"`
	Price    decimal.Decimal `json:"price"`
}

// KOTItem is one line of a KOT. Names and prices are copied from the menu at
// punch time. The soft-delete columns are written once, through MarkDeleted.
type KOTItem struct {
	ID             uint                             `gorm:"primaryKey" json:"id"`
	KOTID          uint                             `gorm:"column:kot_id;not null;index" json:"kot_id"`
	DishID         uint                             `gorm:"not null" json:"dish_id"`
	DishName       string                           `gorm:"type:varchar(255);not null" json:"dish_name"`
	PortionName    string                           `gorm:"type:varchar(50)" json:"portion_name"`
	PortionPrice   decimal.Decimal                  `gorm:"type:decimal(12,2);not null" json:"portion_price"`
	Quantity       int                              `gorm:"not null" json:"quantity"`
	Extras         datatypes.JSONSlice[ExtraChoice] `gorm:"column:selected_extras" json:"selected_extras"`
	ItemTotal      decimal.Decimal                  `gorm:"type:decimal(12,2);not null" json:"item_total"`
	IsDeleted      bool                             `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt      *time.Time                       `json:"deleted_at"`
	DeletedBy      *string                          `gorm:"type:varchar(100)" json:"deleted_by"`
	DeletionReason *string                          `gorm:"type:text" json:"deletion_reason"`
	CreatedAt      time.Time                        `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time                        `gorm:"not null" json:"updated_at"`
}

func (KOTItem) TableName() string {
	return "kot_items"
}

// ItemState is either ActiveItem or DeletedItem.
type ItemState interface {
	itemState()
}

type ActiveItem struct{}

type DeletedItem struct {
	At     time.Time
	By     string
	Reason string
}

func (ActiveItem) itemState()  {}
func (DeletedItem) itemState() {}

// State maps the flat soft-delete columns onto ItemState.
func (i *KOTItem) State() ItemState {
	if !i.IsDeleted {
		return ActiveItem{}
	}
	d := DeletedItem{}
	if i.DeletedAt != nil {
		d.At = *i.DeletedAt
	}
	if i.DeletedBy != nil {
		d.By = *i.DeletedBy
	}
	if i.DeletionReason != nil {
		d.Reason = *i.DeletionReason
	}
	return d
}

// MarkDeleted moves the item from ActiveItem to DeletedItem.
func (i *KOTItem) MarkDeleted(at time.Time, by, reason string) error {
	if _, ok := i.State().(DeletedItem); ok {
		return ErrAlreadyDeleted
	}
	i.IsDeleted = true
	i.DeletedAt = &at
	i.DeletedBy = &by
	i.DeletionReason = &reason
	return nil
}

// LineTotal is (unit price + sum of extra price x extra qty) x quantity.
func LineTotal(unitPrice decimal.Decimal, extras []ExtraChoice, quantity int) decimal.Decimal {
	unit := unitPrice
	for _, e := range extras {
		unit = unit.Add(e.Price.Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}
