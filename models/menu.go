package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dish is a menu entry. Price is the base price used when no portion is
// chosen.
type Dish struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CategoryID  uint            `gorm:"not null;index" json:"category_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	IsVeg       bool            `gorm:"not null;default:false" json:"is_veg"`
	Available   bool            `gorm:"not null" json:"available"`
	Portions    []Portion       `gorm:"foreignKey:DishID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"portions"`
	AddOns      []AddOn         `gorm:"foreignKey:DishID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"add_ons"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

// Portion is a size or variant of a dish with its own price.
type Portion struct {
	ID     uint            `gorm:"primaryKey" json:"id"`
	DishID uint            `gorm:"not null;index" json:"dish_id"`
	Name   string          `gorm:"type:varchar(50);not null" json:"name"`
	Price  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

// AddOn groups the optional priced choices offered with a dish.
type AddOn struct {
	ID      uint          `gorm:"primaryKey" json:"id"`
	DishID  uint          `gorm:"not null;index" json:"dish_id"`
	Name    string        `gorm:"type:varchar(100);not null" json:"name"`
	Choices []AddOnChoice `gorm:"foreignKey:AddOnID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"choices"`
}

type AddOnChoice struct {
	ID      uint            `gorm:"primaryKey" json:"id"`
	AddOnID uint            `gorm:"not null;index" json:"add_on_id"`
	Name    string          `gorm:"type:varchar(100);not null" json:"name"`
	Price   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}
