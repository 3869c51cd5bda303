package models

import "time"

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null;unique" json:"name"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	Dishes    []Dish    `gorm:"foreignKey:CategoryID" json:"dishes,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
