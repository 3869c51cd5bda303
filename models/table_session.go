package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TableSession is one continuous occupancy of a table, from the first KOT to
// bill settlement.
type TableSession struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	SessionKey string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"session_key"`
	TableID    uint       `gorm:"not null;index" json:"table_id"`
	Table      Table      `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	EndedAt    *time.Time `json:"ended_at"`
	Status     string     `gorm:"type:varchar(10);not null;default:'active';check:chk_table_sessions_status,status IN ('active','completed')" json:"status"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

func (s *TableSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.SessionKey == "" {
		s.SessionKey = uuid.New().String()
	}
	return
}
