package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

// SessionService handles the table session lifecycle.
// The session row is the source of truth; tables.active_session_id is a
// cache that ActiveSessionID repairs when it drifts.
type SessionService struct {
	db *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

// StartSession opens a session on an idle table.
func (s *SessionService) StartSession(ctx context.Context, tableID uint) (uint, error) {
	var sessionID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := startSession(tx, tableID)
		sessionID = id
		return err
	})
	if err != nil {
		return 0, err
	}
	syncActiveTables(s.db.WithContext(ctx))
	return sessionID, nil
}

// EndSession completes the session and clears the table's pointer to it.
func (s *SessionService) EndSession(ctx context.Context, sessionID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return endSession(tx, sessionID)
	})
}

// ActiveSessionID returns the table's active session, if any.
func (s *SessionService) ActiveSessionID(ctx context.Context, tableID uint) (uint, bool, error) {
	return activeSessionID(s.db.WithContext(ctx), tableID)
}

func startSession(tx *gorm.DB, tableID uint) (uint, error) {
	_, active, err := activeSessionID(tx, tableID)
	if err != nil {
		return 0, err
	}
	if active {
		return 0, ErrSessionAlreadyActive
	}

	now := timeNow()
	session := models.TableSession{
		TableID:   tableID,
		StartedAt: now,
		Status:    models.SessionStatusActive,
	}
	if err := tx.Omit("Table").Create(&session).Error; err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}

	if err := markTableActive(tx, tableID, now); err != nil {
		return 0, err
	}
	if err := tx.Model(&models.Table{}).Where("id = ?", tableID).
		Update("active_session_id", session.ID).Error; err != nil {
		return 0, fmt.Errorf("link session to table: %w", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id":    tableID,
		"session_id":  session.ID,
		"session_key": session.SessionKey,
	}).Info("Session started")
	return session.ID, nil
}

func endSession(tx *gorm.DB, sessionID uint) error {
	var session models.TableSession
	if err := tx.First(&session, sessionID).Error; err != nil {
		return notFound(err, "session", sessionID)
	}
	if session.Status == models.SessionStatusCompleted {
		return nil
	}

	now := timeNow()
	err := tx.Model(&models.TableSession{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
		"status":   models.SessionStatusCompleted,
		"ended_at": now,
	}).Error
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	// Hanya pointer yang dibersihkan; status meja diurus MarkTableInactive
	err = tx.Model(&models.Table{}).
		Where("id = ? AND active_session_id = ?", session.TableID, sessionID).
		Update("active_session_id", nil).Error
	if err != nil {
		return fmt.Errorf("unlink session from table: %w", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id":   session.TableID,
		"session_id": sessionID,
		"duration":   now.Sub(session.StartedAt).Round(time.Second).String(),
	}).Info("Session ended")
	return nil
}

func activeSessionID(tx *gorm.DB, tableID uint) (uint, bool, error) {
	var table models.Table
	if err := tx.Select("id", "active_session_id").First(&table, tableID).Error; err != nil {
		return 0, false, notFound(err, "table", tableID)
	}

	if table.ActiveSessionID != nil {
		var count int64
		err := tx.Model(&models.TableSession{}).
			Where("id = ? AND table_id = ? AND status = ?", *table.ActiveSessionID, tableID, models.SessionStatusActive).
			Count(&count).Error
		if err != nil {
			return 0, false, fmt.Errorf("check cached session: %w", err)
		}
		if count > 0 {
			return *table.ActiveSessionID, true, nil
		}
	}

	// Fallback ke tabel sesi
	var sessions []models.TableSession
	err := tx.Where("table_id = ? AND status = ?", tableID, models.SessionStatusActive).
		Order("started_at DESC, id DESC").Limit(1).Find(&sessions).Error
	if err != nil {
		return 0, false, fmt.Errorf("find active session: %w", err)
	}

	if len(sessions) == 0 {
		if table.ActiveSessionID != nil {
			if err := tx.Model(&models.Table{}).Where("id = ?", tableID).
				Update("active_session_id", nil).Error; err != nil {
				return 0, false, fmt.Errorf("clear stale session pointer: %w", err)
			}
		}
		return 0, false, nil
	}

	sessionID := sessions[0].ID
	if err := tx.Model(&models.Table{}).Where("id = ?", tableID).
		Update("active_session_id", sessionID).Error; err != nil {
		return 0, false, fmt.Errorf("repair session pointer: %w", err)
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id":   tableID,
		"session_id": sessionID,
	}).Warn("Repaired stale active_session_id")
	return sessionID, true, nil
}
