package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/metrics"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

// TableService keeps the per-table aggregate (status, running total, KOT
// count) in step with the active session.
type TableService struct {
	db *gorm.DB
}

func NewTableService(db *gorm.DB) *TableService {
	return &TableService{db: db}
}

// TableView is a table row as shown on the floor plan.
type TableView struct {
	models.Table
	ZoneName       string `json:"zone_name"`
	ActiveFor      string `json:"active_for,omitempty"`
	ElapsedMinutes int    `json:"elapsed_minutes"`
}

type TableStats struct {
	Total        int             `json:"total"`
	Empty        int             `json:"empty"`
	Active       int             `json:"active"`
	ActiveKOTs   int             `json:"active_kots"`
	RunningTotal decimal.Decimal `json:"running_total"`
}

// UpdateTableTotals recomputes total_kots and current_total from the active
// session's KOTs.
func (s *TableService) UpdateTableTotals(ctx context.Context, tableID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateTableTotals(tx, tableID)
	})
}

// MarkTableActive flags a table that already has an active session. Use
// SessionService.StartSession to open one.
func (s *TableService) MarkTableActive(ctx context.Context, tableID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, active, err := activeSessionID(tx, tableID)
		if err != nil {
			return err
		}
		if !active {
			return ErrNoActiveSession
		}
		return markTableActive(tx, tableID, timeNow())
	})
	if err != nil {
		return err
	}
	syncActiveTables(s.db.WithContext(ctx))
	return nil
}

// MarkTableInactive resets the aggregate. Only settlement should call it.
func (s *TableService) MarkTableInactive(ctx context.Context, tableID uint) error {
	return markTableInactive(s.db.WithContext(ctx), tableID)
}

// ListTables returns every table, optionally limited to one zone, ordered by
// zone and name.
func (s *TableService) ListTables(ctx context.Context, zoneID *uint) ([]TableView, error) {
	query := s.db.WithContext(ctx).Preload("Zone").Order("zone_id, table_name")
	if zoneID != nil {
		query = query.Where("zone_id = ?", *zoneID)
	}

	var tables []models.Table
	if err := query.Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	now := timeNow()
	views := make([]TableView, 0, len(tables))
	for _, t := range tables {
		views = append(views, newTableView(t, now))
	}
	return views, nil
}

func (s *TableService) GetTable(ctx context.Context, tableID uint) (*TableView, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).Preload("Zone").First(&table, tableID).Error; err != nil {
		return nil, notFound(err, "table", tableID)
	}
	view := newTableView(table, timeNow())
	return &view, nil
}

// Stats summarizes the floor for the dashboard.
func (s *TableService) Stats(ctx context.Context) (TableStats, error) {
	var tables []models.Table
	err := s.db.WithContext(ctx).Select("id", "status", "current_total", "total_kots").Find(&tables).Error
	if err != nil {
		return TableStats{}, fmt.Errorf("load table stats: %w", err)
	}

	stats := TableStats{RunningTotal: decimal.Zero}
	for _, t := range tables {
		stats.Total++
		if t.IsActive() {
			stats.Active++
			stats.ActiveKOTs += t.TotalKOTs
			stats.RunningTotal = stats.RunningTotal.Add(t.CurrentTotal)
		} else {
			stats.Empty++
		}
	}
	metrics.SetActiveTables(stats.Active)
	return stats, nil
}

// syncActiveTables recounts active tables into the gauge. Failures are only
// logged.
func syncActiveTables(db *gorm.DB) {
	var n int64
	if err := db.Model(&models.Table{}).Where("status = ?", models.TableStatusActive).Count(&n).Error; err != nil {
		utils.ErrorLogger.Printf("Error counting active tables: %v", err)
		return
	}
	metrics.SetActiveTables(int(n))
}

func newTableView(t models.Table, now time.Time) TableView {
	view := TableView{Table: t, ZoneName: t.Zone.Name}
	if t.ActiveSince != nil {
		view.ElapsedMinutes = int(now.Sub(*t.ActiveSince).Minutes())
		view.ActiveFor = strings.TrimSpace(humanize.RelTime(*t.ActiveSince, now, "", ""))
	}
	return view
}

func updateTableTotals(tx *gorm.DB, tableID uint) error {
	sessionID, active, err := activeSessionID(tx, tableID)
	if err != nil {
		return err
	}

	totalKOTs := 0
	currentTotal := decimal.Zero
	if active {
		var kots []models.KOT
		err := tx.Preload("Items", "is_deleted = ?", true).
			Where("session_id = ? AND status = ?", sessionID, models.KOTStatusActive).
			Find(&kots).Error
		if err != nil {
			return fmt.Errorf("load session kots: %w", err)
		}

		// Subtotal KOT dibekukan; item yang dihapus dikurangi di sini
		for _, k := range kots {
			totalKOTs++
			currentTotal = currentTotal.Add(k.Subtotal)
			for _, item := range k.Items {
				currentTotal = currentTotal.Sub(item.ItemTotal)
			}
		}
	}

	err = tx.Model(&models.Table{}).Where("id = ?", tableID).Updates(map[string]interface{}{
		"total_kots":    totalKOTs,
		"current_total": currentTotal,
	}).Error
	if err != nil {
		return fmt.Errorf("update table totals: %w", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id":      tableID,
		"total_kots":    totalKOTs,
		"current_total": currentTotal.StringFixed(2),
	}).Debug("Table totals updated")
	return nil
}

func markTableActive(tx *gorm.DB, tableID uint, now time.Time) error {
	res := tx.Model(&models.Table{}).Where("id = ?", tableID).Updates(map[string]interface{}{
		"status":       models.TableStatusActive,
		"active_since": gorm.Expr("COALESCE(active_since, ?)", now),
	})
	if res.Error != nil {
		return fmt.Errorf("mark table active: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "table", ID: tableID}
	}
	return nil
}

func markTableInactive(tx *gorm.DB, tableID uint) error {
	res := tx.Model(&models.Table{}).Where("id = ?", tableID).Updates(map[string]interface{}{
		"status":        models.TableStatusEmpty,
		"active_since":  nil,
		"current_total": decimal.Zero,
		"total_kots":    0,
	})
	if res.Error != nil {
		return fmt.Errorf("mark table inactive: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "table", ID: tableID}
	}

	utils.InfoLogger.WithField("table_id", tableID).Info("Table reset to empty")
	return nil
}
