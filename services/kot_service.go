package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/metrics"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

// CartItem is one cart line with names and prices already frozen from the
// menu. PortionPrice overrides BasePrice when a portion was picked.
type CartItem struct {
	DishID       uint                 `json:"dish_id"`
	DishName     string               `json:"dish_name"`
	BasePrice    decimal.Decimal      `json:"base_price"`
	PortionName  string               `json:"portion_name,omitempty"`
	PortionPrice decimal.NullDecimal  `json:"portion_price"`
	Quantity     int                  `json:"quantity"`
	Extras       []models.ExtraChoice `json:"extras,omitempty"`
}

// UnitPrice is the portion price, falling back to the dish base price.
func (c CartItem) UnitPrice() decimal.Decimal {
	if c.PortionPrice.Valid {
		return c.PortionPrice.Decimal
	}
	return c.BasePrice
}

func (c CartItem) LineTotal() decimal.Decimal {
	return models.LineTotal(c.UnitPrice(), c.Extras, c.Quantity)
}

type CreateKOTRequest struct {
	TableID       uint
	UserID        uint
	PunchedByName string
	Items         []CartItem
}

type DeleteKOTItemRequest struct {
	ItemID        uint
	DeletedByName string
	Reason        string
	Password      string
}

// PrintData is what a kitchen printer receives for one KOT.
type PrintData struct {
	KOTID     uint            `json:"kot_id"`
	TableName string          `json:"table_name"`
	PunchedBy string          `json:"punched_by"`
	PunchedAt time.Time       `json:"punched_at"`
	Items     []PrintItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
}

type PrintItem struct {
	DishName    string               `json:"dish_name"`
	PortionName string               `json:"portion_name,omitempty"`
	Quantity    int                  `json:"quantity"`
	Extras      []models.ExtraChoice `json:"extras,omitempty"`
	ItemTotal   decimal.Decimal      `json:"item_total"`
}

// KOTService punches KOTs and voids their items.
type KOTService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewKOTService(db *gorm.DB, notifier Notifier) *KOTService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &KOTService{db: db, notifier: notifier}
}

func validateCart(items []CartItem) error {
	if len(items) == 0 {
		return ErrEmptyCart
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		for _, e := range item.Extras {
			if e.Quantity <= 0 {
				return ErrInvalidQuantity
			}
		}
	}
	return nil
}

// CreateKOT writes the cart as one KOT on the table's active session,
// opening a session first when the table is idle.
func (s *KOTService) CreateKOT(ctx context.Context, req CreateKOTRequest) (*models.KOT, error) {
	if err := validateCart(req.Items); err != nil {
		return nil, err
	}

	var kot models.KOT
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "name").First(&user, req.UserID).Error; err != nil {
			return notFound(err, "user", req.UserID)
		}
		punchedBy := strings.TrimSpace(req.PunchedByName)
		if punchedBy == "" {
			punchedBy = user.Name
		}

		sessionID, active, err := activeSessionID(tx, req.TableID)
		if err != nil {
			return err
		}
		if !active {
			if sessionID, err = startSession(tx, req.TableID); err != nil {
				return err
			}
		}

		now := timeNow()
		kot = models.KOT{
			TableID:       req.TableID,
			SessionID:     sessionID,
			UserID:        user.ID,
			PunchedByName: punchedBy,
			PunchedAt:     now,
			Subtotal:      decimal.Zero,
			Status:        models.KOTStatusActive,
		}
		for _, item := range req.Items {
			line := item.LineTotal()
			kot.ItemsCount += item.Quantity
			kot.Subtotal = kot.Subtotal.Add(line)
			kot.Items = append(kot.Items, models.KOTItem{
				DishID:       item.DishID,
				DishName:     item.DishName,
				PortionName:  item.PortionName,
				PortionPrice: item.UnitPrice(),
				Quantity:     item.Quantity,
				Extras:       item.Extras,
				ItemTotal:    line,
			})
		}

		if err := tx.Omit("Table", "Session", "User").Create(&kot).Error; err != nil {
			return fmt.Errorf("create kot: %w", err)
		}
		if err := markTableActive(tx, req.TableID, now); err != nil {
			return err
		}
		return updateTableTotals(tx, req.TableID)
	})
	if err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"table_id": req.TableID,
			"user_id":  req.UserID,
		}).Errorf("Failed to punch KOT: %v", err)
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"kot_id":      kot.ID,
		"table_id":    kot.TableID,
		"session_id":  kot.SessionID,
		"items_count": kot.ItemsCount,
		"subtotal":    kot.Subtotal.StringFixed(2),
	}).Info("KOT punched")

	metrics.RecordKOTPunched(kot.ItemsCount)
	syncActiveTables(s.db.WithContext(ctx))
	s.notifier.Broadcast(EventKOTPunched, kot)
	s.notifier.Broadcast(EventTableUpdate, payload{"table_id": kot.TableID})
	return &kot, nil
}

// DeleteKOTItem voids one item after checking the staff member's password.
// The KOT subtotal is left as punched; the table aggregate subtracts the item.
func (s *KOTService) DeleteKOTItem(ctx context.Context, req DeleteKOTItemRequest) error {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return ErrEmptyReason
	}

	var item models.KOTItem
	var kot models.KOT
	var repriced []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := verifyPassword(tx, req.DeletedByName, req.Password); err != nil {
			return err
		}

		if err := tx.First(&item, req.ItemID).Error; err != nil {
			return notFound(err, "kot item", req.ItemID)
		}
		if err := tx.Select("id", "table_id", "status").First(&kot, item.KOTID).Error; err != nil {
			return notFound(err, "kot", item.KOTID)
		}
		if kot.Status == models.KOTStatusCompleted {
			return ErrKOTCompleted
		}

		if err := item.MarkDeleted(timeNow(), req.DeletedByName, reason); err != nil {
			return err
		}
		res := tx.Model(&models.KOTItem{}).
			Where("id = ? AND is_deleted = ?", item.ID, false).
			Updates(map[string]interface{}{
				"is_deleted":      true,
				"deleted_at":      *item.DeletedAt,
				"deleted_by":      *item.DeletedBy,
				"deletion_reason": *item.DeletionReason,
			})
		if res.Error != nil {
			return fmt.Errorf("soft delete kot item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrItemAlreadyDeleted
		}

		if err := updateTableTotals(tx, kot.TableID); err != nil {
			return err
		}
		// Bill yang masih pending ikut dihitung ulang
		ids, err := repriceBillsForKOT(tx, kot.ID)
		repriced = ids
		return err
	})
	if err != nil {
		return err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"item_id":       item.ID,
		"kot_id":        item.KOTID,
		"table_id":      kot.TableID,
		"deleted_by":    req.DeletedByName,
		"reason":        reason,
		"bills_updated": repriced,
	}).Info("KOT item deleted")

	metrics.RecordItemDeleted()
	s.notifier.Broadcast(EventKOTItemDeleted, payload{
		"item_id":   item.ID,
		"kot_id":    item.KOTID,
		"table_id":  kot.TableID,
		"dish_name": item.DishName,
		"reason":    reason,
	})
	s.notifier.Broadcast(EventTableUpdate, payload{"table_id": kot.TableID})
	return nil
}

// KOTsByTable lists the active session's KOTs with their items, oldest
// first. An idle table has none.
func (s *KOTService) KOTsByTable(ctx context.Context, tableID uint) ([]models.KOT, error) {
	db := s.db.WithContext(ctx)
	sessionID, active, err := activeSessionID(db, tableID)
	if err != nil {
		return nil, err
	}
	if !active {
		return []models.KOT{}, nil
	}

	var kots []models.KOT
	err = db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Where("session_id = ?", sessionID).Order("punched_at, id").Find(&kots).Error
	if err != nil {
		return nil, fmt.Errorf("list kots for table %d: %w", tableID, err)
	}
	return kots, nil
}

func (s *KOTService) KOTWithItems(ctx context.Context, kotID uint) (*models.KOT, error) {
	var kot models.KOT
	err := s.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).First(&kot, kotID).Error
	if err != nil {
		return nil, notFound(err, "kot", kotID)
	}
	return &kot, nil
}

// PrepareKOTPrintData lists the live items but keeps the total the KOT was
// punched with.
func (s *KOTService) PrepareKOTPrintData(ctx context.Context, kotID uint) (*PrintData, error) {
	kot, err := s.KOTWithItems(ctx, kotID)
	if err != nil {
		return nil, err
	}

	var table models.Table
	if err := s.db.WithContext(ctx).Select("id", "table_name").First(&table, kot.TableID).Error; err != nil {
		return nil, notFound(err, "table", kot.TableID)
	}

	data := &PrintData{
		KOTID:     kot.ID,
		TableName: table.Name,
		PunchedBy: kot.PunchedByName,
		PunchedAt: kot.PunchedAt,
		Total:     kot.Subtotal,
	}
	for _, item := range kot.LiveItems() {
		data.Items = append(data.Items, PrintItem{
			DishName:    item.DishName,
			PortionName: item.PortionName,
			Quantity:    item.Quantity,
			Extras:      item.Extras,
			ItemTotal:   item.ItemTotal,
		})
	}
	return data, nil
}
