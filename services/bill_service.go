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

// TaxRate is applied to the bill subtotal.
var TaxRate = decimal.RequireFromString("0.05")

type SettleBillRequest struct {
	BillID        uint
	PaymentMode   string
	SettledByName string
}

type ModeTotal struct {
	Bills int             `json:"bills"`
	Total decimal.Decimal `json:"total"`
}

// SalesSummary aggregates settled bills in a time range.
type SalesSummary struct {
	From     time.Time            `json:"from"`
	To       time.Time            `json:"to"`
	Bills    int                  `json:"bills"`
	Subtotal decimal.Decimal      `json:"subtotal"`
	Tax      decimal.Decimal      `json:"tax"`
	Revenue  decimal.Decimal      `json:"revenue"`
	ByMode   map[string]ModeTotal `json:"by_mode"`
}

// BillService snapshots a session into a bill and settles it.
type BillService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewBillService(db *gorm.DB, notifier Notifier) *BillService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &BillService{db: db, notifier: notifier}
}

// CreateBill freezes the active session's KOTs into a new pending bill.
func (s *BillService) CreateBill(ctx context.Context, tableID uint) (*models.Bill, error) {
	var bill *models.Bill
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessionID, active, err := activeSessionID(tx, tableID)
		if err != nil {
			return err
		}
		if !active {
			return ErrNoActiveSession
		}
		pending, err := pendingBill(tx, sessionID)
		if err != nil {
			return err
		}
		if pending != nil {
			return ErrPendingBillExists
		}
		bill, err = createBill(tx, tableID, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.billCreated(bill)
	return bill, nil
}

// OpenBill returns the session's pending bill, creating it on first use.
func (s *BillService) OpenBill(ctx context.Context, tableID uint) (*models.Bill, error) {
	var bill *models.Bill
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessionID, active, err := activeSessionID(tx, tableID)
		if err != nil {
			return err
		}
		if !active {
			return ErrNoActiveSession
		}

		pending, err := pendingBill(tx, sessionID)
		if err != nil {
			return err
		}
		if pending != nil {
			bill = pending
			if _, err := repriceBill(tx, bill); err != nil {
				return err
			}
			return hydrateBill(tx, bill)
		}

		bill, err = createBill(tx, tableID, sessionID)
		created = err == nil
		return err
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.billCreated(bill)
	}
	return bill, nil
}

// RegenerateBill drops the pending bill and snapshots the session again, so
// KOTs punched after the first bill are included.
func (s *BillService) RegenerateBill(ctx context.Context, tableID uint) (*models.Bill, error) {
	var bill *models.Bill
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessionID, active, err := activeSessionID(tx, tableID)
		if err != nil {
			return err
		}
		if !active {
			return ErrNoActiveSession
		}

		pending := tx.Model(&models.Bill{}).Select("id").
			Where("session_id = ? AND status = ?", sessionID, models.BillStatusPending)
		if err := tx.Where("bill_id IN (?)", pending).Delete(&models.BillKOT{}).Error; err != nil {
			return fmt.Errorf("delete bill links: %w", err)
		}
		if err := tx.Where("session_id = ? AND status = ?", sessionID, models.BillStatusPending).
			Delete(&models.Bill{}).Error; err != nil {
			return fmt.Errorf("delete pending bill: %w", err)
		}

		bill, err = createBill(tx, tableID, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.billCreated(bill)
	return bill, nil
}

// BillByTable returns the active session's pending bill with its KOTs.
func (s *BillService) BillByTable(ctx context.Context, tableID uint) (*models.Bill, error) {
	db := s.db.WithContext(ctx)
	sessionID, active, err := activeSessionID(db, tableID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrNoActiveSession
	}

	bill, err := pendingBill(db, sessionID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, &NotFoundError{Entity: "bill"}
	}
	if err := hydrateBill(db, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

func (s *BillService) GetBill(ctx context.Context, billID uint) (*models.Bill, error) {
	db := s.db.WithContext(ctx)
	var bill models.Bill
	if err := db.First(&bill, billID).Error; err != nil {
		return nil, notFound(err, "bill", billID)
	}
	if err := hydrateBill(db, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

// SettleBill closes the bill, completes its KOTs, resets the table and ends
// the session, all or nothing.
func (s *BillService) SettleBill(ctx context.Context, req SettleBillRequest) error {
	mode := normalizePaymentMode(req.PaymentMode)
	if !models.IsValidPaymentMode(mode) {
		return ErrInvalidPaymentMode
	}

	var bill models.Bill
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bill, req.BillID).Error; err != nil {
			return notFound(err, "bill", req.BillID)
		}
		if bill.Status == models.BillStatusSettled {
			return ErrBillAlreadySettled
		}

		kotIDs, err := billKOTIDs(tx, bill.ID)
		if err != nil {
			return err
		}

		unbilled := tx.Model(&models.KOT{}).
			Where("session_id = ? AND status = ?", bill.SessionID, models.KOTStatusActive)
		if len(kotIDs) > 0 {
			unbilled = unbilled.Where("id NOT IN ?", kotIDs)
		}
		var count int64
		if err := unbilled.Count(&count).Error; err != nil {
			return fmt.Errorf("count unbilled kots: %w", err)
		}
		if count > 0 {
			return ErrUnbilledKOTs
		}

		live, err := liveSubtotal(tx, kotIDs)
		if err != nil {
			return err
		}
		if !live.Equal(bill.Subtotal) {
			return ErrStaleBill
		}

		now := timeNow()
		res := tx.Model(&models.Bill{}).
			Where("id = ? AND status = ?", bill.ID, models.BillStatusPending).
			Updates(map[string]interface{}{
				"status":       models.BillStatusSettled,
				"payment_mode": mode,
				"settled_by":   req.SettledByName,
				"settled_at":   now,
			})
		if res.Error != nil {
			return fmt.Errorf("settle bill: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrBillAlreadySettled
		}

		if len(kotIDs) > 0 {
			if err := tx.Model(&models.KOT{}).Where("id IN ?", kotIDs).
				Update("status", models.KOTStatusCompleted).Error; err != nil {
				return fmt.Errorf("complete kots: %w", err)
			}
		}
		if err := markTableInactive(tx, bill.TableID); err != nil {
			return err
		}
		return endSession(tx, bill.SessionID)
	})
	if err != nil {
		return err
	}
	syncActiveTables(s.db.WithContext(ctx))

	utils.InfoLogger.WithFields(logrus.Fields{
		"bill_id":      bill.ID,
		"table_id":     bill.TableID,
		"session_id":   bill.SessionID,
		"payment_mode": mode,
		"total":        bill.Total.StringFixed(2),
		"settled_by":   req.SettledByName,
	}).Info("Bill settled")

	metrics.RecordBillSettled(mode, bill.Total)
	s.notifier.Broadcast(EventBillSettled, payload{
		"bill_id":      bill.ID,
		"table_id":     bill.TableID,
		"payment_mode": mode,
		"total":        bill.Total,
	})
	s.notifier.Broadcast(EventTableUpdate, payload{"table_id": bill.TableID})
	return nil
}

// SalesSummary totals bills settled in [from, to).
func (s *BillService) SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	var bills []models.Bill
	err := s.db.WithContext(ctx).
		Where("status = ? AND settled_at >= ? AND settled_at < ?", models.BillStatusSettled, from, to).
		Find(&bills).Error
	if err != nil {
		return nil, fmt.Errorf("load settled bills: %w", err)
	}

	summary := &SalesSummary{
		From:     from,
		To:       to,
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Revenue:  decimal.Zero,
		ByMode:   make(map[string]ModeTotal),
	}
	for _, b := range bills {
		summary.Bills++
		summary.Subtotal = summary.Subtotal.Add(b.Subtotal)
		summary.Tax = summary.Tax.Add(b.Tax)
		summary.Revenue = summary.Revenue.Add(b.Total)

		if b.PaymentMode == nil {
			continue
		}
		mt := summary.ByMode[*b.PaymentMode]
		mt.Bills++
		mt.Total = mt.Total.Add(b.Total)
		summary.ByMode[*b.PaymentMode] = mt
	}
	return summary, nil
}

func (s *BillService) billCreated(bill *models.Bill) {
	utils.InfoLogger.WithFields(logrus.Fields{
		"bill_id":    bill.ID,
		"table_id":   bill.TableID,
		"session_id": bill.SessionID,
		"kots":       len(bill.KOTs),
		"total":      bill.Total.StringFixed(2),
	}).Info("Bill created")

	metrics.RecordBillCreated()
	s.notifier.Broadcast(EventBillCreated, payload{
		"bill_id":  bill.ID,
		"table_id": bill.TableID,
		"total":    bill.Total,
	})
}

// CalculateTax returns subtotal x TaxRate rounded to two decimals.
func CalculateTax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(2)
}

func createBill(tx *gorm.DB, tableID, sessionID uint) (*models.Bill, error) {
	var table models.Table
	if err := tx.Select("id", "table_name").First(&table, tableID).Error; err != nil {
		return nil, notFound(err, "table", tableID)
	}

	var kots []models.KOT
	err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Where("session_id = ? AND status = ?", sessionID, models.KOTStatusActive).
		Order("punched_at, id").Find(&kots).Error
	if err != nil {
		return nil, fmt.Errorf("load session kots: %w", err)
	}

	subtotal := decimal.Zero
	for i := range kots {
		subtotal = subtotal.Add(kots[i].LiveTotal())
	}
	tax := CalculateTax(subtotal)

	bill := &models.Bill{
		TableID:   tableID,
		TableName: table.Name,
		SessionID: sessionID,
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     subtotal.Add(tax),
		Status:    models.BillStatusPending,
	}
	if err := tx.Omit("Table", "Session").Create(bill).Error; err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}

	if len(kots) > 0 {
		links := make([]models.BillKOT, 0, len(kots))
		for _, k := range kots {
			links = append(links, models.BillKOT{BillID: bill.ID, KOTID: k.ID})
		}
		if err := tx.Omit("Bill", "KOT").Create(&links).Error; err != nil {
			return nil, fmt.Errorf("link kots to bill: %w", err)
		}
	}

	bill.KOTs = kots
	return bill, nil
}

// pendingBill returns nil without error when the session has no pending bill.
func pendingBill(tx *gorm.DB, sessionID uint) (*models.Bill, error) {
	var bills []models.Bill
	err := tx.Where("session_id = ? AND status = ?", sessionID, models.BillStatusPending).
		Order("id DESC").Limit(1).Find(&bills).Error
	if err != nil {
		return nil, fmt.Errorf("find pending bill: %w", err)
	}
	if len(bills) == 0 {
		return nil, nil
	}
	return &bills[0], nil
}

func billKOTIDs(tx *gorm.DB, billID uint) ([]uint, error) {
	var links []models.BillKOT
	if err := tx.Where("bill_id = ?", billID).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("load bill links: %w", err)
	}
	ids := make([]uint, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.KOTID)
	}
	return ids, nil
}

// liveSubtotal sums the non-deleted items of the given KOTs.
func liveSubtotal(tx *gorm.DB, kotIDs []uint) (decimal.Decimal, error) {
	subtotal := decimal.Zero
	if len(kotIDs) == 0 {
		return subtotal, nil
	}
	var kots []models.KOT
	if err := tx.Preload("Items").Where("id IN ?", kotIDs).Find(&kots).Error; err != nil {
		return subtotal, fmt.Errorf("load bill kots: %w", err)
	}
	for i := range kots {
		subtotal = subtotal.Add(kots[i].LiveTotal())
	}
	return subtotal, nil
}

// repriceBill recomputes a pending bill's amounts from the live items of its
// linked KOTs. The linked KOT set is left as it is. It reports whether the
// amounts changed.
func repriceBill(tx *gorm.DB, bill *models.Bill) (bool, error) {
	kotIDs, err := billKOTIDs(tx, bill.ID)
	if err != nil {
		return false, err
	}
	subtotal, err := liveSubtotal(tx, kotIDs)
	if err != nil {
		return false, err
	}
	if subtotal.Equal(bill.Subtotal) {
		return false, nil
	}

	tax := CalculateTax(subtotal)
	total := subtotal.Add(tax)
	err = tx.Model(&models.Bill{}).
		Where("id = ? AND status = ?", bill.ID, models.BillStatusPending).
		Updates(map[string]interface{}{
			"subtotal": subtotal,
			"tax":      tax,
			"total":    total,
		}).Error
	if err != nil {
		return false, fmt.Errorf("reprice bill: %w", err)
	}
	bill.Subtotal, bill.Tax, bill.Total = subtotal, tax, total
	return true, nil
}

// repriceBillsForKOT reprices every pending bill that covers the KOT.
func repriceBillsForKOT(tx *gorm.DB, kotID uint) ([]uint, error) {
	linked := tx.Model(&models.BillKOT{}).Select("bill_id").Where("kot_id = ?", kotID)
	var bills []models.Bill
	if err := tx.Where("status = ? AND id IN (?)", models.BillStatusPending, linked).Find(&bills).Error; err != nil {
		return nil, fmt.Errorf("find bills for kot: %w", err)
	}

	var repriced []uint
	for i := range bills {
		changed, err := repriceBill(tx, &bills[i])
		if err != nil {
			return nil, err
		}
		if changed {
			repriced = append(repriced, bills[i].ID)
		}
	}
	return repriced, nil
}

// hydrateBill loads the KOTs linked to the bill, with items.
func hydrateBill(tx *gorm.DB, bill *models.Bill) error {
	ids, err := billKOTIDs(tx, bill.ID)
	if err != nil {
		return err
	}
	bill.KOTs = []models.KOT{}
	if len(ids) == 0 {
		return nil
	}
	err = tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Where("id IN ?", ids).Order("punched_at, id").Find(&bill.KOTs).Error
	if err != nil {
		return fmt.Errorf("load bill kots: %w", err)
	}
	return nil
}

// PaymentModes lists the accepted modes in display order.
func PaymentModes() []string {
	return []string{models.PaymentModeUPI, models.PaymentModeCash, models.PaymentModeSwiggy, models.PaymentModeZomato}
}

func normalizePaymentMode(mode string) string {
	for _, m := range PaymentModes() {
		if strings.EqualFold(m, strings.TrimSpace(mode)) {
			return m
		}
	}
	return mode
}
