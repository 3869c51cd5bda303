package services

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/database"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
)

const (
	captainName     = "Captain Arjun"
	captainPassword = "1234"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Broadcast(event string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type fixture struct {
	svc      *Services
	store    *database.Store
	notifier *recordingNotifier
	tableID  uint
	table2ID uint
	userID   uint
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	utils.SilenceLoggers()

	store, err := database.OpenInMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	err = store.Apply(&database.SeedFile{
		Zones: []database.SeedZone{
			{Name: "Main Hall", Tables: []database.SeedTable{
				{Name: "T1", Code: "MH-T1"},
				{Name: "T2", Code: "MH-T2"},
			}},
			{Name: "Garden", Tables: []database.SeedTable{
				{Name: "G1", Code: "GD-G1"},
			}},
		},
		Users: []database.SeedUser{
			{Name: captainName, Phone: "9000000002", Password: captainPassword, Role: models.RoleCaptain},
			{Name: "Manager", Phone: "9000000001", Password: "admin123", Role: models.RoleManager},
		},
	})
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	f := &fixture{svc: New(store, notifier), store: store, notifier: notifier}

	var t1, t2 models.Table
	require.NoError(t, store.DB.Where("table_code = ?", "MH-T1").First(&t1).Error)
	require.NoError(t, store.DB.Where("table_code = ?", "MH-T2").First(&t2).Error)
	f.tableID, f.table2ID = t1.ID, t2.ID

	var user models.User
	require.NoError(t, store.DB.Where("name = ?", captainName).First(&user).Error)
	f.userID = user.ID
	return f
}

// freezeTime pins timeNow; move the returned clock to advance it.
func freezeTime(t *testing.T, at time.Time) *time.Time {
	t.Helper()
	clock := at
	old := timeNow
	timeNow = func() time.Time { return clock }
	t.Cleanup(func() { timeNow = old })
	return &clock
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// dishA: portion 100 x2 = 200.
func dishA() CartItem {
	return CartItem{
		DishID:       1,
		DishName:     "Dish A",
		BasePrice:    money("120"),
		PortionName:  "Full",
		PortionPrice: decimal.NewNullDecimal(money("100")),
		Quantity:     2,
	}
}

// dishB: base 50 + one extra at 20, x1 = 70.
func dishB() CartItem {
	return CartItem{
		DishID:    2,
		DishName:  "Dish B",
		BasePrice: money("50"),
		Quantity:  1,
		Extras:    []models.ExtraChoice{{Name: "Cheese", Quantity: 1, Price: money("20")}},
	}
}

func (f *fixture) punch(t *testing.T, tableID uint, items ...CartItem) *models.KOT {
	t.Helper()
	kot, err := f.svc.KOTs.CreateKOT(ctxBG, CreateKOTRequest{
		TableID:       tableID,
		UserID:        f.userID,
		PunchedByName: captainName,
		Items:         items,
	})
	require.NoError(t, err)
	return kot
}

func (f *fixture) table(t *testing.T, tableID uint) models.Table {
	t.Helper()
	var table models.Table
	require.NoError(t, f.store.DB.First(&table, tableID).Error)
	return table
}

func (f *fixture) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := f.store.DB.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
