package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/models"
)

func seedMenu(t *testing.T, f *fixture) {
	t.Helper()
	require.NoError(t, f.store.Seed(""))
}

func findDish(t *testing.T, f *fixture, name string) models.Dish {
	t.Helper()
	var dish models.Dish
	require.NoError(t, f.store.DB.Preload("Portions").Preload("AddOns.Choices").Where("name = ?", name).First(&dish).Error)
	return dish
}

func TestListCategoriesOrdered(t *testing.T) {
	f := setupFixture(t)
	seedMenu(t, f)

	categories, err := f.svc.Menu.ListCategories(ctxBG)
	require.NoError(t, err)
	require.Len(t, categories, 4)
	assert.Equal(t, "Starters", categories[0].Name)
	assert.Equal(t, "Beverages", categories[3].Name)

	starters := categories[0]
	require.NotEmpty(t, starters.Dishes)
	assert.Equal(t, "Chicken 65", starters.Dishes[0].Name)
	for _, d := range starters.Dishes {
		if d.Name == "Paneer Tikka" {
			assert.Len(t, d.Portions, 2)
			require.Len(t, d.AddOns, 1)
			assert.Len(t, d.AddOns[0].Choices, 2)
		}
	}
}

func TestDishWithDetailsNotFound(t *testing.T) {
	f := setupFixture(t)

	_, err := f.svc.Menu.DishWithDetails(ctxBG, 4040)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveCartItemWithPortionAndChoice(t *testing.T) {
	f := setupFixture(t)
	seedMenu(t, f)
	dish := findDish(t, f, "Paneer Tikka")

	half := dish.Portions[0]
	require.Equal(t, "Half", half.Name)
	mint := dish.AddOns[0].Choices[0]

	item, err := f.svc.Menu.ResolveCartItem(ctxBG, CartSelection{
		DishID:    dish.ID,
		PortionID: &half.ID,
		Quantity:  2,
		Choices:   []ChoiceSelection{{ChoiceID: mint.ID}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Paneer Tikka", item.DishName)
	assert.Equal(t, "Half", item.PortionName)
	assert.Equal(t, "140.00", item.UnitPrice().StringFixed(2))
	require.Len(t, item.Extras, 1)
	assert.Equal(t, 1, item.Extras[0].Quantity)
	// (140 + 20) * 2
	assert.Equal(t, "320.00", item.LineTotal().StringFixed(2))
}

func TestResolveCartItemFallsBackToBasePrice(t *testing.T) {
	f := setupFixture(t)
	seedMenu(t, f)
	dish := findDish(t, f, "Dal Makhani")

	item, err := f.svc.Menu.ResolveCartItem(ctxBG, CartSelection{DishID: dish.ID, Quantity: 3})
	require.NoError(t, err)
	assert.False(t, item.PortionPrice.Valid)
	assert.Equal(t, "720.00", item.LineTotal().StringFixed(2))
}

func TestResolveCartItemMismatches(t *testing.T) {
	f := setupFixture(t)
	seedMenu(t, f)
	paneer := findDish(t, f, "Paneer Tikka")
	chicken := findDish(t, f, "Butter Chicken")

	_, err := f.svc.Menu.ResolveCartItem(ctxBG, CartSelection{DishID: paneer.ID, PortionID: &chicken.Portions[0].ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrPortionMismatch)

	_, err = f.svc.Menu.ResolveCartItem(ctxBG, CartSelection{
		DishID:   paneer.ID,
		Quantity: 1,
		Choices:  []ChoiceSelection{{ChoiceID: chicken.AddOns[0].Choices[0].ID}},
	})
	assert.ErrorIs(t, err, ErrChoiceMismatch)

	_, err = f.svc.Menu.ResolveCartItem(ctxBG, CartSelection{DishID: paneer.ID, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	require.NoError(t, f.store.DB.Model(&models.Dish{}).Where("id = ?", paneer.ID).Update("available", false).Error)
	_, err = f.svc.Menu.ResolveCartItem(ctxBG, CartSelection{DishID: paneer.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrDishUnavailable)
}

func TestResolvedItemsPunchAsKOT(t *testing.T) {
	f := setupFixture(t)
	seedMenu(t, f)
	naan := findDish(t, f, "Butter Naan")
	chicken := findDish(t, f, "Butter Chicken")
	full := chicken.Portions[1]
	gravy := chicken.AddOns[0].Choices[0]

	a, err := f.svc.Menu.ResolveCartItem(ctxBG, CartSelection{DishID: naan.ID, Quantity: 4})
	require.NoError(t, err)
	b, err := f.svc.Menu.ResolveCartItem(ctxBG, CartSelection{DishID: chicken.ID, PortionID: &full.ID, Quantity: 1, Choices: []ChoiceSelection{{ChoiceID: gravy.ID, Quantity: 2}}})
	require.NoError(t, err)

	kot := f.punch(t, f.tableID, a, b)
	// 4*50 + (320 + 2*50)
	assert.Equal(t, "620.00", kot.Subtotal.StringFixed(2))
	assert.Equal(t, 5, kot.ItemsCount)

	// Perubahan harga menu tidak mengubah riwayat
	require.NoError(t, f.store.DB.Model(&models.Dish{}).Where("id = ?", naan.ID).Update("price", "99").Error)
	stored, err := f.svc.KOTs.KOTWithItems(ctxBG, kot.ID)
	require.NoError(t, err)
	assert.Equal(t, "50.00", stored.Items[0].PortionPrice.StringFixed(2))
}
