package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/gorm"
)

// MenuService reads the catalog and freezes selections into cart lines.
type MenuService struct {
	db *gorm.DB
}

func NewMenuService(db *gorm.DB) *MenuService {
	return &MenuService{db: db}
}

type CartSelection struct {
	DishID    uint              `json:"dish_id" binding:"required"`
	PortionID *uint             `json:"portion_id"`
	Quantity  int               `json:"quantity" binding:"required"`
	Choices   []ChoiceSelection `json:"choices"`
}

type ChoiceSelection struct {
	ChoiceID uint `json:"choice_id" binding:"required"`
	Quantity int  `json:"qty"`
}

func preloadDishDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Portions", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Preload("AddOns.Choices")
}

func (s *MenuService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Preload("Dishes", func(db *gorm.DB) *gorm.DB {
			return db.Order("name")
		}).
		Preload("Dishes.Portions").
		Preload("Dishes.AddOns.Choices").
		Order("sort_order, name").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *MenuService) DishWithDetails(ctx context.Context, dishID uint) (*models.Dish, error) {
	var dish models.Dish
	if err := preloadDishDetails(s.db.WithContext(ctx)).First(&dish, dishID).Error; err != nil {
		return nil, notFound(err, "dish", dishID)
	}
	return &dish, nil
}

// ResolveCartItem validates a selection against the catalog and copies the
// current names and prices into a CartItem.
func (s *MenuService) ResolveCartItem(ctx context.Context, sel CartSelection) (CartItem, error) {
	if sel.Quantity <= 0 {
		return CartItem{}, ErrInvalidQuantity
	}

	dish, err := s.DishWithDetails(ctx, sel.DishID)
	if err != nil {
		return CartItem{}, err
	}
	if !dish.Available {
		return CartItem{}, ErrDishUnavailable
	}

	item := CartItem{
		DishID:    dish.ID,
		DishName:  dish.Name,
		BasePrice: dish.Price,
		Quantity:  sel.Quantity,
	}

	if sel.PortionID != nil {
		var found bool
		for _, p := range dish.Portions {
			if p.ID == *sel.PortionID {
				item.PortionName = p.Name
				item.PortionPrice = decimal.NewNullDecimal(p.Price)
				found = true
				break
			}
		}
		if !found {
			return CartItem{}, ErrPortionMismatch
		}
	}

	choices := make(map[uint]models.AddOnChoice)
	for _, a := range dish.AddOns {
		for _, c := range a.Choices {
			choices[c.ID] = c
		}
	}
	for _, cs := range sel.Choices {
		choice, ok := choices[cs.ChoiceID]
		if !ok {
			return CartItem{}, ErrChoiceMismatch
		}
		qty := cs.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			return CartItem{}, ErrInvalidQuantity
		}
		item.Extras = append(item.Extras, models.ExtraChoice{
			Name:     choice.Name,
			Quantity: qty,
			Price:    choice.Price,
		})
	}
	return item, nil
}
