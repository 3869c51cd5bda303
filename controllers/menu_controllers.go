package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type MenuController struct {
	Menu *services.MenuService
}

func NewMenuController(menu *services.MenuService) *MenuController {
	return &MenuController{Menu: menu}
}

// GetMenu -> seluruh kategori beserta dish, portion dan add-on
func (mc *MenuController) GetMenu(c *gin.Context) {
	categories, err := mc.Menu.ListCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu retrieved", categories)
}

func (mc *MenuController) GetDish(c *gin.Context) {
	dishID, ok := parseID(c, "dish_id")
	if !ok {
		return
	}

	dish, err := mc.Menu.DishWithDetails(c.Request.Context(), dishID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dish retrieved", dish)
}
