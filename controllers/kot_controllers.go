package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type KOTController struct {
	KOTs *services.KOTService
	Menu *services.MenuService
}

func NewKOTController(kots *services.KOTService, menu *services.MenuService) *KOTController {
	return &KOTController{KOTs: kots, Menu: menu}
}

// PunchKOT -> kirim isi cart ke dapur sebagai satu KOT
func (kc *KOTController) PunchKOT(c *gin.Context) {
	tableID, ok := parseID(c, "table_id")
	if !ok {
		return
	}

	var req struct {
		Items []services.CartSelection `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	cart := make([]services.CartItem, 0, len(req.Items))
	for _, sel := range req.Items {
		item, err := kc.Menu.ResolveCartItem(ctx, sel)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		cart = append(cart, item)
	}

	userID, userName, _ := middlewares.CurrentUser(c)
	kot, err := kc.KOTs.CreateKOT(ctx, services.CreateKOTRequest{
		TableID:       tableID,
		UserID:        userID,
		PunchedByName: userName,
		Items:         cart,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "KOT punched", kot)
}

func (kc *KOTController) GetKOTsByTable(c *gin.Context) {
	tableID, ok := parseID(c, "table_id")
	if !ok {
		return
	}

	kots, err := kc.KOTs.KOTsByTable(c.Request.Context(), tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "KOTs for table", kots)
}

func (kc *KOTController) GetKOT(c *gin.Context) {
	kotID, ok := parseID(c, "kot_id")
	if !ok {
		return
	}

	kot, err := kc.KOTs.KOTWithItems(c.Request.Context(), kotID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "KOT retrieved", kot)
}

// PrintKOT -> data cetak plus teks siap kirim ke printer dapur
func (kc *KOTController) PrintKOT(c *gin.Context) {
	kotID, ok := parseID(c, "kot_id")
	if !ok {
		return
	}

	data, err := kc.KOTs.PrepareKOTPrintData(c.Request.Context(), kotID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "KOT print data", gin.H{
		"print_data": data,
		"text":       services.FormatKOT(*data),
	})
}

// DeleteItem -> void satu item; password milik user yang login
func (kc *KOTController) DeleteItem(c *gin.Context) {
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	var req struct {
		Reason   string `json:"reason"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	_, userName, _ := middlewares.CurrentUser(c)
	err := kc.KOTs.DeleteKOTItem(c.Request.Context(), services.DeleteKOTItemRequest{
		ItemID:        itemID,
		DeletedByName: userName,
		Reason:        req.Reason,
		Password:      req.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item deleted", gin.H{"item_id": itemID})
}
