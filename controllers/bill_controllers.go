package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type BillController struct {
	Bills *services.BillService
}

func NewBillController(bills *services.BillService) *BillController {
	return &BillController{Bills: bills}
}

// OpenBill -> bill pending sesi aktif, dibuat kalau belum ada
func (bc *BillController) OpenBill(c *gin.Context) {
	tableID, ok := parseID(c, "table_id")
	if !ok {
		return
	}

	bill, err := bc.Bills.OpenBill(c.Request.Context(), tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill ready", bill)
}

func (bc *BillController) GetBillByTable(c *gin.Context) {
	tableID, ok := parseID(c, "table_id")
	if !ok {
		return
	}

	bill, err := bc.Bills.BillByTable(c.Request.Context(), tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill retrieved", bill)
}

func (bc *BillController) RegenerateBill(c *gin.Context) {
	tableID, ok := parseID(c, "table_id")
	if !ok {
		return
	}

	bill, err := bc.Bills.RegenerateBill(c.Request.Context(), tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Bill regenerated", bill)
}

func (bc *BillController) SettleBill(c *gin.Context) {
	billID, ok := parseID(c, "bill_id")
	if !ok {
		return
	}

	var req struct {
		PaymentMode string `json:"payment_mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	_, userName, _ := middlewares.CurrentUser(c)
	err := bc.Bills.SettleBill(c.Request.Context(), services.SettleBillRequest{
		BillID:        billID,
		PaymentMode:   req.PaymentMode,
		SettledByName: userName,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	bill, err := bc.Bills.GetBill(c.Request.Context(), billID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill settled", bill)
}

func (bc *BillController) PrintBill(c *gin.Context) {
	billID, ok := parseID(c, "bill_id")
	if !ok {
		return
	}

	bill, err := bc.Bills.GetBill(c.Request.Context(), billID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill print data", gin.H{
		"bill": bill,
		"text": services.FormatBill(bill),
	})
}
