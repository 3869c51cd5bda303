package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

const dateLayout = "2006-01-02"

type AdminController struct {
	Tables *services.TableService
	Bills  *services.BillService
}

func NewAdminController(tables *services.TableService, bills *services.BillService) *AdminController {
	return &AdminController{Tables: tables, Bills: bills}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// GetDashboardStats mengambil statistik untuk dashboard: kondisi meja saat
// ini dan penjualan hari ini.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()

	tables, err := ac.Tables.Stats(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	today := startOfDay(time.Now().UTC())
	sales, err := ac.Bills.SalesSummary(ctx, today, today.AddDate(0, 0, 1))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", gin.H{
		"tables": tables,
		"today":  sales,
	})
}

// GetSalesReport -> ?from=2024-05-01&to=2024-05-31 (inklusif, UTC)
func (ac *AdminController) GetSalesReport(c *gin.Context) {
	today := startOfDay(time.Now().UTC())
	from, to := today, today

	var err error
	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse(dateLayout, raw); err != nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid from date"))
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(dateLayout, raw); err != nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid to date"))
			return
		}
	}
	if to.Before(from) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("to is before from"))
		return
	}

	summary, err := ac.Bills.SalesSummary(c.Request.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sales report", summary)
}
