package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type TableController struct {
	Tables   *services.TableService
	Sessions *services.SessionService
}

func NewTableController(tables *services.TableService, sessions *services.SessionService) *TableController {
	return &TableController{Tables: tables, Sessions: sessions}
}

// GetAllTables -> menampilkan seluruh meja, opsional ?zone_id=
func (tc *TableController) GetAllTables(c *gin.Context) {
	var zoneID *uint
	if raw := c.Query("zone_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid zone_id"))
			return
		}
		z := uint(id)
		zoneID = &z
	}

	tables, err := tc.Tables.ListTables(c.Request.Context(), zoneID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTableByID(c *gin.Context) {
	tableID, ok := parseID(c, "table_id")
	if !ok {
		return
	}

	table, err := tc.Tables.GetTable(c.Request.Context(), tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table retrieved", table)
}

// StartSession -> membuka sesi pada meja kosong
func (tc *TableController) StartSession(c *gin.Context) {
	tableID, ok := parseID(c, "table_id")
	if !ok {
		return
	}

	sessionID, err := tc.Sessions.StartSession(c.Request.Context(), tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Session started", gin.H{
		"table_id":   tableID,
		"session_id": sessionID,
	})
}
