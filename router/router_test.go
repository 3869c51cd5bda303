package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/config"
	"github.com/yeremiapane/restaurant-pos/database"
	"github.com/yeremiapane/restaurant-pos/kds"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type testServer struct {
	engine *gin.Engine
	store  *database.Store
	hub    *kds.Hub
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SilenceLoggers()

	store, err := database.OpenInMemory("router_" + strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Seed(""))

	hub := kds.NewHub()
	t.Cleanup(hub.Close)

	cfg := &config.Config{CORSOrigin: "*"}
	return &testServer{
		engine: SetupRouter(cfg, services.New(store, hub), hub),
		store:  store,
		hub:    hub,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w.Code, env
}

func (s *testServer) login(t *testing.T, phone, password string) string {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/login", "", gin.H{"phone": phone, "password": password})
	require.Equal(t, http.StatusOK, code, env.Message)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func (s *testServer) tableID(t *testing.T, code string) uint {
	t.Helper()
	var table models.Table
	require.NoError(t, s.store.DB.Where("table_code = ?", code).First(&table).Error)
	return table.ID
}

func (s *testServer) dishID(t *testing.T, name string) uint {
	t.Helper()
	var dish models.Dish
	require.NoError(t, s.store.DB.Where("name = ?", name).First(&dish).Error)
	return dish.ID
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestPing(t *testing.T) {
	s := setupServer(t)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupServer(t)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "restaurant_pos_")
}

func TestLogin(t *testing.T) {
	s := setupServer(t)

	code, _ := s.do(t, http.MethodPost, "/login", "", gin.H{"phone": "9000000002", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPost, "/login", "", gin.H{"phone": "9000000002"})
	assert.Equal(t, http.StatusBadRequest, code)

	token := s.login(t, "9000000002", "1234")
	code, env := s.do(t, http.MethodGet, "/pos/profile", token, nil)
	require.Equal(t, http.StatusOK, code)

	var user models.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "Captain Arjun", user.Name)
	assert.NotContains(t, string(env.Data), "password")
}

func TestLoginIsRateLimited(t *testing.T) {
	s := setupServer(t)

	var last int
	for i := 0; i < 6; i++ {
		last, _ = s.do(t, http.MethodPost, "/login", "", gin.H{"phone": "9000000002", "password": "nope"})
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestPOSRoutesRequireToken(t *testing.T) {
	s := setupServer(t)

	code, _ := s.do(t, http.MethodGet, "/pos/tables", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := setupServer(t)
	token := s.login(t, "9000000003", "1234")

	code, _ := s.do(t, http.MethodPost, "/pos/logout", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/pos/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestDashboardIsManagerOnly(t *testing.T) {
	s := setupServer(t)

	captain := s.login(t, "9000000002", "1234")
	code, _ := s.do(t, http.MethodGet, "/pos/dashboard", captain, nil)
	assert.Equal(t, http.StatusForbidden, code)

	manager := s.login(t, "9000000001", "admin123")
	code, env := s.do(t, http.MethodGet, "/pos/dashboard", manager, nil)
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Tables services.TableStats   `json:"tables"`
		Today  services.SalesSummary `json:"today"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 8, data.Tables.Total)
	assert.Equal(t, 8, data.Tables.Empty)
	assert.Equal(t, 0, data.Today.Bills)
}

func TestSalesReportRejectsBadDates(t *testing.T) {
	s := setupServer(t)
	manager := s.login(t, "9000000001", "admin123")

	code, _ := s.do(t, http.MethodGet, "/pos/reports/sales?from=yesterday", manager, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/pos/reports/sales?from=2024-05-10&to=2024-05-01", manager, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/pos/reports/sales?from=2024-05-01&to=2024-05-10", manager, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestMenuAndTables(t *testing.T) {
	s := setupServer(t)
	token := s.login(t, "9000000002", "1234")

	code, env := s.do(t, http.MethodGet, "/pos/menu", token, nil)
	require.Equal(t, http.StatusOK, code)
	var categories []models.Category
	require.NoError(t, json.Unmarshal(env.Data, &categories))
	assert.Len(t, categories, 4)

	dishID := s.dishID(t, "Paneer Tikka")
	code, env = s.do(t, http.MethodGet, fmt.Sprintf("/pos/menu/dishes/%d", dishID), token, nil)
	require.Equal(t, http.StatusOK, code)
	var dish models.Dish
	require.NoError(t, json.Unmarshal(env.Data, &dish))
	assert.Len(t, dish.Portions, 2)

	code, _ = s.do(t, http.MethodGet, "/pos/menu/dishes/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	var garden models.Zone
	require.NoError(t, s.store.DB.Where("name = ?", "Garden").First(&garden).Error)
	code, env = s.do(t, http.MethodGet, fmt.Sprintf("/pos/tables?zone_id=%d", garden.ID), token, nil)
	require.Equal(t, http.StatusOK, code)
	var tables []services.TableView
	require.NoError(t, json.Unmarshal(env.Data, &tables))
	assert.Len(t, tables, 2)

	code, _ = s.do(t, http.MethodGet, "/pos/tables?zone_id=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStartSessionTwiceConflicts(t *testing.T) {
	s := setupServer(t)
	token := s.login(t, "9000000002", "1234")
	path := fmt.Sprintf("/pos/tables/%d/session", s.tableID(t, "MH-T3"))

	code, _ := s.do(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusCreated, code)

	code, _ = s.do(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestPunchKOTValidation(t *testing.T) {
	s := setupServer(t)
	token := s.login(t, "9000000002", "1234")
	path := fmt.Sprintf("/pos/tables/%d/kots", s.tableID(t, "MH-T1"))

	code, _ := s.do(t, http.MethodPost, path, token, gin.H{"items": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, path, token, gin.H{
		"items": []gin.H{{"dish_id": 9999, "quantity": 1}},
	})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPost, "/pos/tables/9999/kots", token, gin.H{
		"items": []gin.H{{"dish_id": s.dishID(t, "Dal Makhani"), "quantity": 1}},
	})
	assert.Equal(t, http.StatusNotFound, code)

	var kots int64
	s.store.DB.Model(&models.KOT{}).Count(&kots)
	assert.Zero(t, kots)
}

func TestKOTLifecycleOverHTTP(t *testing.T) {
	s := setupServer(t)
	token := s.login(t, "9000000002", "1234")
	tableID := s.tableID(t, "MH-T2")

	var dal models.Dish
	require.NoError(t, s.store.DB.Where("name = ?", "Dal Makhani").First(&dal).Error)

	code, env := s.do(t, http.MethodPost, fmt.Sprintf("/pos/tables/%d/kots", tableID), token, gin.H{
		"items": []gin.H{{"dish_id": dal.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)

	var kot models.KOT
	require.NoError(t, json.Unmarshal(env.Data, &kot))
	assert.Equal(t, "Captain Arjun", kot.PunchedByName)
	assertMoney(t, "480", kot.Subtotal)
	require.Len(t, kot.Items, 1)

	code, env = s.do(t, http.MethodGet, fmt.Sprintf("/pos/kots/%d/print", kot.ID), token, nil)
	require.Equal(t, http.StatusOK, code)
	var printed struct {
		PrintData services.PrintData `json:"print_data"`
		Text      string             `json:"text"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &printed))
	assert.Equal(t, "T2", printed.PrintData.TableName)
	assert.Contains(t, printed.Text, "Dal Makhani")

	itemPath := fmt.Sprintf("/pos/kot-items/%d/delete", kot.Items[0].ID)
	code, _ = s.do(t, http.MethodPost, itemPath, token, gin.H{"reason": "", "password": "1234"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, itemPath, token, gin.H{"reason": "guest left", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPost, itemPath, token, gin.H{"reason": "guest left", "password": "1234"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, itemPath, token, gin.H{"reason": "again", "password": "1234"})
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(t, http.MethodGet, fmt.Sprintf("/pos/tables/%d/kots", tableID), token, nil)
	require.Equal(t, http.StatusOK, code)
	var kots []models.KOT
	require.NoError(t, json.Unmarshal(env.Data, &kots))
	require.Len(t, kots, 1)
	require.Len(t, kots[0].Items, 1)
	assert.True(t, kots[0].Items[0].IsDeleted)
	require.NotNil(t, kots[0].Items[0].DeletedBy)
	assert.Equal(t, "Captain Arjun", *kots[0].Items[0].DeletedBy)

	code, env = s.do(t, http.MethodGet, fmt.Sprintf("/pos/tables/%d", tableID), token, nil)
	require.Equal(t, http.StatusOK, code)
	var table services.TableView
	require.NoError(t, json.Unmarshal(env.Data, &table))
	assert.Equal(t, models.TableStatusActive, table.Status)
	assert.Equal(t, 1, table.TotalKOTs)
	assertMoney(t, "0", table.CurrentTotal)
}

func TestBillAndSettleOverHTTP(t *testing.T) {
	s := setupServer(t)
	captain := s.login(t, "9000000002", "1234")
	cashier := s.login(t, "9000000004", "5678")
	tableID := s.tableID(t, "GD-G1")

	var butterChicken models.Dish
	require.NoError(t, s.store.DB.Preload("Portions").Where("name = ?", "Butter Chicken").First(&butterChicken).Error)
	var half models.Portion
	for _, p := range butterChicken.Portions {
		if p.Name == "Half" {
			half = p
		}
	}
	require.NotZero(t, half.ID)

	code, _ := s.do(t, http.MethodPost, fmt.Sprintf("/pos/tables/%d/kots", tableID), captain, gin.H{
		"items": []gin.H{{"dish_id": butterChicken.ID, "portion_id": half.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, code)

	code, env := s.do(t, http.MethodPost, fmt.Sprintf("/pos/tables/%d/bill", tableID), cashier, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var bill models.Bill
	require.NoError(t, json.Unmarshal(env.Data, &bill))
	assertMoney(t, "200", bill.Subtotal)
	assertMoney(t, "10", bill.Tax)
	assertMoney(t, "210", bill.Total)

	// A second open returns the same pending bill.
	code, env = s.do(t, http.MethodPost, fmt.Sprintf("/pos/tables/%d/bill", tableID), cashier, nil)
	require.Equal(t, http.StatusOK, code)
	var again models.Bill
	require.NoError(t, json.Unmarshal(env.Data, &again))
	assert.Equal(t, bill.ID, again.ID)

	settlePath := fmt.Sprintf("/pos/bills/%d/settle", bill.ID)
	code, _ = s.do(t, http.MethodPost, settlePath, cashier, gin.H{"payment_mode": "Cheque"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPost, settlePath, cashier, gin.H{"payment_mode": "cash"})
	require.Equal(t, http.StatusOK, code, env.Message)
	var settled models.Bill
	require.NoError(t, json.Unmarshal(env.Data, &settled))
	assert.Equal(t, models.BillStatusSettled, settled.Status)
	require.NotNil(t, settled.PaymentMode)
	assert.Equal(t, models.PaymentModeCash, *settled.PaymentMode)
	require.NotNil(t, settled.SettledBy)
	assert.Equal(t, "Cashier Ravi", *settled.SettledBy)

	code, _ = s.do(t, http.MethodPost, settlePath, cashier, gin.H{"payment_mode": "Cash"})
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(t, http.MethodGet, fmt.Sprintf("/pos/bills/%d/print", bill.ID), cashier, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "Paid via")

	code, _ = s.do(t, http.MethodGet, fmt.Sprintf("/pos/tables/%d/bill", tableID), cashier, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestKitchenFeedReceivesPunchedKOT(t *testing.T) {
	s := setupServer(t)
	token := s.login(t, "9000000002", "1234")

	srv := httptest.NewServer(s.engine)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/kds"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	code, _ := s.do(t, http.MethodPost, fmt.Sprintf("/pos/tables/%d/kots", s.tableID(t, "RT-R1")), token, gin.H{
		"items": []gin.H{{"dish_id": s.dishID(t, "Veg Spring Roll"), "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var events []string
	for len(events) < 2 {
		var msg kds.Message
		require.NoError(t, conn.ReadJSON(&msg))
		events = append(events, msg.Event)
	}
	assert.Contains(t, events, services.EventKOTPunched)
	assert.Contains(t, events, services.EventTableUpdate)
}
