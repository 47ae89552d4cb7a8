package handlers_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"restaurant-api/events"
	"restaurant-api/handlers"
	"restaurant-api/models"
	"restaurant-api/routes"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var secret = []byte("handlers-test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type api struct {
	t      *testing.T
	router *gin.Engine
	hub    *events.Hub
	db     *gorm.DB
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:  logger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	lg := log.New()
	lg.SetOutput(io.Discard)
	hub := events.NewHub(lg)
	svc := services.New(db, hub, lg, services.DefaultOptions())

	created, err := svc.Users.EnsureAdmin(context.Background(), services.CreateUserInput{
		Name: "Ada Admin", Username: "admin", Email: "admin@example.com", Password: "secret123",
	})
	require.NoError(t, err)
	require.True(t, created)

	h := handlers.New(svc, hub, secret, time.Hour, 10*time.Second)
	return &api{t: t, router: routes.NewRouter(h, secret, lg), hub: hub, db: db}
}

func (a *api) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()
	w := a.raw(method, path, token, body)
	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (a *api) raw(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *api) login(login, password string) string {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/auth/login", "", gin.H{"login": login, "password": password})
	require.Equal(a.t, http.StatusOK, code, env.Error)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &out))
	return out.Token
}

// createdID posts body and returns the id of the created resource.
func (a *api) createdID(path, token string, body any) uint {
	a.t.Helper()
	code, env := a.do(http.MethodPost, path, token, body)
	require.Equal(a.t, http.StatusCreated, code, env.Error)
	var out struct {
		ID uint `json:"id"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &out))
	return out.ID
}

// shop is a logged-in staff with one burger on the menu backed by a bun.
type shop struct {
	*api
	admin, cashier, cook string
	burger, bun          uint
}

func newShop(t *testing.T) *shop {
	a := newAPI(t)
	s := &shop{api: a, admin: a.login("admin", "secret123")}

	a.createdID("/api/admin/users", s.admin, gin.H{
		"name": "Cal Cashier", "username": "cashier", "email": "cashier@example.com",
		"password": "secret123", "role": models.RoleCashier,
	})
	a.createdID("/api/admin/users", s.admin, gin.H{
		"name": "Kit Cook", "username": "cook", "email": "cook@example.com",
		"password": "secret123", "role": models.RoleKitchenStaff,
	})
	s.cashier = a.login("cashier", "secret123")
	s.cook = a.login("cook@example.com", "secret123")

	cat := a.createdID("/api/categories", s.admin, gin.H{"name": "Burgers", "slug": "burgers"})
	s.burger = a.createdID("/api/menu-items", s.admin, gin.H{"name": "Burger", "price": 8.5, "category_id": cat})
	s.bun = a.createdID("/api/inventory", s.admin, gin.H{"name": "Bun", "quantity": 10, "unit": "pcs", "threshold": 2})

	code, env := a.do(http.MethodPut, fmt.Sprintf("/api/menu-items/%d/recipe", s.burger), s.admin, gin.H{
		"ingredients": []gin.H{{"inventory_item_id": s.bun, "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, code, env.Error)
	return s
}

func (s *shop) placeBurgers(qty int) uint {
	return s.createdID("/api/orders", s.cashier, gin.H{
		"type":  models.OrderTakeaway,
		"items": []gin.H{{"menu_item_id": s.burger, "quantity": qty, "price": 8.5}},
	})
}

func TestHealthAndStateMachine(t *testing.T) {
	a := newAPI(t)

	w := a.raw(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))

	code, env := a.do(http.MethodGet, "/api/state-machine", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Success)
	require.Contains(t, string(env.Data), `"from":"PENDING","to":"PREPARING"`)
}

func TestLoginAndProfile(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(http.MethodPost, "/api/auth/login", "", gin.H{"login": "admin", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, code)
	require.False(t, env.Success)

	code, _ = a.do(http.MethodPost, "/api/auth/login", "", gin.H{"login": "admin"})
	require.Equal(t, http.StatusBadRequest, code)

	token := a.login("admin", "secret123")
	code, env = a.do(http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, code)
	var user models.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	require.Equal(t, "admin", user.Username)
	require.Equal(t, models.RoleAdmin, user.Role)
	require.NotContains(t, string(env.Data), "secret123")

	code, _ = a.do(http.MethodGet, "/api/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	s := newShop(t)
	id := s.placeBurgers(2)

	code, env := s.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", id), s.cashier, nil)
	require.Equal(t, http.StatusOK, code)
	var order models.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	require.Equal(t, 17.0, order.TotalAmount)
	require.Equal(t, models.StatusPending, order.Status)

	code, env = s.do(http.MethodGet, fmt.Sprintf("/api/inventory/%d", s.bun), s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	var bun models.InventoryItem
	require.NoError(t, json.Unmarshal(env.Data, &bun))
	require.Equal(t, 8, bun.Quantity)

	// cashiers do not drive the kitchen flow
	code, env = s.do(http.MethodPut, fmt.Sprintf("/api/orders/%d/status", id), s.cashier, gin.H{"status": models.StatusPreparing})
	require.Equal(t, http.StatusForbidden, code)
	require.Contains(t, env.Error, "KITCHEN_STAFF")

	code, env = s.do(http.MethodGet, "/api/kitchen/orders", s.cook, nil)
	require.Equal(t, http.StatusOK, code)
	var queue struct {
		Count        int                      `json:"count"`
		PollInterval int                      `json:"poll_interval_seconds"`
		Tickets      []services.KitchenTicket `json:"tickets"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &queue))
	require.Equal(t, 1, queue.Count)
	require.Equal(t, 10, queue.PollInterval)
	require.Equal(t, models.StatusPreparing, queue.Tickets[0].NextStatus)

	for _, want := range []models.OrderStatus{models.StatusPreparing, models.StatusReady, models.StatusCompleted} {
		code, env = s.do(http.MethodPut, fmt.Sprintf("/api/kitchen/orders/%d/advance", id), s.cook, nil)
		require.Equal(t, http.StatusOK, code, env.Error)
		require.NoError(t, json.Unmarshal(env.Data, &order))
		require.Equal(t, want, order.Status)
	}

	// nothing follows COMPLETED
	code, _ = s.do(http.MethodPut, fmt.Sprintf("/api/orders/%d/status", id), s.cook, gin.H{"status": models.StatusCancelled})
	require.Equal(t, http.StatusUnprocessableEntity, code)

	code, env = s.do(http.MethodPost, fmt.Sprintf("/api/orders/%d/settle", id), s.cashier, gin.H{"method": models.MethodCash, "amount": 20})
	require.Equal(t, http.StatusOK, code, env.Error)
	var payment models.Payment
	require.NoError(t, json.Unmarshal(env.Data, &payment))
	require.Equal(t, models.PaymentPaid, payment.Status)
	require.True(t, strings.HasPrefix(payment.Reference, "PAY-"))

	code, _ = s.do(http.MethodPost, fmt.Sprintf("/api/orders/%d/settle", id), s.cashier, gin.H{"method": models.MethodCard})
	require.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPost, fmt.Sprintf("/api/orders/%d/refund", id), s.cashier, nil)
	require.Equal(t, http.StatusForbidden, code)
	code, env = s.do(http.MethodPost, fmt.Sprintf("/api/orders/%d/refund", id), s.admin, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
}

func TestErrorMapping(t *testing.T) {
	s := newShop(t)

	code, env := s.do(http.MethodGet, "/api/orders/999", s.cashier, nil)
	require.Equal(t, http.StatusNotFound, code)
	require.False(t, env.Success)

	code, _ = s.do(http.MethodGet, "/api/orders/abc", s.cashier, nil)
	require.Equal(t, http.StatusBadRequest, code)

	// still referenced by the burger recipe
	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/inventory/%d", s.bun), s.admin, nil)
	require.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPost, "/api/orders", s.cashier, gin.H{"items": []gin.H{}})
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/orders", s.cashier, gin.H{
		"items": []gin.H{{"menu_item_id": 4242, "quantity": 1, "price": 1}},
	})
	require.Equal(t, http.StatusNotFound, code)
}

func TestDeletedUserTokenIsRefused(t *testing.T) {
	s := newShop(t)

	code, env := s.do(http.MethodGet, "/api/admin/users", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	var users []models.User
	require.NoError(t, json.Unmarshal(env.Data, &users))
	var cookID uint
	for _, u := range users {
		if u.Username == "cook" {
			cookID = u.ID
		}
	}
	require.NotZero(t, cookID)

	code, _ = s.do(http.MethodGet, "/api/kitchen/orders", s.cook, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", cookID), s.admin, nil)
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = s.do(http.MethodGet, "/api/kitchen/orders", s.cook, nil)
	require.Equal(t, http.StatusUnauthorized, code)
	require.False(t, env.Success)
}

func TestPublicOrdering(t *testing.T) {
	s := newShop(t)

	code, env := s.do(http.MethodGet, "/api/public/menu", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(env.Data), "Burger")

	code, env = s.do(http.MethodPost, "/api/public/orders", "", gin.H{
		"customer_name": "Guest",
		"items":         []gin.H{{"menu_item_id": s.burger, "quantity": 1, "price": 8.5}},
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	require.Contains(t, string(env.Data), `"payment_status":"UNPAID"`)

	code, env = s.do(http.MethodGet, "/api/orders?type=TAKEAWAY", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Count  int            `json:"count"`
		Orders []models.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Equal(t, 1, list.Count)
	require.Nil(t, list.Orders[0].UserID)
}

func TestSalesExportIsWorkbook(t *testing.T) {
	s := newShop(t)
	id := s.placeBurgers(1)
	for i := 0; i < 3; i++ {
		code, _ := s.do(http.MethodPut, fmt.Sprintf("/api/kitchen/orders/%d/advance", id), s.cook, nil)
		require.Equal(t, http.StatusOK, code)
	}

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	code, env := s.do(http.MethodGet, "/api/reports/sales?to="+tomorrow, s.admin, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	require.Contains(t, string(env.Data), `"count":1`)

	w := s.raw(http.MethodGet, "/api/reports/sales/export?to="+tomorrow, s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	require.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	require.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	code, _ = s.do(http.MethodGet, "/api/reports/sales?from=yesterday", s.admin, nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodGet, "/api/reports/sales", s.cook, nil)
	require.Equal(t, http.StatusForbidden, code)
}

func TestStreamDeliversKitchenEvents(t *testing.T) {
	s := newShop(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/kitchen/stream?access_token="+s.cook, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	waitFor := func(prefix string) string {
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), prefix) {
				return lines.Text()
			}
		}
		t.Fatalf("stream ended before %q: %v", prefix, lines.Err())
		return ""
	}

	waitFor("event: hello")
	require.Equal(t, 1, s.hub.Subscribers(events.TopicKitchen))
	require.Zero(t, s.hub.Subscribers(events.TopicInventory))

	id := s.placeBurgers(1)
	waitFor("event: " + events.TypeOrderCreated)
	data := waitFor("data: ")
	require.Contains(t, data, fmt.Sprintf(`"order_id":%d`, id))
}
