package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"railbite/internal/auth"
	"railbite/internal/service"
	"railbite/internal/testutil"
	"railbite/repository"
)

const testSecret = "http-secret"

type apiEnv struct {
	router *gin.Engine
	svc    *service.Services
	admin  string
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.OpenInMemoryDB(t, "http_"+t.Name())
	svc := service.New(service.Deps{
		Store:     repository.NewStore(db),
		Hasher:    auth.NewBcrypt(4),
		Log:       zap.NewNop(),
		JWTSecret: testSecret,
		TokenTTL:  time.Hour,
		Staff:     service.StaffOptions{Location: time.UTC, OnTimeWindow: 45 * time.Minute},
	})
	require.NoError(t, svc.Accounts.EnsureAdmin(context.Background(), "Admin", "admin@railbite.test", "admin-pass"))

	env := &apiEnv{
		router: NewRouter(Config{Services: svc, JWTSecret: testSecret, DB: db}),
		svc:    svc,
	}
	env.admin = env.login(t, "admin@railbite.test", "admin-pass")
	return env
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (e *apiEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	code, env := e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, code, env.Message)
	var sess struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	return sess.Token
}

func (e *apiEnv) register(t *testing.T, email string) string {
	t.Helper()
	code, env := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Karim", "email": email, "phone": "01711111111", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var sess struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	return sess.Token
}

type orderView struct {
	ID              int64  `json:"id"`
	OrderNumber     string `json:"order_number"`
	Status          string `json:"status"`
	DeliveryStatus  string `json:"delivery_status"`
	PaymentStatus   string `json:"payment_status"`
	Total           string `json:"total"`
	AssignedStaffID *int64 `json:"assigned_staff_id"`
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func orderBody() gin.H {
	return gin.H{
		"items": []gin.H{
			{"name": "Kacchi Biryani", "price": 250, "quantity": 1},
			{"name": "Chicken Roll", "price": 120, "quantity": 1},
		},
		"contact":        gin.H{"name": "Karim", "phone": "01711111111"},
		"order_type":     "train",
		"booking":        gin.H{"passenger_name": "Karim", "passenger_phone": "01711111111", "train_number": "702", "coach": "GHA", "seat": "34"},
		"payment_method": "cash",
		"vat":            20,
		"delivery_fee":   50,
	}
}

func TestHealthz(t *testing.T) {
	api := newAPI(t)
	code, env := api.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}

func TestAuthGates(t *testing.T) {
	api := newAPI(t)
	customer := api.register(t, "karim@example.com")

	code, env := api.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, _ = api.do(t, http.MethodGet, "/api/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = api.do(t, http.MethodGet, "/api/auth/me", customer, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"role":"customer"`)
	assert.NotContains(t, string(env.Data), "password")

	for _, path := range []string{"/api/orders", "/api/delivery-staff", "/api/reviews", "/api/reports/sales"} {
		code, _ = api.do(t, http.MethodGet, path, customer, nil)
		assert.Equal(t, http.StatusForbidden, code, path)
	}
	code, _ = api.do(t, http.MethodPost, "/api/orders", api.admin, orderBody())
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = api.do(t, http.MethodGet, "/api/delivery-portal/orders", customer, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestValidationAndErrorMapping(t *testing.T) {
	api := newAPI(t)
	customer := api.register(t, "karim@example.com")

	code, env := api.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"email": "bad", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "name is required")

	code, env = api.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Again", "email": "karim@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)

	code, _ = api.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "karim@example.com", "password": "wrong1"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.do(t, http.MethodGet, "/api/orders/999", api.admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, env = api.do(t, http.MethodGet, "/api/orders/abc", api.admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid id", env.Message)

	bad := orderBody()
	bad["items"] = []gin.H{}
	code, _ = api.do(t, http.MethodPost, "/api/orders", customer, bad)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(t, http.MethodGet, "/api/orders?page_size=0", api.admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = api.do(t, http.MethodGet, "/api/orders?cursor=%25%25", api.admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = api.do(t, http.MethodGet, "/api/reports/sales?from=yesterday", api.admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = api.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "route not found", env.Message)
}

func TestOrderFlowOverHTTP(t *testing.T) {
	api := newAPI(t)
	customer := api.register(t, "karim@example.com")

	code, env := api.do(t, http.MethodPost, "/api/orders", customer, orderBody())
	require.Equal(t, http.StatusCreated, code, env.Message)
	o := decode[orderView](t, env.Data)
	assert.Equal(t, "pending", o.Status)
	assert.Equal(t, "440", o.Total)
	assert.NotEmpty(t, o.OrderNumber)

	code, env = api.do(t, http.MethodPost, "/api/delivery-staff", api.admin, gin.H{
		"name": "Rahim", "phone": "01900000000", "email": "rahim@railbite.test", "password": "courier1",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	staff := decode[struct {
		ID int64 `json:"id"`
	}](t, env.Data)
	courier := api.login(t, "rahim@railbite.test", "courier1")

	orderPath := fmt.Sprintf("/api/orders/%d", o.ID)

	// Assigning before confirmation is rejected.
	code, _ = api.do(t, http.MethodPost, orderPath+"/assign", api.admin, gin.H{"staffId": staff.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, env = api.do(t, http.MethodPatch, orderPath+"/status", api.admin, gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = api.do(t, http.MethodPost, orderPath+"/assign", api.admin, gin.H{"staff_id": staff.ID})
	require.Equal(t, http.StatusOK, code, env.Message)
	o = decode[orderView](t, env.Data)
	require.NotNil(t, o.AssignedStaffID)
	assert.Equal(t, staff.ID, *o.AssignedStaffID)
	assert.Equal(t, "assigned", o.DeliveryStatus)

	code, env = api.do(t, http.MethodGet, "/api/delivery-portal/orders", courier, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]orderView](t, env.Data), 1)

	code, _ = api.do(t, http.MethodPatch, fmt.Sprintf("/api/delivery-portal/orders/%d/status", o.ID), courier, gin.H{"status": "delivered"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	code, env = api.do(t, http.MethodPatch, fmt.Sprintf("/api/delivery-portal/orders/%d/status", o.ID), courier, gin.H{"status": "on_the_way"})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "picked_up", decode[orderView](t, env.Data).DeliveryStatus)

	code, env = api.do(t, http.MethodPatch, "/api/delivery-portal/availability", courier, gin.H{"status": "offline"})
	assert.Equal(t, http.StatusUnprocessableEntity, code, env.Message)

	code, env = api.do(t, http.MethodPatch, fmt.Sprintf("/api/delivery-portal/orders/%d/status", o.ID), courier, gin.H{"status": "delivered"})
	require.Equal(t, http.StatusOK, code, env.Message)
	o = decode[orderView](t, env.Data)
	assert.Equal(t, "delivered", o.Status)
	assert.Equal(t, "paid", o.PaymentStatus)
	assert.Nil(t, o.AssignedStaffID)

	code, _ = api.do(t, http.MethodPatch, orderPath+"/cancel", customer, gin.H{"reason": "too late"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, env = api.do(t, http.MethodPost, "/api/reviews", customer, gin.H{
		"order_id": o.ID, "food_rating": 5, "delivery_rating": 4, "overall_rating": 4, "comment": "hot and fast",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	code, _ = api.do(t, http.MethodPost, "/api/reviews", customer, gin.H{
		"order_id": o.ID, "food_rating": 5, "delivery_rating": 4, "overall_rating": 4,
	})
	assert.Equal(t, http.StatusConflict, code)

	code, env = api.do(t, http.MethodGet, fmt.Sprintf("/api/reviews/order/%d", o.ID), customer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "hot and fast")

	code, env = api.do(t, http.MethodGet, "/api/delivery-portal/profile", courier, nil)
	require.Equal(t, http.StatusOK, code)
	profile := decode[struct {
		Status          string  `json:"status"`
		TotalDeliveries int     `json:"total_deliveries"`
		Rating          float64 `json:"rating"`
	}](t, env.Data)
	assert.Equal(t, "available", profile.Status)
	assert.Equal(t, 1, profile.TotalDeliveries)
	assert.InDelta(t, 4.0, profile.Rating, 0.001)

	code, env = api.do(t, http.MethodGet, "/api/reports/sales", api.admin, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Contains(t, string(env.Data), "Kacchi Biryani")

	code, env = api.do(t, http.MethodGet, "/api/orders/number/"+strings.ToLower(o.OrderNumber), customer, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, o.ID, decode[orderView](t, env.Data).ID)
	code, _ = api.do(t, http.MethodGet, "/api/orders/number/RB-000000-000000", customer, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = api.do(t, http.MethodGet, "/api/orders/my", customer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]orderView](t, env.Data), 1)
}

func TestCancelAndListOverHTTP(t *testing.T) {
	api := newAPI(t)
	customer := api.register(t, "karim@example.com")
	other := api.register(t, "other@example.com")

	var ids []int64
	for i := 0; i < 3; i++ {
		code, env := api.do(t, http.MethodPost, "/api/orders", customer, orderBody())
		require.Equal(t, http.StatusCreated, code, env.Message)
		ids = append(ids, decode[orderView](t, env.Data).ID)
	}

	code, _ := api.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", ids[0]), other, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = api.do(t, http.MethodPatch, fmt.Sprintf("/api/orders/%d/cancel", ids[0]), other, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := api.do(t, http.MethodPatch, fmt.Sprintf("/api/orders/%d/cancel", ids[0]), customer, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "cancelled", decode[orderView](t, env.Data).Status)

	code, env = api.do(t, http.MethodGet, "/api/orders?status=cancelled", api.admin, nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[struct {
		Orders     []orderView `json:"orders"`
		NextCursor string      `json:"next_cursor"`
	}](t, env.Data)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, ids[0], page.Orders[0].ID)

	code, env = api.do(t, http.MethodGet, "/api/orders?status=pending,cancelled&page_size=2", api.admin, nil)
	require.Equal(t, http.StatusOK, code)
	page = decode[struct {
		Orders     []orderView `json:"orders"`
		NextCursor string      `json:"next_cursor"`
	}](t, env.Data)
	require.Len(t, page.Orders, 2)
	require.NotEmpty(t, page.NextCursor)

	code, env = api.do(t, http.MethodGet, "/api/orders?page_size=2&cursor="+page.NextCursor, api.admin, nil)
	require.Equal(t, http.StatusOK, code)
	page = decode[struct {
		Orders     []orderView `json:"orders"`
		NextCursor string      `json:"next_cursor"`
	}](t, env.Data)
	assert.Len(t, page.Orders, 1)
	assert.Empty(t, page.NextCursor)
}

func TestNotificationsOverHTTP(t *testing.T) {
	api := newAPI(t)
	customer := api.register(t, "karim@example.com")

	code, env := api.do(t, http.MethodPost, "/api/orders", customer, orderBody())
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = api.do(t, http.MethodGet, "/api/notifications/unread-count", customer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"count":1}`, string(env.Data))

	code, env = api.do(t, http.MethodPost, "/api/notifications", api.admin, gin.H{"title": "Maintenance", "message": "Back soon"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	code, _ = api.do(t, http.MethodPost, "/api/notifications", customer, gin.H{"title": "x", "message": "y"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = api.do(t, http.MethodGet, "/api/notifications", customer, nil)
	require.Equal(t, http.StatusOK, code)
	list := decode[[]struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
		Read  bool   `json:"read"`
	}](t, env.Data)
	require.Len(t, list, 2)
	assert.Equal(t, "Maintenance", list[0].Title)

	code, _ = api.do(t, http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", list[1].ID), customer, nil)
	require.Equal(t, http.StatusOK, code)
	code, env = api.do(t, http.MethodPut, "/api/notifications/read-all", customer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"marked":1}`, string(env.Data))

	code, env = api.do(t, http.MethodGet, "/api/notifications/unread-count", customer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"count":0}`, string(env.Data))
}

func TestMenuOverHTTP(t *testing.T) {
	api := newAPI(t)

	code, env := api.do(t, http.MethodPost, "/api/menu", api.admin, gin.H{"name": "Fuchka", "category": "snacks", "price": 60, "available": false})
	require.Equal(t, http.StatusCreated, code, env.Message)
	item := decode[struct {
		ID int64 `json:"id"`
	}](t, env.Data)
	_, env = api.do(t, http.MethodPost, "/api/menu", api.admin, gin.H{"name": "Tea", "category": "drinks", "price": 15})

	code, env = api.do(t, http.MethodGet, "/api/menu", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]json.RawMessage](t, env.Data), 2)
	code, env = api.do(t, http.MethodGet, "/api/menu?available=true", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]json.RawMessage](t, env.Data), 1)

	code, _ = api.do(t, http.MethodDelete, fmt.Sprintf("/api/menu/%d", item.ID), api.admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(t, http.MethodDelete, fmt.Sprintf("/api/menu/%d", item.ID), api.admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
