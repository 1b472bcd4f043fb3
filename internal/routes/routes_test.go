package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/backoffice/internal/config"
	"github.com/example/backoffice/internal/repository"
	"github.com/example/backoffice/internal/services"
	"github.com/example/backoffice/internal/tokens"
	"github.com/example/backoffice/internal/utils"
)

const resetURL = "http://localhost:3000/reset-password?token="

type captureNotifier struct {
	mu   sync.Mutex
	sent []services.Notification
}

func (n *captureNotifier) Notify(msg services.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *captureNotifier) loginAlertIPs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var ips []string
	for _, msg := range n.sent {
		if msg.Template == services.TemplateLoginAlert {
			ips = append(ips, msg.Data["ip"])
		}
	}
	return ips
}

func (n *captureNotifier) lastResetToken(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Template == services.TemplatePasswordResetRequested {
			return strings.TrimPrefix(n.sent[i].Data["resetLink"], resetURL)
		}
	}
	t.Fatal("no reset notification sent")
	return ""
}

type testServer struct {
	app      *fiber.App
	notifier *captureNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, &config.Config{ClientURL: "http://localhost:3000"})
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	log := zap.NewNop()
	notifier := &captureNotifier{}

	tokenService, err := tokens.NewService("route-test-secret")
	require.NoError(t, err)

	hasher := utils.NewPasswordHasher(bcrypt.MinCost)
	users := repository.NewMemoryUserRepository()

	accounts, err := services.NewAccountService(users, hasher, tokenService, notifier, nil, time.Hour, log)
	require.NoError(t, err)

	resets := services.NewPasswordResetService(users, repository.NewMemoryResetTokenRepository(),
		hasher, tokenService, notifier, 15*time.Minute, resetURL, log)
	orders := services.NewOrderService(repository.NewMemoryOrderRepository(), services.NewProductIDGenerator(), notifier, log)

	app := NewApp(cfg, log)
	Register(app, Deps{Tokens: tokenService, Accounts: accounts, Resets: resets, Orders: orders})

	return &testServer{app: app, notifier: notifier}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env, raw
}

type sessionData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
}

func (s *testServer) signupAndLogin(t *testing.T, email, password string) sessionData {
	t.Helper()

	status, env, _ := s.do(t, http.MethodPost, "/account/signup", "", fiber.Map{
		"fullName": "Route Tester",
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env, _ = s.do(t, http.MethodPost, "/account/login", "", fiber.Map{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status, env.Error)

	var session sessionData
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)
	return session
}

func TestSignup(t *testing.T) {
	s := newTestServer(t)

	status, env, _ := s.do(t, http.MethodPost, "/account/signup", "", fiber.Map{
		"email":    "a@x.com",
		"password": "p1",
	})
	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)

	var data struct {
		ID    string `json:"id"`
		Token string `json:"token"`
		User  struct {
			Email        string `json:"email"`
			PasswordHash string `json:"passwordHash"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.ID)
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, "a@x.com", data.User.Email)
	assert.Empty(t, data.User.PasswordHash)

	status, env, _ = s.do(t, http.MethodPost, "/account/signup", "", fiber.Map{
		"email":    "a@x.com",
		"password": "p2",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
	assert.Equal(t, "DuplicateEmail", env.Code)

	status, env, _ = s.do(t, http.MethodPost, "/account/signup", "", fiber.Map{"email": "b@x.com"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ValidationError", env.Code)
}

func TestLogin_IdenticalFailureBodies(t *testing.T) {
	s := newTestServer(t)
	s.signupAndLogin(t, "known@x.com", "right")

	wrongStatus, _, wrongBody := s.do(t, http.MethodPost, "/account/login", "", fiber.Map{
		"email":    "known@x.com",
		"password": "wrong",
	})
	unknownStatus, _, unknownBody := s.do(t, http.MethodPost, "/account/login", "", fiber.Map{
		"email":    "unknown@x.com",
		"password": "right",
	})

	assert.Equal(t, http.StatusBadRequest, wrongStatus)
	assert.Equal(t, wrongStatus, unknownStatus)
	assert.JSONEq(t, string(wrongBody), string(unknownBody))
}

func TestPasswordResetFlow(t *testing.T) {
	s := newTestServer(t)
	s.signupAndLogin(t, "reset@x.com", "old")

	status, env, _ := s.do(t, http.MethodPost, "/account/forgot-password", "", fiber.Map{"email": "ghost@x.com"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NotFound", env.Code)

	status, _, _ = s.do(t, http.MethodPost, "/account/forgot-password", "", fiber.Map{"email": "reset@x.com"})
	require.Equal(t, http.StatusOK, status)
	token := s.notifier.lastResetToken(t)

	status, _, _ = s.do(t, http.MethodPost, "/account/reset-password", "", fiber.Map{
		"token":       token,
		"newPassword": "new",
	})
	require.Equal(t, http.StatusOK, status)

	status, env, _ = s.do(t, http.MethodPost, "/account/reset-password", "", fiber.Map{
		"token":       token,
		"newPassword": "again",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TokenInvalid", env.Code)

	status, _, _ = s.do(t, http.MethodPost, "/account/login", "", fiber.Map{"email": "reset@x.com", "password": "new"})
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = s.do(t, http.MethodPost, "/account/login", "", fiber.Map{"email": "reset@x.com", "password": "old"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t)
	me := s.signupAndLogin(t, "me@x.com", "pw")
	other := s.signupAndLogin(t, "other@x.com", "pw")

	status, env, _ := s.do(t, http.MethodGet, "/user-profile/"+me.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TokenInvalid", env.Code)

	status, env, _ = s.do(t, http.MethodGet, "/user-profile/"+me.ID, me.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "me@x.com")

	status, _, _ = s.do(t, http.MethodGet, "/user-profile/not-a-valid-id", me.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, _ = s.do(t, http.MethodPut, "/user-profile/"+other.ID, me.Token, fiber.Map{"fullName": "Hijack"})
	assert.Equal(t, http.StatusForbidden, status)

	status, env, _ = s.do(t, http.MethodPut, "/user-profile/"+me.ID, me.Token, fiber.Map{"fullName": "Renamed"})
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Contains(t, string(env.Data), "Renamed")
}

func TestAdminRequiresSession(t *testing.T) {
	s := newTestServer(t)

	status, env, _ := s.do(t, http.MethodGet, "/admin/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)

	status, _, _ = s.do(t, http.MethodGet, "/admin/orders", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

type orderData struct {
	ID               string `json:"id"`
	ProductID        string `json:"productId"`
	Status           string `json:"status"`
	Quantity         int    `json:"quantity"`
	OwnerAdminUserID string `json:"ownerAdminUserId"`
	OwnerAdminEmail  string `json:"ownerAdminEmail"`
}

func TestOrderLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.signupAndLogin(t, "admin@x.com", "pw")

	status, env, _ := s.do(t, http.MethodPost, "/admin/create-order", admin.Token, fiber.Map{
		"productName":     "Saffron",
		"productPrice":    10,
		"quantity":        0,
		"ownerAdminEmail": "admin@x.com",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ValidationError", env.Code)

	status, env, _ = s.do(t, http.MethodPost, "/admin/create-order", admin.Token, fiber.Map{
		"productName":  "Saffron",
		"productPrice": 10,
		"quantity":     2,
		"userInformations": fiber.Map{
			"usermail": "owner@x.com",
			"userid":   "owner-7",
		},
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	var nested orderData
	require.NoError(t, json.Unmarshal(env.Data, &nested))
	assert.Equal(t, "owner@x.com", nested.OwnerAdminEmail)
	assert.Equal(t, "owner-7", nested.OwnerAdminUserID)
	assert.Equal(t, "Pending", nested.Status)
	assert.True(t, strings.HasPrefix(nested.ProductID, "oS-"))

	status, env, _ = s.do(t, http.MethodPost, "/admin/create-order", admin.Token, fiber.Map{
		"productName":  "Cardamom",
		"productPrice": 4.5,
		"quantity":     1,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	var mine orderData
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	assert.Equal(t, admin.ID, mine.OwnerAdminUserID)
	assert.Equal(t, "admin@x.com", mine.OwnerAdminEmail)

	status, env, _ = s.do(t, http.MethodGet, "/admin/users/orderlist/"+admin.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	status, env, _ = s.do(t, http.MethodPut, "/admin/update-order/"+mine.ID, admin.Token, fiber.Map{"status": "Completed"})
	require.Equal(t, http.StatusOK, status, env.Error)
	var updated orderData
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Completed", updated.Status)
	assert.Equal(t, mine.ProductID, updated.ProductID)

	status, env, _ = s.do(t, http.MethodPut, "/admin/update-order/"+mine.ID, admin.Token, fiber.Map{"status": "Lost"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ValidationError", env.Code)

	status, _, _ = s.do(t, http.MethodDelete, "/admin/delete-order/not-a-valid-id", admin.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, _ = s.do(t, http.MethodDelete, "/admin/delete-order/"+mine.ID, admin.Token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env, _ = s.do(t, http.MethodDelete, "/admin/delete-order/"+mine.ID, admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NotFound", env.Code)

	status, env, _ = s.do(t, http.MethodGet, "/admin/orders", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var all []orderData
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Len(t, all, 1)
}

func TestAdminUserSummary(t *testing.T) {
	s := newTestServer(t)
	admin := s.signupAndLogin(t, "summary@x.com", "pw")

	status, env, _ := s.do(t, http.MethodGet, "/admin/users/"+admin.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, status)

	var summary map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, admin.ID, summary["id"])
	assert.Equal(t, "summary@x.com", summary["email"])
	assert.Len(t, summary, 3)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
}

func TestListOrders_FilterAndPaging(t *testing.T) {
	s := newTestServer(t)
	admin := s.signupAndLogin(t, "pager@x.com", "pw")

	var ids []string
	for i := 0; i < 5; i++ {
		status, env, _ := s.do(t, http.MethodPost, "/admin/create-order", admin.Token, fiber.Map{
			"productName":  "Item",
			"productPrice": 1,
			"quantity":     1,
		})
		require.Equal(t, http.StatusCreated, status, env.Error)
		var o orderData
		require.NoError(t, json.Unmarshal(env.Data, &o))
		ids = append(ids, o.ID)
	}

	status, _, _ := s.do(t, http.MethodPut, "/admin/update-order/"+ids[0], admin.Token, fiber.Map{"status": "Completed"})
	require.Equal(t, http.StatusOK, status)

	_, env, _ := s.do(t, http.MethodGet, "/admin/orders?status=Completed", admin.Token, nil)
	var completed []orderData
	require.NoError(t, json.Unmarshal(env.Data, &completed))
	require.Len(t, completed, 1)
	assert.Equal(t, ids[0], completed[0].ID)

	_, env, raw := s.do(t, http.MethodGet, "/admin/orders?page=2&limit=2", admin.Token, nil)
	var page []orderData
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)
	assert.Contains(t, string(raw), `"totalPages":3`)
}

func TestSignup_RejectsOverlongPassword(t *testing.T) {
	s := newTestServer(t)

	status, env, _ := s.do(t, http.MethodPost, "/account/signup", "", fiber.Map{
		"email":    "long@x.com",
		"password": strings.Repeat("a", 73),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ValidationError", env.Code)
	assert.Contains(t, env.Error, "at most 72 bytes")

	status, _, _ = s.do(t, http.MethodPost, "/account/signup", "", fiber.Map{
		"email":    "long@x.com",
		"password": strings.Repeat("a", 72),
	})
	assert.Equal(t, http.StatusCreated, status)
}

func TestListOrders_PageBeyondRange(t *testing.T) {
	s := newTestServer(t)
	admin := s.signupAndLogin(t, "far@x.com", "pw")

	status, env, _ := s.do(t, http.MethodPost, "/admin/create-order", admin.Token, fiber.Map{
		"productName":  "Item",
		"productPrice": 1,
		"quantity":     1,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	for _, query := range []string{
		"?page=9223372036854775807&limit=20",
		"?page=9223372036854775807&limit=100",
	} {
		status, env, _ := s.do(t, http.MethodGet, "/admin/orders"+query, admin.Token, nil)
		require.Equal(t, http.StatusOK, status, query)

		var page []orderData
		require.NoError(t, json.Unmarshal(env.Data, &page))
		assert.Empty(t, page, query)
	}
}

func TestUpdateProfile_UpperCaseID(t *testing.T) {
	s := newTestServer(t)
	me := s.signupAndLogin(t, "case@x.com", "pw")

	status, env, _ := s.do(t, http.MethodPut, "/user-profile/"+strings.ToUpper(me.ID), me.Token, fiber.Map{"fullName": "Shouty"})
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Contains(t, string(env.Data), "Shouty")

	status, env, _ = s.do(t, http.MethodPut, "/user-profile/not-a-valid-id", me.Token, fiber.Map{"fullName": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ValidationError", env.Code)
}

func loginFrom(t *testing.T, s *testServer, forwardedFor, email, password string) {
	t.Helper()

	raw, err := json.Marshal(fiber.Map{"email": email, "password": password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/account/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(fiber.HeaderXForwardedFor, forwardedFor)

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_ForwardedForNeedsTrustedProxy(t *testing.T) {
	s := newTestServer(t)
	s.signupAndLogin(t, "direct@x.com", "pw")
	loginFrom(t, s, "203.0.113.9", "direct@x.com", "pw")

	require.Eventually(t, func() bool { return len(s.notifier.loginAlertIPs()) == 2 }, time.Second, 5*time.Millisecond)
	assert.NotContains(t, s.notifier.loginAlertIPs(), "203.0.113.9")

	proxied := newTestServerWithConfig(t, &config.Config{
		ClientURL:      "http://localhost:3000",
		TrustedProxies: []string{"0.0.0.0/0"},
	})
	proxied.signupAndLogin(t, "proxied@x.com", "pw")
	loginFrom(t, proxied, "203.0.113.9, 10.0.0.1", "proxied@x.com", "pw")

	require.Eventually(t, func() bool { return len(proxied.notifier.loginAlertIPs()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, proxied.notifier.loginAlertIPs(), "203.0.113.9")
}
