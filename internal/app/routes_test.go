package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bimora/portal/internal/auth"
	"github.com/bimora/portal/internal/config"
	"github.com/bimora/portal/internal/model"
	"github.com/bimora/portal/internal/store"
)

const testPassphrase = "test-shared-passphrase"

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.Config{
		Env:             "test",
		JWTSecret:       "0123456789abcdef0123456789abcdef",
		TokenTTL:        time.Hour,
		AdminPassword:   testPassphrase,
		BcryptCost:      4,
		MaxUploadSizeMB: 1,
	}
	cfg.RateLimit.API = config.Window{Max: 1000, Period: time.Minute}
	cfg.RateLimit.Upload = config.Window{Max: 10, Period: time.Hour}
	cfg.RateLimit.Review = config.Window{Max: 1, Period: time.Hour}
	cfg.Login.PerMinute = 600
	cfg.Login.Burst = 50

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := newApp(cfg, logger, store.NewMemoryBackend())
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	return app
}

type client struct {
	t       *testing.T
	handler http.Handler
}

func (c client) do(method, path, token, remoteAddr string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rr.Body.String(), err)
	}
	return v
}

func login(t *testing.T, c client, username, password string) string {
	t.Helper()
	rr := c.do(http.MethodPost, "/api/auth/login", "", "", map[string]string{"username": username, "password": password})
	if rr.Code != http.StatusOK {
		t.Fatalf("login %q: expected 200, got %d: %s", username, rr.Code, rr.Body.String())
	}
	return decode[auth.Session](t, rr).Token
}

func createAdmin(t *testing.T, app *App, username string, role model.Role) {
	t.Helper()
	_, err := app.auth.CreateAdmin(context.Background(), auth.NewAdmin{Username: username, Password: "password-1", Role: role})
	if err != nil {
		t.Fatalf("create admin %s: %v", username, err)
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	c := client{t, app.routes()}

	rr := c.do(http.MethodGet, "/api/health", "", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := decode[map[string]string](t, rr)
	if body["status"] != "ok" || body["storage"] != "memory" {
		t.Errorf("body = %v", body)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}
}

func TestLoginAndMe(t *testing.T) {
	app := newTestApp(t)
	c := client{t, app.routes()}
	createAdmin(t, app, "mod", model.RoleAdmin)

	token := login(t, c, "mod", "password-1")
	rr := c.do(http.MethodGet, "/api/auth/me", token, "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rr.Code)
	}
	me := decode[struct {
		Admin model.Principal `json:"admin"`
	}](t, rr)
	if me.Admin.Username != "mod" || me.Admin.Role != model.RoleAdmin {
		t.Errorf("me = %+v", me.Admin)
	}

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"wrong password", map[string]string{"username": "mod", "password": "nope-nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "ghost", "password": "password-1"}, http.StatusUnauthorized},
		{"wrong passphrase", map[string]string{"password": "nope"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"username": "mod"}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if rr := c.do(http.MethodPost, "/api/auth/login", "", "", tc.body); rr.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, rr.Code, rr.Body.String())
			}
		})
	}

	if rr := c.do(http.MethodGet, "/api/auth/me", "", "", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("me without token: expected 401, got %d", rr.Code)
	}
	if rr := c.do(http.MethodGet, "/api/auth/me", token+"x", "", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("me with tampered token: expected 401, got %d", rr.Code)
	}
}

func TestRoleAccess(t *testing.T) {
	app := newTestApp(t)
	c := client{t, app.routes()}
	createAdmin(t, app, "mod", model.RoleAdmin)
	createAdmin(t, app, "tickets", model.RoleTicketManager)
	createAdmin(t, app, "root", model.RoleSuperAdmin)

	tokens := map[string]string{
		"admin":          login(t, c, "mod", "password-1"),
		"ticket_manager": login(t, c, "tickets", "password-1"),
		"super_admin":    login(t, c, "root", "password-1"),
		"passphrase":     login(t, c, "", testPassphrase),
	}

	tests := []struct {
		name   string
		method string
		path   string
		want   map[string]int
	}{
		{"list admins", http.MethodGet, "/api/admins", map[string]int{
			"": 401, "admin": 403, "ticket_manager": 403, "super_admin": 200, "passphrase": 200,
		}},
		{"list subscribers", http.MethodGet, "/api/newsletter-subscribers", map[string]int{
			"": 401, "admin": 403, "ticket_manager": 403, "super_admin": 200, "passphrase": 200,
		}},
	}

	for _, tc := range tests {
		for who, want := range tc.want {
			t.Run(tc.name+"/"+who, func(t *testing.T) {
				rr := c.do(tc.method, tc.path, tokens[who], "", nil)
				if rr.Code != want {
					t.Errorf("expected %d, got %d: %s", want, rr.Code, rr.Body.String())
				}
			})
		}
	}
}

func TestSellerAndReviewFlow(t *testing.T) {
	app := newTestApp(t)
	c := client{t, app.routes()}
	createAdmin(t, app, "mod", model.RoleAdmin)
	createAdmin(t, app, "tickets", model.RoleTicketManager)
	adminToken := login(t, c, "mod", "password-1")
	ticketToken := login(t, c, "tickets", "password-1")

	if rr := c.do(http.MethodPost, "/api/sellers", "", "", map[string]any{"name": "Shop"}); rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous seller create: expected 401, got %d", rr.Code)
	}

	rr := c.do(http.MethodPost, "/api/sellers", adminToken, "", map[string]any{
		"name":   "Gold Shop",
		"prices": []map[string]any{{"item": "1000 gold", "price": 4.99}},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create seller: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	seller := decode[model.Seller](t, rr)

	// Clients cannot write the aggregate.
	rr = c.do(http.MethodPatch, "/api/sellers/"+seller.ID, adminToken, "", map[string]any{"averageRating": 5})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("patch rating: expected 400, got %d", rr.Code)
	}

	reviewsPath := "/api/sellers/" + seller.ID + "/reviews"
	rr = c.do(http.MethodPost, reviewsPath, "", "192.0.2.1:1000", map[string]any{"userName": "Alice", "rating": 4, "comment": "fast"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("first review: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	first := decode[model.Review](t, rr)

	// Same client, same seller, inside the window.
	rr = c.do(http.MethodPost, reviewsPath, "", "192.0.2.1:1000", map[string]any{"userName": "Bob", "rating": 5})
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second review from same client: expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After")
	}

	// Different client, duplicate name in another case.
	rr = c.do(http.MethodPost, reviewsPath, "", "198.51.100.2:1000", map[string]any{"userName": " ALICE ", "rating": 1})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate review: expected 400, got %d", rr.Code)
	}
	if msg := decode[map[string]string](t, rr)["error"]; msg != model.ErrDuplicateReview.Error() {
		t.Errorf("duplicate message = %q", msg)
	}

	rr = c.do(http.MethodPost, reviewsPath, "", "203.0.113.3:1000", map[string]any{"userName": "Bob", "rating": 5})
	if rr.Code != http.StatusCreated {
		t.Fatalf("second reviewer: expected 201, got %d", rr.Code)
	}

	rr = c.do(http.MethodGet, "/api/sellers/"+seller.ID, "", "", nil)
	got := decode[model.Seller](t, rr)
	if got.AverageRating != 4.5 || got.TotalReviews != 2 {
		t.Errorf("aggregate = %v/%d, want 4.5/2", got.AverageRating, got.TotalReviews)
	}

	rr = c.do(http.MethodGet, reviewsPath, "", "", nil)
	if list := decode[[]model.Review](t, rr); len(list) != 2 {
		t.Errorf("reviews listed = %d, want 2", len(list))
	}

	deletePath := reviewsPath + "/" + first.ID
	if rr := c.do(http.MethodDelete, deletePath, "", "", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous review delete: expected 401, got %d", rr.Code)
	}
	if rr := c.do(http.MethodDelete, deletePath, ticketToken, "", nil); rr.Code != http.StatusOK {
		t.Fatalf("moderator review delete: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr := c.do(http.MethodDelete, deletePath, ticketToken, "", nil); rr.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rr.Code)
	}

	rr = c.do(http.MethodGet, "/api/sellers/"+seller.ID, "", "", nil)
	got = decode[model.Seller](t, rr)
	if got.AverageRating != 5 || got.TotalReviews != 1 {
		t.Errorf("aggregate after delete = %v/%d, want 5/1", got.AverageRating, got.TotalReviews)
	}

	// The review window is per seller.
	rr = c.do(http.MethodPost, "/api/sellers", adminToken, "", map[string]any{"name": "Other Shop"})
	other := decode[model.Seller](t, rr)
	rr = c.do(http.MethodPost, "/api/sellers/"+other.ID+"/reviews", "", "192.0.2.1:1000", map[string]any{"userName": "Alice", "rating": 3})
	if rr.Code != http.StatusCreated {
		t.Errorf("review of another seller: expected 201, got %d", rr.Code)
	}

	if rr := c.do(http.MethodGet, "/api/sellers/missing/reviews", "", "", nil); rr.Code != http.StatusNotFound {
		t.Errorf("reviews of unknown seller: expected 404, got %d", rr.Code)
	}
}

func TestAdminManagement(t *testing.T) {
	app := newTestApp(t)
	c := client{t, app.routes()}
	createAdmin(t, app, "root", model.RoleSuperAdmin)
	rootToken := login(t, c, "root", "password-1")

	rr := c.do(http.MethodPost, "/api/admins", rootToken, "", map[string]string{"username": "mod", "password": "password-2"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create admin: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[map[string]any](t, rr)
	if _, leaked := created["passwordHash"]; leaked {
		t.Error("password hash must not be serialized")
	}
	if created["role"] != string(model.RoleAdmin) {
		t.Errorf("default role = %v", created["role"])
	}

	rr = c.do(http.MethodPost, "/api/admins", rootToken, "", map[string]string{"username": "mod", "password": "password-2"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("duplicate admin: expected 400, got %d", rr.Code)
	}

	rootID := decode[struct {
		Admin model.Principal `json:"admin"`
	}](t, c.do(http.MethodGet, "/api/auth/me", rootToken, "", nil)).Admin.ID

	if rr := c.do(http.MethodDelete, "/api/admins/"+rootID, rootToken, "", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("self delete: expected 400, got %d", rr.Code)
	}

	passToken := login(t, c, "", testPassphrase)
	if rr := c.do(http.MethodDelete, "/api/admins/"+rootID, passToken, "", nil); rr.Code != http.StatusConflict {
		t.Errorf("delete last super admin: expected 409, got %d", rr.Code)
	}
	if rr := c.do(http.MethodPatch, "/api/admins/"+rootID, passToken, "", map[string]string{"role": "admin"}); rr.Code != http.StatusConflict {
		t.Errorf("demote last super admin: expected 409, got %d", rr.Code)
	}
}

func TestNewsletter(t *testing.T) {
	app := newTestApp(t)
	c := client{t, app.routes()}

	if rr := c.do(http.MethodPost, "/api/newsletter-subscribe", "", "", map[string]string{"email": "reader@example.com"}); rr.Code != http.StatusCreated {
		t.Fatalf("subscribe: expected 201, got %d", rr.Code)
	}
	if rr := c.do(http.MethodPost, "/api/newsletter-subscribe", "", "", map[string]string{"email": "Reader@Example.com"}); rr.Code != http.StatusBadRequest {
		t.Errorf("duplicate subscribe: expected 400, got %d", rr.Code)
	}
	if rr := c.do(http.MethodPost, "/api/newsletter-subscribe", "", "", map[string]string{"email": "not an email"}); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid email: expected 400, got %d", rr.Code)
	}
}

func TestAPIRateLimit(t *testing.T) {
	app := newTestApp(t)
	app.config.RateLimit.API = config.Window{Max: 2, Period: time.Minute}
	c := client{t, app.routes()}

	for i := 0; i < 2; i++ {
		if rr := c.do(http.MethodGet, "/api/sellers", "", "192.0.2.9:1", nil); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}
	if rr := c.do(http.MethodGet, "/api/sellers", "", "192.0.2.9:1", nil); rr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rr.Code)
	}
	// Health sits outside the limiter.
	if rr := c.do(http.MethodGet, "/api/health", "", "192.0.2.9:1", nil); rr.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", rr.Code)
	}
}

func TestUploadNotConfigured(t *testing.T) {
	app := newTestApp(t)
	c := client{t, app.routes()}
	createAdmin(t, app, "mod", model.RoleAdmin)
	token := login(t, c, "mod", "password-1")

	if rr := c.do(http.MethodPost, "/api/upload-image", "", "", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous upload: expected 401, got %d", rr.Code)
	}
	if rr := c.do(http.MethodPost, "/api/upload-image", token, "", nil); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured upload: expected 503, got %d", rr.Code)
	}
}
