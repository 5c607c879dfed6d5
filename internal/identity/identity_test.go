package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/smarlify/playful-hub/internal/config"
)

func testConfig() *config.IdentityConfig {
	return &config.IdentityConfig{
		CookieName: "playful_uid",
		CookieTTL:  2 * 365 * 24 * time.Hour,
	}
}

func TestMiddlewareMintsCookieOnce(t *testing.T) {
	var seen string
	handler := Middleware(testConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			t.Error("user id missing from context")
		}
		seen = id
	}))

	// First request: no cookie, one is minted
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != "playful_uid" {
		t.Errorf("unexpected cookie name %q", cookie.Name)
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		t.Errorf("cookie value is not a uuid: %v", err)
	}
	if cookie.Value != seen {
		t.Error("context id should match the minted cookie")
	}
	if !cookie.HttpOnly {
		t.Error("identity cookie must be HttpOnly")
	}

	// Second request with the cookie: value reused, never rewritten
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)

	if len(rec2.Result().Cookies()) != 0 {
		t.Error("an existing identity cookie must not be rewritten")
	}
	if seen != cookie.Value {
		t.Errorf("expected reused id %q, got %q", cookie.Value, seen)
	}
}

func TestFromContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context should have no user id")
	}

	ctx := WithUserID(context.Background(), "user-1")
	id, ok := FromContext(ctx)
	if !ok || id != "user-1" {
		t.Errorf("expected user-1, got %q (ok=%v)", id, ok)
	}

	var p ContextProvider
	if id, ok := p.UserID(ctx); !ok || id != "user-1" {
		t.Errorf("ContextProvider: expected user-1, got %q (ok=%v)", id, ok)
	}
}
