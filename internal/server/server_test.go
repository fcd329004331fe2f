package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBasicRouter(t *testing.T) {
	t.Run("routes by method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("pong"))
		}))

		t.Run("matching method", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

			if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
				t.Errorf("unexpected response: %d %s", rec.Code, rec.Body.String())
			}
		})

		t.Run("wrong method rejected", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("expected 405, got %d", rec.Code)
			}
		})
	})

	t.Run("middleware applied in order", func(t *testing.T) {
		router := NewBasicRouter()

		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router.Use(mw("first"), mw("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("unexpected middleware order: %v", order)
		}
	})
}

func TestTokenHandler(t *testing.T) {
	t.Run("serves authorization page", func(t *testing.T) {
		handler := NewTokenHandler("dev-jwt")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		body := rec.Body.String()
		if !strings.Contains(body, "musickit.js") {
			t.Error("expected page to load MusicKit")
		}
		if !strings.Contains(body, `"dev-jwt"`) {
			t.Error("expected developer token embedded in page")
		}
	})

	t.Run("captures posted token", func(t *testing.T) {
		handler := NewTokenHandler("dev-jwt")

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(`{"user_token":"music-user-token"}`))
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		result := <-handler.Result()
		if err := result.Error(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.UserToken != "music-user-token" {
			t.Errorf("expected captured token, got %q", result.UserToken)
		}
	})

	t.Run("authorization error propagated", func(t *testing.T) {
		handler := NewTokenHandler("dev-jwt")

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(`{"error":"user denied access"}`))
		handler.ServeHTTP(rec, req)

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected authorization error")
		}
	})

	t.Run("empty token rejected", func(t *testing.T) {
		handler := NewTokenHandler("dev-jwt")

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(`{}`))
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected error for empty token")
		}
	})

	t.Run("second capture rejected", func(t *testing.T) {
		handler := NewTokenHandler("dev-jwt")

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(`{"user_token":"one"}`)))

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(`{"user_token":"two"}`)))

		if second.Code != http.StatusBadRequest {
			t.Errorf("expected second post rejected, got %d", second.Code)
		}
	})

	t.Run("unknown route 404s", func(t *testing.T) {
		handler := NewTokenHandler("dev-jwt")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}
