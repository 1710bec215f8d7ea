// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"kbpress/internal/session"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithSession(data *session.Data) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	if data != nil {
		ctx := context.WithValue(req.Context(), SessionKey, data)
		req = req.WithContext(ctx)
	}
	return req
}

func adminSession(twoFADone bool) *session.Data {
	return &session.Data{
		UserID:    uuid.New(),
		Email:     "admin@test.local",
		Role:      "admin",
		TwoFADone: twoFADone,
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(okHandler())

	t.Run("no session is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithSession(nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("session passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithSession(adminSession(false)))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestRequire2FA(t *testing.T) {
	handler := Require2FA(okHandler())

	t.Run("incomplete 2fa is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithSession(adminSession(false)))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("completed 2fa passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithSession(adminSession(true)))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(okHandler())

	t.Run("admin passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithSession(adminSession(true)))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("editor is forbidden", func(t *testing.T) {
		sess := adminSession(true)
		sess.Role = "editor"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithSession(sess))
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("no session is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithSession(nil))
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}

func TestSessionFromCtx(t *testing.T) {
	if got := SessionFromCtx(context.Background()); got != nil {
		t.Errorf("empty context: got %+v", got)
	}

	data := adminSession(true)
	ctx := context.WithValue(context.Background(), SessionKey, data)
	if got := SessionFromCtx(ctx); got != data {
		t.Error("session not recovered from context")
	}
}
