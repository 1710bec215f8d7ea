package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseWriter_CapturesStatus(t *testing.T) {
	t.Run("explicit status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
		rw.WriteHeader(http.StatusNotFound)
		if rw.statusCode != http.StatusNotFound {
			t.Errorf("statusCode = %d", rw.statusCode)
		}
	})

	t.Run("implicit 200 on write", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: rec}
		rw.Write([]byte("body"))
		if rw.statusCode != http.StatusOK {
			t.Errorf("statusCode = %d", rw.statusCode)
		}
	})

	t.Run("first status wins", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: rec}
		rw.WriteHeader(http.StatusCreated)
		rw.WriteHeader(http.StatusInternalServerError)
		if rw.statusCode != http.StatusCreated {
			t.Errorf("statusCode = %d", rw.statusCode)
		}
	})
}

func TestLogger_PassesThrough(t *testing.T) {
	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/some/path", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
}
