package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sirosfoundation/go-ehms-backend/internal/apperror"
)

type statusErr struct {
	status int
	msg    string
}

func (e statusErr) Error() string   { return e.msg }
func (e statusErr) StatusCode() int { return e.status }

func TestErrorResponder(t *testing.T) {
	tests := []struct {
		name       string
		handler    gin.HandlerFunc
		wantStatus int
		wantError  string
	}{
		{
			name: "apperror kind",
			handler: func(c *gin.Context) {
				_ = c.Error(apperror.NotImplemented("reports controller not linked"))
			},
			wantStatus: http.StatusNotImplemented,
			wantError:  "reports controller not linked",
		},
		{
			name: "error carrying a status",
			handler: func(c *gin.Context) {
				_ = c.Error(statusErr{status: http.StatusConflict, msg: "duplicate entry"})
			},
			wantStatus: http.StatusConflict,
			wantError:  "duplicate entry",
		},
		{
			name: "opaque error hides detail",
			handler: func(c *gin.Context) {
				_ = c.Error(errors.New("dial tcp 10.0.0.5:3306: connection refused"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal Server Error",
		},
		{
			name: "upstream with status",
			handler: func(c *gin.Context) {
				_ = c.Error(apperror.Upstream("lookup failed", errors.New("boom")).WithStatus(http.StatusBadGateway))
			},
			wantStatus: http.StatusBadGateway,
			wantError:  "lookup failed",
		},
		{
			name: "panic",
			handler: func(c *gin.Context) {
				panic("unexpected nil")
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal Server Error",
		},
		{
			name: "panic with status error",
			handler: func(c *gin.Context) {
				panic(statusErr{status: http.StatusTeapot, msg: "short and stout"})
			},
			wantStatus: http.StatusTeapot,
			wantError:  "short and stout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(ErrorResponder(zap.NewNop()))
			router.GET("/fail", tt.handler)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/fail", nil)
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if msg := decodeError(t, w); msg != tt.wantError {
				t.Errorf("Expected error %q, got %q", tt.wantError, msg)
			}
		})
	}
}

func TestErrorResponder_NoErrorPassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(ErrorResponder(zap.NewNop()))
	router.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "fine")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	if w.Code != http.StatusOK || w.Body.String() != "fine" {
		t.Errorf("Unexpected response %d %q", w.Code, w.Body.String())
	}
}

func TestErrorResponder_DoesNotOverwriteResponse(t *testing.T) {
	router := gin.New()
	router.Use(ErrorResponder(zap.NewNop()))
	router.GET("/partial", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
		_ = c.Error(errors.New("late failure"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/partial", nil))

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status %d, got %d", http.StatusAccepted, w.Code)
	}
}

func TestErrorResponder_LogsDetail(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := gin.New()
	router.Use(ErrorResponder(zap.New(core)))
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("secret internal detail"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	entries := logs.FilterMessage("Request failed").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["error"]; got != "secret internal detail" {
		t.Errorf("Expected full error in log, got %v", got)
	}
	if decodeError(t, w) == "secret internal detail" {
		t.Error("Internal detail leaked to the client")
	}
}
