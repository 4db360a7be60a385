package integration

import (
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	h := NewTestHarness(t)

	resp := h.GET("/status")
	resp.Status(http.StatusOK)

	var body map[string]interface{}
	resp.JSON(&body)

	if body["status"] != "ok" {
		t.Errorf("Expected status 'ok', got %q", body["status"])
	}
	if body["service"] != "ehms-backend" {
		t.Errorf("Expected service 'ehms-backend', got %q", body["service"])
	}
	if body["database"] != "ok" {
		t.Errorf("Expected database 'ok', got %q", body["database"])
	}
}

func TestRootAndHealth(t *testing.T) {
	h := NewTestHarness(t)

	t.Run("root answers without credentials", func(t *testing.T) {
		h.GET("/").Status(http.StatusOK).BodyEquals("Backend is up and running!")
	})

	t.Run("health mirrors status", func(t *testing.T) {
		h.GET("/health").Status(http.StatusOK).BodyContains(`"service":"ehms-backend"`)
	})

	t.Run("unknown route", func(t *testing.T) {
		h.GET("/nope").Status(http.StatusNotFound).BodyContains("Not Found")
	})
}

func TestStatusDegradedDatabase(t *testing.T) {
	cfg := DefaultTestConfig(t)
	cfg.Storage.Type = "mysql"
	cfg.Storage.MySQL.DSN = "ehms:secret@tcp(127.0.0.1:1)/ehms?timeout=500ms"
	cfg.Storage.ProbeTimeout = 1

	h := NewTestHarness(t, WithConfig(cfg))

	if h.App.DatabaseHealthy() {
		t.Fatal("Expected database to be reported unhealthy")
	}

	// The server keeps serving requests that do not need the database.
	h.GET("/").Status(http.StatusOK)

	var body map[string]interface{}
	h.GET("/status").Status(http.StatusOK).JSON(&body)
	if body["database"] != "degraded" {
		t.Errorf("Expected database 'degraded', got %q", body["database"])
	}
}
