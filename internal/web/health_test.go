package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jwebster45206/questline/internal/emulator"
	"github.com/jwebster45206/questline/internal/storage"
	"github.com/jwebster45206/questline/pkg/gamemap"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))

	tests := []struct {
		name             string
		setupStore       func() storage.Store
		setupDriver      func() emulator.Driver
		expectedStatus   int
		expectedHealth   string
		expectedStorage  string
		expectedEmulator string
	}{
		{
			name: "all healthy",
			setupStore: func() storage.Store {
				return storage.NewMockStore()
			},
			setupDriver: func() emulator.Driver {
				return emulator.NewMockDriver()
			},
			expectedStatus:   http.StatusOK,
			expectedHealth:   "healthy",
			expectedStorage:  "healthy",
			expectedEmulator: "healthy",
		},
		{
			name: "unhealthy storage",
			setupStore: func() storage.Store {
				mockStore := storage.NewMockStore()
				mockStore.SetPingError(errors.New("connection failed"))
				return mockStore
			},
			setupDriver: func() emulator.Driver {
				return emulator.NewMockDriver()
			},
			expectedStatus:   http.StatusServiceUnavailable,
			expectedHealth:   "degraded",
			expectedStorage:  "unhealthy",
			expectedEmulator: "healthy",
		},
		{
			name: "unhealthy emulator",
			setupStore: func() storage.Store {
				return storage.NewMockStore()
			},
			setupDriver: func() emulator.Driver {
				mockDriver := emulator.NewMockDriver()
				mockDriver.CurrentMapFunc = func(ctx context.Context) (gamemap.ID, error) {
					return 0, errors.New("bridge connection failed")
				}
				return mockDriver
			},
			expectedStatus:   http.StatusServiceUnavailable,
			expectedHealth:   "degraded",
			expectedStorage:  "healthy",
			expectedEmulator: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.setupStore(), tt.setupDriver(), logger)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
			if rr.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", rr.Header().Get("Content-Type"))
			}

			var response HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response.Status != tt.expectedHealth {
				t.Errorf("Expected health %s, got %s", tt.expectedHealth, response.Status)
			}
			if response.Service != "questline" {
				t.Errorf("Expected service questline, got %s", response.Service)
			}
			if response.Components["storage"] != tt.expectedStorage {
				t.Errorf("Expected storage %s, got %v", tt.expectedStorage, response.Components["storage"])
			}
			if response.Components["emulator"] != tt.expectedEmulator {
				t.Errorf("Expected emulator %s, got %v", tt.expectedEmulator, response.Components["emulator"])
			}
		})
	}
}
