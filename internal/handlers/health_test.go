package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"ubreader/internal/service/mocks"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name       string
		count      int
		wantStatus string
		wantCheck  string
	}{
		{name: "populated index", count: 12, wantStatus: "healthy", wantCheck: "ok"},
		{name: "empty index", count: 0, wantStatus: "degraded", wantCheck: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSearchService := mocks.NewMockSearchService(ctrl)
			mockSearchService.EXPECT().DocumentCount().Return(tt.count)

			handler := NewHealthHandler(mockSearchService)
			handler.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody))

			if w.Code != http.StatusOK {
				t.Fatalf("ServeHTTP() status = %v, want 200", w.Code)
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantStatus || resp.Documents != tt.count || resp.Checks["search_index"] != tt.wantCheck {
				t.Errorf("response = %+v", resp)
			}
			if resp.Timestamp != "2024-05-01T09:00:00Z" {
				t.Errorf("Timestamp = %q", resp.Timestamp)
			}
		})
	}
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	w := httptest.NewRecorder()
	NewHealthHandler(mocks.NewMockSearchService(ctrl)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/health", http.NoBody))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("ServeHTTP() status = %v, want %v", w.Code, http.StatusMethodNotAllowed)
	}
}
