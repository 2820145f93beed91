package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authTestHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		apiKeys    []string
		authHeader string
		wantStatus int
	}{
		{
			name:       "no keys configured passes through",
			apiKeys:    nil,
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty keys ignored",
			apiKeys:    []string{""},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header rejected",
			apiKeys:    []string{"key-1"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme rejected",
			apiKeys:    []string{"key-1"},
			authHeader: "Basic key-1",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token rejected",
			apiKeys:    []string{"key-1"},
			authHeader: "Bearer wrong",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token accepted",
			apiKeys:    []string{"key-1", "key-2"},
			authHeader: "Bearer key-2",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := BearerAuthMiddleware(tt.apiKeys)(authTestHandler())

			req := httptest.NewRequest(http.MethodPost, "/api/ingest", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
