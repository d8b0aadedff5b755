package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuthMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		path    string
		header  string
		want    int
		wantMsg string
	}{
		{name: "no keys passes through", keys: nil, path: "/holds/h1", want: http.StatusOK},
		{name: "empty string keys pass through", keys: []string{"", ""}, path: "/holds/h1", want: http.StatusOK},
		{name: "missing header", keys: []string{"secret"}, path: "/holds/h1",
			want: http.StatusUnauthorized, wantMsg: "missing authorization header"},
		{name: "basic scheme", keys: []string{"secret"}, path: "/holds/h1", header: "Basic dXNlcjpwYXNz",
			want: http.StatusUnauthorized, wantMsg: "authorization header must use Bearer scheme"},
		{name: "wrong key", keys: []string{"secret"}, path: "/holds/h1", header: "Bearer wrong-key",
			want: http.StatusUnauthorized, wantMsg: "invalid api key"},
		{name: "key prefix is not a match", keys: []string{"secret"}, path: "/holds/h1", header: "Bearer secre",
			want: http.StatusUnauthorized, wantMsg: "invalid api key"},
		{name: "valid key", keys: []string{"secret"}, path: "/holds/h1", header: "Bearer secret", want: http.StatusOK},
		{name: "second of two keys", keys: []string{"key1", "key2"}, path: "/connections/c1/budget",
			header: "Bearer key2", want: http.StatusOK},
		{name: "health is exempt", keys: []string{"secret"}, path: "/health", want: http.StatusOK},
		{name: "metrics is exempt", keys: []string{"secret"}, path: "/metrics", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := BearerAuthMiddleware(tt.keys)(okHandler())

			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.wantMsg == "" {
				return
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != CodeUnauthorized {
				t.Errorf("code = %s, want %s", errResp.Code, CodeUnauthorized)
			}
			if errResp.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", errResp.Message, tt.wantMsg)
			}
		})
	}
}
