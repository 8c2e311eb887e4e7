package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCloudIsAvailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "rejected key is unavailable", status: http.StatusUnauthorized, want: false},
		{name: "forbidden is unavailable", status: http.StatusForbidden, want: false},
		{name: "server failure is unavailable", status: http.StatusInternalServerError, want: false},
		{name: "method not allowed still reachable", status: http.StatusMethodNotAllowed, want: true},
		{name: "not found still reachable", status: http.StatusNotFound, want: true},
		{name: "ok is reachable", status: http.StatusOK, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			p := NewCloudProvider(CloudConfig{BaseURL: srv.URL, APIKey: "key"})
			if got := p.IsAvailable(context.Background()); got != tt.want {
				t.Fatalf("available got=%v want=%v", got, tt.want)
			}
		})
	}
}

func TestCloudIsAvailableUnconfigured(t *testing.T) {
	if p := NewCloudProvider(CloudConfig{BaseURL: "http://example.com"}); p.IsAvailable(context.Background()) {
		t.Fatalf("available without an api key")
	}
	if p := NewCloudProvider(CloudConfig{APIKey: "key"}); p.IsAvailable(context.Background()) {
		t.Fatalf("available without a base url")
	}
}
