package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestFetcher(maxBytes int64) *HTTPImageFetcher {
	f := NewHTTPImageFetcher(5*time.Second, maxBytes)
	f.backoff = 10 * time.Millisecond
	return f
}

func TestHTTPImageFetcher_RetryLogic(t *testing.T) {
	tests := []struct {
		name          string
		responses     []int
		expectCalls   int
		expectError   bool
		errorContains string
	}{
		{"Success on first attempt", []int{200}, 1, false, ""},
		{"Success on second attempt after 5xx", []int{500, 200}, 2, false, ""},
		{"4xx client error - no retry", []int{404}, 1, true, "client error: status code 404"},
		{"4xx after 5xx - stop at 4xx", []int{500, 404}, 2, true, "client error: status code 404"},
		{"All 5xx errors - retry all attempts", []int{500, 502, 503}, 3, true, "server error: status code 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				status := tt.responses[calls]
				calls++
				if status == http.StatusOK {
					w.Header().Set("Content-Type", "image/png")
					w.Write([]byte("png-bytes"))
					return
				}
				w.WriteHeader(status)
				w.Write([]byte(fmt.Sprintf("Error %d", status)))
			}))
			defer server.Close()

			data, err := newTestFetcher(0).FetchImage(context.Background(), server.URL)

			if calls != tt.expectCalls {
				t.Errorf("Expected %d requests, got %d", tt.expectCalls, calls)
			}
			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error, but got none")
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error to contain '%s', got: %s", tt.errorContains, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got: %s", err.Error())
			}
			if string(data) != "png-bytes" {
				t.Errorf("Unexpected body %q", data)
			}
		})
	}
}

func TestHTTPImageFetcher_NetworkError_Retry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			if hj, ok := w.(http.Hijacker); ok {
				conn, _, _ := hj.Hijack()
				conn.Close()
			}
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	_, err := newTestFetcher(0).FetchImage(context.Background(), server.URL)
	if err != nil {
		t.Errorf("Expected success after retries, got error: %s", err.Error())
	}
	if calls != 3 {
		t.Errorf("Expected 3 requests, got %d", calls)
	}
}

func TestHTTPImageFetcher_SizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	_, err := newTestFetcher(16).FetchImage(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "exceeds 16 bytes") {
		t.Errorf("Expected size limit error, got %v", err)
	}
}

func TestHTTPImageFetcher_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestFetcher(0).FetchImage(ctx, server.URL); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
