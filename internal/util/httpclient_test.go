package util

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure-proxy.local:3128", "localhost, .internal.example")

	tests := []struct {
		url  string
		want string
	}{
		{"http://example.com/page", "http://proxy.local:3128"},
		{"https://example.com/page", "http://secure-proxy.local:3128"},
		{"http://localhost:11434/api/embed", ""},
		{"https://kb.internal.example/doc", ""},
	}

	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, tt.url, nil)
		got, err := proxy(req)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.url, err)
		}
		gotStr := ""
		if got != nil {
			gotStr = got.String()
		}
		if gotStr != tt.want {
			t.Errorf("%s: expected proxy %q, got %q", tt.url, tt.want, gotStr)
		}
	}
}

func TestNewHTTPClient_RedirectCap(t *testing.T) {
	var hits int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Redirect(w, r, server.URL+"/next", http.StatusFound)
	}))
	defer server.Close()

	client := NewHTTPClient(5*time.Second, "", "", "")
	resp, err := client.Get(server.URL)
	if err == nil {
		resp.Body.Close()
		t.Fatal("Expected redirect loop to fail")
	}
	// the original request plus MaxRedirects-1 followed redirects
	if got := atomic.LoadInt32(&hits); got != MaxRedirects {
		t.Errorf("Expected %d requests, got %d", MaxRedirects, got)
	}
}
