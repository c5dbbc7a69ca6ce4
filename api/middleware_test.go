package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIPIgnoresHeadersFromUntrustedPeers(t *testing.T) {
	proxies := parseTrustedProxies([]string{"10.0.0.0/8", "192.168.1.5", "not-an-ip"})

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		want       string
	}{
		{name: "direct client forging headers", remoteAddr: "203.0.113.7:5555", xff: "1.2.3.4", realIP: "5.6.7.8", want: "203.0.113.7"},
		{name: "trusted proxy forwarding", remoteAddr: "10.1.2.3:443", xff: "198.51.100.9", want: "198.51.100.9"},
		{name: "forged hop before real client", remoteAddr: "10.1.2.3:443", xff: "1.2.3.4, 198.51.100.9, 10.0.0.2", want: "198.51.100.9"},
		{name: "single trusted address", remoteAddr: "192.168.1.5:80", realIP: "198.51.100.10", want: "198.51.100.10"},
		{name: "trusted proxy without headers", remoteAddr: "10.1.2.3:443", want: "10.1.2.3"},
		{name: "garbage header", remoteAddr: "10.1.2.3:443", xff: "nonsense", want: "10.1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, proxies.clientIP(r))
		})
	}
}

func TestRateLimiterCannotBeDodgedWithForwardedFor(t *testing.T) {
	limiter := newRateLimiter(1, 1, nil)
	handler := limiter.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(forwardedFor string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "203.0.113.7:5555"
		r.Header.Set("X-Forwarded-For", forwardedFor)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, send("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("2.2.2.2"))
}
