package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empverify/pkg/requestcontext"
)

func TestResolver_ClientIP(t *testing.T) {
	behindProxy, err := NewResolver([]string{"10.0.0.0/8", "192.0.2.99"})
	require.NoError(t, err)
	direct, err := NewResolver(nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		resolver *Resolver
		headers  map[string]string
		remote   string
		want     string
	}{
		{"direct ignores forwarded header", direct, map[string]string{"X-Forwarded-For": "203.0.113.7"}, "198.51.100.20:1234", "198.51.100.20"},
		{"direct ignores real ip header", direct, map[string]string{"X-Real-IP": "203.0.113.7"}, "198.51.100.20:1234", "198.51.100.20"},
		{"untrusted peer cannot spoof", behindProxy, map[string]string{"X-Forwarded-For": "203.0.113.7"}, "198.51.100.20:1234", "198.51.100.20"},
		{"trusted proxy forwards client", behindProxy, map[string]string{"X-Forwarded-For": "203.0.113.7"}, "10.0.0.2:1234", "203.0.113.7"},
		{"client-supplied hops left of the proxy are ignored", behindProxy, map[string]string{"X-Forwarded-For": "1.1.1.1, 203.0.113.7, 10.0.0.5"}, "10.0.0.2:1234", "203.0.113.7"},
		{"single trusted ip entry", behindProxy, map[string]string{"X-Forwarded-For": "203.0.113.8"}, "192.0.2.99:80", "203.0.113.8"},
		{"real ip behind trusted proxy", behindProxy, map[string]string{"X-Real-IP": " 198.51.100.4 "}, "10.0.0.2:1234", "198.51.100.4"},
		{"garbage header falls back to peer", behindProxy, map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.0.0.2:1234", "10.0.0.2"},
		{"ipv6 remote addr", direct, nil, "[2001:db8::1]:443", "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, tt.resolver.ClientIP(r))
		})
	}
}

func TestNewResolver_RejectsBadEntries(t *testing.T) {
	_, err := NewResolver([]string{"10.0.0.0/33"})
	assert.Error(t, err)
	_, err = NewResolver([]string{"proxy.internal"})
	assert.Error(t, err)
}

func TestClientMetadataMiddleware(t *testing.T) {
	var gotIP, gotUA string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:9000"
	r.Header.Set("User-Agent", "verifier-bot/1.0")
	r.Header.Set("X-Forwarded-For", "203.0.113.50")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.1", gotIP)
	assert.Equal(t, "verifier-bot/1.0", gotUA)
}
