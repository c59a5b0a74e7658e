package utils

import (
	"net/http/httptest"
	"testing"
)

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", "192.168.1.5", "::1", "garbage", ""})

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"192.168.1.5", true},
		{"192.168.1.6", false},
		{"::1", true},
		{"::ffff:10.0.0.1", true},
		{"not-an-ip", false},
	}

	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if NewIPMatcher(nil).IsEmpty() != true {
		t.Error("matcher with no rules should be empty")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{
			name:   "remote addr only",
			remote: "1.2.3.4:5555",
			want:   "1.2.3.4",
		},
		{
			name:    "proxy headers ignored when untrusted",
			remote:  "1.2.3.4:5555",
			headers: map[string]string{"X-Forwarded-For": "9.9.9.9"},
			want:    "1.2.3.4",
		},
		{
			name:       "left-most forwarded address",
			remote:     "127.0.0.1:5555",
			headers:    map[string]string{"X-Forwarded-For": " 9.9.9.9 , 8.8.8.8"},
			trustProxy: true,
			want:       "9.9.9.9",
		},
		{
			name:       "cloudflare header wins",
			remote:     "127.0.0.1:5555",
			headers:    map[string]string{"CF-Connecting-IP": "7.7.7.7", "X-Forwarded-For": "9.9.9.9"},
			trustProxy: true,
			want:       "7.7.7.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
