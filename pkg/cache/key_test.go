package cache

import (
	"testing"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "domain list",
			key:  DomainsKey(),
			want: "orders:domains",
		},
		{
			name: "result",
			key:  ResultKey("https://a.example"),
			want: "orders:result:https://a.example",
		},
		{
			name: "result trailing slash trimmed",
			key:  ResultKey("https://a.example/"),
			want: "orders:result:https://a.example",
		},
		{
			name: "result host lowercased",
			key:  ResultKey("HTTPS://A.Example/Shop/"),
			want: "orders:result:https://a.example/Shop",
		},
		{
			name: "result without scheme",
			key:  ResultKey("  A.example  "),
			want: "orders:result:a.example",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_Deterministic(t *testing.T) {
	a := ResultKey("https://a.example/").String()
	b := ResultKey("https://A.EXAMPLE").String()
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"https://a.example///", "https://a.example"},
		{"http://B.example:8080/x/", "http://b.example:8080/x"},
	}
	for _, tt := range tests {
		if got := NormalizeDomain(tt.in); got != tt.want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
