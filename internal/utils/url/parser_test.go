package urlutil

import "testing"

func TestValidate(t *testing.T) {
	valid := []string{
		"http://example.com",
		"https://example.com/path",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Fatalf("expected valid, got error: %v", err)
		}
	}

	invalid := []string{"ftp://example.com", "//example.com", "http:///"}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Fatalf("expected invalid for %s", u)
		}
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://example.test/card", "/hero.png", "https://example.test/hero.png"},
		{"https://example.test/cards/gold", "img/a.jpg", "https://example.test/cards/img/a.jpg"},
		{"https://example.test/", "//cdn.test/x.png", "https://cdn.test/x.png"},
		{"https://example.test/", "https://other.test/y.webp", "https://other.test/y.webp"},
		{"https://example.test/", "", ""},
		{"https://example.test/", "data:image/png;base64,AAAA", ""},
		{"not a base", "/x.png", ""},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			if got := ResolveURL(tt.base, tt.href); got != tt.want {
				t.Errorf("ResolveURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
			}
		})
	}
}

func TestHostHelpers(t *testing.T) {
	if h := Hostname("https://WWW.Example.test:8443/a"); h != "www.example.test" {
		t.Errorf("Hostname = %q", h)
	}
	if l := DomainLabel("www.example.test"); l != "example.test" {
		t.Errorf("DomainLabel = %q", l)
	}
	if d := RegistrableDomain("offers.bank.co.in"); d != "bank.co.in" {
		t.Errorf("RegistrableDomain = %q", d)
	}
	if d := RegistrableDomain("127.0.0.1"); d != "127.0.0.1" {
		t.Errorf("RegistrableDomain(ip) = %q", d)
	}
}

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"www.axisbank.com", "axisbank.com", true},
		{"cards.axisbank.com", "axisbank.com", true},
		{"notaxisbank.com", "axisbank.com", false},
		{"axisbank.com", "www.axisbank.com", true},
		{"", "axisbank.com", false},
	}
	for _, tt := range tests {
		if got := MatchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("MatchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestExt(t *testing.T) {
	tests := map[string]string{
		"https://a.test/img/hero.PNG":        "png",
		"https://a.test/img/hero.jpg?w=300":  "jpg",
		"https://a.test/img.d/hero":          "",
		"https://a.test/":                    "",
		"https://a.test/x/photo.webp#anchor": "webp",
	}
	for in, want := range tests {
		if got := Ext(in); got != want {
			t.Errorf("Ext(%q) = %q, want %q", in, got, want)
		}
	}
}
