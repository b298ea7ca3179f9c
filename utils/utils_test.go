package utils

import (
	"testing"

	"rto_engine/config"
)

func TestTokenRoundTripCarriesActor(t *testing.T) {
	cfg := config.Config{JWTConfig: config.JWTConfig{SecretKey: "s3cret", AccessTokenTTL: 1, RefreshTokenTTL: 2}}

	access, refresh, err := GenerateTokens(1234567890123, "supplier", cfg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("expected both tokens")
	}

	id, role, err := ParseActor(access, cfg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != 1234567890123 || role != "supplier" {
		t.Fatalf("unexpected actor %d/%s", id, role)
	}

	other := config.Config{JWTConfig: config.JWTConfig{SecretKey: "other"}}
	if _, _, err := ParseActor(access, other); err == nil {
		t.Fatal("expected signature failure with a different secret")
	}
}

func TestPagination(t *testing.T) {
	cases := []struct {
		page, size, max    int
		wantOffset, wantSz int
	}{
		{0, 0, 100, 0, 20},
		{3, 10, 100, 20, 10},
		{2, 500, 100, 100, 100},
	}
	for _, tc := range cases {
		off, sz := Pagination(tc.page, tc.size, tc.max)
		if off != tc.wantOffset || sz != tc.wantSz {
			t.Errorf("Pagination(%d,%d,%d) = %d,%d want %d,%d", tc.page, tc.size, tc.max, off, sz, tc.wantOffset, tc.wantSz)
		}
	}
}

func TestBuildFullImageURL(t *testing.T) {
	cases := map[string]string{
		"":                          "",
		"https://cdn.x/a.jpg":       "https://cdn.x/a.jpg",
		"/media/evidence/a.jpg":     "https://files.example.com/media/evidence/a.jpg",
		"evidence/a.jpg":            "https://files.example.com/media/evidence/a.jpg",
	}
	for in, want := range cases {
		if got := BuildFullImageURL("https://files.example.com/", in, "media"); got != want {
			t.Errorf("BuildFullImageURL(%q) = %q want %q", in, got, want)
		}
	}
}
