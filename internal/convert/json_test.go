package convert

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/and161185/authgate/internal/model"
)

func TestToProfile_HidesSecrets(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	u := &model.Identity{
		ID:           7,
		Name:         "Alice",
		Email:        "a@x.com",
		PasswordHash: "$argon2id$secret",
		AccessToken:  "acc",
		RefreshToken: "ref",
		IsActive:     true,
		CreatedAt:    created,
		UpdatedAt:    created,
	}

	raw, err := json.Marshal(ToProfile(u))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	for _, leak := range []string{"argon2id", "acc", "ref"} {
		if strings.Contains(s, leak) {
			t.Fatalf("profile leaks %q: %s", leak, s)
		}
	}
	for _, want := range []string{`"id":7`, `"is_admin":false`, `"is_active":true`, `"created_at":"2025-01-02T02:04:05Z"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("want %s in %s", want, s)
		}
	}
}

func TestToProfile_Nil(t *testing.T) {
	t.Parallel()

	if got := ToProfile(nil); got != (Profile{}) {
		t.Fatalf("nil identity must give zero profile, got %+v", got)
	}
}

func TestToAuthPayload(t *testing.T) {
	t.Parallel()

	u := &model.Identity{ID: 1, Email: "a@x.com"}

	raw, _ := json.Marshal(ToAuthPayload(u, nil))
	if strings.Contains(string(raw), "tokens") {
		t.Fatalf("tokens must be omitted without a bundle: %s", raw)
	}

	b := &model.TokenBundle{AccessToken: "A", RefreshToken: "R", SessionCookie: "C"}
	p := ToAuthPayload(u, b)
	if p.Tokens == nil || p.Tokens.AccessToken != "A" || p.Tokens.RefreshToken != "R" {
		t.Fatalf("tokens mismatch: %+v", p.Tokens)
	}
	raw, _ = json.Marshal(p)
	if strings.Contains(string(raw), `"C"`) {
		t.Fatalf("cookie must not be in the body: %s", raw)
	}
}
