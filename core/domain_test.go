package core

import (
	"errors"
	"testing"
	"time"
)

func TestTokenKindValidate(t *testing.T) {
	if err := TokenKindSubscription.Validate(); err != nil {
		t.Fatalf("expected subscription kind to validate, got %v", err)
	}
	if err := TokenKindTenant.Validate(); err != nil {
		t.Fatalf("expected tenant kind to validate, got %v", err)
	}
	err := TokenKind("bearer").Validate()
	if !errors.Is(err, ErrInvalidTokenKind) {
		t.Fatalf("expected ErrInvalidTokenKind, got %v", err)
	}
}

func TestParseFeatureAreaNormalizes(t *testing.T) {
	if got := ParseFeatureArea("  Transactions "); got != FeatureAreaTransactions {
		t.Fatalf("expected transactions, got %q", got)
	}
	if got := ParseFeatureArea("BANK-ACCOUNTS"); got != FeatureAreaBankAccounts {
		t.Fatalf("expected bank-accounts, got %q", got)
	}
	if got := ParseFeatureArea("payroll"); got != FeatureAreaOther {
		t.Fatalf("expected unknown tag to fall back to other, got %q", got)
	}
	if got := ParseFeatureArea(""); got != FeatureAreaOther {
		t.Fatalf("expected empty tag to fall back to other, got %q", got)
	}
}

func TestFeatureAreaValid(t *testing.T) {
	for _, area := range FeatureAreas() {
		if !area.Valid() {
			t.Fatalf("expected %q to be valid", area)
		}
	}
	if FeatureArea("payroll").Valid() {
		t.Fatalf("expected unknown area to be invalid")
	}
}

func TestTokenValidAtAppliesBuffer(t *testing.T) {
	now := time.Date(2024, 5, 7, 12, 0, 0, 0, time.UTC)
	token := Token{
		Kind:      TokenKindSubscription,
		Bearer:    "bearer-value",
		ExpiresAt: now.Add(61 * time.Second),
	}

	if !token.ValidAt(now, 60*time.Second) {
		t.Fatalf("expected token with 61s remaining to be valid under 60s buffer")
	}
	if token.ValidAt(now.Add(2*time.Second), 60*time.Second) {
		t.Fatalf("expected token with 59s remaining to need refresh")
	}

	blank := token
	blank.Bearer = "   "
	if blank.ValidAt(now, 0) {
		t.Fatalf("expected blank bearer to be invalid")
	}

	zero := token
	zero.ExpiresAt = time.Time{}
	if zero.ValidAt(now, 0) {
		t.Fatalf("expected zero expiry to be invalid")
	}
}

func TestCredentialsPairForRoutesByKind(t *testing.T) {
	creds := Credentials{
		SubscriptionClientID:     " sub-id ",
		SubscriptionClientSecret: " sub-secret ",
		TenantClientID:           "tenant-id",
		TenantClientSecret:       "tenant-secret",
	}

	id, secret := creds.PairFor(TokenKindSubscription)
	if id != "sub-id" || secret != "sub-secret" {
		t.Fatalf("expected trimmed subscription pair, got %q %q", id, secret)
	}

	id, secret = creds.PairFor(TokenKindTenant)
	if id != "tenant-id" || secret != "tenant-secret" {
		t.Fatalf("expected tenant pair, got %q %q", id, secret)
	}
}
