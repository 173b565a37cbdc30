package core

import (
	"testing"
	"time"
)

func TestResolveCredentialTokenState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := func(d time.Duration) *time.Time {
		expiry := now.Add(d)
		return &expiry
	}

	cases := []struct {
		name          string
		credential    Credential
		expired       bool
		expiringSoon  bool
		shouldRefresh bool
	}{
		{
			name:          "fresh token",
			credential:    Credential{AccessToken: "tok", RefreshToken: "ref", Expiry: in(time.Hour)},
			shouldRefresh: false,
		},
		{
			name:          "inside the lead window",
			credential:    Credential{AccessToken: "tok", RefreshToken: "ref", Expiry: in(30 * time.Second)},
			expiringSoon:  true,
			shouldRefresh: true,
		},
		{
			name:          "already expired",
			credential:    Credential{AccessToken: "tok", RefreshToken: "ref", Expiry: in(-time.Minute)},
			expired:       true,
			shouldRefresh: true,
		},
		{
			name:          "expiring exactly now counts as expired",
			credential:    Credential{AccessToken: "tok", Expiry: in(0)},
			expired:       true,
			shouldRefresh: true,
		},
		{
			name:          "no access token",
			credential:    Credential{RefreshToken: "ref"},
			shouldRefresh: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := ResolveCredentialTokenState(now, tc.credential, DefaultRefreshLeadWindow)
			if state.IsExpired != tc.expired {
				t.Fatalf("expected IsExpired=%v, got %v", tc.expired, state.IsExpired)
			}
			if state.IsExpiringSoon != tc.expiringSoon {
				t.Fatalf("expected IsExpiringSoon=%v, got %v", tc.expiringSoon, state.IsExpiringSoon)
			}
			if got := ShouldRefreshCredential(state); got != tc.shouldRefresh {
				t.Fatalf("expected ShouldRefreshCredential=%v, got %v", tc.shouldRefresh, got)
			}
		})
	}
}

func TestCredentialValidate_TokenAndExpiryTogether(t *testing.T) {
	expiry := time.Now().UTC().Add(time.Hour)

	if err := (Credential{Account: "a@example.com", AccessToken: "tok"}).Validate(); err == nil {
		t.Fatalf("expected error for access token without expiry")
	}
	if err := (Credential{Account: "a@example.com", Expiry: &expiry}).Validate(); err == nil {
		t.Fatalf("expected error for expiry without access token")
	}
	if err := (Credential{Account: "a@example.com", AccessToken: "tok", Expiry: &expiry}).Validate(); err != nil {
		t.Fatalf("expected valid credential, got %v", err)
	}
	if err := (Credential{Account: "a@example.com"}).Validate(); err != nil {
		t.Fatalf("expected tokenless credential to validate, got %v", err)
	}
}
