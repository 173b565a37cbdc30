package core

import (
	"strings"
	"time"
)

// DefaultRefreshLeadWindow treats tokens expiring within the window as
// already expired, avoiding races against in-flight calls.
const DefaultRefreshLeadWindow = 60 * time.Second

// CredentialTokenState captures the access/refresh lifecycle state derived
// from a stored credential at a given instant.
type CredentialTokenState struct {
	Expiry          *time.Time
	HasAccessToken  bool
	HasRefreshToken bool
	IsExpired       bool
	IsExpiringSoon  bool
}

// ResolveCredentialTokenState evaluates expiry flags for a credential.
func ResolveCredentialTokenState(now time.Time, credential Credential, leadWindow time.Duration) CredentialTokenState {
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	if leadWindow <= 0 {
		leadWindow = DefaultRefreshLeadWindow
	}

	state := CredentialTokenState{
		HasAccessToken:  strings.TrimSpace(credential.AccessToken) != "",
		HasRefreshToken: credential.HasRefreshToken(),
	}
	if credential.Expiry == nil {
		return state
	}
	expiry := credential.Expiry.UTC()
	state.Expiry = &expiry
	if !expiry.After(now) {
		state.IsExpired = true
		return state
	}
	state.IsExpiringSoon = !expiry.After(now.Add(leadWindow))
	return state
}

// ShouldRefreshCredential reports whether a refresh must run before the
// credential backs an authenticated client.
func ShouldRefreshCredential(state CredentialTokenState) bool {
	if !state.HasAccessToken {
		return true
	}
	return state.IsExpired || state.IsExpiringSoon
}
