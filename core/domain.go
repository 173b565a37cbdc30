package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrCredentialNotFound  = errors.New("core: credential not found")
	ErrCredentialCorrupt   = errors.New("core: credential record is corrupt")
	ErrUnknownScope        = errors.New("core: unknown scope name")
	ErrUnknownFeature      = errors.New("core: unknown feature name")
	ErrReauthRequired      = errors.New("core: re-authorization required")
	ErrInvalidTokenState   = errors.New("core: access token and expiry must be set together")
	ErrCallbackTimeout     = errors.New("core: authorization callback timed out")
	ErrAuthorizationDenied = errors.New("core: authorization denied by provider")
)

// Credential is the per-account record this module manages. Exactly one
// exists per account; Save semantics are a full overwrite. AccessToken and
// Expiry are always set or absent together, and a RefreshToken, once
// obtained, survives refreshes that do not return a replacement.
type Credential struct {
	Account         string
	ClientID        string
	ClientSecret    string
	TokenType       string
	AccessToken     string
	RefreshToken    string
	Scopes          []string
	EnabledFeatures map[string]bool
	Expiry          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c Credential) Validate() error {
	if strings.TrimSpace(c.Account) == "" {
		return fmt.Errorf("core: credential account is required")
	}
	hasToken := strings.TrimSpace(c.AccessToken) != ""
	hasExpiry := c.Expiry != nil && !c.Expiry.IsZero()
	if hasToken != hasExpiry {
		return fmt.Errorf("%w (account %q)", ErrInvalidTokenState, c.Account)
	}
	for name := range c.EnabledFeatures {
		if !IsKnownFeature(name) {
			return fmt.Errorf("%w: %q", ErrUnknownFeature, name)
		}
	}
	return nil
}

// Clone returns an independent copy so callers cannot mutate stored state
// through shared slices or maps.
func (c Credential) Clone() Credential {
	cloned := c
	cloned.Scopes = append([]string(nil), c.Scopes...)
	if c.EnabledFeatures != nil {
		features := make(map[string]bool, len(c.EnabledFeatures))
		for name, enabled := range c.EnabledFeatures {
			features[name] = enabled
		}
		cloned.EnabledFeatures = features
	}
	cloned.Expiry = cloneTimePointer(c.Expiry)
	return cloned
}

// HasRefreshToken reports whether unattended refresh is possible.
func (c Credential) HasRefreshToken() bool {
	return strings.TrimSpace(c.RefreshToken) != ""
}

func cloneTimePointer(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := value.UTC()
	return &clone
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
