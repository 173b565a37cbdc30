package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// GetCredential returns the stored record for an account without touching
// tokens.
func (s *Service) GetCredential(ctx context.Context, account string) (Credential, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return Credential{}, s.mapError(goerrors.NewValidation("get credential request is invalid",
			goerrors.FieldError{Field: "account", Message: "account is required"},
		).WithTextCode(AccountsErrorBadInput))
	}
	store, err := s.requireStore()
	if err != nil {
		return Credential{}, s.mapError(err)
	}
	credential, err := store.Load(ctx, account)
	if err != nil {
		return Credential{}, s.mapError(err)
	}
	return credential.Clone(), nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]string, error) {
	store, err := s.requireStore()
	if err != nil {
		return nil, s.mapError(err)
	}
	accounts, err := store.ListAccounts(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return accounts, nil
}

// EnsureFresh guarantees the account has a usable access token: expired or
// soon-to-expire tokens are refreshed under a per-account lock, and the
// second of two concurrent callers observes the already refreshed record
// instead of refreshing again. A failed refresh never modifies the stored
// credential.
func (s *Service) EnsureFresh(ctx context.Context, account string) (EnsureFreshResult, error) {
	var result EnsureFreshResult
	err := s.observeOperation(ctx, "ensure_fresh", map[string]string{"account": strings.TrimSpace(account)}, func() error {
		fresh, opErr := s.runEnsureFresh(ctx, account)
		if opErr != nil {
			return opErr
		}
		result = fresh
		return nil
	})
	if err != nil {
		return EnsureFreshResult{}, s.mapError(err)
	}
	return result, nil
}

func (s *Service) runEnsureFresh(ctx context.Context, account string) (EnsureFreshResult, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return EnsureFreshResult{}, goerrors.NewValidation("ensure fresh request is invalid",
			goerrors.FieldError{Field: "account", Message: "account is required"},
		).WithTextCode(AccountsErrorBadInput)
	}
	store, err := s.requireStore()
	if err != nil {
		return EnsureFreshResult{}, err
	}

	credential, err := store.Load(ctx, account)
	if err != nil {
		return EnsureFreshResult{}, err
	}
	state := ResolveCredentialTokenState(s.now(), credential, DefaultRefreshLeadWindow)
	if !ShouldRefreshCredential(state) {
		return EnsureFreshResult{Credential: credential.Clone(), State: state}, nil
	}

	unlock := func() {}
	if s.accountLocker != nil {
		handle, lockErr := s.accountLocker.Acquire(ctx, account, defaultRefreshLockTTL)
		if lockErr != nil {
			return EnsureFreshResult{}, lockErr
		}
		unlock = func() { _ = handle.Unlock(ctx) }
	}
	defer unlock()

	// Reload under the lock: a concurrent caller may have refreshed while we
	// were waiting.
	credential, err = store.Load(ctx, account)
	if err != nil {
		return EnsureFreshResult{}, err
	}
	state = ResolveCredentialTokenState(s.now(), credential, DefaultRefreshLeadWindow)
	if !ShouldRefreshCredential(state) {
		return EnsureFreshResult{Credential: credential.Clone(), State: state}, nil
	}

	refreshed, err := s.refreshCredential(ctx, store, credential)
	if err != nil {
		return EnsureFreshResult{}, err
	}
	return EnsureFreshResult{
		Credential:       refreshed.Clone(),
		State:            ResolveCredentialTokenState(s.now(), refreshed, DefaultRefreshLeadWindow),
		RefreshAttempted: true,
		Refreshed:        true,
	}, nil
}

// refreshCredential performs one refresh-grant exchange and persists the
// result. The stored record is rewritten only after a successful exchange;
// every failure path leaves it exactly as loaded.
func (s *Service) refreshCredential(ctx context.Context, store CredentialStore, credential Credential) (Credential, error) {
	if !credential.HasRefreshToken() {
		return Credential{}, fmt.Errorf("%w: account %q has no refresh token", ErrReauthRequired, credential.Account)
	}
	provider, err := s.requireTokenProvider()
	if err != nil {
		return Credential{}, err
	}

	token, err := provider.Refresh(ctx, RefreshTokenRequest{
		ClientID:     credential.ClientID,
		ClientSecret: credential.ClientSecret,
		RefreshToken: credential.RefreshToken,
		Scopes:       credential.Scopes,
	})
	if err != nil {
		if isUnrecoverableRefreshError(err) {
			s.logError("refresh token rejected; interactive setup required", map[string]any{
				"account": credential.Account,
				"error":   err.Error(),
			})
			return Credential{}, fmt.Errorf("%w: %v", ErrReauthRequired, err)
		}
		return Credential{}, err
	}

	updated := credential.Clone()
	updated.AccessToken = token.AccessToken
	updated.Expiry = cloneTimePointer(token.ExpiresAt)
	// A refresh moves expiry forward, never backward. A provider response
	// with an earlier (or missing) expiry keeps the one already stored.
	if credential.Expiry != nil && (updated.Expiry == nil || !updated.Expiry.After(*credential.Expiry)) {
		updated.Expiry = cloneTimePointer(credential.Expiry)
	}
	if strings.TrimSpace(token.TokenType) != "" {
		updated.TokenType = token.TokenType
	}
	// Providers rotate refresh tokens sporadically; absence of a replacement
	// keeps the one we already hold.
	if strings.TrimSpace(token.RefreshToken) != "" {
		updated.RefreshToken = token.RefreshToken
	}
	updated.UpdatedAt = s.now()

	if err := updated.Validate(); err != nil {
		return Credential{}, err
	}
	if err := store.Save(ctx, updated); err != nil {
		return Credential{}, err
	}
	s.logInfo("access token refreshed", map[string]any{
		"account": updated.Account,
	})
	return updated, nil
}

func isUnrecoverableRefreshError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.Category {
		case goerrors.CategoryAuth, goerrors.CategoryAuthz:
			return true
		}
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(msg, "invalid_grant") ||
		strings.Contains(msg, "invalid refresh token") ||
		strings.Contains(msg, "re-authorization required")
}

// Client is an http.Client-shaped wrapper that keeps the account's token
// fresh and signs every outgoing request.
type Client struct {
	service *Service
	account string
	doer    HTTPDoer
	signer  Signer
}

// Client returns a signed HTTP client for a configured account. Construction
// fails when the account has never completed setup.
func (s *Service) Client(ctx context.Context, account string) (*Client, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, s.mapError(goerrors.NewValidation("client request is invalid",
			goerrors.FieldError{Field: "account", Message: "account is required"},
		).WithTextCode(AccountsErrorBadInput))
	}
	store, err := s.requireStore()
	if err != nil {
		return nil, s.mapError(err)
	}
	if _, err := store.Load(ctx, account); err != nil {
		return nil, s.mapError(err)
	}
	return &Client{
		service: s,
		account: account,
		doer:    s.httpClient,
		signer:  s.signer,
	}, nil
}

// Do ensures the token is fresh, signs the request, and forwards it to the
// underlying HTTP client.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c == nil || c.service == nil {
		return nil, fmt.Errorf("core: client is not configured")
	}
	if req == nil {
		return nil, fmt.Errorf("core: http request is required")
	}
	result, err := c.service.EnsureFresh(req.Context(), c.account)
	if err != nil {
		return nil, err
	}
	signer := c.signer
	if signer == nil {
		signer = BearerTokenSigner{}
	}
	if err := signer.Sign(req.Context(), req, result.Credential); err != nil {
		return nil, c.service.mapError(err)
	}
	doer := c.doer
	if doer == nil {
		doer = http.DefaultClient
	}
	return doer.Do(req)
}

func (c *Client) Account() string {
	if c == nil {
		return ""
	}
	return c.account
}
