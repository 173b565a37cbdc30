package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Setup runs the interactive authorization-code flow for an account: it binds
// the local callback listener, sends the user's browser to the consent page,
// waits for the redirect, exchanges the code, and persists the credential.
// Nothing is written to the store until the exchange has succeeded.
func (s *Service) Setup(ctx context.Context, req SetupRequest) (Credential, error) {
	var credential Credential
	err := s.observeOperation(ctx, "setup", map[string]string{"account": strings.TrimSpace(req.Account)}, func() error {
		built, opErr := s.runSetup(ctx, req)
		if opErr != nil {
			return opErr
		}
		credential = built
		return nil
	})
	if err != nil {
		return Credential{}, s.mapError(err)
	}
	return credential, nil
}

func (s *Service) runSetup(ctx context.Context, req SetupRequest) (Credential, error) {
	account := strings.TrimSpace(req.Account)
	if account == "" {
		return Credential{}, goerrors.NewValidation("setup request is invalid",
			goerrors.FieldError{Field: "account", Message: "account is required"},
		).WithTextCode(AccountsErrorBadInput)
	}
	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		return Credential{}, goerrors.NewValidation("setup request is invalid",
			goerrors.FieldError{Field: "client_id", Message: "client id is required"},
		).WithTextCode(AccountsErrorBadInput)
	}
	clientSecret := strings.TrimSpace(req.ClientSecret)
	if clientSecret == "" {
		return Credential{}, goerrors.NewValidation("setup request is invalid",
			goerrors.FieldError{Field: "client_secret", Message: "client secret is required"},
		).WithTextCode(AccountsErrorBadInput)
	}

	store, err := s.requireStore()
	if err != nil {
		return Credential{}, err
	}
	provider, err := s.requireTokenProvider()
	if err != nil {
		return Credential{}, err
	}
	factory, err := s.requireListenerFactory()
	if err != nil {
		return Credential{}, err
	}

	scopes, err := ResolveScopes(req.ScopeNames)
	if err != nil {
		return Credential{}, err
	}

	features, err := s.resolveFeatures(nil, req.RoundSelector, req.Overrides)
	if err != nil {
		return Credential{}, err
	}

	listener, err := factory.Listen(s.config.Callback.Addr())
	if err != nil {
		return Credential{}, fmt.Errorf("callback listener bind failed on %s: %w", s.config.Callback.Addr(), err)
	}
	defer func() { _ = listener.Close() }()

	state, err := newFlowState()
	if err != nil {
		return Credential{}, err
	}

	authURL, err := provider.AuthCodeURL(AuthCodeURLRequest{
		ClientID:    clientID,
		RedirectURI: listener.RedirectURI(),
		State:       state,
		Scopes:      scopes,
	})
	if err != nil {
		return Credential{}, err
	}

	s.logInfo("open this url to authorize the account", map[string]any{
		"account": account,
		"url":     authURL,
	})
	if s.browserOpener != nil {
		if openErr := s.browserOpener.Open(authURL); openErr != nil {
			s.logInfo("could not open browser automatically; use the url above", map[string]any{
				"account": account,
				"error":   openErr.Error(),
			})
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.config.Callback.Timeout())
	defer cancel()

	result, err := listener.Await(waitCtx)
	if err != nil {
		return Credential{}, err
	}
	if result.State != state {
		return Credential{}, goerrors.New("authorization state mismatch", goerrors.CategoryAuth).
			WithTextCode(AccountsErrorFlowFailed)
	}

	token, err := provider.Exchange(ctx, ExchangeRequest{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Code:         result.Code,
		RedirectURI:  listener.RedirectURI(),
	})
	if err != nil {
		return Credential{}, err
	}

	now := s.now()
	credential := Credential{
		Account:         account,
		ClientID:        clientID,
		ClientSecret:    clientSecret,
		TokenType:       token.TokenType,
		AccessToken:     token.AccessToken,
		RefreshToken:    token.RefreshToken,
		Scopes:          scopes,
		EnabledFeatures: features,
		Expiry:          cloneTimePointer(token.ExpiresAt),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := credential.Validate(); err != nil {
		return Credential{}, err
	}
	if err := store.Save(ctx, credential); err != nil {
		return Credential{}, err
	}

	s.logInfo("account configured", map[string]any{
		"account":           account,
		"scopes":            len(scopes),
		"has_refresh_token": credential.HasRefreshToken(),
	})
	return credential, nil
}

// Reconfigure rewrites the feature enablement of an already configured
// account without touching its tokens.
func (s *Service) Reconfigure(ctx context.Context, req ReconfigureRequest) (Credential, error) {
	var credential Credential
	err := s.observeOperation(ctx, "reconfigure", map[string]string{"account": strings.TrimSpace(req.Account)}, func() error {
		account := strings.TrimSpace(req.Account)
		if account == "" {
			return goerrors.NewValidation("reconfigure request is invalid",
				goerrors.FieldError{Field: "account", Message: "account is required"},
			).WithTextCode(AccountsErrorBadInput)
		}
		store, opErr := s.requireStore()
		if opErr != nil {
			return opErr
		}
		current, opErr := store.Load(ctx, account)
		if opErr != nil {
			return opErr
		}

		features := current.EnabledFeatures
		if strings.TrimSpace(req.RoundSelector) != "" || len(req.Overrides) > 0 {
			features, opErr = s.resolveFeatures(current.EnabledFeatures, req.RoundSelector, req.Overrides)
			if opErr != nil {
				return opErr
			}
		}
		current.EnabledFeatures = features
		current.UpdatedAt = s.now()
		if opErr := store.Save(ctx, current); opErr != nil {
			return opErr
		}
		credential = current
		return nil
	})
	if err != nil {
		return Credential{}, s.mapError(err)
	}
	return credential, nil
}

// resolveFeatures layers the round selector and explicit overrides on top of
// the current enablement map. An empty selector falls back to the configured
// default rounds only when there is no current map to preserve.
func (s *Service) resolveFeatures(current map[string]bool, selector string, overrides []string) (map[string]bool, error) {
	selector = strings.TrimSpace(selector)
	features := current
	if selector == "" && current == nil {
		selector = strings.TrimSpace(s.config.DefaultRounds)
		if selector == "" {
			selector = DefaultRoundSelector
		}
	}
	if selector != "" {
		applied, err := ApplyRounds(current, selector)
		if err != nil {
			return nil, err
		}
		features = applied
	}
	applied, err := ApplyOverrides(features, overrides)
	if err != nil {
		return nil, err
	}
	return applied, nil
}

func newFlowState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("flow state generation failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
