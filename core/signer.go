package core

import (
	"context"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// BearerTokenSigner attaches the credential's access token as an
// Authorization header. It never refreshes; callers go through EnsureFresh
// before signing.
type BearerTokenSigner struct{}

func (BearerTokenSigner) Sign(_ context.Context, req *http.Request, credential Credential) error {
	if req == nil {
		return goerrors.New("http request is required", goerrors.CategoryBadInput).
			WithTextCode(AccountsErrorBadInput)
	}
	token := strings.TrimSpace(credential.AccessToken)
	if token == "" {
		return goerrors.New("credential has no access token", goerrors.CategoryAuth).
			WithTextCode(AccountsErrorReauthRequired)
	}
	tokenType := strings.TrimSpace(credential.TokenType)
	if tokenType == "" {
		tokenType = "Bearer"
	}
	req.Header.Set("Authorization", tokenType+" "+token)
	return nil
}
