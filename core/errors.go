package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	AccountsErrorBadInput       = "ACCOUNTS_BAD_INPUT"
	AccountsErrorUnknownScope   = "ACCOUNTS_UNKNOWN_SCOPE"
	AccountsErrorUnknownFeature = "ACCOUNTS_UNKNOWN_FEATURE"
	AccountsErrorNotConfigured  = "ACCOUNTS_NOT_CONFIGURED"
	AccountsErrorFlowFailed     = "ACCOUNTS_FLOW_FAILED"
	AccountsErrorFlowTimeout    = "ACCOUNTS_FLOW_TIMEOUT"
	AccountsErrorExchangeFailed = "ACCOUNTS_EXCHANGE_FAILED"
	AccountsErrorReauthRequired = "ACCOUNTS_REAUTH_REQUIRED"
	AccountsErrorInternal       = "ACCOUNTS_INTERNAL_ERROR"
)

func accountsErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureAccountsErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrCredentialNotFound), errors.Is(err, ErrCredentialCorrupt):
		return newAccountsError(
			"account is not configured; run setup for this account",
			goerrors.CategoryNotFound,
			AccountsErrorNotConfigured,
		)
	case errors.Is(err, ErrReauthRequired):
		return newAccountsError(err.Error(), goerrors.CategoryAuth, AccountsErrorReauthRequired)
	case errors.Is(err, ErrUnknownScope):
		return newAccountsError(err.Error(), goerrors.CategoryBadInput, AccountsErrorUnknownScope)
	case errors.Is(err, ErrUnknownFeature):
		return newAccountsError(err.Error(), goerrors.CategoryBadInput, AccountsErrorUnknownFeature)
	case errors.Is(err, ErrCallbackTimeout):
		return newAccountsError(err.Error(), goerrors.CategoryOperation, AccountsErrorFlowTimeout)
	case errors.Is(err, ErrAuthorizationDenied):
		return newAccountsError(err.Error(), goerrors.CategoryAuth, AccountsErrorFlowFailed)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "token endpoint"), strings.Contains(msg, "exchange"):
		return newAccountsError(err.Error(), goerrors.CategoryOperation, AccountsErrorExchangeFailed)
	case strings.Contains(msg, "bind"), strings.Contains(msg, "address already in use"):
		return newAccountsError(err.Error(), goerrors.CategoryConflict, AccountsErrorFlowFailed)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newAccountsError(err.Error(), goerrors.CategoryBadInput, AccountsErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureAccountsErrorEnvelope(mapped)
}

func newAccountsError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureAccountsErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureAccountsErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = accountsHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultAccountsTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultAccountsTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return AccountsErrorBadInput
	case goerrors.CategoryNotFound:
		return AccountsErrorNotConfigured
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return AccountsErrorReauthRequired
	case goerrors.CategoryConflict, goerrors.CategoryOperation:
		return AccountsErrorFlowFailed
	default:
		return AccountsErrorInternal
	}
}

func accountsHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
