package command

import (
	"strings"

	"github.com/goliatone/go-accounts/core"
)

const (
	TypeSetup       = "accounts.command.setup"
	TypeEnsureFresh = "accounts.command.ensure_fresh"
	TypeReconfigure = "accounts.command.reconfigure"
)

type SetupMessage struct {
	Request core.SetupRequest
}

func (SetupMessage) Type() string { return TypeSetup }

func (m SetupMessage) Validate() error {
	if strings.TrimSpace(m.Request.Account) == "" {
		return commandValidationError("account", "account is required")
	}
	if strings.TrimSpace(m.Request.ClientID) == "" {
		return commandValidationError("client_id", "client id is required")
	}
	if strings.TrimSpace(m.Request.ClientSecret) == "" {
		return commandValidationError("client_secret", "client secret is required")
	}
	return nil
}

type EnsureFreshMessage struct {
	Account string
}

func (EnsureFreshMessage) Type() string { return TypeEnsureFresh }

func (m EnsureFreshMessage) Validate() error {
	if strings.TrimSpace(m.Account) == "" {
		return commandValidationError("account", "account is required")
	}
	return nil
}

type ReconfigureMessage struct {
	Request core.ReconfigureRequest
}

func (ReconfigureMessage) Type() string { return TypeReconfigure }

func (m ReconfigureMessage) Validate() error {
	if strings.TrimSpace(m.Request.Account) == "" {
		return commandValidationError("account", "account is required")
	}
	if strings.TrimSpace(m.Request.RoundSelector) == "" && len(m.Request.Overrides) == 0 {
		return commandValidationError("overrides", "a round selector or at least one override is required")
	}
	return nil
}
