package query

import (
	"fmt"
	"strings"
)

const (
	TypeGetCredential = "accounts.query.credential.get"
	TypeListAccounts  = "accounts.query.accounts.list"
	TypeListFeatures  = "accounts.query.features.list"
)

type GetCredentialMessage struct {
	Account string
}

func (GetCredentialMessage) Type() string { return TypeGetCredential }

func (m GetCredentialMessage) Validate() error {
	if strings.TrimSpace(m.Account) == "" {
		return fmt.Errorf("query: account is required")
	}
	return nil
}

type ListAccountsMessage struct{}

func (ListAccountsMessage) Type() string { return TypeListAccounts }

func (ListAccountsMessage) Validate() error { return nil }

type ListFeaturesMessage struct {
	Account string
}

func (ListFeaturesMessage) Type() string { return TypeListFeatures }

func (m ListFeaturesMessage) Validate() error {
	if strings.TrimSpace(m.Account) == "" {
		return fmt.Errorf("query: account is required")
	}
	return nil
}
