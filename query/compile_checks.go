package query

import (
	"github.com/goliatone/go-accounts/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Querier[GetCredentialMessage, core.Credential] = (*GetCredentialQuery)(nil)
	_ gocmd.Querier[ListAccountsMessage, []string]         = (*ListAccountsQuery)(nil)
	_ gocmd.Querier[ListFeaturesMessage, []FeatureView]    = (*ListFeaturesQuery)(nil)
)
