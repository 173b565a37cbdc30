package query

import (
	"context"

	"github.com/goliatone/go-accounts/core"
)

type CredentialReader interface {
	GetCredential(ctx context.Context, account string) (core.Credential, error)
	ListAccounts(ctx context.Context) ([]string, error)
}

type GetCredentialQuery struct {
	reader CredentialReader
}

func NewGetCredentialQuery(reader CredentialReader) *GetCredentialQuery {
	return &GetCredentialQuery{reader: reader}
}

func (q *GetCredentialQuery) Query(ctx context.Context, msg GetCredentialMessage) (core.Credential, error) {
	if q == nil || q.reader == nil {
		return core.Credential{}, queryDependencyError("query: credential reader is required")
	}
	return q.reader.GetCredential(ctx, msg.Account)
}

type ListAccountsQuery struct {
	reader CredentialReader
}

func NewListAccountsQuery(reader CredentialReader) *ListAccountsQuery {
	return &ListAccountsQuery{reader: reader}
}

func (q *ListAccountsQuery) Query(ctx context.Context, msg ListAccountsMessage) ([]string, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: credential reader is required")
	}
	return q.reader.ListAccounts(ctx)
}

// FeatureView pairs a feature name with its enablement for one account.
type FeatureView struct {
	Name    string
	Enabled bool
}

type ListFeaturesQuery struct {
	reader CredentialReader
}

func NewListFeaturesQuery(reader CredentialReader) *ListFeaturesQuery {
	return &ListFeaturesQuery{reader: reader}
}

func (q *ListFeaturesQuery) Query(ctx context.Context, msg ListFeaturesMessage) ([]FeatureView, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: credential reader is required")
	}
	credential, err := q.reader.GetCredential(ctx, msg.Account)
	if err != nil {
		return nil, err
	}
	known := core.KnownFeatures()
	views := make([]FeatureView, 0, len(known))
	for _, name := range known {
		views = append(views, FeatureView{
			Name:    name,
			Enabled: credential.EnabledFeatures[name],
		})
	}
	return views, nil
}
