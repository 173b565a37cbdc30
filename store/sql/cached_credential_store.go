package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-accounts/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const credentialCacheKeyPrefix = "go-accounts::credential::v1"

// CachedCredentialStore puts a read-through cache in front of any credential
// store. Save writes through and invalidates, so a refresh on one code path
// is visible to the next Load everywhere.
type CachedCredentialStore struct {
	base  core.CredentialStore
	cache repositorycache.CacheService
}

func NewCachedCredentialStore(base core.CredentialStore, cacheService repositorycache.CacheService) (*CachedCredentialStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base credential store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: credential cache service is required")
	}
	return &CachedCredentialStore{base: base, cache: cacheService}, nil
}

// CredentialCacheKey returns the deterministic cache key for an account:
// go-accounts::credential::v1::<account> with the account URL-path escaped.
func CredentialCacheKey(account string) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", fmt.Errorf("sqlstore: account is required")
	}
	return credentialCacheKeyPrefix + "::" + url.PathEscape(account), nil
}

func (s *CachedCredentialStore) Load(ctx context.Context, account string) (core.Credential, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	cacheKey, err := CredentialCacheKey(account)
	if err != nil {
		return core.Credential{}, err
	}

	credential, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Credential, error) {
		fetched, fetchErr := s.base.Load(ctx, account)
		if fetchErr != nil {
			return core.Credential{}, fetchErr
		}
		return fetched.Clone(), nil
	})
	if err != nil {
		return core.Credential{}, err
	}
	return credential.Clone(), nil
}

func (s *CachedCredentialStore) Save(ctx context.Context, credential core.Credential) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	if err := s.base.Save(ctx, credential); err != nil {
		return err
	}
	cacheKey, err := CredentialCacheKey(credential.Account)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

func (s *CachedCredentialStore) ListAccounts(ctx context.Context) ([]string, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	return s.base.ListAccounts(ctx)
}

var _ core.CredentialStore = (*CachedCredentialStore)(nil)
