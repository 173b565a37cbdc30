package sqlstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-accounts/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type stubCredentialStore struct {
	mu         sync.Mutex
	credential core.Credential
	loadCalls  int
	saveCalls  int
	loadErr    error
}

func (s *stubCredentialStore) Load(_ context.Context, account string) (core.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadCalls++
	if s.loadErr != nil {
		return core.Credential{}, s.loadErr
	}
	if s.credential.Account != account {
		return core.Credential{}, fmt.Errorf("%w: account %q", core.ErrCredentialNotFound, account)
	}
	return s.credential.Clone(), nil
}

func (s *stubCredentialStore) Save(_ context.Context, credential core.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	s.credential = credential.Clone()
	return nil
}

func (s *stubCredentialStore) ListAccounts(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credential.Account == "" {
		return []string{}, nil
	}
	return []string{s.credential.Account}, nil
}

func newTestCredentialCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func TestCachedCredentialStore_Load_MissFetchThenHit(t *testing.T) {
	base := &stubCredentialStore{
		credential: core.Credential{Account: "user@example.com", AccessToken: "tok-1"},
	}
	store, err := NewCachedCredentialStore(base, newTestCredentialCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	if _, err := store.Load(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if base.loadCalls != 1 {
		t.Fatalf("expected first load to hit the base store once, got %d", base.loadCalls)
	}

	if _, err := store.Load(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if base.loadCalls != 1 {
		t.Fatalf("expected second load to be a cache hit, base loads=%d", base.loadCalls)
	}
}

func TestCachedCredentialStore_Save_InvalidatesCachedKey(t *testing.T) {
	base := &stubCredentialStore{
		credential: core.Credential{Account: "user@example.com", AccessToken: "tok-1"},
	}
	store, err := NewCachedCredentialStore(base, newTestCredentialCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	if _, err := store.Load(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	if err := store.Save(context.Background(), core.Credential{
		Account:     "user@example.com",
		AccessToken: "tok-2",
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("load after save: %v", err)
	}
	if got.AccessToken != "tok-2" {
		t.Fatalf("expected invalidated cache to serve the new token, got %q", got.AccessToken)
	}
	if base.loadCalls != 2 {
		t.Fatalf("expected a fresh base read after invalidation, got %d", base.loadCalls)
	}
}

func TestCachedCredentialStore_LoadReturnsClone(t *testing.T) {
	base := &stubCredentialStore{
		credential: core.Credential{
			Account:         "user@example.com",
			EnabledFeatures: map[string]bool{"drive": true},
		},
	}
	store, err := NewCachedCredentialStore(base, newTestCredentialCacheService(t))
	if err != nil {
		t.Fatalf("new cached store: %v", err)
	}

	first, err := store.Load(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	first.EnabledFeatures["drive"] = false

	second, err := store.Load(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if !second.EnabledFeatures["drive"] {
		t.Fatalf("expected cached value insulated from caller mutation")
	}
}

func TestCredentialCacheKey(t *testing.T) {
	key, err := CredentialCacheKey("user@example.com")
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if key != "go-accounts::credential::v1::user@example.com" {
		t.Fatalf("unexpected key: %q", key)
	}

	escaped, err := CredentialCacheKey("team lead")
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if escaped != "go-accounts::credential::v1::team%20lead" {
		t.Fatalf("unexpected escaped key: %q", escaped)
	}
}

func TestNewCachedCredentialStore_RequiresDependencies(t *testing.T) {
	if _, err := NewCachedCredentialStore(nil, newTestCredentialCacheService(t)); err == nil {
		t.Fatalf("expected error without a base store")
	}
	if _, err := NewCachedCredentialStore(&stubCredentialStore{}, nil); err == nil {
		t.Fatalf("expected error without a cache service")
	}
}
