package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-accounts/core"
	"github.com/goliatone/go-accounts/security"
)

func sampleCredential(account string) core.Credential {
	expiry := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	return core.Credential{
		Account:      account,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenType:    "Bearer",
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		Scopes: []string{
			"https://www.googleapis.com/auth/drive",
			"https://www.googleapis.com/auth/gmail.modify",
		},
		EnabledFeatures: map[string]bool{"drive": true, "gmail": true},
		Expiry:          &expiry,
		CreatedAt:       time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestCredentialStore_RoundTrip(t *testing.T) {
	store, err := NewCredentialStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	want := sampleCredential("user@example.com")

	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestCredentialStore_MissingAccount(t *testing.T) {
	store, err := NewCredentialStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Load(context.Background(), "nobody@example.com"); !errors.Is(err, core.ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}
}

func TestCredentialStore_UnknownFieldIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCredentialStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	path := filepath.Join(dir, "user@example.com.json")
	payload := `{"version":1,"account":"user@example.com","surprise":"field"}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if _, err := store.Load(context.Background(), "user@example.com"); !errors.Is(err, core.ErrCredentialCorrupt) {
		t.Fatalf("expected ErrCredentialCorrupt, got %v", err)
	}
}

func TestCredentialStore_TruncatedFileIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCredentialStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	path := filepath.Join(dir, "user@example.com.json")
	if err := os.WriteFile(path, []byte(`{"version":1,"acc`), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if _, err := store.Load(context.Background(), "user@example.com"); !errors.Is(err, core.ErrCredentialCorrupt) {
		t.Fatalf("expected ErrCredentialCorrupt, got %v", err)
	}
}

func TestCredentialStore_ListAccounts(t *testing.T) {
	store, err := NewCredentialStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	for _, account := range []string{"b@example.com", "a@example.com"} {
		if err := store.Save(ctx, sampleCredential(account)); err != nil {
			t.Fatalf("save %s: %v", account, err)
		}
	}

	accounts, err := store.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"a@example.com", "b@example.com"}
	if !reflect.DeepEqual(accounts, want) {
		t.Fatalf("expected sorted accounts %v, got %v", want, accounts)
	}
}

func TestCredentialStore_ListAccountsMissingDir(t *testing.T) {
	store, err := NewCredentialStore(filepath.Join(t.TempDir(), "never-created"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	accounts, err := store.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 0 {
		t.Fatalf("expected no accounts, got %v", accounts)
	}
}

func TestCredentialStore_EncryptedRoundTrip(t *testing.T) {
	provider, err := security.NewAppKeySecretProviderFromString("file-store-test-key")
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	dir := t.TempDir()
	store, err := NewCredentialStore(dir, WithSecretProvider(provider))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	want := sampleCredential("user@example.com")

	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "user@example.com.json"))
	if err != nil {
		t.Fatalf("read raw file: %v", err)
	}
	if !security.IsEnvelope(raw) {
		t.Fatalf("expected encrypted envelope on disk, got %q", raw)
	}
	if strings.Contains(string(raw), "refresh-token") {
		t.Fatalf("expected secret material to be hidden, got %q", raw)
	}

	got, err := store.Load(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("encrypted round trip mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestCredentialStore_EnvelopeWithoutProviderIsCorrupt(t *testing.T) {
	provider, err := security.NewAppKeySecretProviderFromString("file-store-test-key")
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	dir := t.TempDir()
	secured, err := NewCredentialStore(dir, WithSecretProvider(provider))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if err := secured.Save(ctx, sampleCredential("user@example.com")); err != nil {
		t.Fatalf("save: %v", err)
	}

	plain, err := NewCredentialStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := plain.Load(ctx, "user@example.com"); !errors.Is(err, core.ErrCredentialCorrupt) {
		t.Fatalf("expected ErrCredentialCorrupt for unreadable envelope, got %v", err)
	}
}

type ctxRecordingSecrets struct {
	core.SecretProvider
	encryptCtx context.Context
	decryptCtx context.Context
}

func (p *ctxRecordingSecrets) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	p.encryptCtx = ctx
	return p.SecretProvider.Encrypt(ctx, plaintext)
}

func (p *ctxRecordingSecrets) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	p.decryptCtx = ctx
	return p.SecretProvider.Decrypt(ctx, ciphertext)
}

func TestCredentialStore_CallerContextReachesSecretProvider(t *testing.T) {
	inner, err := security.NewAppKeySecretProviderFromString("file-store-test-key")
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	recorder := &ctxRecordingSecrets{SecretProvider: inner}
	store, err := NewCredentialStore(t.TempDir(), WithSecretProvider(recorder))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")

	if err := store.Save(ctx, sampleCredential("user@example.com")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if recorder.encryptCtx == nil || recorder.encryptCtx.Value(ctxKey{}) != "marker" {
		t.Fatalf("expected Save to pass the caller context to Encrypt")
	}

	if _, err := store.Load(ctx, "user@example.com"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if recorder.decryptCtx == nil || recorder.decryptCtx.Value(ctxKey{}) != "marker" {
		t.Fatalf("expected Load to pass the caller context to Decrypt")
	}
}

func TestEncodeAccountName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"user@example.com", "user@example.com"},
		{"team lead", "team_lead"},
		{"../escape", "_escape"},
		{"trail.", "trail"},
	}
	for _, tc := range cases {
		if got := encodeAccountName(tc.in); got != tc.want {
			t.Fatalf("encodeAccountName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
