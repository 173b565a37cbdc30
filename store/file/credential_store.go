// Package file persists one credential file per account under a local
// directory. Writes go through a temp file plus rename so a crash mid-write
// never leaves a truncated record behind. An optional secret provider
// encrypts payloads at rest.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-accounts/core"
	"github.com/goliatone/go-accounts/security"
)

const (
	fileExtension = ".json"
	dirMode       = 0o700
	fileMode      = 0o600
)

type Option func(*CredentialStore)

func WithSecretProvider(provider core.SecretProvider) Option {
	return func(s *CredentialStore) {
		s.secrets = provider
	}
}

func WithCodec(codec core.CredentialCodec) Option {
	return func(s *CredentialStore) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// CredentialStore keeps each account in <dir>/<account>.json. It never
// performs network access.
type CredentialStore struct {
	dir     string
	codec   core.CredentialCodec
	secrets core.SecretProvider
	mu      sync.Mutex
}

func NewCredentialStore(dir string, opts ...Option) (*CredentialStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("file: storage directory is required")
	}
	store := &CredentialStore{
		dir:   dir,
		codec: core.JSONCredentialCodec{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(store)
	}
	return store, nil
}

func (s *CredentialStore) Load(ctx context.Context, account string) (core.Credential, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return core.Credential{}, fmt.Errorf("file: account is required")
	}
	path, err := s.pathFor(account)
	if err != nil {
		return core.Credential{}, err
	}

	s.mu.Lock()
	data, err := os.ReadFile(path)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Credential{}, fmt.Errorf("%w: account %q", core.ErrCredentialNotFound, account)
		}
		return core.Credential{}, fmt.Errorf("file: read credential for %q: %w", account, err)
	}

	if security.IsEnvelope(data) {
		if s.secrets == nil {
			return core.Credential{}, fmt.Errorf("%w: account %q is encrypted and no secret provider is configured", core.ErrCredentialCorrupt, account)
		}
		plaintext, decErr := s.secrets.Decrypt(ctx, data)
		if decErr != nil {
			return core.Credential{}, fmt.Errorf("%w: account %q: %v", core.ErrCredentialCorrupt, account, decErr)
		}
		data = plaintext
	}

	credential, err := s.codec.Decode(data)
	if err != nil {
		return core.Credential{}, fmt.Errorf("%w: account %q: %v", core.ErrCredentialCorrupt, account, err)
	}
	if credential.Account == "" {
		credential.Account = account
	}
	return credential, nil
}

// Save overwrites the whole record. The payload is encoded, optionally
// encrypted, written to a temp file in the same directory, and renamed into
// place.
func (s *CredentialStore) Save(ctx context.Context, credential core.Credential) error {
	if err := credential.Validate(); err != nil {
		return err
	}
	path, err := s.pathFor(credential.Account)
	if err != nil {
		return err
	}

	data, err := s.codec.Encode(credential)
	if err != nil {
		return err
	}
	if s.secrets != nil {
		data, err = s.secrets.Encrypt(ctx, data)
		if err != nil {
			return fmt.Errorf("file: encrypt credential for %q: %w", credential.Account, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return fmt.Errorf("file: create storage directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("file: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("file: write credential for %q: %w", credential.Account, err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		cleanup()
		return fmt.Errorf("file: set credential file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("file: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("file: commit credential for %q: %w", credential.Account, err)
	}
	return nil
}

func (s *CredentialStore) ListAccounts(context.Context) ([]string, error) {
	s.mu.Lock()
	entries, err := os.ReadDir(s.dir)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("file: list accounts: %w", err)
	}

	accounts := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, fileExtension) {
			continue
		}
		accounts = append(accounts, strings.TrimSuffix(name, fileExtension))
	}
	sort.Strings(accounts)
	return accounts, nil
}

func (s *CredentialStore) pathFor(account string) (string, error) {
	encoded := encodeAccountName(strings.TrimSpace(account))
	if encoded == "" {
		return "", fmt.Errorf("file: account name %q does not map to a file name", account)
	}
	return filepath.Join(s.dir, encoded+fileExtension), nil
}

// encodeAccountName maps an account to a safe file name. Alphanumerics plus
// a handful of punctuation pass through; everything else, path separators
// included, becomes an underscore. '@' and '.' are kept so email-shaped
// accounts stay recognizable on disk.
func encodeAccountName(account string) string {
	var b strings.Builder
	for _, r := range account {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '@' || r == '.' || r == '-' || r == '_' || r == '+':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), ".")
}

var _ core.CredentialStore = (*CredentialStore)(nil)
