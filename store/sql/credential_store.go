// Package sqlstore persists account credentials in a relational table via
// bun. The token material travels in an opaque payload column so the at-rest
// wire format matches the file store byte for byte.
package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-accounts/core"
	"github.com/goliatone/go-accounts/security"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type CredentialStore struct {
	db      *bun.DB
	repo    repository.Repository[*accountCredentialRecord]
	codec   core.CredentialCodec
	secrets core.SecretProvider
}

func (s *CredentialStore) WithSecretProvider(provider core.SecretProvider) *CredentialStore {
	if s != nil {
		s.secrets = provider
	}
	return s
}

func (s *CredentialStore) Load(ctx context.Context, account string) (core.Credential, error) {
	if s == nil || s.repo == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return core.Credential{}, fmt.Errorf("sqlstore: account is required")
	}

	records, _, err := s.repo.List(ctx,
		repository.SelectBy("account", "=", account),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Credential{}, err
	}
	if len(records) == 0 {
		return core.Credential{}, fmt.Errorf("%w: account %q", core.ErrCredentialNotFound, account)
	}
	return s.toDomain(ctx, records[0])
}

// Save upserts by account: the record is rewritten in full inside one
// transaction.
func (s *CredentialStore) Save(ctx context.Context, credential core.Credential) error {
	if s == nil || s.repo == nil || s.db == nil {
		return fmt.Errorf("sqlstore: credential store is not configured")
	}
	if err := credential.Validate(); err != nil {
		return err
	}

	payload, err := s.codec.Encode(credential)
	if err != nil {
		return err
	}
	keyID := ""
	keyVersion := 0
	if s.secrets != nil {
		payload, err = s.secrets.Encrypt(ctx, payload)
		if err != nil {
			return fmt.Errorf("sqlstore: encrypt credential for %q: %w", credential.Account, err)
		}
		if keyed, ok := s.secrets.(interface {
			KeyID() string
			Version() int
		}); ok {
			keyID = keyed.KeyID()
			keyVersion = keyed.Version()
		}
	}

	now := time.Now().UTC()
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, updateErr := tx.NewUpdate().
			Model((*accountCredentialRecord)(nil)).
			Set("client_id = ?", credential.ClientID).
			Set("token_type = ?", credential.TokenType).
			Set("payload = ?", payload).
			Set("payload_format = ?", s.codec.Format()).
			Set("payload_version = ?", s.codec.Version()).
			Set("scopes = ?", marshalJSONColumn(sortedStrings(credential.Scopes))).
			Set("enabled_features = ?", marshalJSONColumn(credential.EnabledFeatures)).
			Set("expires_at = ?", credential.Expiry).
			Set("encryption_key_id = ?", keyID).
			Set("encryption_version = ?", keyVersion).
			Set("updated_at = ?", now).
			Where("account = ?", credential.Account).
			Exec(ctx)
		if updateErr != nil {
			return updateErr
		}
		affected, affectedErr := result.RowsAffected()
		if affectedErr == nil && affected > 0 {
			return nil
		}

		record := &accountCredentialRecord{
			Account:           credential.Account,
			ClientID:          credential.ClientID,
			TokenType:         credential.TokenType,
			Payload:           payload,
			PayloadFormat:     s.codec.Format(),
			PayloadVersion:    s.codec.Version(),
			Scopes:            sortedStrings(credential.Scopes),
			EnabledFeatures:   cloneFeatureMap(credential.EnabledFeatures),
			ExpiresAt:         credential.Expiry,
			EncryptionKeyID:   keyID,
			EncryptionVersion: keyVersion,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		_, createErr := s.repo.CreateTx(ctx, tx, record)
		return createErr
	})
}

func (s *CredentialStore) ListAccounts(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: credential store is not configured")
	}
	var accounts []string
	if err := s.db.NewSelect().
		Model((*accountCredentialRecord)(nil)).
		Column("account").
		Order("account ASC").
		Scan(ctx, &accounts); err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []string{}
	}
	return accounts, nil
}

func (s *CredentialStore) toDomain(ctx context.Context, record *accountCredentialRecord) (core.Credential, error) {
	if record == nil {
		return core.Credential{}, fmt.Errorf("%w: empty record", core.ErrCredentialCorrupt)
	}
	payload := record.Payload
	if security.IsEnvelope(payload) {
		if s.secrets == nil {
			return core.Credential{}, fmt.Errorf("%w: account %q is encrypted and no secret provider is configured", core.ErrCredentialCorrupt, record.Account)
		}
		plaintext, err := s.secrets.Decrypt(ctx, payload)
		if err != nil {
			return core.Credential{}, fmt.Errorf("%w: account %q: %v", core.ErrCredentialCorrupt, record.Account, err)
		}
		payload = plaintext
	}
	credential, err := s.codec.Decode(payload)
	if err != nil {
		return core.Credential{}, fmt.Errorf("%w: account %q: %v", core.ErrCredentialCorrupt, record.Account, err)
	}
	if credential.Account == "" {
		credential.Account = record.Account
	}
	return credential, nil
}

func marshalJSONColumn(value any) json.RawMessage {
	data, err := json.Marshal(value)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}

func sortedStrings(input []string) []string {
	out := append([]string(nil), input...)
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return out
}

func cloneFeatureMap(input map[string]bool) map[string]bool {
	out := make(map[string]bool, len(input))
	for name, enabled := range input {
		out[name] = enabled
	}
	return out
}

var _ core.CredentialStore = (*CredentialStore)(nil)
