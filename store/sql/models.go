package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

// accountCredentialRecord keeps the token material in an opaque payload
// column (codec output, optionally encrypted) and mirrors the queryable
// parts into plain columns.
type accountCredentialRecord struct {
	bun.BaseModel `bun:"table:account_credentials,alias:ac"`

	ID                string          `bun:"id,pk"`
	Account           string          `bun:"account,notnull,unique"`
	ClientID          string          `bun:"client_id,notnull"`
	TokenType         string          `bun:"token_type"`
	Payload           []byte          `bun:"payload,notnull"`
	PayloadFormat     string          `bun:"payload_format,notnull"`
	PayloadVersion    int             `bun:"payload_version,notnull"`
	Scopes            []string        `bun:"scopes,type:jsonb,notnull"`
	EnabledFeatures   map[string]bool `bun:"enabled_features,type:jsonb,notnull"`
	ExpiresAt         *time.Time      `bun:"expires_at,nullzero"`
	EncryptionKeyID   string          `bun:"encryption_key_id"`
	EncryptionVersion int             `bun:"encryption_version"`
	CreatedAt         time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
