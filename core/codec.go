package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const credentialPayloadVersion = 1

type credentialPayload struct {
	Version         int             `json:"version"`
	Account         string          `json:"account"`
	ClientID        string          `json:"client_id"`
	ClientSecret    string          `json:"client_secret,omitempty"`
	TokenType       string          `json:"token_type,omitempty"`
	AccessToken     string          `json:"access_token,omitempty"`
	RefreshToken    string          `json:"refresh_token,omitempty"`
	Scopes          []string        `json:"scopes,omitempty"`
	EnabledFeatures map[string]bool `json:"enabled_features,omitempty"`
	Expiry          *time.Time      `json:"expiry,omitempty"`
	CreatedAt       time.Time       `json:"created_at,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at,omitempty"`
}

// JSONCredentialCodec serializes credentials as a versioned JSON payload.
// Decode is strict: unknown keys mean the payload was written by something
// else and the record is treated as corrupt by callers.
type JSONCredentialCodec struct{}

func (JSONCredentialCodec) Format() string { return "json" }

func (JSONCredentialCodec) Version() int { return credentialPayloadVersion }

func (JSONCredentialCodec) Encode(credential Credential) ([]byte, error) {
	clone := credential.Clone()
	payload := credentialPayload{
		Version:         credentialPayloadVersion,
		Account:         clone.Account,
		ClientID:        clone.ClientID,
		ClientSecret:    clone.ClientSecret,
		TokenType:       clone.TokenType,
		AccessToken:     clone.AccessToken,
		RefreshToken:    clone.RefreshToken,
		Scopes:          clone.Scopes,
		EnabledFeatures: clone.EnabledFeatures,
		Expiry:          clone.Expiry,
		CreatedAt:       clone.CreatedAt,
		UpdatedAt:       clone.UpdatedAt,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("core: credential encode failed: %w", err)
	}
	return data, nil
}

func (JSONCredentialCodec) Decode(data []byte) (Credential, error) {
	var payload credentialPayload
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return Credential{}, fmt.Errorf("core: credential decode failed: %w", err)
	}
	if payload.Version != credentialPayloadVersion {
		return Credential{}, fmt.Errorf("core: unsupported credential payload version %d", payload.Version)
	}
	credential := Credential{
		Account:         payload.Account,
		ClientID:        payload.ClientID,
		ClientSecret:    payload.ClientSecret,
		TokenType:       payload.TokenType,
		AccessToken:     payload.AccessToken,
		RefreshToken:    payload.RefreshToken,
		Scopes:          payload.Scopes,
		EnabledFeatures: payload.EnabledFeatures,
		Expiry:          payload.Expiry,
		CreatedAt:       payload.CreatedAt,
		UpdatedAt:       payload.UpdatedAt,
	}
	return credential.Clone(), nil
}
