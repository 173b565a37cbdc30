package core

import (
	"context"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// CredentialStore persists one Credential per account. Implementations must
// make Save atomic with respect to partial writes; they perform no network
// access.
type CredentialStore interface {
	Load(ctx context.Context, account string) (Credential, error)
	Save(ctx context.Context, credential Credential) error
	ListAccounts(ctx context.Context) ([]string, error)
}

// Token is the result of a token-endpoint exchange.
type Token struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresAt    *time.Time
}

type AuthCodeURLRequest struct {
	ClientID    string
	RedirectURI string
	State       string
	Scopes      []string
}

type ExchangeRequest struct {
	ClientID     string
	ClientSecret string
	Code         string
	RedirectURI  string
}

type RefreshTokenRequest struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Scopes       []string
}

// TokenProvider abstracts the authorization server: authorization URL
// construction plus the two token-endpoint grants this module performs.
type TokenProvider interface {
	AuthCodeURL(req AuthCodeURLRequest) (string, error)
	Exchange(ctx context.Context, req ExchangeRequest) (Token, error)
	Refresh(ctx context.Context, req RefreshTokenRequest) (Token, error)
}

// CallbackResult carries the values a successful redirect delivers.
type CallbackResult struct {
	Code  string
	State string
}

// CallbackListener captures exactly one authorization redirect. Await blocks
// until a terminal state: a code, a provider error, the listener timeout, or
// ctx cancellation. Close always releases the port.
type CallbackListener interface {
	Await(ctx context.Context) (CallbackResult, error)
	RedirectURI() string
	Close() error
}

// ListenerFactory binds the fixed local callback address. A bind failure is
// reported immediately; it is never retried.
type ListenerFactory interface {
	Listen(addr string) (CallbackListener, error)
}

// BrowserOpener drives the user's browser to the authorization URL.
type BrowserOpener interface {
	Open(url string) error
}

// HTTPDoer is satisfied by *http.Client and by scripted test doubles.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type LockHandle interface {
	Unlock(ctx context.Context) error
}

// AccountLocker serializes refresh for a single account within the process.
type AccountLocker interface {
	Acquire(ctx context.Context, account string, ttl time.Duration) (LockHandle, error)
}

// SecretProvider encrypts credential payloads at rest.
type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// Signer attaches credentials to an outgoing request.
type Signer interface {
	Sign(ctx context.Context, req *http.Request, credential Credential) error
}

// CredentialCodec serializes a Credential for storage backends that keep an
// opaque payload.
type CredentialCodec interface {
	Format() string
	Version() int
	Encode(credential Credential) ([]byte, error)
	Decode(payload []byte) (Credential, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type SetupRequest struct {
	Account       string
	ClientID      string
	ClientSecret  string
	ScopeNames    []string
	RoundSelector string
	Overrides     []string
}

type ReconfigureRequest struct {
	Account       string
	RoundSelector string
	Overrides     []string
}

type EnsureFreshResult struct {
	Credential       Credential
	State            CredentialTokenState
	RefreshAttempted bool
	Refreshed        bool
}

// AccountService is the operation surface consumed by the command and query
// packages and by downstream CLI tools.
type AccountService interface {
	Setup(ctx context.Context, req SetupRequest) (Credential, error)
	EnsureFresh(ctx context.Context, account string) (EnsureFreshResult, error)
	Client(ctx context.Context, account string) (*Client, error)
	Reconfigure(ctx context.Context, req ReconfigureRequest) (Credential, error)
	GetCredential(ctx context.Context, account string) (Credential, error)
	ListAccounts(ctx context.Context) ([]string, error)
}
