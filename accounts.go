// Package accounts manages OAuth2 credentials for multiple accounts in CLI
// tools: interactive setup through a local callback listener, transparent
// token refresh, and per-account feature enablement.
package accounts

import "github.com/goliatone/go-accounts/core"

type Config = core.Config
type StorageConfig = core.StorageConfig
type CallbackConfig = core.CallbackConfig
type OAuthConfig = core.OAuthConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type Credential = core.Credential
type Token = core.Token
type SetupRequest = core.SetupRequest
type ReconfigureRequest = core.ReconfigureRequest
type EnsureFreshResult = core.EnsureFreshResult
type CredentialTokenState = core.CredentialTokenState
type Client = core.Client

type CredentialStore = core.CredentialStore
type TokenProvider = core.TokenProvider
type CallbackListener = core.CallbackListener
type ListenerFactory = core.ListenerFactory
type BrowserOpener = core.BrowserOpener
type AccountLocker = core.AccountLocker
type SecretProvider = core.SecretProvider
type Signer = core.Signer
type FeatureRound = core.FeatureRound

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorFactory    = core.WithErrorFactory
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithCredentialStore = core.WithCredentialStore
	WithTokenProvider   = core.WithTokenProvider
	WithListenerFactory = core.WithListenerFactory
	WithBrowserOpener   = core.WithBrowserOpener
	WithAccountLocker   = core.WithAccountLocker
	WithSigner          = core.WithSigner
	WithHTTPClient      = core.WithHTTPClient
	WithClock           = core.WithClock
)

var (
	ErrCredentialNotFound  = core.ErrCredentialNotFound
	ErrCredentialCorrupt   = core.ErrCredentialCorrupt
	ErrReauthRequired      = core.ErrReauthRequired
	ErrCallbackTimeout     = core.ErrCallbackTimeout
	ErrAuthorizationDenied = core.ErrAuthorizationDenied
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func FeatureRounds() []FeatureRound {
	return core.FeatureRounds()
}

func KnownScopeNames() []string {
	return core.KnownScopeNames()
}
