package accounts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-accounts/callback"
	accountscommand "github.com/goliatone/go-accounts/command"
	"github.com/goliatone/go-accounts/core"
	"github.com/goliatone/go-accounts/providers"
	accountsquery "github.com/goliatone/go-accounts/query"
	filestore "github.com/goliatone/go-accounts/store/file"
)

// New builds a ready-to-use service: anything not supplied through options
// gets a default wired from the resolved configuration, meaning a file
// store under the user's config directory, the OAuth2 token client for the
// configured endpoints, a loopback callback listener, and the platform
// browser opener.
func New(cfg Config, opts ...Option) (*Service, error) {
	probe, err := core.NewService(cfg, opts...)
	if err != nil {
		return nil, err
	}
	resolved := probe.Config()
	deps := probe.Dependencies()

	extra := make([]Option, 0, 4)
	if deps.CredentialStore == nil {
		dir, dirErr := resolveStorageDir(resolved)
		if dirErr != nil {
			return nil, dirErr
		}
		store, storeErr := filestore.NewCredentialStore(dir)
		if storeErr != nil {
			return nil, storeErr
		}
		extra = append(extra, core.WithCredentialStore(store))
	}
	if deps.TokenProvider == nil {
		provider, provErr := providers.NewOAuth2Provider(providers.OAuth2Config{
			AuthURL:            resolved.OAuth.AuthURL,
			TokenURL:           resolved.OAuth.TokenURL,
			ClientSecretInBody: true,
			HTTPClient:         deps.HTTPClient,
		})
		if provErr != nil {
			return nil, provErr
		}
		extra = append(extra, core.WithTokenProvider(provider))
	}
	if deps.ListenerFactory == nil {
		extra = append(extra, core.WithListenerFactory(callback.NewFactory(deps.Logger)))
	}
	if deps.BrowserOpener == nil {
		extra = append(extra, core.WithBrowserOpener(core.ExecBrowserOpener{}))
	}

	if len(extra) == 0 {
		return probe, nil
	}
	return core.NewService(cfg, append(append([]Option(nil), opts...), extra...)...)
}

func resolveStorageDir(cfg Config) (string, error) {
	if dir := strings.TrimSpace(cfg.Storage.Dir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("accounts: resolve config directory: %w", err)
	}
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "accounts"
	}
	return filepath.Join(base, name), nil
}

type CommandQueryService interface {
	accountscommand.MutatingService
	accountsquery.CredentialReader
}

type Commands struct {
	Setup       *accountscommand.SetupCommand
	EnsureFresh *accountscommand.EnsureFreshCommand
	Reconfigure *accountscommand.ReconfigureCommand
}

type Queries struct {
	GetCredential *accountsquery.GetCredentialQuery
	ListAccounts  *accountsquery.ListAccountsQuery
	ListFeatures  *accountsquery.ListFeaturesQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("accounts: command/query service is required")
	}
	facade := &Facade{service: service}
	facade.commands = Commands{
		Setup:       accountscommand.NewSetupCommand(service),
		EnsureFresh: accountscommand.NewEnsureFreshCommand(service),
		Reconfigure: accountscommand.NewReconfigureCommand(service),
	}
	facade.queries = Queries{
		GetCredential: accountsquery.NewGetCredentialQuery(service),
		ListAccounts:  accountsquery.NewListAccountsQuery(service),
		ListFeatures:  accountsquery.NewListFeaturesQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
