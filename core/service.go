package core

import (
	"context"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service implements the account credential lifecycle: interactive setup,
// freshness checks with refresh, and signed HTTP clients for downstream
// tools.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metrics         MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	credentialStore CredentialStore
	tokenProvider   TokenProvider
	listenerFactory ListenerFactory
	browserOpener   BrowserOpener
	accountLocker   AccountLocker
	signer          Signer
	httpClient      HTTPDoer
	nowFn           func() time.Time
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	CredentialStore CredentialStore
	TokenProvider   TokenProvider
	ListenerFactory ListenerFactory
	BrowserOpener   BrowserOpener
	AccountLocker   AccountLocker
	Signer          Signer
	HTTPClient      HTTPDoer
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("accounts", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("accounts"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.accountLocker == nil {
		builder.accountLocker = NewMemoryAccountLocker()
	}
	if builder.signer == nil {
		builder.signer = BearerTokenSigner{}
	}
	if builder.httpClient == nil {
		builder.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if builder.nowFn == nil {
		builder.nowFn = func() time.Time { return time.Now().UTC() }
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metrics:         builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		credentialStore: builder.credentialStore,
		tokenProvider:   builder.tokenProvider,
		listenerFactory: builder.listenerFactory,
		browserOpener:   builder.browserOpener,
		accountLocker:   builder.accountLocker,
		signer:          builder.signer,
		httpClient:      builder.httpClient,
		nowFn:           builder.nowFn,
	}, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metrics,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		CredentialStore: s.credentialStore,
		TokenProvider:   s.tokenProvider,
		ListenerFactory: s.listenerFactory,
		BrowserOpener:   s.browserOpener,
		AccountLocker:   s.accountLocker,
		Signer:          s.signer,
		HTTPClient:      s.httpClient,
	}
}

func (s *Service) now() time.Time {
	if s.nowFn == nil {
		return time.Now().UTC()
	}
	return s.nowFn()
}

func (s *Service) requireStore() (CredentialStore, error) {
	if s.credentialStore == nil {
		return nil, s.errorFactory("credential store is not configured", goerrors.CategoryInternal).
			WithTextCode(AccountsErrorInternal)
	}
	return s.credentialStore, nil
}

func (s *Service) requireTokenProvider() (TokenProvider, error) {
	if s.tokenProvider == nil {
		return nil, s.errorFactory("token provider is not configured", goerrors.CategoryInternal).
			WithTextCode(AccountsErrorInternal)
	}
	return s.tokenProvider, nil
}

func (s *Service) requireListenerFactory() (ListenerFactory, error) {
	if s.listenerFactory == nil {
		return nil, s.errorFactory("callback listener factory is not configured", goerrors.CategoryInternal).
			WithTextCode(AccountsErrorInternal)
	}
	return s.listenerFactory, nil
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
