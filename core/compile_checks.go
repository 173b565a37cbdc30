package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ AccountService  = (*Service)(nil)
	_ AccountLocker   = (*MemoryAccountLocker)(nil)
	_ Signer          = BearerTokenSigner{}
	_ BrowserOpener   = ExecBrowserOpener{}
	_ CredentialCodec = JSONCredentialCodec{}
	_ MetricsRecorder = NopMetricsRecorder{}
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ OptionsResolver = GoOptionsResolver{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
