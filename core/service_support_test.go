package core

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

type memStore struct {
	mu        sync.Mutex
	records   map[string]Credential
	saveCalls int
	saveErr   error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]Credential{}}
}

func (s *memStore) Load(_ context.Context, account string) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credential, ok := s.records[account]
	if !ok {
		return Credential{}, fmt.Errorf("%w: account %q", ErrCredentialNotFound, account)
	}
	return credential.Clone(), nil
}

func (s *memStore) Save(_ context.Context, credential Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records[credential.Account] = credential.Clone()
	return nil
}

func (s *memStore) ListAccounts(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := make([]string, 0, len(s.records))
	for account := range s.records {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (s *memStore) get(account string) (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credential, ok := s.records[account]
	return credential, ok
}

func (s *memStore) put(credential Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[credential.Account] = credential.Clone()
}

type stubTokenProvider struct {
	mu           sync.Mutex
	lastAuthReq  AuthCodeURLRequest
	exchangeTok  Token
	exchangeErr  error
	refreshTok   Token
	refreshErr   error
	refreshCalls int
	refreshDelay time.Duration
}

func (p *stubTokenProvider) AuthCodeURL(req AuthCodeURLRequest) (string, error) {
	p.mu.Lock()
	p.lastAuthReq = req
	p.mu.Unlock()
	return "https://auth.example/consent?state=" + req.State, nil
}

func (p *stubTokenProvider) Exchange(context.Context, ExchangeRequest) (Token, error) {
	if p.exchangeErr != nil {
		return Token{}, p.exchangeErr
	}
	return p.exchangeTok, nil
}

func (p *stubTokenProvider) Refresh(context.Context, RefreshTokenRequest) (Token, error) {
	p.mu.Lock()
	p.refreshCalls++
	delay := p.refreshDelay
	p.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if p.refreshErr != nil {
		return Token{}, p.refreshErr
	}
	return p.refreshTok, nil
}

func (p *stubTokenProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshCalls
}

func (p *stubTokenProvider) authState() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastAuthReq.State
}

// stubListenerFactory replays the state captured by the provider so the flow
// sees a matching redirect.
type stubListenerFactory struct {
	provider  *stubTokenProvider
	code      string
	awaitErr  error
	badState  string
	listenErr error
	closed    bool
}

func (f *stubListenerFactory) Listen(string) (CallbackListener, error) {
	if f.listenErr != nil {
		return nil, f.listenErr
	}
	return &stubListener{factory: f}, nil
}

type stubListener struct {
	factory *stubListenerFactory
}

func (l *stubListener) Await(context.Context) (CallbackResult, error) {
	if l.factory.awaitErr != nil {
		return CallbackResult{}, l.factory.awaitErr
	}
	state := l.factory.provider.authState()
	if l.factory.badState != "" {
		state = l.factory.badState
	}
	return CallbackResult{Code: l.factory.code, State: state}, nil
}

func (l *stubListener) RedirectURI() string {
	return "http://127.0.0.1:8484/oauth2/callback"
}

func (l *stubListener) Close() error {
	l.factory.closed = true
	return nil
}

type stubBrowser struct {
	urls []string
	err  error
}

func (b *stubBrowser) Open(url string) error {
	b.urls = append(b.urls, url)
	return b.err
}

type scriptedDoer struct {
	fn func(req *http.Request) (*http.Response, error)
}

func (d scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	return d.fn(req)
}

func futureExpiry(now time.Time, d time.Duration) *time.Time {
	expiry := now.Add(d).UTC()
	return &expiry
}
