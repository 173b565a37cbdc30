// Package callback captures a single OAuth2 authorization redirect on a
// loopback HTTP listener. Each listener serves exactly one flow: it binds,
// waits for the provider redirect, reports the outcome, and releases the
// port.
package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-accounts/core"
	glog "github.com/goliatone/go-logger/glog"
)

const DefaultPath = "/oauth2/callback"

const successPage = `<!DOCTYPE html>
<html>
<head><title>Authorization complete</title></head>
<body>
<h1>Authorization complete</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`

const failurePage = `<!DOCTYPE html>
<html>
<head><title>Authorization failed</title></head>
<body>
<h1>Authorization failed</h1>
<p>%s</p>
<p>Close this window and re-run setup from the terminal.</p>
</body>
</html>`

// Factory builds one-shot listeners bound to a fixed local address.
type Factory struct {
	Path   string
	Logger glog.Logger
}

func NewFactory(logger glog.Logger) *Factory {
	return &Factory{Path: DefaultPath, Logger: glog.Ensure(logger)}
}

// Listen binds addr immediately. A busy port surfaces here as the net error,
// never as a retry.
func (f *Factory) Listen(addr string) (core.CallbackListener, error) {
	path := DefaultPath
	var logger glog.Logger
	if f != nil {
		if strings.TrimSpace(f.Path) != "" {
			path = f.Path
		}
		logger = f.Logger
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("callback: bind %s: %w", addr, err)
	}

	l := &Listener{
		path:    path,
		logger:  glog.Ensure(logger),
		ln:      ln,
		results: make(chan outcome, 1),
	}
	l.server = &http.Server{
		Handler:           http.HandlerFunc(l.handle),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if serveErr := l.server.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			l.deliver(outcome{err: fmt.Errorf("callback: listener stopped: %w", serveErr)})
		}
	}()
	return l, nil
}

type outcome struct {
	result core.CallbackResult
	err    error
}

// Listener is a single-use redirect capture. Await returns the first
// terminal event: an authorization code, a provider error, ctx expiry, or
// listener shutdown. Requests to other paths, or to the redirect path
// without a code or error parameter, get a 404 and do not end the wait.
type Listener struct {
	path    string
	logger  glog.Logger
	ln      net.Listener
	server  *http.Server
	results chan outcome

	deliverOnce sync.Once
	closeOnce   sync.Once
	closeErr    error

	mu   sync.Mutex
	done bool
}

func (l *Listener) RedirectURI() string {
	return "http://" + l.ln.Addr().String() + l.path
}

func (l *Listener) Await(ctx context.Context) (core.CallbackResult, error) {
	select {
	case out := <-l.results:
		if out.err != nil {
			return core.CallbackResult{}, out.err
		}
		return out.result, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return core.CallbackResult{}, fmt.Errorf("%w: no redirect received at %s", core.ErrCallbackTimeout, l.RedirectURI())
		}
		return core.CallbackResult{}, ctx.Err()
	}
}

// Close shuts the server down and releases the port. Safe to call more than
// once and after Await has returned.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.server.Close()
	})
	return l.closeErr
}

func (l *Listener) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != l.path {
		http.NotFound(w, r)
		return
	}

	// Only a redirect carrying a code or an error outcome ends the flow. A
	// stray GET on the redirect path (prefetch, scanner, stale link) gets a
	// 404 and the listener keeps waiting for the real redirect.
	query := r.URL.Query()
	providerErr := strings.TrimSpace(query.Get("error"))
	code := strings.TrimSpace(query.Get("code"))
	if providerErr == "" && code == "" {
		http.NotFound(w, r)
		return
	}

	l.mu.Lock()
	alreadyDone := l.done
	l.done = true
	l.mu.Unlock()
	if alreadyDone {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusGone)
		fmt.Fprintf(w, failurePage, "This authorization flow already finished.")
		return
	}

	if providerErr != "" {
		detail := providerErr
		if desc := strings.TrimSpace(query.Get("error_description")); desc != "" {
			detail = providerErr + ": " + desc
		}
		l.logger.Debug("authorization redirect reported an error", "error", detail)
		l.writePage(w, http.StatusOK, fmt.Sprintf(failurePage, "The provider reported: "+detail))
		l.deliver(outcome{err: fmt.Errorf("%w: %s", core.ErrAuthorizationDenied, detail)})
		return
	}

	l.writePage(w, http.StatusOK, successPage)
	l.deliver(outcome{result: core.CallbackResult{
		Code:  code,
		State: strings.TrimSpace(query.Get("state")),
	}})
}

func (l *Listener) writePage(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (l *Listener) deliver(out outcome) {
	l.deliverOnce.Do(func() {
		l.results <- out
	})
}

var _ core.ListenerFactory = (*Factory)(nil)
var _ core.CallbackListener = (*Listener)(nil)
