package command

import (
	"context"
	"fmt"
	"testing"

	"github.com/goliatone/go-accounts/core"
	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
)

type stubMutatingService struct {
	setupFn       func(ctx context.Context, req core.SetupRequest) (core.Credential, error)
	ensureFreshFn func(ctx context.Context, account string) (core.EnsureFreshResult, error)
	reconfigureFn func(ctx context.Context, req core.ReconfigureRequest) (core.Credential, error)
}

func (s stubMutatingService) Setup(ctx context.Context, req core.SetupRequest) (core.Credential, error) {
	if s.setupFn == nil {
		return core.Credential{}, fmt.Errorf("unexpected setup call")
	}
	return s.setupFn(ctx, req)
}

func (s stubMutatingService) EnsureFresh(ctx context.Context, account string) (core.EnsureFreshResult, error) {
	if s.ensureFreshFn == nil {
		return core.EnsureFreshResult{}, fmt.Errorf("unexpected ensure fresh call")
	}
	return s.ensureFreshFn(ctx, account)
}

func (s stubMutatingService) Reconfigure(ctx context.Context, req core.ReconfigureRequest) (core.Credential, error) {
	if s.reconfigureFn == nil {
		return core.Credential{}, fmt.Errorf("unexpected reconfigure call")
	}
	return s.reconfigureFn(ctx, req)
}

func TestSetupCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	expected := core.Credential{Account: "user@example.com", AccessToken: "tok-1"}
	called := false

	svc := stubMutatingService{
		setupFn: func(_ context.Context, req core.SetupRequest) (core.Credential, error) {
			called = true
			if req.Account != "user@example.com" {
				t.Fatalf("expected account user@example.com, got %q", req.Account)
			}
			return expected, nil
		},
	}

	cmd := NewSetupCommand(svc)
	collector := gocmd.NewResult[core.Credential]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, SetupMessage{Request: core.SetupRequest{
		Account:      "user@example.com",
		ClientID:     "client-1",
		ClientSecret: "secret-1",
	}})
	if err != nil {
		t.Fatalf("execute setup: %v", err)
	}
	if !called {
		t.Fatalf("expected setup service invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.Account != expected.Account || result.AccessToken != expected.AccessToken {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestMutationCommands_DelegateToService(t *testing.T) {
	t.Run("ensure fresh", func(t *testing.T) {
		expected := core.EnsureFreshResult{Refreshed: true}
		called := false
		svc := stubMutatingService{
			ensureFreshFn: func(_ context.Context, account string) (core.EnsureFreshResult, error) {
				called = true
				if account != "user@example.com" {
					t.Fatalf("unexpected account: %q", account)
				}
				return expected, nil
			},
		}
		cmd := NewEnsureFreshCommand(svc)
		collector := gocmd.NewResult[core.EnsureFreshResult]()
		ctx := gocmd.ContextWithResult(context.Background(), collector)
		if err := cmd.Execute(ctx, EnsureFreshMessage{Account: "user@example.com"}); err != nil {
			t.Fatalf("execute ensure fresh: %v", err)
		}
		if !called {
			t.Fatalf("expected ensure fresh invocation")
		}
		stored, ok := collector.Load()
		if !ok {
			t.Fatalf("expected ensure fresh result")
		}
		if !stored.Refreshed {
			t.Fatalf("unexpected result: %#v", stored)
		}
	})

	t.Run("reconfigure", func(t *testing.T) {
		called := false
		svc := stubMutatingService{
			reconfigureFn: func(_ context.Context, req core.ReconfigureRequest) (core.Credential, error) {
				called = true
				if req.RoundSelector != "all" {
					t.Fatalf("unexpected selector: %q", req.RoundSelector)
				}
				return core.Credential{Account: req.Account}, nil
			},
		}
		cmd := NewReconfigureCommand(svc)
		err := cmd.Execute(context.Background(), ReconfigureMessage{Request: core.ReconfigureRequest{
			Account:       "user@example.com",
			RoundSelector: "all",
		}})
		if err != nil {
			t.Fatalf("execute reconfigure: %v", err)
		}
		if !called {
			t.Fatalf("expected reconfigure invocation")
		}
	})

	t.Run("service errors pass through", func(t *testing.T) {
		svc := stubMutatingService{
			ensureFreshFn: func(context.Context, string) (core.EnsureFreshResult, error) {
				return core.EnsureFreshResult{}, fmt.Errorf("refresh failed")
			},
		}
		cmd := NewEnsureFreshCommand(svc)
		if err := cmd.Execute(context.Background(), EnsureFreshMessage{Account: "user@example.com"}); err == nil {
			t.Fatalf("expected service error to surface")
		}
	})
}

func TestMessages_Validate(t *testing.T) {
	cases := []struct {
		name    string
		msg     interface{ Validate() error }
		wantErr bool
	}{
		{"setup ok", SetupMessage{Request: core.SetupRequest{Account: "a", ClientID: "c", ClientSecret: "s"}}, false},
		{"setup missing account", SetupMessage{Request: core.SetupRequest{ClientID: "c", ClientSecret: "s"}}, true},
		{"setup missing client id", SetupMessage{Request: core.SetupRequest{Account: "a", ClientSecret: "s"}}, true},
		{"setup missing client secret", SetupMessage{Request: core.SetupRequest{Account: "a", ClientID: "c"}}, true},
		{"ensure fresh ok", EnsureFreshMessage{Account: "a"}, false},
		{"ensure fresh missing account", EnsureFreshMessage{}, true},
		{"reconfigure with selector", ReconfigureMessage{Request: core.ReconfigureRequest{Account: "a", RoundSelector: "1,2"}}, false},
		{"reconfigure with overrides", ReconfigureMessage{Request: core.ReconfigureRequest{Account: "a", Overrides: []string{"+ai"}}}, false},
		{"reconfigure without changes", ReconfigureMessage{Request: core.ReconfigureRequest{Account: "a"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected validation error")
				}
				var richErr *goerrors.Error
				if !goerrors.As(err, &richErr) {
					t.Fatalf("expected a categorized error, got %T: %v", err, err)
				}
				if richErr.Category != goerrors.CategoryValidation {
					t.Fatalf("expected validation category, got %v", richErr.Category)
				}
				if richErr.TextCode != core.AccountsErrorBadInput {
					t.Fatalf("expected text code %q, got %q", core.AccountsErrorBadInput, richErr.TextCode)
				}
				if len(richErr.AllValidationErrors()) == 0 {
					t.Fatalf("expected the failing field to be named")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}
