package command

import (
	"context"

	"github.com/goliatone/go-accounts/core"
	gocmd "github.com/goliatone/go-command"
)

type MutatingService interface {
	Setup(ctx context.Context, req core.SetupRequest) (core.Credential, error)
	EnsureFresh(ctx context.Context, account string) (core.EnsureFreshResult, error)
	Reconfigure(ctx context.Context, req core.ReconfigureRequest) (core.Credential, error)
}

type SetupCommand struct {
	service MutatingService
}

func NewSetupCommand(service MutatingService) *SetupCommand {
	return &SetupCommand{service: service}
}

func (c *SetupCommand) Execute(ctx context.Context, msg SetupMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: setup service is required")
	}
	out, err := c.service.Setup(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type EnsureFreshCommand struct {
	service MutatingService
}

func NewEnsureFreshCommand(service MutatingService) *EnsureFreshCommand {
	return &EnsureFreshCommand{service: service}
}

func (c *EnsureFreshCommand) Execute(ctx context.Context, msg EnsureFreshMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: ensure-fresh service is required")
	}
	out, err := c.service.EnsureFresh(ctx, msg.Account)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ReconfigureCommand struct {
	service MutatingService
}

func NewReconfigureCommand(service MutatingService) *ReconfigureCommand {
	return &ReconfigureCommand{service: service}
}

func (c *ReconfigureCommand) Execute(ctx context.Context, msg ReconfigureMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: reconfigure service is required")
	}
	out, err := c.service.Reconfigure(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
