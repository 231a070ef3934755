package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-embedded-api/core"
)

type MutatingService interface {
	Request(ctx context.Context, opts core.RequestOptions, creds core.Credentials) (core.CallResult, error)
	ClearLog(ctx context.Context) error
	ExportLog(ctx context.Context) (string, []byte, error)
	PruneLog(ctx context.Context) (int, error)
	ForceTokenRefresh(ctx context.Context, kind core.TokenKind) error
	InvalidateTokens(kind core.TokenKind)
}

type ExecuteRequestCommand struct {
	service MutatingService
}

func NewExecuteRequestCommand(service MutatingService) *ExecuteRequestCommand {
	return &ExecuteRequestCommand{service: service}
}

func (c *ExecuteRequestCommand) Execute(ctx context.Context, msg ExecuteRequestMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: request service is required")
	}
	out, err := c.service.Request(ctx, msg.Options, msg.Credentials)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ClearCallLogCommand struct {
	service MutatingService
}

func NewClearCallLogCommand(service MutatingService) *ClearCallLogCommand {
	return &ClearCallLogCommand{service: service}
}

func (c *ClearCallLogCommand) Execute(ctx context.Context, _ ClearCallLogMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: call log service is required")
	}
	return c.service.ClearLog(ctx)
}

// ExportResult is the export command output: the suggested filename plus the
// JSON document.
type ExportResult struct {
	Filename string
	Payload  []byte
}

type ExportCallLogCommand struct {
	service MutatingService
}

func NewExportCallLogCommand(service MutatingService) *ExportCallLogCommand {
	return &ExportCallLogCommand{service: service}
}

func (c *ExportCallLogCommand) Execute(ctx context.Context, _ ExportCallLogMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: call log service is required")
	}
	filename, payload, err := c.service.ExportLog(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, ExportResult{Filename: filename, Payload: payload})
	return nil
}

type PruneCallLogCommand struct {
	service MutatingService
}

func NewPruneCallLogCommand(service MutatingService) *PruneCallLogCommand {
	return &PruneCallLogCommand{service: service}
}

func (c *PruneCallLogCommand) Execute(ctx context.Context, _ PruneCallLogMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: call log service is required")
	}
	removed, err := c.service.PruneLog(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, removed)
	return nil
}

type ForceTokenRefreshCommand struct {
	service MutatingService
}

func NewForceTokenRefreshCommand(service MutatingService) *ForceTokenRefreshCommand {
	return &ForceTokenRefreshCommand{service: service}
}

func (c *ForceTokenRefreshCommand) Execute(ctx context.Context, msg ForceTokenRefreshMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	return c.service.ForceTokenRefresh(ctx, msg.Kind)
}

type InvalidateTokensCommand struct {
	service MutatingService
}

func NewInvalidateTokensCommand(service MutatingService) *InvalidateTokensCommand {
	return &InvalidateTokensCommand{service: service}
}

func (c *InvalidateTokensCommand) Execute(_ context.Context, msg InvalidateTokensMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	c.service.InvalidateTokens(msg.Kind)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
