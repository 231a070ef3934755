package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-embedded-api/core"
)

const (
	TypeExecuteRequest    = "embeddedapi.command.request.execute"
	TypeClearCallLog      = "embeddedapi.command.call_log.clear"
	TypeExportCallLog     = "embeddedapi.command.call_log.export"
	TypePruneCallLog      = "embeddedapi.command.call_log.prune"
	TypeForceTokenRefresh = "embeddedapi.command.token.force_refresh"
	TypeInvalidateTokens  = "embeddedapi.command.token.invalidate"
)

type ExecuteRequestMessage struct {
	Options     core.RequestOptions
	Credentials core.Credentials
}

func (ExecuteRequestMessage) Type() string { return TypeExecuteRequest }

func (m ExecuteRequestMessage) Validate() error {
	if strings.TrimSpace(m.Options.Endpoint) == "" {
		return fmt.Errorf("command: endpoint is required")
	}
	if m.Options.TokenKind != "" {
		if err := m.Options.TokenKind.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type ClearCallLogMessage struct{}

func (ClearCallLogMessage) Type() string { return TypeClearCallLog }

func (ClearCallLogMessage) Validate() error { return nil }

type ExportCallLogMessage struct{}

func (ExportCallLogMessage) Type() string { return TypeExportCallLog }

func (ExportCallLogMessage) Validate() error { return nil }

type PruneCallLogMessage struct{}

func (PruneCallLogMessage) Type() string { return TypePruneCallLog }

func (PruneCallLogMessage) Validate() error { return nil }

type ForceTokenRefreshMessage struct {
	Kind core.TokenKind
}

func (ForceTokenRefreshMessage) Type() string { return TypeForceTokenRefresh }

func (m ForceTokenRefreshMessage) Validate() error {
	return m.Kind.Validate()
}

// InvalidateTokensMessage drops cached tokens. An empty Kind drops all of
// them.
type InvalidateTokensMessage struct {
	Kind core.TokenKind
}

func (InvalidateTokensMessage) Type() string { return TypeInvalidateTokens }

func (m InvalidateTokensMessage) Validate() error {
	if m.Kind == "" {
		return nil
	}
	return m.Kind.Validate()
}
