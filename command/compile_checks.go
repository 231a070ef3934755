package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ExecuteRequestMessage]    = (*ExecuteRequestCommand)(nil)
	_ gocmd.Commander[ClearCallLogMessage]      = (*ClearCallLogCommand)(nil)
	_ gocmd.Commander[ExportCallLogMessage]     = (*ExportCallLogCommand)(nil)
	_ gocmd.Commander[PruneCallLogMessage]      = (*PruneCallLogCommand)(nil)
	_ gocmd.Commander[ForceTokenRefreshMessage] = (*ForceTokenRefreshCommand)(nil)
	_ gocmd.Commander[InvalidateTokensMessage]  = (*InvalidateTokensCommand)(nil)
)
