package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-embedded-api/core"
)

var (
	_ gocmd.Querier[ListCallLogMessage, []core.CallEntry]                       = (*ListCallLogQuery)(nil)
	_ gocmd.Querier[FilterCallLogMessage, []core.CallEntry]                     = (*FilterCallLogQuery)(nil)
	_ gocmd.Querier[GetCallByRequestIDMessage, core.CallEntry]                  = (*GetCallByRequestIDQuery)(nil)
	_ gocmd.Querier[CountCallLogMessage, int]                                   = (*CountCallLogQuery)(nil)
	_ gocmd.Querier[TokenMetadataMessage, core.TokenMetadata]                   = (*TokenMetadataQuery)(nil)
	_ gocmd.Querier[LatestCallMessage, LatestCallResult]                        = (*LatestCallQuery)(nil)
	_ gocmd.Querier[LatestCallsMessage, map[core.FeatureArea]core.CallEntry]    = (*LatestCallsQuery)(nil)
)
