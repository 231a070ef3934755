package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-embedded-api/core"
)

const (
	TypeListCallLog       = "embeddedapi.query.call_log.list"
	TypeFilterCallLog     = "embeddedapi.query.call_log.filter"
	TypeGetCallByRequest  = "embeddedapi.query.call_log.by_request_id"
	TypeCountCallLog      = "embeddedapi.query.call_log.count"
	TypeTokenMetadata     = "embeddedapi.query.token.metadata"
	TypeLatestCall        = "embeddedapi.query.call_cache.latest"
	TypeLatestCallsByArea = "embeddedapi.query.call_cache.snapshot"
)

type ListCallLogMessage struct{}

func (ListCallLogMessage) Type() string { return TypeListCallLog }

func (ListCallLogMessage) Validate() error { return nil }

type FilterCallLogMessage struct {
	Filter core.EntryFilter
}

func (FilterCallLogMessage) Type() string { return TypeFilterCallLog }

func (m FilterCallLogMessage) Validate() error {
	if m.Filter.StatusMin != nil && m.Filter.StatusMax != nil && *m.Filter.StatusMin > *m.Filter.StatusMax {
		return fmt.Errorf("query: status range is inverted")
	}
	if m.Filter.From != nil && m.Filter.To != nil && m.Filter.From.After(*m.Filter.To) {
		return fmt.Errorf("query: time range is inverted")
	}
	return nil
}

type GetCallByRequestIDMessage struct {
	RequestID string
}

func (GetCallByRequestIDMessage) Type() string { return TypeGetCallByRequest }

func (m GetCallByRequestIDMessage) Validate() error {
	if strings.TrimSpace(m.RequestID) == "" {
		return fmt.Errorf("query: request id is required")
	}
	return nil
}

type CountCallLogMessage struct{}

func (CountCallLogMessage) Type() string { return TypeCountCallLog }

func (CountCallLogMessage) Validate() error { return nil }

type TokenMetadataMessage struct {
	Kind core.TokenKind
}

func (TokenMetadataMessage) Type() string { return TypeTokenMetadata }

func (m TokenMetadataMessage) Validate() error {
	return m.Kind.Validate()
}

type LatestCallMessage struct {
	FeatureArea core.FeatureArea
}

func (LatestCallMessage) Type() string { return TypeLatestCall }

func (LatestCallMessage) Validate() error { return nil }

type LatestCallsMessage struct{}

func (LatestCallsMessage) Type() string { return TypeLatestCallsByArea }

func (LatestCallsMessage) Validate() error { return nil }
