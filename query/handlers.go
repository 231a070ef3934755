package query

import (
	"context"

	"github.com/goliatone/go-embedded-api/core"
)

type CallLogReader interface {
	ListCalls(ctx context.Context) ([]core.CallEntry, error)
	FilterCalls(ctx context.Context, filter core.EntryFilter) ([]core.CallEntry, error)
	CallByRequestID(ctx context.Context, requestID string) (core.CallEntry, error)
	CountCalls(ctx context.Context) (int, error)
}

type TokenMetadataReader interface {
	TokenMetadata(kind core.TokenKind) core.TokenMetadata
}

type LatestCallReader interface {
	LatestCall(area core.FeatureArea) (core.CallEntry, bool)
	LatestCalls() map[core.FeatureArea]core.CallEntry
}

type ListCallLogQuery struct {
	reader CallLogReader
}

func NewListCallLogQuery(reader CallLogReader) *ListCallLogQuery {
	return &ListCallLogQuery{reader: reader}
}

func (q *ListCallLogQuery) Query(ctx context.Context, _ ListCallLogMessage) ([]core.CallEntry, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: call log reader is required")
	}
	return q.reader.ListCalls(ctx)
}

type FilterCallLogQuery struct {
	reader CallLogReader
}

func NewFilterCallLogQuery(reader CallLogReader) *FilterCallLogQuery {
	return &FilterCallLogQuery{reader: reader}
}

func (q *FilterCallLogQuery) Query(ctx context.Context, msg FilterCallLogMessage) ([]core.CallEntry, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: call log reader is required")
	}
	return q.reader.FilterCalls(ctx, msg.Filter)
}

type GetCallByRequestIDQuery struct {
	reader CallLogReader
}

func NewGetCallByRequestIDQuery(reader CallLogReader) *GetCallByRequestIDQuery {
	return &GetCallByRequestIDQuery{reader: reader}
}

func (q *GetCallByRequestIDQuery) Query(ctx context.Context, msg GetCallByRequestIDMessage) (core.CallEntry, error) {
	if q == nil || q.reader == nil {
		return core.CallEntry{}, queryDependencyError("query: call log reader is required")
	}
	return q.reader.CallByRequestID(ctx, msg.RequestID)
}

type CountCallLogQuery struct {
	reader CallLogReader
}

func NewCountCallLogQuery(reader CallLogReader) *CountCallLogQuery {
	return &CountCallLogQuery{reader: reader}
}

func (q *CountCallLogQuery) Query(ctx context.Context, _ CountCallLogMessage) (int, error) {
	if q == nil || q.reader == nil {
		return 0, queryDependencyError("query: call log reader is required")
	}
	return q.reader.CountCalls(ctx)
}

type TokenMetadataQuery struct {
	reader TokenMetadataReader
}

func NewTokenMetadataQuery(reader TokenMetadataReader) *TokenMetadataQuery {
	return &TokenMetadataQuery{reader: reader}
}

func (q *TokenMetadataQuery) Query(_ context.Context, msg TokenMetadataMessage) (core.TokenMetadata, error) {
	if q == nil || q.reader == nil {
		return core.TokenMetadata{}, queryDependencyError("query: token metadata reader is required")
	}
	return q.reader.TokenMetadata(msg.Kind), nil
}

type LatestCallQuery struct {
	reader LatestCallReader
}

func NewLatestCallQuery(reader LatestCallReader) *LatestCallQuery {
	return &LatestCallQuery{reader: reader}
}

// LatestCallResult carries the cached entry plus whether the area has seen
// any call at all.
type LatestCallResult struct {
	Entry core.CallEntry
	Found bool
}

func (q *LatestCallQuery) Query(_ context.Context, msg LatestCallMessage) (LatestCallResult, error) {
	if q == nil || q.reader == nil {
		return LatestCallResult{}, queryDependencyError("query: latest call reader is required")
	}
	entry, found := q.reader.LatestCall(msg.FeatureArea)
	return LatestCallResult{Entry: entry, Found: found}, nil
}

type LatestCallsQuery struct {
	reader LatestCallReader
}

func NewLatestCallsQuery(reader LatestCallReader) *LatestCallsQuery {
	return &LatestCallsQuery{reader: reader}
}

func (q *LatestCallsQuery) Query(_ context.Context, _ LatestCallsMessage) (map[core.FeatureArea]core.CallEntry, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: latest call reader is required")
	}
	return q.reader.LatestCalls(), nil
}
