package core

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// The admin surface backs the command and query handlers: log lifecycle,
// token lifecycle, and the latest-call view.

func (s *Service) ListCalls(ctx context.Context) ([]CallEntry, error) {
	if s == nil || s.logStore == nil {
		return nil, newClientError("call log store unavailable", goerrors.CategoryOperation, ClientErrorStoreFailure)
	}
	entries, err := s.logStore.List(ctx)
	if err != nil {
		return nil, wrapClientError(err, goerrors.CategoryOperation, ClientErrorStoreFailure)
	}
	return entries, nil
}

func (s *Service) FilterCalls(ctx context.Context, filter EntryFilter) ([]CallEntry, error) {
	if s == nil || s.logStore == nil {
		return nil, newClientError("call log store unavailable", goerrors.CategoryOperation, ClientErrorStoreFailure)
	}
	entries, err := s.logStore.Filtered(ctx, filter)
	if err != nil {
		return nil, wrapClientError(err, goerrors.CategoryOperation, ClientErrorStoreFailure)
	}
	return entries, nil
}

func (s *Service) CallByRequestID(ctx context.Context, requestID string) (CallEntry, error) {
	if s == nil || s.logStore == nil {
		return CallEntry{}, newClientError("call log store unavailable", goerrors.CategoryOperation, ClientErrorStoreFailure)
	}
	entry, err := s.logStore.ByRequestID(ctx, requestID)
	if err != nil {
		return CallEntry{}, wrapClientError(err, goerrors.CategoryNotFound, ClientErrorNotFound)
	}
	return entry, nil
}

func (s *Service) CountCalls(ctx context.Context) (int, error) {
	if s == nil || s.logStore == nil {
		return 0, newClientError("call log store unavailable", goerrors.CategoryOperation, ClientErrorStoreFailure)
	}
	total, err := s.logStore.Count(ctx)
	if err != nil {
		return 0, wrapClientError(err, goerrors.CategoryOperation, ClientErrorStoreFailure)
	}
	return total, nil
}

// ClearLog empties the durable log and resets the latest-call cache.
func (s *Service) ClearLog(ctx context.Context) error {
	if s == nil || s.logStore == nil {
		return newClientError("call log store unavailable", goerrors.CategoryOperation, ClientErrorStoreFailure)
	}
	startedAt := s.now().UTC()
	if err := s.logStore.Clear(ctx); err != nil {
		s.observeCall(ctx, startedAt, "clear_log", false, map[string]any{"error": err.Error()})
		return wrapClientError(err, goerrors.CategoryOperation, ClientErrorStoreFailure)
	}
	if s.callCache != nil {
		s.callCache.Clear()
	}
	s.observeCall(ctx, startedAt, "clear_log", true, nil)
	return nil
}

// ExportLog snapshots the full log as a JSON document.
func (s *Service) ExportLog(ctx context.Context) (string, []byte, error) {
	entries, err := s.ListCalls(ctx)
	if err != nil {
		return "", nil, err
	}
	return ExportDocument(entries, s.now())
}

// PruneLog applies the configured retention policy when the store supports
// pruning. Stores without retention support report zero removals.
func (s *Service) PruneLog(ctx context.Context) (int, error) {
	if s == nil || s.logStore == nil {
		return 0, newClientError("call log store unavailable", goerrors.CategoryOperation, ClientErrorStoreFailure)
	}
	pruner, ok := s.logStore.(CallLogPruner)
	if !ok {
		return 0, nil
	}
	removed, err := pruner.Prune(ctx, s.config.RetentionPolicy())
	if err != nil {
		return 0, wrapClientError(err, goerrors.CategoryOperation, ClientErrorStoreFailure)
	}
	return removed, nil
}

// ForceTokenRefresh discards and re-fetches the token for a kind using the
// service credentials.
func (s *Service) ForceTokenRefresh(ctx context.Context, kind TokenKind) error {
	if s == nil || s.tokenSource == nil {
		return newClientError("token source unavailable", goerrors.CategoryOperation, ClientErrorAuthFailed)
	}
	if err := kind.Validate(); err != nil {
		return newClientError(err.Error(), goerrors.CategoryBadInput, ClientErrorBadInput)
	}
	admin, ok := s.tokenSource.(TokenAdmin)
	if !ok {
		return newClientError("token source does not support forced refresh", goerrors.CategoryOperation, ClientErrorAuthFailed)
	}
	clientID, clientSecret := s.credentials.PairFor(kind)
	if err := admin.ForceRefresh(ctx, TokenRequest{
		Kind:         kind,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Audience:     s.config.Token.DefaultAudience,
	}); err != nil {
		return wrapClientError(err, goerrors.CategoryAuth, ClientErrorAuthFailed)
	}
	return nil
}

// InvalidateTokens drops cached tokens, for one kind or all of them.
func (s *Service) InvalidateTokens(kind TokenKind) {
	if s == nil || s.tokenSource == nil {
		return
	}
	admin, ok := s.tokenSource.(TokenAdmin)
	if !ok {
		return
	}
	if kind == "" {
		admin.InvalidateAll()
		return
	}
	admin.Invalidate(kind)
}

// TokenMetadata reports the displayable token state for a kind. The zero
// value means no token source or no cached token.
func (s *Service) TokenMetadata(kind TokenKind) TokenMetadata {
	if s == nil || s.tokenSource == nil {
		return TokenMetadata{Kind: kind}
	}
	reader, ok := s.tokenSource.(TokenMetadataReader)
	if !ok {
		return TokenMetadata{Kind: kind}
	}
	return reader.Metadata(kind)
}

// LatestCall returns the most recent entry recorded for a feature area.
func (s *Service) LatestCall(area FeatureArea) (CallEntry, bool) {
	if s == nil || s.callCache == nil {
		return CallEntry{}, false
	}
	return s.callCache.Latest(ParseFeatureArea(string(area)))
}

// LatestCalls snapshots the latest entry for every feature area.
func (s *Service) LatestCalls() map[FeatureArea]CallEntry {
	if s == nil || s.callCache == nil {
		return map[FeatureArea]CallEntry{}
	}
	return s.callCache.Snapshot()
}
