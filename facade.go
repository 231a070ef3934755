package embeddedapi

import (
	"fmt"

	apicommand "github.com/goliatone/go-embedded-api/command"
	apiquery "github.com/goliatone/go-embedded-api/query"
)

// CommandQueryService is everything the command and query handlers need from
// the service.
type CommandQueryService interface {
	apicommand.MutatingService
	apiquery.CallLogReader
	apiquery.TokenMetadataReader
	apiquery.LatestCallReader
}

type Commands struct {
	ExecuteRequest    *apicommand.ExecuteRequestCommand
	ClearCallLog      *apicommand.ClearCallLogCommand
	ExportCallLog     *apicommand.ExportCallLogCommand
	PruneCallLog      *apicommand.PruneCallLogCommand
	ForceTokenRefresh *apicommand.ForceTokenRefreshCommand
	InvalidateTokens  *apicommand.InvalidateTokensCommand
}

type Queries struct {
	ListCallLog        *apiquery.ListCallLogQuery
	FilterCallLog      *apiquery.FilterCallLogQuery
	GetCallByRequestID *apiquery.GetCallByRequestIDQuery
	CountCallLog       *apiquery.CountCallLogQuery
	TokenMetadata      *apiquery.TokenMetadataQuery
	LatestCall         *apiquery.LatestCallQuery
	LatestCalls        *apiquery.LatestCallsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("embeddedapi: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		ExecuteRequest:    apicommand.NewExecuteRequestCommand(service),
		ClearCallLog:      apicommand.NewClearCallLogCommand(service),
		ExportCallLog:     apicommand.NewExportCallLogCommand(service),
		PruneCallLog:      apicommand.NewPruneCallLogCommand(service),
		ForceTokenRefresh: apicommand.NewForceTokenRefreshCommand(service),
		InvalidateTokens:  apicommand.NewInvalidateTokensCommand(service),
	}
	facade.queries = Queries{
		ListCallLog:        apiquery.NewListCallLogQuery(service),
		FilterCallLog:      apiquery.NewFilterCallLogQuery(service),
		GetCallByRequestID: apiquery.NewGetCallByRequestIDQuery(service),
		CountCallLog:       apiquery.NewCountCallLogQuery(service),
		TokenMetadata:      apiquery.NewTokenMetadataQuery(service),
		LatestCall:         apiquery.NewLatestCallQuery(service),
		LatestCalls:        apiquery.NewLatestCallsQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

var _ CommandQueryService = (*Service)(nil)
