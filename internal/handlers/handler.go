package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Faysoula/SyncSolve-sub000/internal/client/rabbitmq"
	"github.com/Faysoula/SyncSolve-sub000/internal/execution"
	"github.com/Faysoula/SyncSolve-sub000/internal/hub"
	"github.com/Faysoula/SyncSolve-sub000/internal/store"
	"github.com/Faysoula/SyncSolve-sub000/pkg/env"
	"github.com/Faysoula/SyncSolve-sub000/pkg/jwt"
)

// Runner executes a submission end to end: judge calls, verdict
// classification, and the durable execution plus snapshot records.
type Runner interface {
	RunSubmission(ctx context.Context, userID int64, code string, terminalID int64) (execution.Outcome, error)
}

// HandlerRepo holds all the dependencies required by the handlers.
// This includes the application logger, the realtime hub, the execution
// runner, and the centralized store for data access.
type HandlerRepo struct {
	sessionHub   *hub.Hub
	logger       *slog.Logger
	queries      *store.Queries
	db           *pgxpool.Pool
	jwtParser    *jwt.JWTParser
	rabbitClient *rabbitmq.RabbitMQClient
	runner       Runner
}

// NewHandlerRepo creates a new HandlerRepo with the provided dependencies.
func NewHandlerRepo(logger *slog.Logger, db *pgxpool.Pool, queries *store.Queries, rabbitClient *rabbitmq.RabbitMQClient, runner Runner) *HandlerRepo {
	secKey := env.GetString("SYNCSOLVE_JWT_SECRET", "")
	if secKey == "" {
		panic("SYNCSOLVE_JWT_SECRET env not found")
	}

	issuer := env.GetString("SYNCSOLVE_JWT_ISSUER", "syncsolve")
	audience := env.GetString("SYNCSOLVE_JWT_AUDIENCE", "syncsolve")

	return &HandlerRepo{
		logger:       logger,
		db:           db,
		queries:      queries,
		jwtParser:    jwt.NewJWTParser(secKey, issuer, audience, logger),
		sessionHub:   hub.New(logger),
		rabbitClient: rabbitClient,
		runner:       runner,
	}
}

// Getter methods for consumer access
func (hr *HandlerRepo) GetRabbitClient() *rabbitmq.RabbitMQClient {
	return hr.rabbitClient
}

func (hr *HandlerRepo) GetLogger() *slog.Logger {
	return hr.logger
}

// TouchTerminal marks a terminal session as recently active.
func (hr *HandlerRepo) TouchTerminal(ctx context.Context, terminalID int64) error {
	return hr.queries.TouchTerminalSession(ctx, terminalID)
}

// parseIDParam parses a positive integer URL parameter.
func parseIDParam(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 1 {
		return 0, ErrInvalidRequest
	}
	return id, nil
}

// PaginationParams holds the calculated pagination parameters (limit and offset)
type PaginationParams struct {
	Limit     int32
	Offset    int32
	PageIndex int32
	PageSize  int32
}

// PaginationResponse wraps paginated data with metadata
type PaginationResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"total_count"`
	TotalPages int64 `json:"total_pages"`
	PageIndex  int32 `json:"page_index"`
	PageSize   int32 `json:"page_size"`
}

// createPaginationResponse creates a standardized pagination response with metadata
func createPaginationResponse(items any, totalCount int64, params PaginationParams) PaginationResponse {
	totalPages := int64(0)
	if params.PageSize > 0 {
		totalPages = (totalCount + int64(params.PageSize) - 1) / int64(params.PageSize)
	}

	return PaginationResponse{
		Items:      items,
		TotalCount: totalCount,
		TotalPages: totalPages,
		PageIndex:  params.PageIndex,
		PageSize:   params.PageSize,
	}
}

// parsePaginationParams extracts pagination parameters from the request query
// string. Accepts page_size and page_index (1-based) and calculates limit and
// offset. Defaults: page_size=10, page_index=1; page_size is capped at 100.
func parsePaginationParams(r *http.Request) PaginationParams {
	const (
		defaultPageSize  = 10
		maxPageSize      = 100
		defaultPageIndex = 1
	)

	pageSize := defaultPageSize
	pageIndex := defaultPageIndex

	if pageSizeStr := r.URL.Query().Get("page_size"); pageSizeStr != "" {
		if parsedPageSize, err := strconv.Atoi(pageSizeStr); err == nil && parsedPageSize > 0 {
			pageSize = parsedPageSize
			if pageSize > maxPageSize {
				pageSize = maxPageSize
			}
		}
	}

	if pageIndexStr := r.URL.Query().Get("page_index"); pageIndexStr != "" {
		if parsedPageIndex, err := strconv.Atoi(pageIndexStr); err == nil && parsedPageIndex >= 1 {
			pageIndex = parsedPageIndex
		}
	}

	limit := pageSize
	offset := (pageIndex - 1) * pageSize

	return PaginationParams{
		Limit:     int32(limit),
		Offset:    int32(offset),
		PageIndex: int32(pageIndex),
		PageSize:  int32(pageSize),
	}
}
