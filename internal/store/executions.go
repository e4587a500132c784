package store

import (
	"context"
)

const createExecution = `
INSERT INTO executions (user_id, terminal_id, code, result, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, terminal_id, code, result, status, executed_at
`

type CreateExecutionParams struct {
	UserID     int64
	TerminalID int64
	Code       string
	Result     []byte
	Status     ExecutionStatus
}

func (q *Queries) CreateExecution(ctx context.Context, arg CreateExecutionParams) (Execution, error) {
	row := q.db.QueryRow(ctx, createExecution, arg.UserID, arg.TerminalID, arg.Code, arg.Result, arg.Status)
	var e Execution
	err := row.Scan(&e.ID, &e.UserID, &e.TerminalID, &e.Code, &e.Result, &e.Status, &e.ExecutedAt)
	return e, err
}

const getExecutionByID = `
SELECT id, user_id, terminal_id, code, result, status, executed_at
FROM executions
WHERE id = $1
`

func (q *Queries) GetExecutionByID(ctx context.Context, id int64) (Execution, error) {
	row := q.db.QueryRow(ctx, getExecutionByID, id)
	var e Execution
	err := row.Scan(&e.ID, &e.UserID, &e.TerminalID, &e.Code, &e.Result, &e.Status, &e.ExecutedAt)
	return e, err
}

const updateExecution = `
UPDATE executions
SET result = $2, status = $3
WHERE id = $1
RETURNING id, user_id, terminal_id, code, result, status, executed_at
`

type UpdateExecutionParams struct {
	ID     int64
	Result []byte
	Status ExecutionStatus
}

// UpdateExecution is the single explicit mutation allowed on an otherwise
// immutable execution record.
func (q *Queries) UpdateExecution(ctx context.Context, arg UpdateExecutionParams) (Execution, error) {
	row := q.db.QueryRow(ctx, updateExecution, arg.ID, arg.Result, arg.Status)
	var e Execution
	err := row.Scan(&e.ID, &e.UserID, &e.TerminalID, &e.Code, &e.Result, &e.Status, &e.ExecutedAt)
	return e, err
}

const createSessionSnapshot = `
INSERT INTO session_snapshots (session_id, code_snapshot)
VALUES ($1, $2)
RETURNING id, session_id, code_snapshot, created_at
`

type CreateSessionSnapshotParams struct {
	SessionID    int64
	CodeSnapshot string
}

func (q *Queries) CreateSessionSnapshot(ctx context.Context, arg CreateSessionSnapshotParams) (SessionSnapshot, error) {
	row := q.db.QueryRow(ctx, createSessionSnapshot, arg.SessionID, arg.CodeSnapshot)
	var s SessionSnapshot
	err := row.Scan(&s.ID, &s.SessionID, &s.CodeSnapshot, &s.CreatedAt)
	return s, err
}

const getLatestSnapshotBySession = `
SELECT id, session_id, code_snapshot, created_at
FROM session_snapshots
WHERE session_id = $1
ORDER BY created_at DESC, id DESC
LIMIT 1
`

func (q *Queries) GetLatestSnapshotBySession(ctx context.Context, sessionID int64) (SessionSnapshot, error) {
	row := q.db.QueryRow(ctx, getLatestSnapshotBySession, sessionID)
	var s SessionSnapshot
	err := row.Scan(&s.ID, &s.SessionID, &s.CodeSnapshot, &s.CreatedAt)
	return s, err
}

const updateSessionSnapshot = `
UPDATE session_snapshots
SET code_snapshot = $2
WHERE id = $1
RETURNING id, session_id, code_snapshot, created_at
`

type UpdateSessionSnapshotParams struct {
	ID           int64
	CodeSnapshot string
}

// UpdateSessionSnapshot overwrites one row targeted explicitly by id; the
// history itself stays append-only.
func (q *Queries) UpdateSessionSnapshot(ctx context.Context, arg UpdateSessionSnapshotParams) (SessionSnapshot, error) {
	row := q.db.QueryRow(ctx, updateSessionSnapshot, arg.ID, arg.CodeSnapshot)
	var s SessionSnapshot
	err := row.Scan(&s.ID, &s.SessionID, &s.CodeSnapshot, &s.CreatedAt)
	return s, err
}
