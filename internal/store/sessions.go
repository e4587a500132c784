package store

import (
	"context"
	"time"
)

const createSession = `
INSERT INTO sessions (team_id, problem_id)
VALUES ($1, $2)
RETURNING id, team_id, problem_id, created_at
`

type CreateSessionParams struct {
	TeamID    int64
	ProblemID int64
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRow(ctx, createSession, arg.TeamID, arg.ProblemID)
	var s Session
	err := row.Scan(&s.ID, &s.TeamID, &s.ProblemID, &s.CreatedAt)
	return s, err
}

const getSessionByID = `
SELECT id, team_id, problem_id, created_at
FROM sessions
WHERE id = $1
`

func (q *Queries) GetSessionByID(ctx context.Context, id int64) (Session, error) {
	row := q.db.QueryRow(ctx, getSessionByID, id)
	var s Session
	err := row.Scan(&s.ID, &s.TeamID, &s.ProblemID, &s.CreatedAt)
	return s, err
}

const createTerminalSession = `
INSERT INTO terminal_sessions (session_id, language, active, last_active)
VALUES ($1, $2, true, now())
RETURNING id, session_id, language, active, last_active
`

type CreateTerminalSessionParams struct {
	SessionID int64
	Language  Language
}

func (q *Queries) CreateTerminalSession(ctx context.Context, arg CreateTerminalSessionParams) (TerminalSession, error) {
	row := q.db.QueryRow(ctx, createTerminalSession, arg.SessionID, arg.Language)
	var ts TerminalSession
	err := row.Scan(&ts.ID, &ts.SessionID, &ts.Language, &ts.Active, &ts.LastActive)
	return ts, err
}

const getTerminalSessionByID = `
SELECT id, session_id, language, active, last_active
FROM terminal_sessions
WHERE id = $1
`

func (q *Queries) GetTerminalSessionByID(ctx context.Context, id int64) (TerminalSession, error) {
	row := q.db.QueryRow(ctx, getTerminalSessionByID, id)
	var ts TerminalSession
	err := row.Scan(&ts.ID, &ts.SessionID, &ts.Language, &ts.Active, &ts.LastActive)
	return ts, err
}

const touchTerminalSession = `
UPDATE terminal_sessions
SET active = true, last_active = now()
WHERE id = $1
`

// TouchTerminalSession marks a terminal as recently used.
func (q *Queries) TouchTerminalSession(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, touchTerminalSession, id)
	return err
}

const deactivateIdleTerminalSessions = `
UPDATE terminal_sessions
SET active = false
WHERE active = true AND last_active < $1
`

// DeactivateIdleTerminalSessions flips every terminal idle since the cutoff
// to inactive and reports how many rows changed.
func (q *Queries) DeactivateIdleTerminalSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deactivateIdleTerminalSessions, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
