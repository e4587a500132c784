package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/Faysoula/SyncSolve-sub000/internal/store"
	"github.com/Faysoula/SyncSolve-sub000/pkg/request"
	"github.com/Faysoula/SyncSolve-sub000/pkg/response"
)

type CreateSessionRequest struct {
	TeamID    int64 `json:"team_id"`
	ProblemID int64 `json:"problem_id"`
}

// CreateSessionHandler starts a collaborative session of a team on a problem.
// Only team members may start one.
func (hr *HandlerRepo) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		hr.unauthorized(w, r)
		return
	}

	var req CreateSessionRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}
	if req.TeamID < 1 || req.ProblemID < 1 {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	if ok, err := hr.isTeamMember(r, req.TeamID, userID); err != nil {
		hr.serverError(w, r, err)
		return
	} else if !ok {
		hr.forbidden(w, r)
		return
	}

	if _, err := hr.queries.GetProblemByID(r.Context(), req.ProblemID); errors.Is(err, pgx.ErrNoRows) {
		hr.notFound(w, r)
		return
	} else if err != nil {
		hr.serverError(w, r, err)
		return
	}

	session, err := hr.queries.CreateSession(r.Context(), store.CreateSessionParams{
		TeamID:    req.TeamID,
		ProblemID: req.ProblemID,
	})
	if err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusCreated,
		Success: true,
		Msg:     "Session created successfully",
		Data:    session,
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

func (hr *HandlerRepo) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseIDParam(chi.URLParam(r, "session_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	session, err := hr.queries.GetSessionByID(r.Context(), sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		hr.notFound(w, r)
		return
	} else if err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusOK,
		Success: true,
		Msg:     "Session retrieved successfully",
		Data:    session,
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

type CreateTerminalRequest struct {
	Language store.Language `json:"language"`
}

// CreateTerminalHandler opens a language-scoped terminal inside a session.
func (hr *HandlerRepo) CreateTerminalHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		hr.unauthorized(w, r)
		return
	}

	sessionID, err := parseIDParam(chi.URLParam(r, "session_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	var req CreateTerminalRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	switch req.Language {
	case store.LanguageCpp, store.LanguageJava, store.LanguagePython:
	default:
		hr.unprocessable(w, r, errors.New("unsupported language"))
		return
	}

	session, err := hr.queries.GetSessionByID(r.Context(), sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		hr.notFound(w, r)
		return
	} else if err != nil {
		hr.serverError(w, r, err)
		return
	}

	if ok, err := hr.isTeamMember(r, session.TeamID, userID); err != nil {
		hr.serverError(w, r, err)
		return
	} else if !ok {
		hr.forbidden(w, r)
		return
	}

	terminal, err := hr.queries.CreateTerminalSession(r.Context(), store.CreateTerminalSessionParams{
		SessionID: sessionID,
		Language:  req.Language,
	})
	if err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusCreated,
		Success: true,
		Msg:     "Terminal session created successfully",
		Data:    terminal,
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

func (hr *HandlerRepo) GetTerminalHandler(w http.ResponseWriter, r *http.Request) {
	terminalID, err := parseIDParam(chi.URLParam(r, "terminal_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	terminal, err := hr.queries.GetTerminalSessionByID(r.Context(), terminalID)
	if errors.Is(err, pgx.ErrNoRows) {
		hr.notFound(w, r)
		return
	} else if err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusOK,
		Success: true,
		Msg:     "Terminal session retrieved successfully",
		Data:    terminal,
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

type CreateSnapshotRequest struct {
	CodeSnapshot string `json:"code_snapshot"`
}

// CreateSnapshotHandler saves an explicit snapshot of the session's editor
// state. Snapshot history is append-only; executions also append one
// automatically.
func (hr *HandlerRepo) CreateSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		hr.unauthorized(w, r)
		return
	}

	sessionID, err := parseIDParam(chi.URLParam(r, "session_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	var req CreateSnapshotRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	session, err := hr.queries.GetSessionByID(r.Context(), sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		hr.notFound(w, r)
		return
	} else if err != nil {
		hr.serverError(w, r, err)
		return
	}

	if ok, err := hr.isTeamMember(r, session.TeamID, userID); err != nil {
		hr.serverError(w, r, err)
		return
	} else if !ok {
		hr.forbidden(w, r)
		return
	}

	snapshot, err := hr.queries.CreateSessionSnapshot(r.Context(), store.CreateSessionSnapshotParams{
		SessionID:    sessionID,
		CodeSnapshot: req.CodeSnapshot,
	})
	if err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusCreated,
		Success: true,
		Msg:     "Snapshot created successfully",
		Data:    snapshot,
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

// GetLatestSnapshotHandler returns the most recent code snapshot of a
// session, typically used to restore editor state on reconnect.
func (hr *HandlerRepo) GetLatestSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseIDParam(chi.URLParam(r, "session_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	snapshot, err := hr.queries.GetLatestSnapshotBySession(r.Context(), sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		hr.notFound(w, r)
		return
	} else if err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusOK,
		Success: true,
		Msg:     "Snapshot retrieved successfully",
		Data:    snapshot,
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

type UpdateSnapshotRequest struct {
	CodeSnapshot string `json:"code_snapshot"`
}

func (hr *HandlerRepo) UpdateSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	snapshotID, err := parseIDParam(chi.URLParam(r, "snapshot_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	var req UpdateSnapshotRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	snapshot, err := hr.queries.UpdateSessionSnapshot(r.Context(), store.UpdateSessionSnapshotParams{
		ID:           snapshotID,
		CodeSnapshot: req.CodeSnapshot,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		hr.notFound(w, r)
		return
	} else if err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusOK,
		Success: true,
		Msg:     "Snapshot updated successfully",
		Data:    snapshot,
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

func (hr *HandlerRepo) isTeamMember(r *http.Request, teamID, userID int64) (bool, error) {
	members, err := hr.queries.GetTeamMembers(r.Context(), teamID)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
