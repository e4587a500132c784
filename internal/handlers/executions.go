package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/Faysoula/SyncSolve-sub000/internal/execution"
	"github.com/Faysoula/SyncSolve-sub000/internal/judge"
	"github.com/Faysoula/SyncSolve-sub000/internal/store"
	"github.com/Faysoula/SyncSolve-sub000/pkg/request"
	"github.com/Faysoula/SyncSolve-sub000/pkg/response"
)

type RunSubmissionRequest struct {
	TerminalID int64  `json:"terminal_id"`
	Code       string `json:"code"`
}

type RunSubmissionResponse struct {
	ExecutionID int64                  `json:"execution_id"`
	Status      store.ExecutionStatus  `json:"status"`
	AllPassed   bool                   `json:"all_passed"`
	Results     []execution.TestResult `json:"results"`
}

// RunSubmissionHandler executes the submitted code against the problem's
// test cases through the judge and records the outcome.
func (hr *HandlerRepo) RunSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		hr.unauthorized(w, r)
		return
	}

	var req RunSubmissionRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}
	if req.TerminalID < 1 || req.Code == "" {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	// A run against N test cases may poll the judge for up to N times the
	// poll budget, which can outlive the server's write deadline. Lift the
	// deadline for this response so a slow-but-successful run still reaches
	// the client instead of dying after its rows committed.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		hr.logger.Debug("could not clear write deadline", "error", err)
	}

	outcome, err := hr.runner.RunSubmission(r.Context(), userID, req.Code, req.TerminalID)
	if err != nil {
		switch {
		case errors.Is(err, execution.ErrNotFound):
			hr.notFound(w, r)
		case errors.Is(err, execution.ErrUnauthorized):
			hr.forbidden(w, r)
		case errors.Is(err, execution.ErrInvalidProblem):
			hr.unprocessable(w, r, err)
		case errors.Is(err, judge.ErrUnsupportedLanguage):
			hr.unprocessable(w, r, err)
		case errors.Is(err, judge.ErrJudgeUnavailable):
			hr.badGateway(w, r, err)
		case errors.Is(err, judge.ErrExecutionTimeout):
			hr.gatewayTimeout(w, r, err)
		default:
			hr.serverError(w, r, err)
		}
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusOK,
		Success: true,
		Msg:     "Submission executed successfully",
		Data: RunSubmissionResponse{
			ExecutionID: outcome.Execution.ID,
			Status:      outcome.Execution.Status,
			AllPassed:   outcome.Run.AllPassed,
			Results:     outcome.Run.Results,
		},
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

func (hr *HandlerRepo) GetExecutionHandler(w http.ResponseWriter, r *http.Request) {
	executionID, err := parseIDParam(chi.URLParam(r, "execution_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	exec, err := hr.queries.GetExecutionByID(r.Context(), executionID)
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
		Msg:     "Execution retrieved successfully",
		Data:    exec,
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

type UpdateExecutionRequest struct {
	Result json.RawMessage       `json:"result"`
	Status store.ExecutionStatus `json:"status"`
}

// UpdateExecutionHandler overwrites an execution's result payload and status.
// This is the only mutation allowed on execution records.
func (hr *HandlerRepo) UpdateExecutionHandler(w http.ResponseWriter, r *http.Request) {
	executionID, err := parseIDParam(chi.URLParam(r, "execution_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	var req UpdateExecutionRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	switch req.Status {
	case store.ExecutionStatusSuccess, store.ExecutionStatusFailure, store.ExecutionStatusError:
	default:
		hr.badRequest(w, r, errors.New("invalid execution status"))
		return
	}

	exec, err := hr.queries.UpdateExecution(r.Context(), store.UpdateExecutionParams{
		ID:     executionID,
		Result: req.Result,
		Status: req.Status,
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
		Msg:     "Execution updated successfully",
		Data:    exec,
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}
