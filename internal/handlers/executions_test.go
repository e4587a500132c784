package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Faysoula/SyncSolve-sub000/internal/execution"
	"github.com/Faysoula/SyncSolve-sub000/internal/judge"
	"github.com/Faysoula/SyncSolve-sub000/internal/store"
	"github.com/Faysoula/SyncSolve-sub000/pkg/jwt"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunSubmission(ctx context.Context, userID int64, code string, terminalID int64) (execution.Outcome, error) {
	args := m.Called(ctx, userID, code, terminalID)
	return args.Get(0).(execution.Outcome), args.Error(1)
}

func newTestRepo(runner Runner) *HandlerRepo {
	return &HandlerRepo{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		runner: runner,
	}
}

func authenticatedRequest(t *testing.T, userID string, body any) *http.Request {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/executions", bytes.NewReader(payload))
	ctx := context.WithValue(r.Context(), UserClaimsKey, &jwt.UserClaims{Sub: userID})
	return r.WithContext(ctx)
}

func TestRunSubmissionHandlerSuccess(t *testing.T) {
	runner := &MockRunner{}
	runner.On("RunSubmission", mock.Anything, int64(100), "print(3)", int64(5)).
		Return(execution.Outcome{
			Execution: store.Execution{ID: 77, Status: store.ExecutionStatusSuccess},
			Run: execution.RunResult{
				AllPassed: true,
				Results:   []execution.TestResult{{Passed: true, Output: "3"}},
			},
		}, nil)

	hr := newTestRepo(runner)
	w := httptest.NewRecorder()
	hr.RunSubmissionHandler(w, authenticatedRequest(t, "100", RunSubmissionRequest{TerminalID: 5, Code: "print(3)"}))

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool                  `json:"success"`
		Data    RunSubmissionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, int64(77), body.Data.ExecutionID)
	assert.True(t, body.Data.AllPassed)
	runner.AssertExpectations(t)
}

func TestRunSubmissionHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "unknown terminal", err: execution.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "non team member", err: execution.ErrUnauthorized, wantStatus: http.StatusForbidden},
		{name: "problem without test cases", err: execution.ErrInvalidProblem, wantStatus: http.StatusUnprocessableEntity},
		{name: "unsupported language", err: judge.ErrUnsupportedLanguage, wantStatus: http.StatusUnprocessableEntity},
		{name: "judge outage", err: judge.ErrJudgeUnavailable, wantStatus: http.StatusBadGateway},
		{name: "judge timeout", err: judge.ErrExecutionTimeout, wantStatus: http.StatusGatewayTimeout},
		{name: "unexpected failure", err: assert.AnError, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockRunner{}
			runner.On("RunSubmission", mock.Anything, int64(100), "code", int64(5)).
				Return(execution.Outcome{}, tt.err)

			hr := newTestRepo(runner)
			w := httptest.NewRecorder()
			hr.RunSubmissionHandler(w, authenticatedRequest(t, "100", RunSubmissionRequest{TerminalID: 5, Code: "code"}))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRunSubmissionHandlerRejectsMissingClaims(t *testing.T) {
	runner := &MockRunner{}
	hr := newTestRepo(runner)

	payload, _ := json.Marshal(RunSubmissionRequest{TerminalID: 5, Code: "code"})
	r := httptest.NewRequest(http.MethodPost, "/executions", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	hr.RunSubmissionHandler(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	runner.AssertNotCalled(t, "RunSubmission", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunSubmissionHandlerValidatesBody(t *testing.T) {
	runner := &MockRunner{}
	hr := newTestRepo(runner)

	w := httptest.NewRecorder()
	hr.RunSubmissionHandler(w, authenticatedRequest(t, "100", RunSubmissionRequest{TerminalID: 0, Code: ""}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	runner.AssertNotCalled(t, "RunSubmission", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

type slowRunner struct {
	delay   time.Duration
	outcome execution.Outcome
}

func (s *slowRunner) RunSubmission(ctx context.Context, userID int64, code string, terminalID int64) (execution.Outcome, error) {
	select {
	case <-ctx.Done():
		return execution.Outcome{}, ctx.Err()
	case <-time.After(s.delay):
		return s.outcome, nil
	}
}

// A run that legitimately outlives the server's write deadline (several test
// cases each polling the judge) must still deliver its response; otherwise
// the rows commit and the client sees a dead connection.
func TestRunSubmissionResponseOutlivesServerWriteDeadline(t *testing.T) {
	hr := newTestRepo(&slowRunner{
		delay: 300 * time.Millisecond,
		outcome: execution.Outcome{
			Execution: store.Execution{ID: 81, Status: store.ExecutionStatusSuccess},
			Run:       execution.RunResult{AllPassed: true, Results: []execution.TestResult{{Passed: true, Output: "3"}}},
		},
	})

	mux := http.NewServeMux()
	// Method is checked by hand because method-qualified mux patterns need Go 1.22+.
	mux.HandleFunc("/executions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		ctx := context.WithValue(r.Context(), UserClaimsKey, &jwt.UserClaims{Sub: "100"})
		hr.RunSubmissionHandler(w, r.WithContext(ctx))
	})

	srv := httptest.NewUnstartedServer(mux)
	srv.Config.WriteTimeout = 100 * time.Millisecond
	srv.Start()
	t.Cleanup(srv.Close)

	payload, err := json.Marshal(RunSubmissionRequest{TerminalID: 5, Code: "print(3)"})
	require.NoError(t, err)

	resp, err := srv.Client().Post(srv.URL+"/executions", "application/json", bytes.NewReader(payload))
	require.NoError(t, err, "a slow run must not kill the connection")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                  `json:"success"`
		Data    RunSubmissionResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, int64(81), body.Data.ExecutionID)
}
