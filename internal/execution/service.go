// execution runs a team member's code against a problem's test cases through
// the external judge and records the outcome durably.
package execution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Faysoula/SyncSolve-sub000/internal/judge"
	"github.com/Faysoula/SyncSolve-sub000/internal/store"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("user is not a member of the session's team")
	ErrInvalidProblem = errors.New("problem has no test cases")
)

// Store is the slice of the query layer the service needs.
type Store interface {
	GetTerminalSessionByID(ctx context.Context, id int64) (store.TerminalSession, error)
	GetSessionByID(ctx context.Context, id int64) (store.Session, error)
	GetTeamMembers(ctx context.Context, teamID int64) ([]store.TeamMember, error)
	GetTestCasesByProblem(ctx context.Context, problemID int64) ([]store.TestCase, error)
	CreateExecution(ctx context.Context, arg store.CreateExecutionParams) (store.Execution, error)
	CreateSessionSnapshot(ctx context.Context, arg store.CreateSessionSnapshotParams) (store.SessionSnapshot, error)
}

// Judge submits one code+stdin pair and blocks until a terminal verdict.
type Judge interface {
	Submit(ctx context.Context, code string, language store.Language, stdin string) (judge.Verdict, error)
}

// EventPublisher fans a finished execution out to interested consumers.
// Publishing is best effort; a broker outage never fails a submission.
type EventPublisher interface {
	Publish(ctx context.Context, body []byte) error
}

// FinishedMessage is the broker payload emitted after an execution persists.
type FinishedMessage struct {
	ExecutionID int64                 `json:"execution_id"`
	TerminalID  int64                 `json:"terminal_id"`
	SessionID   int64                 `json:"session_id"`
	UserID      int64                 `json:"user_id"`
	Status      store.ExecutionStatus `json:"status"`
}

// TestResult is the per-test outcome stored in Execution.Result and returned
// to the caller.
type TestResult struct {
	Passed bool   `json:"passed"`
	Output string `json:"output"`
}

type RunResult struct {
	AllPassed bool         `json:"all_passed"`
	Results   []TestResult `json:"results"`
}

type Outcome struct {
	Execution store.Execution
	Run       RunResult
}

type Service struct {
	store     Store
	judge     Judge
	publisher EventPublisher
	logger    *slog.Logger
}

func NewService(st Store, j Judge, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		store:     st,
		judge:     j,
		publisher: publisher,
		logger:    logger,
	}
}

// RunSubmission executes code in the terminal's language against every test
// case of the session's problem, then persists an Execution record and a
// session snapshot of the submitted code. Judge failures surface unchanged
// and leave no records behind.
func (s *Service) RunSubmission(ctx context.Context, userID int64, code string, terminalID int64) (Outcome, error) {
	terminal, err := s.store.GetTerminalSessionByID(ctx, terminalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Outcome{}, fmt.Errorf("%w: terminal %d", ErrNotFound, terminalID)
		}
		return Outcome{}, fmt.Errorf("fetching terminal session: %w", err)
	}

	session, err := s.store.GetSessionByID(ctx, terminal.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Outcome{}, fmt.Errorf("%w: session %d", ErrNotFound, terminal.SessionID)
		}
		return Outcome{}, fmt.Errorf("fetching session: %w", err)
	}

	if err := s.authorize(ctx, session.TeamID, userID); err != nil {
		return Outcome{}, err
	}

	testCases, err := s.store.GetTestCasesByProblem(ctx, session.ProblemID)
	if err != nil {
		return Outcome{}, fmt.Errorf("fetching test cases: %w", err)
	}
	if len(testCases) == 0 {
		return Outcome{}, fmt.Errorf("%w: problem %d", ErrInvalidProblem, session.ProblemID)
	}

	run, err := s.runTestCases(ctx, code, terminal.Language, testCases)
	if err != nil {
		return Outcome{}, err
	}

	status := store.ExecutionStatusSuccess
	if !run.AllPassed {
		status = store.ExecutionStatusError
	}

	resultJSON, err := json.Marshal(run.Results)
	if err != nil {
		return Outcome{}, fmt.Errorf("encoding results: %w", err)
	}

	exec, err := s.store.CreateExecution(ctx, store.CreateExecutionParams{
		UserID:     userID,
		TerminalID: terminalID,
		Code:       code,
		Result:     resultJSON,
		Status:     status,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("persisting execution: %w", err)
	}

	if _, err := s.store.CreateSessionSnapshot(ctx, store.CreateSessionSnapshotParams{
		SessionID:    session.ID,
		CodeSnapshot: code,
	}); err != nil {
		return Outcome{}, fmt.Errorf("persisting snapshot: %w", err)
	}

	s.publishFinished(ctx, FinishedMessage{
		ExecutionID: exec.ID,
		TerminalID:  terminalID,
		SessionID:   session.ID,
		UserID:      userID,
		Status:      status,
	})

	return Outcome{Execution: exec, Run: run}, nil
}

func (s *Service) authorize(ctx context.Context, teamID, userID int64) error {
	members, err := s.store.GetTeamMembers(ctx, teamID)
	if err != nil {
		return fmt.Errorf("fetching team members: %w", err)
	}
	for _, m := range members {
		if m.UserID == userID {
			return nil
		}
	}
	return fmt.Errorf("%w: user %d, team %d", ErrUnauthorized, userID, teamID)
}

func (s *Service) runTestCases(ctx context.Context, code string, language store.Language, testCases []store.TestCase) (RunResult, error) {
	run := RunResult{AllPassed: true, Results: make([]TestResult, 0, len(testCases))}

	for _, tc := range testCases {
		verdict, err := s.judge.Submit(ctx, code, language, tc.Input)
		if err != nil {
			return RunResult{}, err
		}

		passed := verdict.Valid && strings.TrimSpace(verdict.Output) == strings.TrimSpace(tc.ExpectedOutput)
		if !passed {
			run.AllPassed = false
		}
		run.Results = append(run.Results, TestResult{Passed: passed, Output: verdict.Output})
	}

	return run, nil
}

func (s *Service) publishFinished(ctx context.Context, msg FinishedMessage) {
	if s.publisher == nil {
		return
	}

	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("encoding execution finished event", "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, body); err != nil {
		s.logger.Warn("publishing execution finished event",
			"execution_id", msg.ExecutionID,
			"error", err)
	}
}
