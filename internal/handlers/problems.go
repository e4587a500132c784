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

type CreateProblemRequest struct {
	Title      string                  `json:"title"`
	Statement  string                  `json:"statement"`
	Difficulty int32                   `json:"difficulty"`
	TestCases  []CreateTestCaseRequest `json:"test_cases"`
}

type CreateTestCaseRequest struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

type ProblemResponse struct {
	Problem   store.Problem    `json:"problem"`
	TestCases []store.TestCase `json:"test_cases"`
}

// CreateProblemHandler creates a problem together with its test cases. A
// problem without test cases cannot be judged, so at least one is required.
func (hr *HandlerRepo) CreateProblemHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateProblemRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}
	if req.Title == "" || req.Statement == "" {
		hr.badRequest(w, r, errors.New("title and statement are required"))
		return
	}
	if len(req.TestCases) == 0 {
		hr.badRequest(w, r, errors.New("at least one test case is required"))
		return
	}

	tx, err := hr.db.Begin(r.Context())
	if err != nil {
		hr.serverError(w, r, err)
		return
	}
	defer tx.Rollback(r.Context())
	qtx := hr.queries.WithTx(tx)

	problem, err := qtx.CreateProblem(r.Context(), store.CreateProblemParams{
		Title:      req.Title,
		Statement:  req.Statement,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		hr.serverError(w, r, err)
		return
	}

	testCases := make([]store.TestCase, 0, len(req.TestCases))
	for _, tc := range req.TestCases {
		created, err := qtx.CreateTestCase(r.Context(), store.CreateTestCaseParams{
			ProblemID:      problem.ID,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		})
		if err != nil {
			hr.serverError(w, r, err)
			return
		}
		testCases = append(testCases, created)
	}

	if err := tx.Commit(r.Context()); err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusCreated,
		Success: true,
		Msg:     "Problem created successfully",
		Data:    ProblemResponse{Problem: problem, TestCases: testCases},
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

func (hr *HandlerRepo) GetProblemsHandler(w http.ResponseWriter, r *http.Request) {
	pagination := parsePaginationParams(r)

	totalCount, err := hr.queries.CountProblems(r.Context())
	if err != nil {
		hr.serverError(w, r, err)
		return
	}

	problems, err := hr.queries.ListProblems(r.Context(), store.ListProblemsParams{
		Limit:  pagination.Limit,
		Offset: pagination.Offset,
	})
	if err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusOK,
		Success: true,
		Msg:     "Problems retrieved successfully",
		Data:    createPaginationResponse(problems, totalCount, pagination),
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

func (hr *HandlerRepo) GetProblemHandler(w http.ResponseWriter, r *http.Request) {
	problemID, err := parseIDParam(chi.URLParam(r, "problem_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	problem, err := hr.queries.GetProblemByID(r.Context(), problemID)
	if errors.Is(err, pgx.ErrNoRows) {
		hr.logger.Info("problem not found", "problem_id", problemID)
		hr.notFound(w, r)
		return
	} else if err != nil {
		hr.serverError(w, r, err)
		return
	}

	testCases, err := hr.queries.GetTestCasesByProblem(r.Context(), problemID)
	if err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusOK,
		Success: true,
		Msg:     "Problem retrieved successfully",
		Data:    ProblemResponse{Problem: problem, TestCases: testCases},
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}
