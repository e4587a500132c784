package store

import (
	"context"
)

const createProblem = `
INSERT INTO problems (title, statement, difficulty)
VALUES ($1, $2, $3)
RETURNING id, title, statement, difficulty, created_at
`

type CreateProblemParams struct {
	Title      string
	Statement  string
	Difficulty int32
}

func (q *Queries) CreateProblem(ctx context.Context, arg CreateProblemParams) (Problem, error) {
	row := q.db.QueryRow(ctx, createProblem, arg.Title, arg.Statement, arg.Difficulty)
	var p Problem
	err := row.Scan(&p.ID, &p.Title, &p.Statement, &p.Difficulty, &p.CreatedAt)
	return p, err
}

const getProblemByID = `
SELECT id, title, statement, difficulty, created_at
FROM problems
WHERE id = $1
`

func (q *Queries) GetProblemByID(ctx context.Context, id int64) (Problem, error) {
	row := q.db.QueryRow(ctx, getProblemByID, id)
	var p Problem
	err := row.Scan(&p.ID, &p.Title, &p.Statement, &p.Difficulty, &p.CreatedAt)
	return p, err
}

const listProblems = `
SELECT id, title, statement, difficulty, created_at
FROM problems
ORDER BY id
LIMIT $1 OFFSET $2
`

type ListProblemsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListProblems(ctx context.Context, arg ListProblemsParams) ([]Problem, error) {
	rows, err := q.db.Query(ctx, listProblems, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var problems []Problem
	for rows.Next() {
		var p Problem
		if err := rows.Scan(&p.ID, &p.Title, &p.Statement, &p.Difficulty, &p.CreatedAt); err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

const countProblems = `
SELECT count(*) FROM problems
`

func (q *Queries) CountProblems(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countProblems)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createTestCase = `
INSERT INTO test_cases (problem_id, input, expected_output)
VALUES ($1, $2, $3)
RETURNING id, problem_id, input, expected_output
`

type CreateTestCaseParams struct {
	ProblemID      int64
	Input          string
	ExpectedOutput string
}

func (q *Queries) CreateTestCase(ctx context.Context, arg CreateTestCaseParams) (TestCase, error) {
	row := q.db.QueryRow(ctx, createTestCase, arg.ProblemID, arg.Input, arg.ExpectedOutput)
	var tc TestCase
	err := row.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.ExpectedOutput)
	return tc, err
}

const getTestCasesByProblem = `
SELECT id, problem_id, input, expected_output
FROM test_cases
WHERE problem_id = $1
ORDER BY id
`

func (q *Queries) GetTestCasesByProblem(ctx context.Context, problemID int64) ([]TestCase, error) {
	rows, err := q.db.Query(ctx, getTestCasesByProblem, problemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var testCases []TestCase
	for rows.Next() {
		var tc TestCase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.ExpectedOutput); err != nil {
			return nil, err
		}
		testCases = append(testCases, tc)
	}
	return testCases, rows.Err()
}
