package store

import (
	"context"
)

const createTeam = `
INSERT INTO teams (name, admin_id)
VALUES ($1, $2)
RETURNING id, name, admin_id, created_at
`

type CreateTeamParams struct {
	Name    string
	AdminID int64
}

func (q *Queries) CreateTeam(ctx context.Context, arg CreateTeamParams) (Team, error) {
	row := q.db.QueryRow(ctx, createTeam, arg.Name, arg.AdminID)
	var t Team
	err := row.Scan(&t.ID, &t.Name, &t.AdminID, &t.CreatedAt)
	return t, err
}

const getTeamByID = `
SELECT id, name, admin_id, created_at
FROM teams
WHERE id = $1
`

func (q *Queries) GetTeamByID(ctx context.Context, id int64) (Team, error) {
	row := q.db.QueryRow(ctx, getTeamByID, id)
	var t Team
	err := row.Scan(&t.ID, &t.Name, &t.AdminID, &t.CreatedAt)
	return t, err
}

const addTeamMember = `
INSERT INTO team_members (team_id, user_id, role)
VALUES ($1, $2, $3)
ON CONFLICT (team_id, user_id) DO NOTHING
RETURNING team_id, user_id, role, joined_at
`

type AddTeamMemberParams struct {
	TeamID int64
	UserID int64
	Role   string
}

func (q *Queries) AddTeamMember(ctx context.Context, arg AddTeamMemberParams) (TeamMember, error) {
	row := q.db.QueryRow(ctx, addTeamMember, arg.TeamID, arg.UserID, arg.Role)
	var m TeamMember
	err := row.Scan(&m.TeamID, &m.UserID, &m.Role, &m.JoinedAt)
	return m, err
}

const removeTeamMember = `
DELETE FROM team_members
WHERE team_id = $1 AND user_id = $2
`

type RemoveTeamMemberParams struct {
	TeamID int64
	UserID int64
}

func (q *Queries) RemoveTeamMember(ctx context.Context, arg RemoveTeamMemberParams) error {
	_, err := q.db.Exec(ctx, removeTeamMember, arg.TeamID, arg.UserID)
	return err
}

const getTeamMembers = `
SELECT team_id, user_id, role, joined_at
FROM team_members
WHERE team_id = $1
ORDER BY joined_at
`

func (q *Queries) GetTeamMembers(ctx context.Context, teamID int64) ([]TeamMember, error) {
	rows, err := q.db.Query(ctx, getTeamMembers, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []TeamMember
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
