package store

import (
	"context"
)

const createChat = `
INSERT INTO chats (team_id, user_id, message)
VALUES ($1, $2, $3)
RETURNING id, team_id, user_id, message, sent_at
`

type CreateChatParams struct {
	TeamID  int64
	UserID  int64
	Message string
}

func (q *Queries) CreateChat(ctx context.Context, arg CreateChatParams) (Chat, error) {
	row := q.db.QueryRow(ctx, createChat, arg.TeamID, arg.UserID, arg.Message)
	var c Chat
	err := row.Scan(&c.ID, &c.TeamID, &c.UserID, &c.Message, &c.SentAt)
	return c, err
}

const listChatsByTeam = `
SELECT id, team_id, user_id, message, sent_at
FROM chats
WHERE team_id = $1
ORDER BY sent_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListChatsByTeamParams struct {
	TeamID int64
	Limit  int32
	Offset int32
}

func (q *Queries) ListChatsByTeam(ctx context.Context, arg ListChatsByTeamParams) ([]Chat, error) {
	rows, err := q.db.Query(ctx, listChatsByTeam, arg.TeamID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.TeamID, &c.UserID, &c.Message, &c.SentAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}
