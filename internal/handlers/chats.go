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

type CreateChatRequest struct {
	Message string `json:"message"`
}

// CreateChatHandler persists a chat message. Delivery to connected teammates
// happens over the WebSocket relay; this endpoint is the durable history.
func (hr *HandlerRepo) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		hr.unauthorized(w, r)
		return
	}

	teamID, err := parseIDParam(chi.URLParam(r, "team_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	var req CreateChatRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}
	if req.Message == "" {
		hr.badRequest(w, r, errors.New("message is required"))
		return
	}

	if ok, err := hr.isTeamMember(r, teamID, userID); err != nil {
		hr.serverError(w, r, err)
		return
	} else if !ok {
		hr.forbidden(w, r)
		return
	}

	chat, err := hr.queries.CreateChat(r.Context(), store.CreateChatParams{
		TeamID:  teamID,
		UserID:  userID,
		Message: req.Message,
	})
	if err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusCreated,
		Success: true,
		Msg:     "Chat message created successfully",
		Data:    chat,
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

func (hr *HandlerRepo) GetChatsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		hr.unauthorized(w, r)
		return
	}

	teamID, err := parseIDParam(chi.URLParam(r, "team_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	if _, err := hr.queries.GetTeamByID(r.Context(), teamID); errors.Is(err, pgx.ErrNoRows) {
		hr.notFound(w, r)
		return
	} else if err != nil {
		hr.serverError(w, r, err)
		return
	}

	if ok, err := hr.isTeamMember(r, teamID, userID); err != nil {
		hr.serverError(w, r, err)
		return
	} else if !ok {
		hr.forbidden(w, r)
		return
	}

	pagination := parsePaginationParams(r)
	chats, err := hr.queries.ListChatsByTeam(r.Context(), store.ListChatsByTeamParams{
		TeamID: teamID,
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
		Msg:     "Chat messages retrieved successfully",
		Data:    chats,
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}
