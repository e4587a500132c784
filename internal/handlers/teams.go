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

type CreateTeamRequest struct {
	Name string `json:"name"`
}

type TeamResponse struct {
	Team    store.Team         `json:"team"`
	Members []store.TeamMember `json:"members"`
}

// CreateTeamHandler creates a team with the caller as its admin. The team row
// and the admin's membership row commit atomically.
func (hr *HandlerRepo) CreateTeamHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		hr.unauthorized(w, r)
		return
	}

	var req CreateTeamRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}
	if req.Name == "" {
		hr.badRequest(w, r, errors.New("team name is required"))
		return
	}

	tx, err := hr.db.Begin(r.Context())
	if err != nil {
		hr.serverError(w, r, err)
		return
	}
	defer tx.Rollback(r.Context())
	qtx := hr.queries.WithTx(tx)

	team, err := qtx.CreateTeam(r.Context(), store.CreateTeamParams{
		Name:    req.Name,
		AdminID: userID,
	})
	if err != nil {
		hr.serverError(w, r, err)
		return
	}

	admin, err := qtx.AddTeamMember(r.Context(), store.AddTeamMemberParams{
		TeamID: team.ID,
		UserID: userID,
		Role:   "admin",
	})
	if err != nil {
		hr.serverError(w, r, err)
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusCreated,
		Success: true,
		Msg:     "Team created successfully",
		Data:    TeamResponse{Team: team, Members: []store.TeamMember{admin}},
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

func (hr *HandlerRepo) GetTeamHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := parseIDParam(chi.URLParam(r, "team_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	team, err := hr.queries.GetTeamByID(r.Context(), teamID)
	if errors.Is(err, pgx.ErrNoRows) {
		hr.notFound(w, r)
		return
	} else if err != nil {
		hr.serverError(w, r, err)
		return
	}

	members, err := hr.queries.GetTeamMembers(r.Context(), teamID)
	if err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusOK,
		Success: true,
		Msg:     "Team retrieved successfully",
		Data:    TeamResponse{Team: team, Members: members},
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

type AddTeamMemberRequest struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// AddTeamMemberHandler adds a user to a team. Only the team admin may do so.
func (hr *HandlerRepo) AddTeamMemberHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := GetUserID(r.Context())
	if err != nil {
		hr.unauthorized(w, r)
		return
	}

	teamID, err := parseIDParam(chi.URLParam(r, "team_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	var req AddTeamMemberRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}
	if req.UserID < 1 {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}
	if req.Role == "" {
		req.Role = "member"
	}

	team, err := hr.queries.GetTeamByID(r.Context(), teamID)
	if errors.Is(err, pgx.ErrNoRows) {
		hr.notFound(w, r)
		return
	} else if err != nil {
		hr.serverError(w, r, err)
		return
	}

	if team.AdminID != callerID {
		hr.forbidden(w, r)
		return
	}

	member, err := hr.queries.AddTeamMember(r.Context(), store.AddTeamMemberParams{
		TeamID: teamID,
		UserID: req.UserID,
		Role:   req.Role,
	})
	if err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusCreated,
		Success: true,
		Msg:     "Team member added successfully",
		Data:    member,
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}

// RemoveTeamMemberHandler removes a user from a team. Admins can remove
// anyone; members may remove only themselves.
func (hr *HandlerRepo) RemoveTeamMemberHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := GetUserID(r.Context())
	if err != nil {
		hr.unauthorized(w, r)
		return
	}

	teamID, err := parseIDParam(chi.URLParam(r, "team_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}
	memberID, err := parseIDParam(chi.URLParam(r, "user_id"))
	if err != nil {
		hr.badRequest(w, r, ErrInvalidRequest)
		return
	}

	team, err := hr.queries.GetTeamByID(r.Context(), teamID)
	if errors.Is(err, pgx.ErrNoRows) {
		hr.notFound(w, r)
		return
	} else if err != nil {
		hr.serverError(w, r, err)
		return
	}

	if team.AdminID != callerID && memberID != callerID {
		hr.forbidden(w, r)
		return
	}

	if err := hr.queries.RemoveTeamMember(r.Context(), store.RemoveTeamMemberParams{
		TeamID: teamID,
		UserID: memberID,
	}); err != nil {
		hr.serverError(w, r, err)
		return
	}

	err = response.JSON(w, response.JSONResponseParameters{
		Status:  http.StatusOK,
		Success: true,
		Msg:     "Team member removed successfully",
	})
	if err != nil {
		hr.serverError(w, r, err)
	}
}
