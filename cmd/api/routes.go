package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func (app *Application) routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(cors.AllowAll().Handler)

	// WebSocket entry point for the realtime session hub. Auth runs before
	// the upgrade; browser clients pass the token via ?auth_token=.
	mux.Group(func(r chi.Router) {
		r.Use(app.handlers.AuthMiddleware)
		r.Get("/ws", app.handlers.WebSocketHandler)
	})

	mux.Route("/users", func(r chi.Router) {
		r.Post("/", app.handlers.CreateUserHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.handlers.AuthMiddleware)
			r.Get("/{user_id}", app.handlers.GetUserHandler)
		})
	})

	mux.Route("/teams", func(r chi.Router) {
		r.Use(app.handlers.AuthMiddleware)

		r.Post("/", app.handlers.CreateTeamHandler)
		r.Get("/{team_id}", app.handlers.GetTeamHandler)
		r.Post("/{team_id}/members", app.handlers.AddTeamMemberHandler)
		r.Delete("/{team_id}/members/{user_id}", app.handlers.RemoveTeamMemberHandler)

		r.Post("/{team_id}/chats", app.handlers.CreateChatHandler)
		r.Get("/{team_id}/chats", app.handlers.GetChatsHandler)
	})

	mux.Route("/problems", func(r chi.Router) {
		// Public routes for problems
		r.Get("/", app.handlers.GetProblemsHandler)
		r.Get("/{problem_id}", app.handlers.GetProblemHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.handlers.AuthMiddleware)
			r.Post("/", app.handlers.CreateProblemHandler)
		})
	})

	mux.Route("/sessions", func(r chi.Router) {
		r.Use(app.handlers.AuthMiddleware)

		r.Post("/", app.handlers.CreateSessionHandler)
		r.Get("/{session_id}", app.handlers.GetSessionHandler)
		r.Post("/{session_id}/terminals", app.handlers.CreateTerminalHandler)
		r.Post("/{session_id}/snapshots", app.handlers.CreateSnapshotHandler)
		r.Get("/{session_id}/snapshots/latest", app.handlers.GetLatestSnapshotHandler)
	})

	mux.Route("/terminals", func(r chi.Router) {
		r.Use(app.handlers.AuthMiddleware)
		r.Get("/{terminal_id}", app.handlers.GetTerminalHandler)
	})

	mux.Route("/snapshots", func(r chi.Router) {
		r.Use(app.handlers.AuthMiddleware)
		r.Put("/{snapshot_id}", app.handlers.UpdateSnapshotHandler)
	})

	mux.Route("/executions", func(r chi.Router) {
		r.Use(app.handlers.AuthMiddleware)

		r.Post("/", app.handlers.RunSubmissionHandler)
		r.Get("/{execution_id}", app.handlers.GetExecutionHandler)
		r.Put("/{execution_id}", app.handlers.UpdateExecutionHandler)
	})

	return mux
}
