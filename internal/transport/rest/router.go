package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/caredesk/case-management/internal/auth"
	"github.com/caredesk/case-management/internal/note"
	"github.com/caredesk/case-management/internal/request"
	"github.com/caredesk/case-management/internal/transport/middleware"
	"github.com/caredesk/case-management/internal/transport/swagger"
	"github.com/caredesk/case-management/internal/user"
)

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	rbac *auth.RBACAuthorization,
	userHandler *user.Handler,
	requestHandler *request.Handler,
	noteHandler *note.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	// Logging runs outside recovery so a recovered panic still produces a
	// response log, and the recovery handler sees the request-scoped logger.
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Public routes
		r.Post("/auth/register", userHandler.Register)
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Post("/logout", authHandler.Logout)
		})

		// Everything below requires a valid token
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Route("/requests", func(rr chi.Router) {
				rr.Group(func(gr chi.Router) {
					gr.Use(rbac.RequirePermission(auth.PermCreateRequest))
					gr.Post("/", requestHandler.CreateSupport)
				})
				rr.Group(func(gr chi.Router) {
					gr.Use(rbac.RequirePermission(auth.PermViewOwnRequests))
					gr.Get("/mine", requestHandler.ListMine)
				})
				rr.Group(func(gr chi.Router) {
					gr.Use(rbac.RequirePermission(auth.PermViewRequests))
					gr.Get("/", requestHandler.ListRequests)
				})
				rr.Group(func(gr chi.Router) {
					gr.Use(rbac.RequirePermission(auth.PermViewAssignedReqs))
					gr.Get("/assigned", requestHandler.ListAssigned)
				})
				rr.Group(func(gr chi.Router) {
					gr.Use(rbac.RequirePermission(auth.PermAssignRequests))
					gr.Patch("/{id}/assign", requestHandler.AssignSupport)
					gr.Delete("/{id}", requestHandler.DeleteSupport)
				})
				rr.Group(func(gr chi.Router) {
					gr.Use(rbac.RequirePermission(auth.PermEditRequestStatus))
					gr.Patch("/{id}/status", requestHandler.UpdateSupportStatus)
				})
			})

			pr.Route("/anonymous-requests", func(ar chi.Router) {
				ar.Group(func(gr chi.Router) {
					gr.Use(rbac.RequirePermission(auth.PermManageAnonRequests, auth.PermViewAnonRequests))
					gr.Get("/", requestHandler.ListAnonymous)
					gr.Get("/{id}", requestHandler.GetAnonymous)
				})
				ar.Group(func(gr chi.Router) {
					gr.Use(rbac.RequirePermission(auth.PermManageAnonRequests))
					gr.Post("/", requestHandler.CreateAnonymous)
					gr.Patch("/{id}/assign", requestHandler.AssignAnonymous)
					gr.Patch("/{id}/status", requestHandler.UpdateAnonymousStatus)
					gr.Patch("/{id}/notes", requestHandler.UpdateAnonymousNotes)
					gr.Delete("/{id}", requestHandler.DeleteAnonymous)
				})
			})

			pr.Route("/notes", func(nr chi.Router) {
				nr.Group(func(gr chi.Router) {
					gr.Use(rbac.RequirePermission(
						auth.PermViewRequests,
						auth.PermViewAnonRequests,
						auth.PermManageAnonRequests,
					))
					gr.Get("/{requestType}/{requestId}", noteHandler.ListNotes)
				})
				nr.Group(func(gr chi.Router) {
					gr.Use(rbac.RequirePermission(auth.PermEditRequestStatus, auth.PermManageAnonRequests))
					gr.Post("/{requestType}/{requestId}", noteHandler.AddNote)
				})
				// Author/admin checks happen in the service
				nr.Patch("/{noteId}", noteHandler.EditNote)
				nr.Delete("/{noteId}", noteHandler.DeleteNote)
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/me", userHandler.Me)
				ur.Group(func(gr chi.Router) {
					gr.Use(rbac.RequirePermission(
						auth.PermManageUsers,
						auth.PermViewUser,
						auth.PermViewPatientInfo,
					))
					gr.Get("/", userHandler.ListUsers)
					gr.Get("/{email}", userHandler.GetUser)
				})
				// Self vs update_user vs manage_users resolved in the service
				ur.Patch("/{email}", userHandler.UpdateProfile)
				ur.Delete("/{email}", userHandler.DeleteUser)
				ur.Group(func(gr chi.Router) {
					gr.Use(rbac.RequirePermission(auth.PermManageUsers))
					gr.Put("/{email}/roles", userHandler.SetRoles)
				})
			})
		})
	})
}
