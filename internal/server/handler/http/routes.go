package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/DocDesk/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves
// the DocDesk API.
//
// Routes:
//
//	POST /api/auth/register → authHandler.Register
//	POST /api/auth/login    → authHandler.Login
//	GET  /api/faqs          → faqHandler.List
//	POST /api/auth/logout   → authHandler.Logout     (bearer)
//	GET  /api/doctors/{id}  → doctorHandler.Get      (bearer)
//	PUT  /api/doctors/{id}  → doctorHandler.Update   (bearer)
//	POST /api/uploads       → uploadHandler.Upload   (bearer)
//	GET  /uploads/*         → files in uploadHandler.Dir
//
// Middleware chain (applied in order):
//  1. RequestID, taking X-Request-Id from the client when present
//  2. WithRequestLogging(logger)
//  3. Recoverer
//  4. AllowContentType for JSON and multipart bodies
func NewRouter(
	authHandler *AuthHandler,
	doctorHandler *DoctorHandler,
	faqHandler *FAQHandler,
	uploadHandler *UploadHandler,
	authn middleware.Authenticator,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.AllowContentType("application/json", "multipart/form-data"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/faqs", faqHandler.List)

		// Protected group: requires a live bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(authn, logger))
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/doctors/{id}", doctorHandler.Get)
			r.Put("/doctors/{id}", doctorHandler.Update)
			r.Post("/uploads", uploadHandler.Upload)
		})
	})

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadHandler.Dir))))

	return r
}
