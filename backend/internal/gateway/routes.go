package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"plp_smartgrade/backend/internal/auth"
	"plp_smartgrade/backend/internal/gateway/handlers"
	"plp_smartgrade/backend/internal/gateway/util"
	"plp_smartgrade/backend/internal/shared"
)

// AuthService is what the gateway needs from auth.Service
type AuthService interface {
	handlers.AuthService
	ValidateToken(ctx context.Context, token string) (*shared.User, *auth.CustomClaims, error)
}

// Dependencies are the services behind the HTTP API.
type Dependencies struct {
	Auth     AuthService
	Admin    handlers.AdminService
	Messages handlers.MessageService
	Clients  *ServiceClients

	CORS           shared.CORSConfig
	RequestTimeout time.Duration
}

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORS.AllowedOrigins,
		AllowedMethods:   deps.CORS.AllowedMethods,
		AllowedHeaders:   deps.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: deps.CORS.AllowCredentials,
		MaxAge:           deps.CORS.MaxAge,
	}))

	authHandler := &handlers.AuthHandler{Auth: deps.Auth}
	gradeHandler := &handlers.GradeHandler{GradeClient: deps.Clients.GradeClient, Timeout: deps.RequestTimeout}
	adminHandler := &handlers.AdminHandler{Admin: deps.Admin}
	messageHandler := &handlers.MessageHandler{Messages: deps.Messages}

	r.Get("/healthz", healthHandler(deps.Clients))

	r.Route("/api", func(r chi.Router) {

		// --- Public Routes ---
		r.Post("/auth/request-otp", authHandler.RequestOTP)
		r.Post("/auth/verify-otp", authHandler.VerifyOTP)
		r.Post("/auth/magic-link", authHandler.MagicLink)
		r.Post("/auth/logout", authHandler.Logout)

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(deps.Auth))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/grades", func(r chi.Router) {
				r.Use(RequireRole(shared.RoleStudent))
				r.Get("/summary", gradeHandler.MySummary)
				r.Get("/subjects/{subject_id}", gradeHandler.MySubject)
			})

			r.Route("/messages", func(r chi.Router) {
				r.Post("/", messageHandler.Send)
				r.Get("/inbox", messageHandler.Inbox)
				r.Get("/unread", messageHandler.Unread)
				r.Get("/{peer_id}", messageHandler.Conversation)
				r.Post("/{peer_id}/read", messageHandler.MarkRead)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(shared.RoleAdmin))

				r.Get("/users", adminHandler.ListUsers)
				r.Post("/admins", adminHandler.CreateAdmin)

				r.Route("/students", func(r chi.Router) {
					r.Get("/", adminHandler.ListStudents)
					r.Post("/", adminHandler.CreateStudent)
					r.Get("/{id}", adminHandler.GetStudent)
					r.Put("/{id}", adminHandler.UpdateStudent)
					r.Delete("/{id}", adminHandler.DeleteStudent)
					r.Get("/{id}/summary", gradeHandler.StudentSummary)
					r.Get("/{id}/subjects/{subject_id}/performance", gradeHandler.StudentSubject)
					r.Get("/{id}/subjects/{subject_id}/scores", adminHandler.ListScores)
					r.Get("/{id}/subjects/{subject_id}/exams", adminHandler.ListExams)
				})

				r.Route("/subjects", func(r chi.Router) {
					r.Get("/", adminHandler.ListSubjects)
					r.Post("/", adminHandler.CreateSubject)
					r.Get("/{id}", adminHandler.GetSubject)
					r.Put("/{id}", adminHandler.UpdateSubject)
					r.Delete("/{id}", adminHandler.DeleteSubject)
					r.Get("/{id}/categories", adminHandler.ListCategories)
					r.Post("/{id}/categories", adminHandler.SaveCategory)
					r.Get("/{id}/enrollments", adminHandler.ListEnrollments)
					r.Post("/{id}/enrollments", adminHandler.Enroll)
					r.Delete("/{id}/enrollments/{student_id}", adminHandler.Unenroll)
					r.Get("/{id}/performance", gradeHandler.ClassPerformance)
				})

				r.Delete("/categories/{id}", adminHandler.DeleteCategory)
				r.Post("/scores", adminHandler.RecordScore)
				r.Delete("/scores/{id}", adminHandler.DeleteScore)
				r.Post("/exams", adminHandler.RecordExam)
				r.Get("/activity", adminHandler.ListActivity)
			})
		})
	})

	return r
}

// AuthMiddleware validates the bearer token and stores the account on the
// request context.
func AuthMiddleware(authSvc AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			user, _, err := authSvc.ValidateToken(r.Context(), tokenStr)
			if err != nil {
				util.HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(util.WithUser(r.Context(), user)))
		})
	}
}

// RequireRole rejects accounts whose role is not one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := util.UserFromContext(r.Context())
			if user == nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			util.WriteJSONError(w, http.StatusForbidden, "Access denied for role "+user.Role)
		})
	}
}

func healthHandler(clients *ServiceClients) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := clients.CheckHealth(ctx); err != nil {
			util.WriteJSONError(w, http.StatusServiceUnavailable, "grade service unavailable")
			return
		}
		util.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
