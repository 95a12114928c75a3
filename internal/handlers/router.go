package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"insightpaper/internal/models"
)

// Router bundles the handlers the API serves.
type Router struct {
	Middleware    *Middleware
	Metrics       *Metrics
	CORSOrigins   []string
	Status        *StatusHandler
	Users         *UserHandler
	Courses       *CourseHandler
	Documents     *DocumentHandler
	Questions     *QuestionHandler
	Notifications *NotificationHandler
	Models        *ModelHandler
}

// Handler builds the chi routing tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID, Recover, Logging)
	if rt.Metrics != nil {
		r.Use(rt.Metrics.Instrument)
		r.Handle("/metrics", rt.Metrics.Handler())
	}

	staff := RequireRole(models.RoleProfessor, models.RoleAdmin)
	admin := RequireRole(models.RoleAdmin)

	r.Group(func(r chi.Router) {
		r.Use(rt.Middleware.Authenticate, SanitizeQuery)

		r.Get("/status", rt.Status.Status)
		r.Get("/api/status", rt.Status.Status)

		r.Route("/api/users", func(r chi.Router) {
			r.With(rt.Middleware.RateLimit).Post("/login", rt.Users.Login)
			r.With(rt.Middleware.RateLimit).Post("/send-otp", rt.Users.SendOTP)
			r.With(rt.Middleware.RateLimit).Post("/verify-otp", rt.Users.VerifyOTP)
			r.With(rt.Middleware.RateLimit).Post("/forgot-password", rt.Users.ForgotPassword)
			r.Post("/confirm-password-recovery", rt.Users.ConfirmPasswordRecovery)
			r.Post("/refresh-token", rt.Users.RefreshToken)
			r.Post("/logout", rt.Users.Logout)
			r.Post("/create-account", rt.Users.CreateAccount)

			r.Get("/me", rt.Users.Me)
			r.Put("/me", rt.Users.UpdateMe)
			r.Put("/me/password", rt.Users.ChangePassword)
			r.Post("/me/otp-app", rt.Users.EnableOTPApp)
			r.Post("/me/otp-app/confirm", rt.Users.ConfirmOTPApp)
			r.Delete("/me/otp-app", rt.Users.DisableOTPApp)

			r.With(admin).Get("/", rt.Users.ListUsers)
			r.With(admin).Get("/export", rt.Users.ExportUsers)
			r.With(admin).Post("/professors", rt.Users.CreateProfessor)
			r.With(admin).Put("/{userId}/roles", rt.Users.UpdateRoles)
			r.With(admin).Delete("/{userId}", rt.Users.DeleteUser)
		})

		r.Route("/api/courses", func(r chi.Router) {
			r.Get("/", rt.Courses.List)
			r.With(staff).Post("/", rt.Courses.Create)
			r.Post("/join", rt.Courses.Join)
			r.Get("/{courseId}", rt.Courses.Get)
			r.With(staff).Put("/{courseId}", rt.Courses.Update)
			r.With(staff).Delete("/{courseId}", rt.Courses.Delete)
			r.Delete("/{courseId}/leave", rt.Courses.Leave)
			r.With(staff).Get("/{courseId}/students", rt.Courses.Students)
			r.With(staff).Delete("/{courseId}/students/{studentId}", rt.Courses.RemoveStudent)
			r.With(staff).Post("/{courseId}/recommendations", rt.Courses.Recommend)
			r.With(staff).Get("/{courseId}/export", rt.Courses.ExportStudents)
		})

		r.Route("/api/documents", func(r chi.Router) {
			r.Get("/", rt.Documents.List)
			r.Post("/upload", rt.Documents.Upload)
			r.Post("/", rt.Documents.Create)
			r.Post("/search", rt.Documents.Search)
			r.Put("/{documentId}", rt.Documents.Update)
			r.Delete("/{documentId}", rt.Documents.Delete)
		})

		r.Route("/api/questions", func(r chi.Router) {
			r.Get("/", rt.Questions.List)
			r.Post("/", rt.Questions.Ask)
			r.With(staff).Get("/export", rt.Questions.Export)
			r.Put("/{questionId}/feedback", rt.Questions.Feedback)
			r.Delete("/{questionId}", rt.Questions.Delete)
		})

		r.Route("/api/notifications", func(r chi.Router) {
			r.Get("/", rt.Notifications.List)
			r.Put("/read-all", rt.Notifications.MarkAllRead)
			r.Put("/{notificationId}/read", rt.Notifications.MarkRead)
			r.Delete("/{notificationId}", rt.Notifications.Delete)
		})

		r.Route("/api/models", func(r chi.Router) {
			r.Get("/", rt.Models.List)
			r.With(admin).Post("/", rt.Models.Create)
			r.With(admin).Put("/{modelId}", rt.Models.Update)
			r.With(admin).Delete("/{modelId}", rt.Models.Delete)
		})
	})

	return cors.New(cors.Options{
		AllowedOrigins:   rt.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
	}).Handler(r)
}
