package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/courspresso/courspresso-web/internal/auth"
	"github.com/courspresso/courspresso-web/internal/models"
)

// Routes registers every page on r. SessionMiddleware must already be in
// r's stack. limit guards the credential forms and may be nil.
func (h *Handler) Routes(r chi.Router, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	r.NotFound(h.NotFound)

	// public
	r.Get("/", h.Home)
	r.Get("/courses/{id}", h.Course)
	r.Get("/domain/{slug}", h.Domain)
	r.Get("/quiz", h.Quiz)
	r.Post("/quiz", h.QuizSubmit)
	r.Get("/recommendations", h.Recommendations)
	r.Get("/recommendations.csv", h.RecommendationsCSV)
	r.Get("/feedback", h.FeedbackPage)
	r.Post("/feedback", h.FeedbackSubmit)
	r.Get("/unauthorized", h.Unauthorized)
	r.Post("/logout", h.Logout)

	// credential forms
	r.Group(func(r chi.Router) {
		r.Use(auth.RedirectAuthenticated)
		r.Get("/login", h.Login)
		r.With(limit).Post("/login", h.LoginSubmit)
		r.Get("/signup", h.Signup)
		r.With(limit).Post("/signup", h.SignupSubmit)
		r.Get("/verify-otp", h.VerifyOTP)
		r.With(limit).Post("/verify-otp", h.VerifyOTPSubmit)
		r.Get("/forgot-password", h.ForgotPassword)
		r.With(limit).Post("/forgot-password", h.ForgotPasswordSubmit)
		r.Get("/reset-password", h.ResetPassword)
		r.With(limit).Post("/reset-password", h.ResetPasswordSubmit)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRoles(models.RoleUser, models.RoleAdmin))
		r.Get("/saved", h.SavedPage)
		r.Post("/saved-courses", h.SaveCourse)
		r.Post("/saved-courses/{id}/delete", h.RemoveSavedCourse)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRoles(models.RoleUser))
		r.Get("/user-dashboard", h.UserDashboard)
		r.Get("/register", h.Register)
		r.Post("/register", h.RegisterSubmit)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireRoles(models.RoleAdmin))
		r.Get("/", h.AdminPage)
		r.Post("/courses", h.CreateCourse)
		r.Post("/courses/{id}/delete", h.DeleteCourse)
		r.Post("/users/delete", h.DeleteUser)
	})
}
