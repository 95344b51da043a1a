package routes

import (
	"net/http"

	"github.com/AnshRaj112/blog-backend/internal/handlers"
	"github.com/AnshRaj112/blog-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r chi.Router, h *handlers.Handler, smsLimiter *middleware.IPRateLimiter) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Articles
	r.Get("/", h.Index)
	r.Get("/detail", h.Detail)

	// Verification
	r.Get("/image_code", h.ImageCode)
	r.With(middleware.SMSCodeRateLimit(smsLimiter)).Get("/sms_code", h.SMSCode)

	// Accounts
	r.Get("/register", handlers.FormPage("register"))
	r.Post("/register", h.Register)
	r.Get("/login", handlers.FormPage("login"))
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)
	r.Get("/forget_password", handlers.FormPage("forget_password"))
	r.Post("/forget_password", h.ForgetPassword)

	// Pages that need a logged-in user
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireLogin)

		r.Post("/detail", h.PostComment)
		r.Get("/center", h.Center)
		r.Post("/center", h.UpdateCenter)
		r.Get("/write_blog", h.WriteBlogPage)
		r.Post("/write_blog", h.WriteBlog)
	})

	// Live comments
	r.Get("/ws/comments", h.CommentStream)
}
