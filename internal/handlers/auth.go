package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AnshRaj112/blog-backend/internal/middleware"
	"github.com/AnshRaj112/blog-backend/internal/models"
	"github.com/AnshRaj112/blog-backend/internal/services"
	"github.com/AnshRaj112/blog-backend/pkg/utils"
)

const (
	isLoginCookieName  = "is_login"
	usernameCookieName = "username"
	usernameCookieAge  = 30 * 24 * time.Hour
)

type redirectData struct {
	Redirect string `json:"redirect"`
}

// Register creates an account after the SMS code for the mobile checks out.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var form registerForm
	if err := h.decodeForm(r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if err := h.verifier.CheckSMSCode(ctx, form.Mobile, form.SMSCode); err != nil {
		h.writeError(w, r, err)
		return
	}

	hash, err := utils.HashPassword(form.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.users.CreateUser(ctx, form.Mobile, hash)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("user registered", "user_id", user.ID)

	if err := h.startSession(ctx, w, user, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, redirectData{Redirect: "/"})
}

// Login authenticates by mobile and password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := h.decodeForm(r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	user, err := h.users.Authenticate(ctx, form.Mobile, form.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.users.TouchLastLogin(ctx, user.ID); err != nil {
		h.logger.Warn("failed to update last login", "user_id", user.ID, "err", err)
	}

	if err := h.startSession(ctx, w, user, form.remember()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, redirectData{Redirect: safeRedirect(form.Next)})
}

// Logout drops the session and its cookies. It never fails.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		if err := h.sessions.InvalidateSession(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("failed to invalidate session", "err", err)
		}
	}

	h.clearLoginCookies(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// ForgetPassword resets the password of the account owning mobile.
func (h *Handler) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	var form registerForm
	if err := h.decodeForm(r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if err := h.verifier.CheckSMSCode(ctx, form.Mobile, form.SMSCode); err != nil {
		h.writeError(w, r, err)
		return
	}

	hash, err := utils.HashPassword(form.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.users.GetUserByMobile(ctx, form.Mobile)
	switch {
	case errors.Is(err, services.ErrUserNotFound) && h.cfg.ResetCreatesAccount:
		user, err = h.users.CreateUser(ctx, form.Mobile, hash)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.logger.Info("user created by password reset", "user_id", user.ID)
	case err != nil:
		h.writeError(w, r, err)
		return
	default:
		if err := h.users.UpdatePassword(ctx, user.ID, hash); err != nil {
			h.writeError(w, r, err)
			return
		}
		if err := h.sessions.InvalidateUserSessions(ctx, user.ID); err != nil {
			h.logger.Warn("failed to invalidate sessions after reset", "user_id", user.ID, "err", err)
		}
		h.logger.Info("password reset", "user_id", user.ID)
	}

	writeOK(w, redirectData{Redirect: "/login"})
}

func (h *Handler) startSession(ctx context.Context, w http.ResponseWriter, user *models.User, remember bool) error {
	ttl := h.cfg.SessionBrowserTTL
	if remember {
		ttl = services.RememberSessionDuration
	}

	token, err := h.sessions.CreateSession(ctx, user.ID, ttl)
	if err != nil {
		return err
	}

	// A zero MaxAge makes the cookie die with the browser.
	maxAge := 0
	if remember {
		maxAge = int(services.RememberSessionDuration.Seconds())
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     isLoginCookieName,
		Value:    "true",
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	h.setUsernameCookie(w, user.Username)
	return nil
}

func (h *Handler) setUsernameCookie(w http.ResponseWriter, username string) {
	http.SetCookie(w, &http.Cookie{
		Name:     usernameCookieName,
		Value:    url.QueryEscape(username),
		Path:     "/",
		MaxAge:   int(usernameCookieAge.Seconds()),
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearLoginCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.SessionCookieName, isLoginCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:   name,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
	}
}

// safeRedirect only allows local absolute paths.
func safeRedirect(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
