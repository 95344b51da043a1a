package handlers

import (
	"net/http"

	"github.com/AnshRaj112/blog-backend/internal/middleware"
	"github.com/AnshRaj112/blog-backend/internal/models"
	"github.com/AnshRaj112/blog-backend/internal/services"
)

type profileResponse struct {
	Username string `json:"username"`
	Mobile   string `json:"mobile"`
	Avatar   string `json:"avatar"`
	UserDesc string `json:"user_desc"`
}

// currentUser loads the user attached by the session middleware.
func (h *Handler) currentUser(r *http.Request) (*models.User, error) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return h.users.GetUserByID(r.Context(), userID)
}

// Center returns the logged-in user's profile.
func (h *Handler) Center(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, profileResponse{
		Username: user.Username,
		Mobile:   user.Mobile,
		Avatar:   user.Avatar,
		UserDesc: user.Description,
	})
}

// UpdateCenter changes username, description and optionally the avatar.
func (h *Handler) UpdateCenter(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var form profileForm
	if err := h.decodeForm(r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}
	if services.ReservedUsername(form.Username, user.Mobile) {
		h.writeError(w, r, services.ErrReservedUsername)
		return
	}

	ctx := r.Context()
	avatarURL := ""
	if fh := formFile(r, "avatar"); fh != nil {
		if h.images == nil {
			h.writeError(w, r, services.ErrUploadsDisabled)
			return
		}
		avatarURL, err = h.images.UploadFileFromHeader(ctx, fh, services.UserAvatarFolder)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	if err := h.users.UpdateProfile(ctx, user.ID, form.Username, form.Desc, avatarURL); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setUsernameCookie(w, form.Username)
	writeOK(w, redirectData{Redirect: "/center"})
}
