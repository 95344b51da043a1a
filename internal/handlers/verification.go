package handlers

import (
	"errors"
	"net/http"

	"github.com/AnshRaj112/blog-backend/internal/services"
)

// ImageCode serves a fresh captcha bound to the client-generated uuid.
func (h *Handler) ImageCode(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("uuid")

	img, contentType, err := h.verifier.IssueImageCode(r.Context(), token)
	if errors.Is(err, services.ErrMissingParam) {
		http.Error(w, "uuid is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("failed to issue image code", "err", err)
		http.Error(w, "failed to generate image code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// SMSCode checks the captcha answer and texts a verification code to mobile.
func (h *Handler) SMSCode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	err := h.verifier.SendSMSCode(r.Context(), q.Get("uuid"), q.Get("image_code"), q.Get("mobile"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, nil)
}
