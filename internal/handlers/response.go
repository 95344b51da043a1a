package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AnshRaj112/blog-backend/internal/services"
	"github.com/AnshRaj112/blog-backend/pkg/retcode"
	"github.com/AnshRaj112/blog-backend/pkg/utils"
)

// errInvalidForm marks request bodies or query strings that could not be decoded.
var errInvalidForm = errors.New("invalid request parameters")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	retcode.Write(w, http.StatusOK, retcode.Success("ok", data))
}

// FormPage stands in for a rendered form template.
func FormPage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"page": name})
	}
}

var validationCodes = map[string]int{
	utils.TagRequired: retcode.NecessaryParamErr,
	utils.TagMobile:   retcode.MobileErr,
	utils.TagPassword: retcode.PwdErr,
	utils.TagEqField:  retcode.CPwdErr,
}

// writeError maps domain errors to an HTTP status and envelope code.
// Anything unrecognised is logged and reported as a store failure.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *utils.ValidationError
	if errors.As(err, &ve) {
		code, ok := validationCodes[ve.Tag]
		if !ok {
			code = retcode.ParamErr
		}
		retcode.Write(w, http.StatusBadRequest, retcode.New(code, ve.Message))
		return
	}

	status, code, msg := http.StatusInternalServerError, retcode.DBErr, "try again later"
	switch {
	case errors.Is(err, errInvalidForm):
		status, code, msg = http.StatusBadRequest, retcode.ParamErr, err.Error()
	case errors.Is(err, services.ErrMissingParam):
		status, code, msg = http.StatusBadRequest, retcode.NecessaryParamErr, "missing required parameter"
	case errors.Is(err, services.ErrInvalidMobile):
		status, code, msg = http.StatusBadRequest, retcode.MobileErr, "invalid mobile number"
	case errors.Is(err, services.ErrCaptchaExpired):
		status, code, msg = http.StatusBadRequest, retcode.ImageCodeErr, "image code expired"
	case errors.Is(err, services.ErrCaptchaMismatch):
		status, code, msg = http.StatusBadRequest, retcode.ImageCodeErr, "image code incorrect"
	case errors.Is(err, services.ErrSMSExpired):
		status, code, msg = http.StatusBadRequest, retcode.SMSCodeErr, "sms code expired"
	case errors.Is(err, services.ErrSMSMismatch):
		status, code, msg = http.StatusBadRequest, retcode.SMSCodeErr, "sms code incorrect"
	case errors.Is(err, services.ErrSMSSend):
		status, code, msg = http.StatusBadGateway, retcode.SMSSendErr, "failed to send sms"
	case errors.Is(err, services.ErrDuplicateMobile):
		status, code, msg = http.StatusConflict, retcode.UserErr, "mobile already registered"
	case errors.Is(err, services.ErrDuplicateUsername):
		status, code, msg = http.StatusConflict, retcode.UserErr, "username already taken"
	case errors.Is(err, services.ErrReservedUsername):
		status, code, msg = http.StatusBadRequest, retcode.UserErr, "username may not be another mobile number"
	case errors.Is(err, services.ErrInvalidCredentials):
		status, code, msg = http.StatusUnauthorized, retcode.PwdErr, "incorrect mobile or password"
	case errors.Is(err, services.ErrUserNotFound):
		status, code, msg = http.StatusNotFound, retcode.UserErr, "user not found"
	case errors.Is(err, services.ErrCategoryNotFound):
		status, code, msg = http.StatusNotFound, retcode.NoDataErr, "category not found"
	case errors.Is(err, services.ErrArticleNotFound):
		status, code, msg = http.StatusNotFound, retcode.NoDataErr, "article not found"
	case errors.Is(err, utils.ErrEmptyPage):
		status, code, msg = http.StatusNotFound, retcode.NoDataErr, "empty page"
	case errors.Is(err, utils.ErrInvalidPage):
		status, code, msg = http.StatusBadRequest, retcode.ParamErr, err.Error()
	case errors.Is(err, services.ErrUploadsDisabled):
		status, code, msg = http.StatusServiceUnavailable, retcode.AllowErr, "image uploads are not available"
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}

	retcode.Write(w, status, retcode.New(code, msg))
}
