package services

import "errors"

var (
	ErrMissingParam    = errors.New("missing required parameter")
	ErrInvalidMobile   = errors.New("invalid mobile number")
	ErrCaptchaExpired  = errors.New("image code expired")
	ErrCaptchaMismatch = errors.New("image code mismatch")
	ErrSMSExpired      = errors.New("sms code expired")
	ErrSMSMismatch     = errors.New("sms code mismatch")
	ErrSMSSend         = errors.New("sms send failed")

	ErrDuplicateMobile    = errors.New("mobile already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrReservedUsername   = errors.New("username looks like another mobile number")
	ErrInvalidCredentials = errors.New("invalid mobile or password")
	ErrUserNotFound       = errors.New("user not found")

	ErrCategoryNotFound = errors.New("category not found")
	ErrArticleNotFound  = errors.New("article not found")

	ErrUploadsDisabled = errors.New("image uploads are not configured")
)
