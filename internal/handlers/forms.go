package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/creasty/defaults"
)

const maxUploadMemory = 10 << 20

type registerForm struct {
	Mobile    string `schema:"mobile" validate:"required,cnmobile"`
	Password  string `schema:"password" validate:"required,blogpwd"`
	Password2 string `schema:"password2" validate:"required,eqfield=Password"`
	SMSCode   string `schema:"sms_code" validate:"required"`
}

type loginForm struct {
	Mobile   string `schema:"mobile" validate:"required,cnmobile"`
	Password string `schema:"password" validate:"required,blogpwd"`
	Remember string `schema:"remember"`
	Next     string `schema:"next"`
}

func (f loginForm) remember() bool {
	switch f.Remember {
	case "on", "true", "1":
		return true
	}
	return false
}

type profileForm struct {
	Username string `schema:"username" validate:"required,max=64"`
	Desc     string `schema:"desc" validate:"max=500"`
}

type commentForm struct {
	ID      int64  `schema:"id" validate:"required"`
	Content string `schema:"content" validate:"required"`
}

type writeBlogForm struct {
	Title    string `schema:"title" validate:"required,max=100"`
	Category int64  `schema:"category" validate:"required"`
	Tags     string `schema:"tags" validate:"required,max=20"`
	Summary  string `schema:"sumary" validate:"required,max=200"`
	Content  string `schema:"content" validate:"required"`
}

type listQuery struct {
	CatID    int64 `schema:"cat_id" default:"1"`
	PageNum  int   `schema:"page_num" default:"1"`
	PageSize int   `schema:"page_size" default:"10"`
}

type detailQuery struct {
	ID       int64 `schema:"id" validate:"required"`
	PageNum  int   `schema:"page_num" default:"1"`
	PageSize int   `schema:"page_size" default:"5"`
}

// parseForm accepts both urlencoded and multipart bodies.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxUploadMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidForm, err)
	}
	return nil
}

// decodeForm parses the request body into dst and validates it.
func (h *Handler) decodeForm(r *http.Request, dst any) error {
	if err := parseForm(r); err != nil {
		return err
	}
	return h.decodeValues(r.PostForm, dst)
}

// decodeQuery applies `default` tags, then overlays the query string.
func (h *Handler) decodeQuery(r *http.Request, dst any) error {
	if err := defaults.Set(dst); err != nil {
		return err
	}
	return h.decodeValues(r.URL.Query(), dst)
}

func (h *Handler) decodeValues(values url.Values, dst any) error {
	if err := h.decoder.Decode(dst, values); err != nil {
		return fmt.Errorf("%w: %v", errInvalidForm, err)
	}
	return h.validate.Validate(dst)
}

// formFile returns the uploaded file under key, or nil when none was sent.
func formFile(r *http.Request, key string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[key]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}
