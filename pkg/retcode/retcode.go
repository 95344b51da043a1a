// Package retcode holds the numeric codes carried in the {"code", "errmsg"}
// response envelope.
package retcode

import (
	"encoding/json"
	"net/http"
)

const (
	OK                = 0
	ImageCodeErr      = 4001
	ThrottlingErr     = 4002
	NecessaryParamErr = 4003
	UserErr           = 4004
	PwdErr            = 4005
	CPwdErr           = 4006
	MobileErr         = 4007
	SMSCodeErr        = 4008
	AllowErr          = 4009
	SessionErr        = 4101
	DBErr             = 5000
	SMSSendErr        = 5002
	NoDataErr         = 5003
	ParamErr          = 5006
)

// Envelope is the JSON body returned by AJAX style endpoints.
type Envelope struct {
	Code   int    `json:"code"`
	ErrMsg string `json:"errmsg"`
	Data   any    `json:"data,omitempty"`
}

func New(code int, msg string) Envelope {
	return Envelope{Code: code, ErrMsg: msg}
}

func Success(msg string, data any) Envelope {
	return Envelope{Code: OK, ErrMsg: msg, Data: data}
}

// Write encodes env as the response body with the given HTTP status.
func Write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}
