package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/blog-backend/pkg/clientip"
	"github.com/AnshRaj112/blog-backend/pkg/retcode"
	"golang.org/x/time/rate"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerXXSSProtection          = "X-XSS-Protection"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerXXSSProtection, "1; mode=block")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'self'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost (e.g. api.blog.example.com).
// allowedHost should be the bare hostname without scheme or port.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --- Global rate limiting (per-IP, 1/s, burst 10) ---

const (
	globalRateLimitRPS   = 1
	globalRateLimitBurst = 10
)

// GlobalRateLimit limits each IP to 1 req/s, burst 10. Returns 429 when exceeded.
func GlobalRateLimit(l *IPRateLimiter) func(http.Handler) http.Handler {
	return limitByIP(l, nil, "Too many requests. Please slow down.")
}

// --- Credential route rate limiting (1 req/5s, burst 2) ---

const (
	loginRateLimitEvery = 5 * time.Second
	loginRateLimitBurst = 2
)

var loginPaths = map[string]bool{
	"/login":           true,
	"/register":        true,
	"/forget_password": true,
}

// LoginRateLimit applies a stricter limit to credential form submissions. Use after GlobalRateLimit.
func LoginRateLimit(l *IPRateLimiter) func(http.Handler) http.Handler {
	match := func(r *http.Request) bool {
		return r.Method == http.MethodPost && loginPaths[r.URL.Path]
	}
	return limitByIP(l, match, "Too many login attempts. Please try again later.")
}

// --- SMS code issuance (1 req/20s, burst 3) ---

const (
	smsRateLimitEvery = 20 * time.Second
	smsRateLimitBurst = 3
)

func NewSMSCodeLimiter() *IPRateLimiter {
	return NewIPRateLimiter(rate.Every(smsRateLimitEvery), smsRateLimitBurst)
}

// SMSCodeRateLimit throttles SMS issuance per IP in every environment.
func SMSCodeRateLimit(l *IPRateLimiter) func(http.Handler) http.Handler {
	return limitByIP(l, nil, "Too many verification codes requested. Please wait.")
}

func limitByIP(l *IPRateLimiter, match func(*http.Request) bool, msg string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if match != nil && !match(r) {
				next.ServeHTTP(w, r)
				return
			}
			if !l.Allow(clientip.RealClientIP(r)) {
				retcode.Write(w, http.StatusTooManyRequests, retcode.New(retcode.ThrottlingErr, msg))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit.
func ProductionSecurity(allowedHost string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		GlobalRateLimit(NewIPRateLimiter(rate.Limit(globalRateLimitRPS), globalRateLimitBurst)),
		LoginRateLimit(NewIPRateLimiter(rate.Every(loginRateLimitEvery), loginRateLimitBurst)),
	}
}
