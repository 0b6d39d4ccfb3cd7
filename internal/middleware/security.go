package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AnshRaj112/brift-backend/pkg/clientip"
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

// HostCheck returns 403 when r.Host does not match allowedHost (e.g. api.brift.in).
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

func tooManyRequests(w http.ResponseWriter, limit int, message string) {
	w.Header().Set("Content-Type", "application/json")
	if limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", "0")
	}
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"success":false,"status_code":429,"message":"` + message + `"}`))
}

// --- Global rate limiting (per-IP, 5/s, burst 20) ---

var globalLimiter = newKeyedLimiter(rate.Limit(5), 20)

// GlobalRateLimit limits each IP to 5 req/s, burst 20. Returns 429 when exceeded.
func GlobalRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !globalLimiter.Allow(clientip.RealClientIP(r)) {
			tooManyRequests(w, 0, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Login route rate limiting (1 req/5s, burst 3) ---

var loginLimiter = newKeyedLimiter(rate.Every(5*time.Second), 3)

var loginPaths = map[string]bool{
	"/auth/login":  true,
	"/auth/signin": true,
}

// LoginRateLimit applies a stricter limit to the login and sign-up routes only.
func LoginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !loginPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		if !loginLimiter.Allow(clientip.RealClientIP(r)) {
			tooManyRequests(w, 0, "Too many login attempts. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Assistant rate limiting: auth 30/min burst 10, anonymous 6/min burst 3 ---

const (
	assistantAuthBurst = 10
	assistantAnonBurst = 3
)

var (
	assistantAuthLimiter = newKeyedLimiter(rate.Every(2*time.Second), assistantAuthBurst)
	assistantAnonLimiter = newKeyedLimiter(rate.Every(10*time.Second), assistantAnonBurst)
)

func hasBearer(r *http.Request) bool {
	h := r.Header.Get("Authorization")
	return strings.HasPrefix(h, "Bearer ") && len(strings.TrimPrefix(h, "Bearer ")) > 0
}

// AssistantRateLimit limits calls to the assistant, which are billed per request upstream.
func AssistantRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.RealClientIP(r)
		limiter, limit := assistantAnonLimiter, assistantAnonBurst
		if hasBearer(r) {
			limiter, limit = assistantAuthLimiter, assistantAuthBurst
		}
		if !limiter.Allow(ip) {
			tooManyRequests(w, limit, "Too many assistant requests. Please slow down.")
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit.
func ProductionSecurity(allowedHost string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		GlobalRateLimit,
		LoginRateLimit,
	}
}
