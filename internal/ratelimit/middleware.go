package ratelimit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"unichance/internal/common/logger"
	"unichance/internal/common/metrics"
)

const maxKeyBody = 1 << 20

// KeyFunc derives the limiter key from a request.
type KeyFunc func(r *http.Request) string

// KeyByIP keys by client address. Run chi's RealIP first when behind a proxy.
func KeyByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		if r.RemoteAddr == "" {
			return "unknown"
		}
		return r.RemoteAddr
	}
	return host
}

// KeyByBodyField keys by a string field of the JSON body, prefixed, falling back
// when the field is absent. The body is restored for the next handler.
func KeyByBodyField(field, prefix string, fallback KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		if r.Body == nil {
			return fallback(r)
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, maxKeyBody))
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if err != nil {
			return fallback(r)
		}

		var body map[string]interface{}
		if json.Unmarshal(raw, &body) != nil {
			return fallback(r)
		}
		if v, ok := body[field].(string); ok && v != "" {
			return prefix + v
		}
		return fallback(r)
	}
}

// AuthKey keys auth attempts by email, or by IP when no email is sent.
var AuthKey = KeyByBodyField("email", "auth:", KeyByIP)

type rejection struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
	Message    string `json:"message"`
}

// Middleware enforces l per key. Store failures let the request through.
func Middleware(l *Limiter, keyFunc KeyFunc, log logger.Logger) func(http.Handler) http.Handler {
	if keyFunc == nil {
		keyFunc = KeyByIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := l.Name + ":" + keyFunc(r)

			decision, err := l.Allow(r.Context(), key)
			if err != nil {
				metrics.RateLimitDecisions.WithLabelValues(l.Name, "error").Inc()
				log.Warn("rate limit store unavailable, allowing request", map[string]interface{}{
					"limiter": l.Name,
					"error":   err.Error(),
				})
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("X-RateLimit-Reset", decision.ResetAt.UTC().Format(time.RFC3339))

			if decision.Allowed {
				metrics.RateLimitDecisions.WithLabelValues(l.Name, "allowed").Inc()
				next.ServeHTTP(w, r)
				return
			}

			metrics.RateLimitDecisions.WithLabelValues(l.Name, "rejected").Inc()
			retryAfter := int(decision.RetryAfter(l.now()) / time.Second)
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(rejection{
				Error:      "Too many requests",
				RetryAfter: retryAfter,
				Message:    fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", retryAfter),
			})
		})
	}
}
