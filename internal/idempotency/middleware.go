package idempotency

import (
	"bytes"
	"net/http"
	"time"
)

const (
	// HeaderKey is the request header carrying the client's idempotency key.
	HeaderKey = "Idempotency-Key"

	// DefaultTTL is how long a cached response stays replayable.
	DefaultTTL = 24 * time.Hour
)

// responseRecorder captures the status and body written by the wrapped
// handler so successful responses can be cached.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rr *responseRecorder) WriteHeader(statusCode int) {
	rr.statusCode = statusCode
	rr.ResponseWriter.WriteHeader(statusCode)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	rr.body.Write(b)
	return rr.ResponseWriter.Write(b)
}

// Middleware replays cached responses for repeated Idempotency-Key values.
// Requests without the header pass through untouched, so sending the same
// cart twice without a key still creates two sessions. Keys are scoped by
// method and path so one key cannot collide across endpoints. Only 2xx
// responses are cached; onReplay, when set, is invoked for each replay.
func Middleware(store Store, ttl time.Duration, onReplay func()) func(http.Handler) http.Handler {
	if ttl == 0 {
		ttl = DefaultTTL
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawKey := r.Header.Get(HeaderKey)
			if rawKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Method + ":" + r.URL.Path + ":" + rawKey

			if cached, found := store.Get(r.Context(), key); found {
				for k, v := range cached.Headers {
					w.Header().Set(k, v)
				}
				w.Header().Set("X-Idempotency-Replay", "true")
				w.WriteHeader(cached.StatusCode)
				w.Write(cached.Body)
				if onReplay != nil {
					onReplay()
				}
				return
			}

			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= 200 && rec.statusCode < 300 {
				headers := make(map[string]string, len(rec.Header()))
				for k := range rec.Header() {
					headers[k] = rec.Header().Get(k)
				}
				store.Set(r.Context(), key, &Response{
					StatusCode: rec.statusCode,
					Headers:    headers,
					Body:       rec.body.Bytes(),
					CachedAt:   time.Now(),
				}, ttl)
			}
		})
	}
}
