package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/lexiconlabs/resolution-platform/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with a short random id, echoing an inbound
// X-Request-ID header when the caller supplied one. The id travels in the
// response header and in the request context for log correlation.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = newRequestID()
			}
			w.Header().Set(requestIDHeader, id)
			ctx := logger.WithRequestID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newRequestID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}
