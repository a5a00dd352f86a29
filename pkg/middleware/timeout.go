package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Timeout aborts request handling after d and replies 504 if the handler has
// not started writing. Once a handler times out its late writes are
// discarded rather than interleaved with the timeout response.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			gw := &guardedWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if gw.markTimedOut() {
					slog.Warn("request timed out",
						"method", r.Method,
						"path", r.URL.Path,
						"limit", d,
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusGatewayTimeout)
					io.WriteString(w, `{"error":"request timed out"}`)
				}
			}
		})
	}
}

// guardedWriter serializes the handler goroutine and the timeout path onto
// one ResponseWriter.
type guardedWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	started  bool
	timedOut bool
}

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timedOut {
		return
	}
	g.started = true
	g.ResponseWriter.WriteHeader(code)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timedOut {
		return len(b), nil
	}
	g.started = true
	return g.ResponseWriter.Write(b)
}

// markTimedOut reports whether the timeout path owns the response. It does
// only when the handler never started writing.
func (g *guardedWriter) markTimedOut() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return false
	}
	g.timedOut = true
	return true
}
