package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/booksearch/internal/metrics"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func record(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w}
}

func (r *statusRecorder) code() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// RequestLogger logs method, path, status and duration of every request.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.code(),
				"bytes", rec.bytes,
				"duration", time.Since(start),
			)
		})
	}
}

// Instrument counts requests and observes their duration.
//
// The path label is the registered route pattern to keep label cardinality bounded.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := record(w)
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		metrics.HttpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.code())).Inc()
		metrics.HttpRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	})
}

// Recoverer converts handler panics into 500 responses.
func Recoverer(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					logger.Error("handler panic", "path", r.URL.Path, "panic", v)
					writeError(w, http.StatusInternalServerError, "internal server error", "", 0)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
