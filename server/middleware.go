package server

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/auth"
	"github.com/user/accounts-go/logging"
)

// requestLogger logs one line per request. Bodies and the Authorization
// header are never logged.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info(r.Context(), "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"remote_addr", r.RemoteAddr,
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// recoverer turns a handler panic into a 500 apperror response. A panic
// after the response has started is only logged; the status is already sent.
func recoverer(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww, ok := w.(middleware.WrapResponseWriter)
			if !ok {
				ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			}

			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				logger.Error(r.Context(), "panic in handler",
					"panic", rvr,
					"stack", string(debug.Stack()),
					"request_id", middleware.GetReqID(r.Context()),
					"response_started", ww.Status() != 0,
				)
				if ww.Status() != 0 {
					return
				}
				auth.WriteError(ww, r, apperror.NewInternalError("internal server error", nil))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
