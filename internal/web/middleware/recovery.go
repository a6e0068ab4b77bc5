package middleware

import (
	"net/http"

	"github.com/conduit-lang/descriptor/internal/web/response"
	"go.uber.org/zap"
)

// Recovery turns a panic in a handler into a 500 response and logs it with
// its stack. Precondition violations of the dictionary surface here.
func Recovery(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						zap.Any("panic", err),
						zap.String("request_id", GetRequestID(r.Context())),
						zap.String("path", r.URL.Path),
						zap.Stack("stack"),
					)
					response.RenderInternalError(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
