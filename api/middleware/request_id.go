package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodcart-backend/pkg/logger"
)

const (
	RequestIDHeader     = "X-Request-Id"
	correlationIDHeader = "X-Correlation-Id"
)

const ctxRequestID contextKey = "request_id"

var requestIDRe = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID reuses X-Request-Id (or X-Correlation-Id from upstream proxies)
// when it is log-safe, and mints a uuid otherwise. The id is echoed back.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := incomingRequestID(r)
			w.Header().Set(RequestIDHeader, reqID)

			ctx := context.WithValue(r.Context(), ctxRequestID, reqID)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func incomingRequestID(r *http.Request) string {
	for _, header := range []string{RequestIDHeader, correlationIDHeader} {
		if v := r.Header.Get(header); requestIDRe.MatchString(v) {
			return v
		}
	}
	return uuid.NewString()
}

// RequestIDFromContext returns the id assigned by RequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(ctxRequestID).(string)
	return v
}
