// AngelaMos | 2026
// requestid.go

package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	RequestIDHeader            = "X-Request-ID"
	RequestIDKey    contextKey = "request_id"
)

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9\-_.]{1,64}$`)

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID.MatchString(id) {
			id = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
