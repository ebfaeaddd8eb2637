package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	appCtx "github.com/baechuer/chatcpe-service/internal/pkg/context"
)

const HeaderXRequestID = "X-Request-Id"

// client-supplied ids are echoed into logs, keep them boring
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderXRequestID)
		if !validRequestID.MatchString(reqID) {
			reqID = uuid.NewString()
		}

		w.Header().Set(HeaderXRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(appCtx.WithRequestID(r.Context(), reqID)))
	})
}
