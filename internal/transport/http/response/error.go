package response

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/baechuer/chatcpe-service/internal/domain"
	"github.com/baechuer/chatcpe-service/internal/logger"
	appCtx "github.com/baechuer/chatcpe-service/internal/pkg/context"
)

var errorResponses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "chatcpe",
		Name:      "http_error_responses_total",
		Help:      "Error bodies written, by status and error code",
	},
	[]string{"status", "code"},
)

type ErrorBody struct {
	Error ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Meta      map[string]string `json:"meta,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteError converts err into the JSON error body. Non-domain errors become
// a bare 500; causes are logged, never sent.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal error"
	var meta map[string]string

	var de *domain.Error
	if errors.As(err, &de) {
		status = statusFromKind(de.Kind)
		code = de.Code
		message = de.Message
		meta = de.Meta
	}

	errorResponses.WithLabelValues(strconv.Itoa(status), code).Inc()
	if status >= 500 {
		logger.WithCtx(r.Context()).Error().Err(err).Str("code", code).Msg("request failed")
	} else {
		logger.WithCtx(r.Context()).Debug().Str("code", code).Int("status", status).Msg("request rejected")
	}

	WriteJSON(w, status, ErrorBody{
		Error: ErrorPayload{
			Code:      code,
			Message:   message,
			Meta:      meta,
			RequestID: appCtx.GetRequestID(r.Context()),
		},
	})
}

func statusFromKind(kind domain.ErrKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindInfrastructure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
