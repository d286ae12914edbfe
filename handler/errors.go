package handler

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/middleware"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/pkg/logger"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrSubmission):
		return http.StatusInternalServerError
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrProtocolConflict), errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, model.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error, fallback string) string {
	var verr *model.ValidationError
	switch {
	case errors.Is(err, model.ErrSubmission):
		return fallback
	case errors.As(err, &verr):
		keys := make([]string, 0, len(verr.Fields))
		for k := range verr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msgs := make([]string, 0, len(keys))
		for _, k := range keys {
			msgs = append(msgs, verr.Fields[k])
		}
		return strings.Join(msgs, "; ")
	case errors.Is(err, model.ErrNotFound):
		return "Registro não encontrado"
	case errors.Is(err, model.ErrInvalidTransition):
		return "Transição de status não permitida"
	case errors.Is(err, model.ErrTooLarge):
		return "Arquivo excede o tamanho máximo permitido"
	default:
		return fallback
	}
}

// respondError writes the error envelope. Validation errors also carry the
// per-field messages under "campos"; 5xx errors are logged.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	body := middleware.ErrorBody(messageFor(err, fallback))

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		body["campos"] = verr.Fields
	}

	var serr *model.SubmissionError
	if errors.As(err, &serr) {
		body["retry"] = serr.Retryable
	}

	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), fallback, "error", err)
	}
	c.JSON(status, body)
}
