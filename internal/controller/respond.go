package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lmorrow/quizforge/internal/apperr"
	"github.com/lmorrow/quizforge/internal/dto"
	"github.com/rs/zerolog/log"
)

// WriteError translates a kinded service error into an HTTP response.
// Wrapped causes are logged here and never leak to the client.
func WriteError(c *gin.Context, err error) {
	status := statusOf(apperr.KindOf(err))

	resp := dto.ErrorResponse{Message: "internal error"}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		resp.Message = ae.Message
		resp.Details = ae.Details
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	} else {
		log.Warn().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("Request rejected")
	}
	c.JSON(status, resp)
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidRequest:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindExpired:
		return http.StatusGone
	case apperr.KindValidationFailed:
		return http.StatusUnprocessableEntity
	case apperr.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
