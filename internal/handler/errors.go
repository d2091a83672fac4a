package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/wakana-code/station-navi-app/internal/segmentation"
	"github.com/wakana-code/station-navi-app/internal/service"
	"github.com/wakana-code/station-navi-app/pkg/response"
)

// writeServiceError maps a service error to the matching HTTP response.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRouteNotFound),
		errors.Is(err, service.ErrRecordingNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrSessionActive),
		errors.Is(err, service.ErrRecordingClosed),
		errors.Is(err, service.ErrRecordingNotStopped),
		errors.Is(err, service.ErrAlreadyPublished):
		response.Conflict(c, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidRoute),
		errors.Is(err, service.ErrInvalidSurvey),
		errors.Is(err, service.ErrInvalidFilter),
		errors.Is(err, service.ErrUnstableCalibration),
		errors.Is(err, segmentation.ErrInvalidInput):
		response.BadRequest(c, "Invalid request", err)
	default:
		response.InternalError(c, "Internal server error", err)
	}
}
