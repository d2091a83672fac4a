package service

import (
	"errors"

	"github.com/wakana-code/station-navi-app/internal/repository"
)

// Sentinel errors returned by the services. Handlers map them to HTTP status
// codes with errors.Is.
var (
	ErrSessionActive       = errors.New("a recording session is already in progress")
	ErrRecordingNotFound   = errors.New("recording not found")
	ErrRecordingClosed     = errors.New("recording is no longer accepting samples")
	ErrRecordingNotStopped = errors.New("recording must be stopped before publishing")
	ErrAlreadyPublished    = repository.ErrAlreadyPublished
	ErrRouteNotFound       = errors.New("route not found")
	ErrInvalidRoute        = errors.New("invalid route")
	ErrInvalidSurvey       = errors.New("invalid survey")
	ErrInvalidFilter       = errors.New("invalid search filter")
	ErrUnstableCalibration = errors.New("calibration readings are not consistent")
)
