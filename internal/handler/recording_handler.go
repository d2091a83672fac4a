package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/wakana-code/station-navi-app/internal/models"
	"github.com/wakana-code/station-navi-app/internal/service"
	"github.com/wakana-code/station-navi-app/pkg/response"
)

// RecordingHandler handles HTTP requests for recording sessions
type RecordingHandler struct {
	service *service.RecordingService
}

// NewRecordingHandler creates a new recording handler
func NewRecordingHandler(service *service.RecordingService) *RecordingHandler {
	return &RecordingHandler{service: service}
}

// startRecordingRequest carries either the initial heading or a set of
// calibration readings to average.
type startRecordingRequest struct {
	InitialAngle *float64  `json:"initial_angle" binding:"required_without=Calibration"`
	Calibration  []float64 `json:"calibration"`
}

type ingestRequest struct {
	Samples []models.HeadingSample `json:"samples" binding:"required"`
}

// Start handles POST /api/v1/recordings
func (h *RecordingHandler) Start(c *gin.Context) {
	var req startRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	var (
		rec *models.Recording
		err error
	)
	if req.InitialAngle != nil {
		rec, err = h.service.Start(c.Request.Context(), *req.InitialAngle)
	} else {
		rec, err = h.service.StartCalibrated(c.Request.Context(), req.Calibration)
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Created(c, rec)
}

// Ingest handles POST /api/v1/recordings/:id/samples
func (h *RecordingHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	res, err := h.service.Ingest(c.Request.Context(), c.Param("id"), req.Samples)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, res)
}

// Progress handles GET /api/v1/recordings/:id/progress
func (h *RecordingHandler) Progress(c *gin.Context) {
	p, err := h.service.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, p)
}

// Stop handles POST /api/v1/recordings/:id/stop
func (h *RecordingHandler) Stop(c *gin.Context) {
	rec, err := h.service.Stop(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, rec)
}

// Get handles GET /api/v1/recordings/:id
func (h *RecordingHandler) Get(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, rec)
}

// Publish handles POST /api/v1/recordings/:id/publish
func (h *RecordingHandler) Publish(c *gin.Context) {
	var in service.RouteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	route, err := h.service.Publish(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Created(c, route)
}
