package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/wakana-code/station-navi-app/internal/models"
	"github.com/wakana-code/station-navi-app/internal/service"
	"github.com/wakana-code/station-navi-app/pkg/response"
)

// RouteHandler handles HTTP requests for published routes
type RouteHandler struct {
	routes *service.RouteService
	search *service.SearchService
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(routes *service.RouteService, search *service.SearchService) *RouteHandler {
	return &RouteHandler{routes: routes, search: search}
}

type createRouteRequest struct {
	service.RouteInput
	Article string `json:"article"`
}

// surveyRequest requires still_valid to be sent; an absent answer must not
// count as an outdated report.
type surveyRequest struct {
	StillValid         *bool `json:"still_valid" binding:"required"`
	Watchability       int   `json:"watchability"`
	RouteSatisfaction  int   `json:"route_satisfaction"`
	WheelchairSuitable *int  `json:"wheelchair_suitable"`
	PhysicallyEasy     *int  `json:"physically_easy"`
}

func (r surveyRequest) toModel() models.SurveyResponse {
	return models.SurveyResponse{
		StillValid:         *r.StillValid,
		Watchability:       r.Watchability,
		RouteSatisfaction:  r.RouteSatisfaction,
		WheelchairSuitable: r.WheelchairSuitable,
		PhysicallyEasy:     r.PhysicallyEasy,
	}
}

// Search handles GET /api/v1/routes
func (h *RouteHandler) Search(c *gin.Context) {
	var filter models.RouteFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}

	ranked, err := h.search.Search(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, gin.H{
		"data":  ranked,
		"total": len(ranked),
	})
}

// Get handles GET /api/v1/routes/:id
func (h *RouteHandler) Get(c *gin.Context) {
	route, err := h.routes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, route)
}

// Create handles POST /api/v1/routes
func (h *RouteHandler) Create(c *gin.Context) {
	var req createRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	route, err := h.routes.Create(c.Request.Context(), req.RouteInput, req.Article)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Created(c, route)
}

// RecordView handles POST /api/v1/routes/:id/views
func (h *RouteHandler) RecordView(c *gin.Context) {
	views, err := h.routes.RecordView(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"views": views})
}

// SubmitSurvey handles POST /api/v1/routes/:id/surveys
func (h *RouteHandler) SubmitSurvey(c *gin.Context) {
	var req surveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	saved, err := h.routes.SubmitSurvey(c.Request.Context(), c.Param("id"), req.toModel())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Created(c, saved)
}

// Score handles GET /api/v1/routes/:id/score?tags=
func (h *RouteHandler) Score(c *gin.Context) {
	tags := models.ParseTagSet(c.Query("tags"))
	for tag := range tags {
		if !models.IsValidTag(tag) {
			response.BadRequest(c, "Unknown tag: "+string(tag), nil)
			return
		}
	}

	score, err := h.routes.Score(c.Request.Context(), c.Param("id"), tags)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, score)
}
