package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wakana-code/station-navi-app/internal/config"
	"github.com/wakana-code/station-navi-app/internal/handler"
	"github.com/wakana-code/station-navi-app/internal/middleware"
	"github.com/wakana-code/station-navi-app/internal/observe"
)

// Deps are the collaborators the router wires into routes.
type Deps struct {
	Logger        *slog.Logger
	Metrics       *observe.Metrics
	SurveyLimiter *middleware.RateLimiter // nil disables the survey limit

	Recordings *handler.RecordingHandler
	Routes     *handler.RouteHandler
	Stream     *handler.StreamHandler
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(d.Logger), middleware.Metrics(d.Metrics))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Station navi API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.Auth(cfg.JWTSecret)
	surveyChain := []gin.HandlerFunc{d.Routes.SubmitSurvey}
	if d.SurveyLimiter != nil {
		surveyChain = append([]gin.HandlerFunc{d.SurveyLimiter.Middleware()}, surveyChain...)
	}

	api := r.Group("/api/v1")
	{
		// 录制会话
		recordings := api.Group("/recordings")
		{
			recordings.POST("", requireAuth, d.Recordings.Start)
			recordings.GET("/:id", d.Recordings.Get)
			recordings.POST("/:id/samples", requireAuth, d.Recordings.Ingest)
			recordings.GET("/:id/progress", d.Recordings.Progress)
			recordings.GET("/:id/stream", requireAuth, d.Stream.Stream)
			recordings.POST("/:id/stop", requireAuth, d.Recordings.Stop)
			recordings.POST("/:id/publish", requireAuth, d.Recordings.Publish)
		}

		// 路线检索与反馈
		routes := api.Group("/routes")
		{
			routes.GET("", d.Routes.Search)
			routes.POST("", requireAuth, d.Routes.Create)
			routes.GET("/:id", d.Routes.Get)
			routes.GET("/:id/score", d.Routes.Score)
			routes.POST("/:id/views", d.Routes.RecordView)
			routes.POST("/:id/surveys", surveyChain...)
		}
	}

	return r
}
