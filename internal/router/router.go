package router

import (
	"net/http"

	"github.com/fitdash/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "fitdash_session"

// SetupRouter 配置 Gin 引擎和路由。metrics 为 nil 时不暴露 /metrics
func SetupRouter(api *handler.API, sessionSecret string, metrics http.Handler) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/import", api.ImportData)
		apiGroup.POST("/import/preview", api.PreviewImport)
		apiGroup.POST("/import/file", api.ImportFile)
		apiGroup.POST("/import/fitbit", api.SyncFitbit)

		apiGroup.GET("/daily", api.GetDaily)
		apiGroup.GET("/daily/:date", api.GetDay)
		apiGroup.GET("/weekly", api.GetWeekly)
		apiGroup.GET("/report", api.GetReport)
		apiGroup.DELETE("/data", api.ClearData)

		apiGroup.GET("/settings", api.GetSettings)
		apiGroup.PUT("/settings", api.UpdateSettings)

		apiGroup.POST("/session/user", api.SelectUser)
		apiGroup.GET("/session/user", api.GetSessionUser)
	}

	r.POST("/mcp", api.HandleMCP)

	return r
}
