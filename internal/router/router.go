package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus/companion/internal/handler"
	"campus/companion/internal/middleware"
)

func New(
	tokens middleware.TokenParser,
	authHandler *handler.AuthHandler,
	timerHandler *handler.TimerHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.Auth(tokens), authHandler.Me)

	timerGroup := api.Group("/timer")
	timerGroup.Use(middleware.Auth(tokens))
	timerGroup.GET("/state", timerHandler.GetState)
	timerGroup.POST("/start", timerHandler.Start)
	timerGroup.POST("/pause", timerHandler.Pause)
	timerGroup.POST("/reset", timerHandler.Reset)
	timerGroup.POST("/mode", timerHandler.SwitchMode)
	timerGroup.POST("/skip", timerHandler.Skip)
	timerGroup.PUT("/settings", timerHandler.UpdateSettings)
	timerGroup.GET("/history", timerHandler.GetHistory)
	timerGroup.GET("/history/report.pdf", timerHandler.Report)
	timerGroup.GET("/stats", timerHandler.GetStats)
	timerGroup.GET("/events", timerHandler.Events)

	return engine
}
