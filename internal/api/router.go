package api

import (
	"strconv"

	"f1-penca/internal/middleware"
	"f1-penca/internal/service"
	"f1-penca/internal/ws"
	"f1-penca/pkg/metrics"
	"f1-penca/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Hub, services.User)

	r.Use(middleware.RequestLogger(), middleware.Metrics())

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	userAuth := middleware.AuthRequired(services.User)

	apiGroup := r.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/register", handler.Register)
			authGroup.POST("/login", handler.Login)
			authGroup.GET("/me", userAuth, handler.Me)
			authGroup.POST("/updatePassword", userAuth, handler.UpdatePassword)
			authGroup.PUT("/profile", userAuth, handler.UpdateProfile)
		}

		raceGroup := apiGroup.Group("/races")
		raceGroup.Use(userAuth)
		{
			raceGroup.GET("/upcoming", handler.UpcomingRaces)
			raceGroup.GET("/check_results", handler.CheckResults)
			raceGroup.GET("/results/:id", handler.RaceResults)
			raceGroup.GET("/:id", handler.GetRace)
		}

		betGroup := apiGroup.Group("/bets")
		betGroup.Use(userAuth)
		{
			betGroup.POST("", handler.CreateBet)
			betGroup.GET("/user", handler.UserBets)
		}

		apiGroup.GET("/drivers", userAuth, handler.ListDrivers)
		apiGroup.GET("/leaderboard", userAuth, handler.Leaderboard)
	}

	adminGroup := r.Group("/admin")
	{
		adminGroup.POST("/auth/login", handler.AdminLogin)

		protected := adminGroup.Group("/")
		protected.Use(middleware.AdminAuthRequired(services.Admin))
		{
			protected.POST("/races", handler.AdminCreateRace)
			protected.PUT("/races/:id", handler.AdminUpdateRace)
			protected.POST("/races/:id/settle", handler.AdminSettleRace)

			protected.POST("/drivers", handler.AdminCreateDriver)
			protected.PUT("/drivers/:id", handler.AdminUpdateDriver)
			protected.POST("/drivers/:id/mappings", handler.AdminMapDriver)

			protected.POST("/sync", handler.AdminSync)
			protected.GET("/sync/last", handler.AdminLastSync)
		}
	}

	r.GET("/ws/events", wsHandler.HandleEvents)
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(middleware.ContextUserIDKey)
}
