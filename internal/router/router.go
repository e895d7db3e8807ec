package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/habittrack/internal/handler"
)

// Setup 配置 Gin 引擎和路由
func Setup(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件，认证标记随会话存续
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("habittrack_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// 儿童页面使用的只读与打卡接口
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/users", api.ListUsers)
		apiGroup.GET("/users/:id/habits", api.GetUserHabits)
		apiGroup.GET("/users/:id/score", api.GetUserScore)
		apiGroup.POST("/users/:id/habits/:habitId/complete", api.CompleteHabit)
	}

	// 家长管理路由
	admin := r.Group("/admin")
	{
		admin.POST("/login", api.Login)
		admin.GET("/logout", api.Logout)

		// 需要认证的家长路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.POST("/password", api.ChangePassword)

			// API路由
			adminAPI := auth.Group("/api")
			{
				adminAPI.GET("/scores", api.GetScores)
				adminAPI.POST("/users/:id/habits", api.CreateHabit)
				adminAPI.PUT("/users/:id/habits/:habitId", api.UpdateHabit)
				adminAPI.DELETE("/users/:id/habits/:habitId", api.DeleteHabit)
				adminAPI.POST("/users/:id/reset", api.ResetScore)

				adminAPI.GET("/export/csv", api.ExportCSV)
				adminAPI.POST("/import/csv", api.ImportCSV)
				adminAPI.GET("/export/json", api.ExportJSON)
				adminAPI.POST("/import/json", api.ImportJSON)
			}
		}
	}

	return r
}
