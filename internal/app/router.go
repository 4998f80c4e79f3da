package app

import (
	"quizprep_backend/docs"
	"quizprep_backend/internal/config"
	"quizprep_backend/internal/middleware"

	"quizprep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerQuizRoutes(authGroup, c)
		a.registerAnalysisRoutes(authGroup, c)
		a.registerUserRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerQuizRoutes(rg *gin.RouterGroup, c *controllers) {
	quiz := rg.Group("/quiz")
	{
		quiz.GET("/questions", c.quiz.GetQuestions)
		quiz.POST("/complete", c.quiz.CompleteQuiz)
		quiz.POST("/attempts", c.quiz.RecordAttempt)
	}
}

func (a *App) registerAnalysisRoutes(rg *gin.RouterGroup, c *controllers) {
	analysis := rg.Group("/analysis")
	{
		analysis.POST("/topics/merge", c.analysis.MergeTopic)
		analysis.GET("/topics", c.analysis.ListTopics)
		analysis.GET("/user", c.analysis.GetUserAnalysis)
		analysis.GET("/streak", c.analysis.GetStreak)
		analysis.GET("/export", c.analysis.Export)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	user := rg.Group("/user")
	{
		user.GET("/profile", c.user.GetProfile)
		user.POST("/telegram/link", c.user.IssueTelegramLink)
	}
}
