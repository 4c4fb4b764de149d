package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/reviewdb-dev/reviewdb/internal/handlers"
	"github.com/reviewdb-dev/reviewdb/internal/middleware"
	"github.com/reviewdb-dev/reviewdb/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api/v1")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/signup", handlers.SignUp)
			auth.POST("/token", handlers.GetToken)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", handlers.ListCategories)
			categories.POST("", middleware.AuthMiddleware(), handlers.CreateCategory)
			categories.DELETE("/:slug", middleware.AuthMiddleware(), handlers.DeleteCategory)
		}

		genres := api.Group("/genres")
		{
			genres.GET("", handlers.ListGenres)
			genres.POST("", middleware.AuthMiddleware(), handlers.CreateGenre)
			genres.DELETE("/:slug", middleware.AuthMiddleware(), handlers.DeleteGenre)
		}

		titles := api.Group("/titles")
		{
			titles.GET("", handlers.ListTitles)
			titles.GET("/:title_id", handlers.GetTitle)
			titles.POST("", middleware.AuthMiddleware(), handlers.CreateTitle)
			titles.PATCH("/:title_id", middleware.AuthMiddleware(), handlers.UpdateTitle)
			titles.DELETE("/:title_id", middleware.AuthMiddleware(), handlers.DeleteTitle)

			// Review endpoints
			titles.GET("/:title_id/reviews", handlers.ListReviews)
			titles.GET("/:title_id/reviews/:review_id", handlers.GetReview)
			titles.POST("/:title_id/reviews", middleware.AuthMiddleware(), handlers.CreateReview)
			titles.PATCH("/:title_id/reviews/:review_id", middleware.AuthMiddleware(), handlers.UpdateReview)
			titles.DELETE("/:title_id/reviews/:review_id", middleware.AuthMiddleware(), handlers.DeleteReview)

			// Comment endpoints
			titles.GET("/:title_id/reviews/:review_id/comments", handlers.ListComments)
			titles.GET("/:title_id/reviews/:review_id/comments/:comment_id", handlers.GetComment)
			titles.POST("/:title_id/reviews/:review_id/comments", middleware.AuthMiddleware(), handlers.CreateComment)
			titles.PATCH("/:title_id/reviews/:review_id/comments/:comment_id", middleware.AuthMiddleware(), handlers.UpdateComment)
			titles.DELETE("/:title_id/reviews/:review_id/comments/:comment_id", middleware.AuthMiddleware(), handlers.DeleteComment)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.GET("/me", handlers.GetMe)
			users.PATCH("/me", handlers.UpdateMe)
			users.GET("", handlers.ListUsers)
			users.POST("", handlers.CreateUser)
			users.GET("/:username", handlers.GetUser)
			users.PATCH("/:username", handlers.UpdateUser)
			users.DELETE("/:username", handlers.DeleteUser)
		}
	}

	return r
}
