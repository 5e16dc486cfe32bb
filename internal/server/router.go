// Package server wires middleware and handlers into the HTTP router.
package server

import (
	"net/http"

	"foodgram/backend/internal/auth"
	"foodgram/backend/internal/handler"
	"foodgram/backend/internal/media"
	"foodgram/backend/internal/middleware"

	_ "foodgram/backend/docs"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter builds the engine serving the API, media files, metrics and
// API docs. Uploaded images are stored under mediaDir.
func NewRouter(mediaDir string) *gin.Engine {
	handler.Media = media.NewStore(mediaDir)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(), middleware.Metrics())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static("/media", mediaDir)

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
		}

		userRoutes := apiV1.Group("/users")
		{
			userRoutes.GET("", auth.OptionalAuthMiddleware(), handler.ListUsers)
			userRoutes.GET("/me", auth.AuthMiddleware(), handler.GetMe)
			userRoutes.POST("/set_password", auth.AuthMiddleware(), handler.SetPassword)
			userRoutes.GET("/subscriptions", auth.AuthMiddleware(), handler.GetSubscriptions)
			userRoutes.GET("/:id", auth.OptionalAuthMiddleware(), handler.GetUserByID)
			userRoutes.POST("/:id/subscribe", auth.AuthMiddleware(), handler.Subscribe)
			userRoutes.DELETE("/:id/subscribe", auth.AuthMiddleware(), handler.Unsubscribe)
		}

		// Reference data
		apiV1.GET("/tags", handler.GetTags)
		apiV1.GET("/tags/:id", handler.GetTagByID)
		apiV1.GET("/ingredients", handler.GetIngredients)
		apiV1.GET("/ingredients/:id", handler.GetIngredientByID)

		recipeRoutes := apiV1.Group("/recipes")
		{
			recipeRoutes.GET("", auth.OptionalAuthMiddleware(), handler.GetRecipes)
			recipeRoutes.GET("/download_shopping_cart", auth.AuthMiddleware(), handler.DownloadShoppingCart)
			recipeRoutes.GET("/feed", auth.AuthMiddleware(), handler.StreamFeed)
			recipeRoutes.GET("/:id", auth.OptionalAuthMiddleware(), handler.GetRecipeByID)

			protected := recipeRoutes.Group("")
			protected.Use(auth.AuthMiddleware())
			{
				protected.POST("", handler.CreateRecipe)
				protected.PATCH("/:id", handler.UpdateRecipe)
				protected.PUT("/:id", handler.UpdateRecipe)
				protected.DELETE("/:id", handler.DeleteRecipe)
				protected.POST("/:id/favorite", handler.AddFavorite)
				protected.DELETE("/:id/favorite", handler.RemoveFavorite)
				protected.POST("/:id/shopping_cart", handler.AddToShoppingCart)
				protected.DELETE("/:id/shopping_cart", handler.RemoveFromShoppingCart)
			}
		}

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware())
		{
			tags := adminRoutes.Group("/tags")
			{
				tags.POST("", handler.CreateTag)
				tags.PUT("/:id", handler.UpdateTag)
				tags.DELETE("/:id", handler.DeleteTag)
			}
		}
	}

	return router
}
