package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/keychainmdip/dex-market/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		// Challenge/response login
		v1.POST("/challenge", handler.CreateChallenge)
		v1.POST("/login", handler.Login)
		v1.GET("/check-auth", handler.CheckAuth)
		v1.POST("/logout", handler.Logout)

		// Public lookups
		v1.GET("/licenses", handler.GetLicenses)
		v1.GET("/rates", handler.GetRates)
		v1.GET("/users/:did", handler.GetUser)
		v1.GET("/collections/:did", handler.GetCollection)
		v1.GET("/assets/:did", handler.GetAsset)
		v1.GET("/did/:did", handler.ResolveDID)
		v1.GET("/ipfs/:cid", handler.GetBlob)

		// Session-bound operations
		authed := v1.Group("", middleware.RequireAuth())
		{
			authed.GET("/profile", handler.GetProfile)
			authed.PUT("/profile", handler.UpdateProfile)
			authed.POST("/profile/pfp", handler.SetPFP)

			authed.POST("/credits", handler.AddCredits)

			authed.POST("/collections", handler.CreateCollection)
			authed.PATCH("/collections/:did", handler.UpdateCollection)
			authed.DELETE("/collections/:did", handler.DeleteCollection)
			authed.POST("/collections/:did/sort", handler.SortCollection)
			authed.POST("/collections/:did/upload", handler.Upload)

			authed.PATCH("/assets/:did", handler.UpdateAsset)
			authed.POST("/assets/:did/mint", handler.Mint)
			authed.POST("/assets/:did/unmint", handler.Unmint)
			authed.POST("/assets/:did/price", handler.SetPrice)
			authed.POST("/assets/:did/buy", handler.Buy)

			// Admin surface; capability checked in the handlers
			authed.GET("/users", handler.ListUsers)
			authed.PUT("/users/:did/role", handler.SetRole)
		}
	}
}
