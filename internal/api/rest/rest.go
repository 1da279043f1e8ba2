package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler) {
	// Health check endpoint (no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes (public read access)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/collections/:address", handler.GetCollection)
		v1.GET("/collections/:address/stats", handler.GetCollectionStats)
		v1.GET("/collections/:address/tokens/:token_id", handler.GetOwnership)
		v1.GET("/collections/:address/owners", handler.ListOwners)
		v1.GET("/collections/:address/owners/:owner", handler.GetOwnerSummary)
		v1.GET("/collections/:address/txs", handler.ListTxs)
		v1.GET("/collections/:address/crosschain", handler.ListCrossChainByParty)
		v1.GET("/collections/:address/crosschain/:token_id", handler.GetCrossChainStatus)
	}
}
