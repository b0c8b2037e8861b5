package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterDeps agrupa o que o roteador HTTP precisa para montar as rotas
type RouterDeps struct {
	Repository     Repository
	SaleHandler    *SaleHandler
	ProductHandler *ProductHandler
	Metrics        *HTTPMetrics
	Logger         *zap.Logger
}

func newRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(deps.Logger), deps.Metrics.Middleware())

	r.GET("/health", HealthCheck(deps.Repository))
	r.GET("/metrics", deps.Metrics.Handler())

	api := r.Group("/api")

	sales := api.Group("/sales")
	sales.POST("", deps.SaleHandler.CreateSale)
	sales.GET("", deps.SaleHandler.ListSales)
	sales.GET("/:id", deps.SaleHandler.GetSale)

	products := api.Group("/products")
	products.GET("", deps.ProductHandler.ListProducts)
	products.POST("", deps.ProductHandler.CreateProduct)
	products.GET("/:id", deps.ProductHandler.GetProduct)
	products.PUT("/:id", deps.ProductHandler.UpdateProduct)
	products.DELETE("/:id", deps.ProductHandler.DeleteProduct)

	return r
}
