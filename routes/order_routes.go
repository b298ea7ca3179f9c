package routes

import (
	"rto_engine/middleware"
	"rto_engine/models"

	"github.com/gin-gonic/gin"
)

// InitOrderRoutes 初始化订单相关路由
func InitOrderRoutes(api *gin.RouterGroup, h Handlers) {
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	operators := middleware.RequireRoles(models.RoleAdmin, models.RoleSystem)

	orderGroup := api.Group("/orders", middleware.JWTAuthMiddleware(h.Config))
	{
		orderGroup.POST("", h.Orders.OrderCreate)
		orderGroup.GET("", h.Orders.OrderList)

		// 刷新任务路由需要在 :id 之前注册
		orderGroup.GET("/refresh-candidates", operators, h.Refresh.Candidates)
		orderGroup.POST("/refresh-sweep", operators, h.Refresh.Sweep)

		orderGroup.GET("/:id", h.Orders.OrderDetail)
		orderGroup.PUT("/:id", h.Orders.OrderUpdate)
		orderGroup.GET("/:id/items", h.Orders.OrderItems)
		orderGroup.PUT("/:id/active", adminOnly, h.Orders.SetActive)
		orderGroup.DELETE("/:id", h.Orders.OrderDelete)
		orderGroup.POST("/:id/restore", adminOnly, h.Orders.OrderRestore)
		orderGroup.DELETE("/:id/permanent", adminOnly, h.Orders.OrderHardDelete)

		// 物流状态
		orderGroup.PUT("/:id/shipping-api-result", h.Orders.UpdateShippingAPIResult)
		orderGroup.PUT("/:id/shipping-api-result/refresh", h.Orders.RefreshShippingAPIResult)
		orderGroup.POST("/:id/delivered", operators, h.Orders.MarkDelivered)
		orderGroup.POST("/:id/rto-delivered", operators, h.Orders.MarkRTODelivered)
		orderGroup.POST("/:id/collected", middleware.RequireRoles(models.RoleAdmin, models.RoleSupplier), h.Orders.MarkCollected)
	}
}
