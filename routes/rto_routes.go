package routes

import (
	"rto_engine/middleware"
	"rto_engine/models"

	"github.com/gin-gonic/gin"
)

// InitRTORoutes 退回争议、退回入库和报表路由
func InitRTORoutes(api *gin.RouterGroup, h Handlers) {
	auth := middleware.JWTAuthMiddleware(h.Config)
	suppliers := middleware.RequireRoles(models.RoleAdmin, models.RoleSupplier)

	disputeGroup := api.Group("/orders/:id/dispute", auth, suppliers)
	{
		disputeGroup.POST("/case1", h.Disputes.RaiseCase1)
		disputeGroup.POST("/case2", h.Disputes.RaiseCase2)
	}

	api.POST("/rto-inventory", auth, suppliers, h.RTOInventory.Record)
	api.GET("/orders/:id/rto-inventory", auth, h.RTOInventory.ListForOrder)

	api.GET("/reports/orders.xlsx", auth, h.Reports.ExportOrders)
}
