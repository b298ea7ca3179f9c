package routes

import (
	"net/http"

	"rto_engine/config"
	"rto_engine/controllers"
	"rto_engine/db"
	"rto_engine/service/msg"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Handlers 路由依赖的控制器
type Handlers struct {
	Config       config.Config
	DB           *gorm.DB
	Orders       *controllers.OrderController
	Disputes     *controllers.DisputeController
	RTOInventory *controllers.RTOInventoryController
	Refresh      *controllers.RefreshController
	Reports      *controllers.ReportController
}

// InitRoutes 初始化路由配置
func InitRoutes(router *gin.Engine, h Handlers) {
	api := router.Group("/api")

	// 健康检查路由
	api.GET("/health", func(c *gin.Context) {
		if err := db.HealthCheck(h.DB); err != nil {
			c.JSON(http.StatusServiceUnavailable, msg.ErrResponse("数据库不可用", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	InitOrderRoutes(api, h)
	InitRTORoutes(api, h)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, msg.ErrResponseStr("页面不存在"))
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, msg.ErrResponseStr("请求方法不允许"))
	})
}
