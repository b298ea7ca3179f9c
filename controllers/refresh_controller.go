package controllers

import (
	"net/http"

	"rto_engine/method"
	"rto_engine/service/msg"
	"rto_engine/service/order"

	"github.com/gin-gonic/gin"
)

// RefreshController 物流状态刷新
type RefreshController struct {
	Orders *order.Store
	Poller *method.RefreshPoller
}

// Candidates 当前需要刷新的订单，只查询不写入
func (rc *RefreshController) Candidates(c *gin.Context) {
	orders, err := rc.Orders.SelectStale(c.Request.Context(), rc.Orders.Now())
	if err != nil {
		respondError(c, "refresh_candidates", err)
		return
	}
	respondOK(c, http.StatusOK, "refresh_candidates", "查询成功", &map[string]any{
		"orders": orders,
		"count":  len(orders),
	})
}

// Sweep 立即执行一次刷新
func (rc *RefreshController) Sweep(c *gin.Context) {
	report, err := rc.Poller.RunOnce(c.Request.Context())
	if err != nil {
		respondError(c, "refresh_sweep", err)
		return
	}
	message := "刷新完成"
	if !report.Locked {
		message = "刷新任务正在执行中"
	}
	c.JSON(http.StatusOK, msg.SuccessResponse(message, msg.Data("report", report)))
}
