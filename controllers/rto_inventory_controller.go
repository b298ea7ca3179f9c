package controllers

import (
	"errors"
	"net/http"

	"rto_engine/service/msg"
	"rto_engine/service/rtoinventory"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RTOInventoryController 退回入库
type RTOInventoryController struct {
	Recorder *rtoinventory.Recorder
}

type recordRTORequest struct {
	OrderID       snowflake.ID    `json:"order_id" binding:"required"`
	OrderItemID   snowflake.ID    `json:"order_item_id" binding:"required"`
	DropshipperID snowflake.ID    `json:"dropshipper_id"`
	ProductID     snowflake.ID    `json:"product_id" binding:"required"`
	VariantID     *snowflake.ID   `json:"variant_id"`
	Quantity      int             `json:"quantity" binding:"required,min=1"`
	Price         decimal.Decimal `json:"price"`
}

// Record 登记退回入库；重复登记返回409和已有记录
func (rc *RTOInventoryController) Record(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req recordRTORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("参数错误", err))
		return
	}

	row, created, err := rc.Recorder.Record(c.Request.Context(), actor, rtoinventory.RecordInput{
		OrderID:       req.OrderID,
		OrderItemID:   req.OrderItemID,
		DropshipperID: req.DropshipperID,
		ProductID:     req.ProductID,
		VariantID:     req.VariantID,
		Quantity:      req.Quantity,
		Price:         req.Price,
	})
	if errors.Is(err, rtoinventory.ErrAlreadyRecorded) && row != nil {
		status, body := msg.FromError(err)
		body.Data = msg.Data("rto_inventory", row)
		c.JSON(status, body)
		return
	}
	if err != nil {
		respondError(c, "rto_inventory", err)
		return
	}
	respondOK(c, http.StatusCreated, "rto_inventory", "退回入库成功", &map[string]any{
		"rto_inventory": row,
		"created":       created,
	})
}

// ListForOrder 订单的退回入库记录
func (rc *RTOInventoryController) ListForOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := rc.Recorder.ListForOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, "rto_inventory_list", err)
		return
	}
	respondOK(c, http.StatusOK, "rto_inventory_list", "查询成功", msg.Data("rto_inventory", rows))
}
