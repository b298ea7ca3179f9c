package controllers

import (
	"net/http"

	"rto_engine/models"
	"rto_engine/service/msg"
	"rto_engine/service/order"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// OrderController 订单控制器
type OrderController struct {
	Orders *order.Store
}

type orderItemRequest struct {
	ProductID snowflake.ID    `json:"product_id" binding:"required"`
	VariantID *snowflake.ID   `json:"variant_id"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
}

type createOrderRequest struct {
	BaseNumber    string             `json:"base_number" binding:"omitempty,max=40"`
	DropshipperID snowflake.ID       `json:"dropshipper_id"`
	SubTotal      decimal.Decimal    `json:"sub_total"`
	Tax           decimal.Decimal    `json:"tax"`
	Discount      decimal.Decimal    `json:"discount"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Currency      string             `json:"currency" binding:"omitempty,len=3"`
	Shipping      models.Address     `json:"shipping"`
	Billing       models.Address     `json:"billing"`
	PaymentID     *snowflake.ID      `json:"payment_id"`
	Items         []orderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type updateOrderRequest struct {
	Status      string          `json:"status" binding:"required"`
	SubTotal    decimal.Decimal `json:"sub_total"`
	Tax         decimal.Decimal `json:"tax"`
	Discount    decimal.Decimal `json:"discount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
	Shipping    models.Address  `json:"shipping"`
	Billing     models.Address  `json:"billing"`
	PaymentID   *snowflake.ID   `json:"payment_id"`
}

type flagRequest struct {
	Value *bool `json:"value"`
}

type activeRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// OrderCreate 创建订单
func (oc *OrderController) OrderCreate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("参数错误", err))
		return
	}

	in := order.CreateOrderInput{
		BaseNumber:    req.BaseNumber,
		DropshipperID: req.DropshipperID,
		SubTotal:      req.SubTotal,
		Tax:           req.Tax,
		Discount:      req.Discount,
		TotalAmount:   req.TotalAmount,
		Currency:      req.Currency,
		Shipping:      req.Shipping,
		Billing:       req.Billing,
		PaymentID:     req.PaymentID,
	}
	// 代发下单时归属于自己
	if actor.Role == models.RoleDropshipper {
		in.DropshipperID = snowflake.ID(actor.ID)
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, order.CreateItemInput{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	o, err := oc.Orders.Create(c.Request.Context(), actor, in)
	if err != nil {
		respondError(c, "create", err)
		return
	}
	respondOK(c, http.StatusCreated, "create", "订单创建成功", msg.Data("order", o))
}

// OrderList 按状态、日期和归属查询订单列表
func (oc *OrderController) OrderList(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	f, ok := listFilterFromQuery(c, actor)
	if !ok {
		return
	}

	res, err := oc.Orders.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, "list", err)
		return
	}
	respondOK(c, http.StatusOK, "list", "查询成功", &map[string]any{
		"orders":    res.Orders,
		"total":     res.Total,
		"page":      res.Page,
		"page_size": res.PageSize,
	})
}

// OrderDetail 订单详情
func (oc *OrderController) OrderDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := oc.Orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get", err)
		return
	}
	respondOK(c, http.StatusOK, "get", "查询成功", msg.Data("order", o))
}

// OrderUpdate 更新订单业务字段
func (oc *OrderController) OrderUpdate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("参数错误", err))
		return
	}
	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		respondError(c, "update", order.InvalidInput("invalid order status", err))
		return
	}

	o, err := oc.Orders.Update(c.Request.Context(), actor, id, order.UpdateOrderInput{
		Status:      status,
		SubTotal:    req.SubTotal,
		Tax:         req.Tax,
		Discount:    req.Discount,
		TotalAmount: req.TotalAmount,
		Currency:    req.Currency,
		Shipping:    req.Shipping,
		Billing:     req.Billing,
		PaymentID:   req.PaymentID,
	})
	if err != nil {
		respondError(c, "update", err)
		return
	}
	respondOK(c, http.StatusOK, "update", "订单更新成功", msg.Data("order", o))
}

// UpdateShippingAPIResult 保存物流商回调结果，请求体为物流商原始JSON
func (oc *OrderController) UpdateShippingAPIResult(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("读取请求体失败", err))
		return
	}

	o, err := oc.Orders.UpdateShippingAPIResult(c.Request.Context(), actor, id, raw)
	if err != nil {
		respondError(c, "shipping_api_result", err)
		return
	}
	respondOK(c, http.StatusOK, "shipping_api_result", "物流信息更新成功", msg.Data("order", o))
}

// RefreshShippingAPIResult 只覆盖原始物流结果
func (oc *OrderController) RefreshShippingAPIResult(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("读取请求体失败", err))
		return
	}
	if err := oc.Orders.RefreshShippingAPIResult(c.Request.Context(), id, raw); err != nil {
		respondError(c, "shipping_api_refresh", err)
		return
	}
	respondOK(c, http.StatusOK, "shipping_api_refresh", "物流信息已刷新", nil)
}

func flagValue(c *gin.Context) (bool, bool) {
	var req flagRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, msg.ErrResponse("参数错误", err))
			return false, false
		}
	}
	if req.Value == nil {
		return true, true
	}
	return *req.Value, true
}

// MarkDelivered 标记签收，签收日期只能写入一次
func (oc *OrderController) MarkDelivered(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	value, ok := flagValue(c)
	if !ok {
		return
	}
	o, err := oc.Orders.MarkDelivered(c.Request.Context(), actor, id, value)
	if err != nil {
		respondError(c, "mark_delivered", err)
		return
	}
	respondOK(c, http.StatusOK, "mark_delivered", "已标记签收", msg.Data("order", o))
}

// MarkRTODelivered 标记退回签收
func (oc *OrderController) MarkRTODelivered(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	value, ok := flagValue(c)
	if !ok {
		return
	}
	o, err := oc.Orders.MarkRTODelivered(c.Request.Context(), actor, id, value)
	if err != nil {
		respondError(c, "mark_rto_delivered", err)
		return
	}
	respondOK(c, http.StatusOK, "mark_rto_delivered", "已标记退回签收", msg.Data("order", o))
}

// MarkCollected 仓库登记收到退回包裹
func (oc *OrderController) MarkCollected(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := oc.Orders.MarkCollectedAtWarehouse(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, "mark_collected", err)
		return
	}
	respondOK(c, http.StatusOK, "mark_collected", "退回包裹已入仓", msg.Data("order", o))
}

// SetActive 启用或停用订单
func (oc *OrderController) SetActive(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("参数错误", err))
		return
	}
	o, err := oc.Orders.SetActive(c.Request.Context(), actor, id, *req.IsActive)
	if err != nil {
		respondError(c, "set_active", err)
		return
	}
	respondOK(c, http.StatusOK, "set_active", "订单状态已更新", msg.Data("order", o))
}

// OrderDelete 软删除
func (oc *OrderController) OrderDelete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := oc.Orders.SoftDelete(c.Request.Context(), actor, id); err != nil {
		respondError(c, "soft_delete", err)
		return
	}
	respondOK(c, http.StatusOK, "soft_delete", "订单已删除", nil)
}

// OrderRestore 恢复软删除的订单
func (oc *OrderController) OrderRestore(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := oc.Orders.Restore(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, "restore", err)
		return
	}
	respondOK(c, http.StatusOK, "restore", "订单已恢复", msg.Data("order", o))
}

// OrderHardDelete 物理删除，仅管理员
func (oc *OrderController) OrderHardDelete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := oc.Orders.HardDelete(c.Request.Context(), id); err != nil {
		respondError(c, "hard_delete", err)
		return
	}
	respondOK(c, http.StatusOK, "hard_delete", "订单已永久删除", nil)
}

// OrderItems 订单商品行
func (oc *OrderController) OrderItems(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := oc.Orders.Get(c.Request.Context(), id); err != nil {
		respondError(c, "items", err)
		return
	}
	items, err := oc.Orders.ItemsForOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, "items", err)
		return
	}
	respondOK(c, http.StatusOK, "items", "查询成功", msg.Data("items", items))
}
