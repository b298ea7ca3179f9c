package controllers

import (
	"net/http"
	"strconv"
	"time"

	"rto_engine/middleware"
	"rto_engine/models"
	"rto_engine/service/msg"
	"rto_engine/service/order"
	"rto_engine/utils"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// pathID 解析路径中的雪花ID，失败时直接返回400
func pathID(c *gin.Context, name string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, msg.ErrResponseStr("无效的ID: "+c.Param(name)))
		return 0, false
	}
	return id, true
}

func queryID(c *gin.Context, name string) (*snowflake.ID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponseStr("无效的参数: "+name))
		return nil, false
	}
	return &id, true
}

func currentActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, msg.ErrResponseStr("Authorization token is required"))
	}
	return actor, ok
}

// respondError 转换业务错误并记录失败指标
func respondError(c *gin.Context, operation string, err error) {
	middleware.RecordOrderOperation(operation, false)
	status, body := msg.FromError(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, body)
}

func respondOK(c *gin.Context, status int, operation, message string, data *map[string]any) {
	middleware.RecordOrderOperation(operation, true)
	c.JSON(status, msg.SuccessResponse(message, data))
}

// listFilterFromQuery 从查询参数构造列表条件，代发和供应商只能查看自己的订单
func listFilterFromQuery(c *gin.Context, actor models.Actor) (order.ListFilter, bool) {
	var f order.ListFilter

	status, err := order.ParseListStatus(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("参数错误", err))
		return f, false
	}
	f.Status = status

	if from := c.Query("from"); from != "" {
		t, err := utils.ParseDate(from)
		if err != nil {
			c.JSON(http.StatusBadRequest, msg.ErrResponse("开始日期格式错误", err))
			return f, false
		}
		f.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := utils.ParseDate(to)
		if err != nil {
			c.JSON(http.StatusBadRequest, msg.ErrResponse("结束日期格式错误", err))
			return f, false
		}
		// 包含结束当天
		end := t.Add(24*time.Hour - time.Second)
		f.To = &end
	}

	var ok bool
	if f.DropshipperID, ok = queryID(c, "dropshipper_id"); !ok {
		return f, false
	}
	if f.SupplierID, ok = queryID(c, "supplier_id"); !ok {
		return f, false
	}
	switch actor.Role {
	case models.RoleDropshipper:
		id := snowflake.ID(actor.ID)
		f.DropshipperID, f.SupplierID = &id, nil
	case models.RoleSupplier:
		id := snowflake.ID(actor.ID)
		f.SupplierID, f.DropshipperID = &id, nil
	}

	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return f, true
}
