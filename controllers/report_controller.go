package controllers

import (
	"fmt"
	"net/http"
	"time"

	"rto_engine/models"
	"rto_engine/service/msg"
	"rto_engine/service/order"
	"rto_engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const maxExportPages = 200

// ReportController 报表导出
type ReportController struct {
	Orders *order.Store
}

// ExportOrders 按列表条件导出订单到Excel
func (rc *ReportController) ExportOrders(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	f, ok := listFilterFromQuery(c, actor)
	if !ok {
		return
	}

	var orders []models.Order
	f.PageSize = 100
	for page := 1; page <= maxExportPages; page++ {
		f.Page = page
		res, err := rc.Orders.List(c.Request.Context(), f)
		if err != nil {
			respondError(c, "export", err)
			return
		}
		orders = append(orders, res.Orders...)
		if int64(len(orders)) >= res.Total || len(res.Orders) == 0 {
			break
		}
	}

	file, err := buildOrderWorkbook(orders)
	if err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("导出失败", err))
		return
	}
	defer file.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=orders_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := file.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

var orderReportHeader = []string{
	"序号", "订单号", "状态", "代发ID", "订单金额", "币种", "运单号",
	"签收时间", "退回签收时间", "入仓时间", "争议等级", "争议结果", "下单时间",
}

func buildOrderWorkbook(orders []models.Order) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "订单"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	for i, h := range orderReportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}

	for i, o := range orders {
		awb := ""
		if o.AWBNumber != nil {
			awb = *o.AWBNumber
		}
		dispute := ""
		if o.DisputeCase != nil {
			dispute = fmt.Sprintf("%d", *o.DisputeCase)
		}
		row := []interface{}{
			i + 1,
			o.OrderNumber,
			string(o.Status),
			o.DropshipperID.String(),
			o.TotalAmount.StringFixed(2),
			o.Currency,
			awb,
			utils.FormatOptionalTime(o.DeliveredDate),
			utils.FormatOptionalTime(o.RTODeliveredDate),
			utils.FormatOptionalTime(o.CollectedAtWarehouse),
			dispute,
			o.SupplierRTOResponse,
			utils.FormatDateTime(o.CreatedAt),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}
