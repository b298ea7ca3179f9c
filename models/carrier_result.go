package models

import (
	"encoding/json"
	"strings"
)

// CarrierResult 物流商接口返回结果中本系统关心的部分，其余字段原样保存
type CarrierResult struct {
	Data struct {
		AWBNumber     *string `json:"awb_number"`
		CurrentStatus string  `json:"current_status"`
	} `json:"data"`
}

// 物流商状态
const (
	CarrierStatusDelivered    = "DELIVERED"
	CarrierStatusRTODelivered = "RTO DELIVERED"
)

// ParseCarrierResult 解析物流商原始JSON，data.awb_number缺失时AWB为nil
func ParseCarrierResult(raw []byte) (CarrierResult, error) {
	var result CarrierResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return CarrierResult{}, err
	}
	if result.Data.AWBNumber != nil && strings.TrimSpace(*result.Data.AWBNumber) == "" {
		result.Data.AWBNumber = nil
	}
	return result, nil
}

// AWB 返回运单号，可能为nil
func (r CarrierResult) AWB() *string {
	return r.Data.AWBNumber
}

// IsDelivered 物流商是否报告已签收
func (r CarrierResult) IsDelivered() bool {
	return strings.EqualFold(strings.TrimSpace(r.Data.CurrentStatus), CarrierStatusDelivered)
}

// IsRTODelivered 物流商是否报告退回已签收
func (r CarrierResult) IsRTODelivered() bool {
	return strings.EqualFold(strings.TrimSpace(r.Data.CurrentStatus), CarrierStatusRTODelivered)
}
