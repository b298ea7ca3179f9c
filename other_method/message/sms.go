package message

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rto_engine/config"
	"rto_engine/models"
	"rto_engine/utils"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi20170525 "github.com/alibabacloud-go/dysmsapi-20170525/v5/client"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	"go.uber.org/zap"
)

// smsSender 阿里云短信客户端中用到的方法
type smsSender interface {
	SendSmsWithOptions(request *dysmsapi20170525.SendSmsRequest, runtime *util.RuntimeOptions) (*dysmsapi20170525.SendSmsResponse, error)
}

// CreateClient 使用配置中的凭证创建短信客户端
func CreateClient(cfg config.SMSConfig) (*dysmsapi20170525.Client, error) {
	if cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" {
		return nil, errors.New("短信凭证未配置")
	}
	openapiConfig := &openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
	}
	// Endpoint 请参考 https://api.aliyun.com/product/Dysmsapi
	openapiConfig.Endpoint = tea.String(cfg.Endpoint)
	return dysmsapi20170525.NewClient(openapiConfig)
}

// DisputeNotifier 二级争议成立后给运营发送短信告警
type DisputeNotifier struct {
	client       smsSender
	signName     string
	templateCode string
	phones       []string
	log          *zap.Logger
}

// NewDisputeNotifier 未配置凭证或接收号码时返回的通知器不发送任何短信
func NewDisputeNotifier(cfg config.SMSConfig, log *zap.Logger) (*DisputeNotifier, error) {
	if log == nil {
		log = zap.NewNop()
	}
	n := &DisputeNotifier{
		signName:     cfg.SignName,
		templateCode: cfg.TemplateCode,
		phones:       cfg.AlertPhones,
		log:          log,
	}
	if cfg.AccessKeyID == "" || len(cfg.AlertPhones) == 0 {
		log.Info("短信告警未配置，跳过")
		return n, nil
	}
	client, err := CreateClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("创建短信客户端失败: %w", err)
	}
	n.client = client
	return n, nil
}

// Enabled 是否会实际发送
func (n *DisputeNotifier) Enabled() bool {
	return n.client != nil
}

// NotifyDispute 实现 dispute.Notifier
func (n *DisputeNotifier) NotifyDispute(_ context.Context, o *models.Order, status string) error {
	if !n.Enabled() {
		return nil
	}
	param, err := utils.MarshalNoEscape(map[string]string{
		"order":  o.OrderNumber,
		"status": status,
	})
	if err != nil {
		return err
	}

	var failed []string
	for _, phone := range n.phones {
		if err := n.SendSms(phone, param); err != nil {
			n.log.Warn("争议短信发送失败", zap.String("phone", phone), zap.String("order_number", o.OrderNumber), zap.Error(err))
			failed = append(failed, phone)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("短信发送失败: %s", strings.Join(failed, ","))
	}
	return nil
}

// SendSms 按模板发送一条短信，templateParam 为JSON字符串
func (n *DisputeNotifier) SendSms(phoneNumber string, templateParam string) error {
	sendSmsRequest := &dysmsapi20170525.SendSmsRequest{
		PhoneNumbers:  tea.String(phoneNumber),
		SignName:      tea.String(n.signName),
		TemplateCode:  tea.String(n.templateCode),
		TemplateParam: tea.String(templateParam),
	}
	runtime := &util.RuntimeOptions{}

	resp, err := n.client.SendSmsWithOptions(sendSmsRequest, runtime)
	if err != nil {
		var sdkErr *tea.SDKError
		if errors.As(err, &sdkErr) {
			return fmt.Errorf("发送短信失败: %s", tea.StringValue(sdkErr.Message))
		}
		return fmt.Errorf("发送短信失败: %w", err)
	}
	if resp != nil && resp.Body != nil && !strings.EqualFold(tea.StringValue(resp.Body.Code), "OK") {
		return fmt.Errorf("发送短信失败: %s", tea.StringValue(resp.Body.Message))
	}

	n.log.Debug("短信发送成功", zap.String("phone", phoneNumber), zap.Stringp("result", util.ToJSONString(resp)))
	return nil
}
