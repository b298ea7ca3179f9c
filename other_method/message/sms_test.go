package message

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rto_engine/config"
	"rto_engine/models"

	dysmsapi20170525 "github.com/alibabacloud-go/dysmsapi-20170525/v5/client"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	"go.uber.org/zap"
)

type fakeSender struct {
	requests []*dysmsapi20170525.SendSmsRequest
	failFor  string
}

func (f *fakeSender) SendSmsWithOptions(req *dysmsapi20170525.SendSmsRequest, _ *util.RuntimeOptions) (*dysmsapi20170525.SendSmsResponse, error) {
	f.requests = append(f.requests, req)
	if tea.StringValue(req.PhoneNumbers) == f.failFor {
		return nil, errors.New("throttled")
	}
	return &dysmsapi20170525.SendSmsResponse{
		Body: &dysmsapi20170525.SendSmsResponseBody{Code: tea.String("OK")},
	}, nil
}

func TestNotifierWithoutCredentialsIsSilent(t *testing.T) {
	n, err := NewDisputeNotifier(config.SMSConfig{AlertPhones: []string{"13800000000"}}, zap.NewNop())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	if n.Enabled() {
		t.Fatal("notifier without credentials should be disabled")
	}
	if err := n.NotifyDispute(context.Background(), &models.Order{OrderNumber: "A1"}, "received"); err != nil {
		t.Fatalf("disabled notifier should not fail: %v", err)
	}
}

func TestNotifyDisputeSendsToEveryPhone(t *testing.T) {
	sender := &fakeSender{failFor: "222"}
	n := &DisputeNotifier{
		client:       sender,
		signName:     "RTO",
		templateCode: "SMS_1",
		phones:       []string{"111", "222"},
		log:          zap.NewNop(),
	}

	err := n.NotifyDispute(context.Background(), &models.Order{OrderNumber: "ORD42"}, "wrong item received")
	if err == nil || !strings.Contains(err.Error(), "222") {
		t.Fatalf("expected failure for 222, got %v", err)
	}
	if len(sender.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(sender.requests))
	}
	param := tea.StringValue(sender.requests[0].TemplateParam)
	if param != `{"order":"ORD42","status":"wrong item received"}` {
		t.Fatalf("unexpected template param %s", param)
	}
}
