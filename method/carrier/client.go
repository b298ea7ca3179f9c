// Package carrier 物流商运单查询接口
package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rto_engine/config"
)

const maxBodyBytes = 1 << 20

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(cfg config.CarrierConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Track 查询运单，返回物流商原始JSON
func (c *Client) Track(ctx context.Context, awb string) ([]byte, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("物流商接口地址未配置")
	}
	requestURL := c.baseURL + "/track?awb=" + url.QueryEscape(awb)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("查询运单 %s 失败: %w", awb, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("物流商返回状态码 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("物流商返回的不是JSON")
	}
	return body, nil
}
