package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MarshalNoEscape 序列化为JSON字符串，不进行HTML转义
func MarshalNoEscape(v interface{}) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return "", fmt.Errorf("JSON序列化失败: %w", err)
	}
	// 去掉encoder.Encode添加的换行符
	return strings.TrimSpace(buf.String()), nil
}
