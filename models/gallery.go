package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"

	"rto_engine/utils"
)

// FileRefs 证据文件引用列表，数据库中以JSON数组存储，空列表存为NULL
type FileRefs []string

// Scan 实现sql.Scanner接口
func (f *FileRefs) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("类型断言失败：无法将数据库值转换为[]byte")
	}

	if len(bytes) == 0 {
		*f = nil
		return nil
	}

	var result []string
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*f = result
	return nil
}

// Value 实现driver.Valuer接口
func (f FileRefs) Value() (driver.Value, error) {
	if len(f) == 0 {
		return nil, nil
	}
	return utils.MarshalNoEscape([]string(f))
}

// Clean 去掉首尾空白，丢弃空白引用
func (f FileRefs) Clean() FileRefs {
	var out FileRefs
	for _, ref := range f {
		if ref = strings.TrimSpace(ref); ref != "" {
			out = append(out, ref)
		}
	}
	return out
}
