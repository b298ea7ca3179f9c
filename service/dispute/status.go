package dispute

import (
	"fmt"
	"strings"

	"rto_engine/service/order"
)

// Case1Status 一级争议允许的状态
type Case1Status string

const Case1NotReceived Case1Status = "not received"

// Case2Status 二级争议允许的状态
type Case2Status string

const (
	Case2Received          Case2Status = "received"
	Case2NotReceived       Case2Status = "not received"
	Case2WrongItemReceived Case2Status = "wrong item received"
)

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ParseCase1Status 大小写不敏感
func ParseCase1Status(s string) (Case1Status, error) {
	if Case1Status(normalize(s)) == Case1NotReceived {
		return Case1NotReceived, nil
	}
	return "", order.InvalidInput(fmt.Sprintf("status %q is not allowed for case 1", s), nil)
}

// ParseCase2Status 大小写不敏感
func ParseCase2Status(s string) (Case2Status, error) {
	switch st := Case2Status(normalize(s)); st {
	case Case2Received, Case2NotReceived, Case2WrongItemReceived:
		return st, nil
	}
	return "", order.InvalidInput(fmt.Sprintf("status %q is not allowed for case 2", s), nil)
}
