package models

import (
	"fmt"
	"strings"
)

// ActorRole 操作人角色
type ActorRole string

const (
	RoleAdmin       ActorRole = "admin"
	RoleSupplier    ActorRole = "supplier"
	RoleDropshipper ActorRole = "dropshipper"
	RoleSystem      ActorRole = "system"
)

// ParseActorRole 大小写不敏感地解析角色
func ParseActorRole(s string) (ActorRole, error) {
	switch r := ActorRole(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleSupplier, RoleDropshipper, RoleSystem:
		return r, nil
	}
	return "", fmt.Errorf("unknown actor role %q", s)
}

// Actor 发起变更的操作人，由调用方从认证上下文中取得
type Actor struct {
	ID   int64
	Role ActorRole
}

// SystemActor 定时任务等内部调用使用的操作人
var SystemActor = Actor{ID: 0, Role: RoleSystem}
