package models

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	idNode   *snowflake.Node
	idNodeMu sync.Mutex
)

// SetIDNode 设置雪花ID节点号，多实例部署时每个实例需不同
func SetIDNode(node int64) error {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return err
	}
	idNodeMu.Lock()
	idNode = n
	idNodeMu.Unlock()
	return nil
}

// NewID 生成一个新的雪花ID
func NewID() snowflake.ID {
	idNodeMu.Lock()
	defer idNodeMu.Unlock()
	if idNode == nil {
		idNode, _ = snowflake.NewNode(1)
	}
	return idNode.Generate()
}
