package db

import (
	"fmt"

	"rto_engine/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models 需要同步结构的全部模型
func Models() []interface{} {
	return []interface{}{
		&models.Payment{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Order{},
		&models.OrderItem{},
		&models.RTOInventory{},
	}
}

// RunMigrations 运行数据库迁移，同步所有模型的数据库结构
// orders.order_number 与 rto_inventories.order_item_id 上的唯一索引由模型标签创建
func RunMigrations(conn *gorm.DB, log *zap.Logger) error {
	log.Info("开始运行数据库迁移...")

	for _, model := range Models() {
		modelName := fmt.Sprintf("%T", model)
		if err := conn.AutoMigrate(model); err != nil {
			log.Error("模型结构同步失败", zap.String("model", modelName), zap.Error(err))
			return fmt.Errorf("migrate %s: %w", modelName, err)
		}
		log.Info("模型结构同步成功", zap.String("model", modelName))
	}

	log.Info("数据库迁移完成！")
	return nil
}
