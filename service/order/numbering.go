package order

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"rto_engine/models"

	"gorm.io/gorm"
)

const (
	orderNumberAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberRandomLen   = 8
	defaultMaxNumberTrials = 50
)

// NormalizeBase 转大写并去掉所有非字母数字字符
func NormalizeBase(base string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(base) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RandomBase 生成8位大写字母数字随机串
func RandomBase() string {
	buf := make([]byte, orderNumberRandomLen)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// 随机源不可用时退化为固定字符，后续的存在性检查仍会追加后缀
			buf[i] = orderNumberAlphabet[i%len(orderNumberAlphabet)]
			continue
		}
		buf[i] = orderNumberAlphabet[n.Int64()]
	}
	return string(buf)
}

// GenerateOrderNumber 生成当前未被占用的订单号
// 冲突时依次追加 -1、-2 …，超过最大尝试次数返回 ErrOrderNumberExhausted。
// 这里只是尽力而为的候选，最终唯一性由 order_number 唯一索引保证。
func (s *Store) GenerateOrderNumber(ctx context.Context, base string) (string, error) {
	return s.generateOrderNumber(ctx, s.db, base)
}

func (s *Store) generateOrderNumber(ctx context.Context, tx *gorm.DB, base string) (string, error) {
	root := NormalizeBase(base)
	if root == "" {
		root = s.randomBase()
	}

	for attempt := 0; attempt < s.maxNumberAttempts; attempt++ {
		candidate := root
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%d", root, attempt)
		}

		var count int64
		// 软删除的订单号同样占用唯一索引
		err := tx.WithContext(ctx).Unscoped().Model(&models.Order{}).
			Where("order_number = ?", candidate).Count(&count).Error
		if err != nil {
			return "", StoreFailure("failed to check order number", err)
		}
		if count == 0 {
			return candidate, nil
		}
	}

	return "", Conflict(
		fmt.Sprintf("could not find a free order number for %q after %d attempts", root, s.maxNumberAttempts),
		ErrOrderNumberExhausted,
	)
}
