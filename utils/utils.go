package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"rto_engine/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// ActorClaims 令牌中携带的操作人信息
type ActorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateTokens 生成访问令牌和刷新令牌
func GenerateTokens(userID int64, role string, cfg config.Config) (string, string, error) {
	accessToken, err := signToken(userID, role, time.Duration(cfg.JWTConfig.AccessTokenTTL)*time.Hour, cfg)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := signToken(userID, role, time.Duration(cfg.JWTConfig.RefreshTokenTTL)*time.Hour, cfg)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func signToken(userID int64, role string, ttl time.Duration, cfg config.Config) (string, error) {
	now := time.Now()
	claims := &ActorClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(userID, 10),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTConfig.SecretKey))
}

// ParseToken 解析JWT令牌
func ParseToken(tokenString string, cfg config.Config) (*jwt.Token, error) {
	return jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTConfig.SecretKey), nil
	})
}

// ParseActor 解析令牌并返回操作人ID与角色
func ParseActor(tokenString string, cfg config.Config) (int64, string, error) {
	token, err := ParseToken(tokenString, cfg)
	if err != nil {
		return 0, "", err
	}
	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid {
		return 0, "", fmt.Errorf("invalid token")
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid user ID in token")
	}
	return userID, claims.Role, nil
}

// FormatDateTime 格式化时间
func FormatDateTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// FormatOptionalTime 格式化可空时间，nil返回空字符串
func FormatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDateTime(*t)
}

// ParseDate 解析YYYY-MM-DD日期
func ParseDate(dateStr string) (time.Time, error) {
	return time.Parse("2006-01-02", dateStr)
}

// Pagination 分页辅助函数
func Pagination(pageNum, pageSize, maxSize int) (int, int) {
	if pageNum <= 0 {
		pageNum = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if maxSize > 0 && pageSize > maxSize {
		pageSize = maxSize
	}
	offset := (pageNum - 1) * pageSize
	return offset, pageSize
}

// GetRequestProto 获取请求的协议，考虑反向代理环境
func GetRequestProto(c *gin.Context) string {
	proto := c.Request.Header.Get("X-Forwarded-Proto")
	if proto != "" {
		return proto
	}
	if c.Request.URL.Scheme != "" {
		return c.Request.URL.Scheme
	}
	return "http"
}

// BuildFullImageURL 构建完整的文件URL，已是完整URL的直接返回
func BuildFullImageURL(baseURL, imagePath string, prefix ...string) string {
	if imagePath == "" {
		return ""
	}
	if strings.HasPrefix(imagePath, "https://") || strings.HasPrefix(imagePath, "http://") {
		return imagePath
	}
	if baseURL == "" {
		return imagePath
	}
	baseURL = strings.TrimRight(baseURL, "/")

	pathPrefix := ""
	if len(prefix) > 0 && prefix[0] != "" {
		pathPrefix = strings.Trim(prefix[0], "/")
	}

	if strings.HasPrefix(imagePath, "/") {
		return baseURL + imagePath
	}
	if pathPrefix != "" {
		return baseURL + "/" + pathPrefix + "/" + imagePath
	}
	return baseURL + "/" + imagePath
}
