package middleware

import (
	"net/http"
	"strings"
	"time"

	"rto_engine/config"
	"rto_engine/models"
	"rto_engine/service/msg"
	"rto_engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ctxActorKey     = "actor"
	ctxRequestIDKey = "requestID"
)

// JWTAuthMiddleware JWT认证中间件，把令牌中的操作人写入上下文
func JWTAuthMiddleware(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		// 尝试从Authorization头获取token
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			authParts := strings.SplitN(authHeader, " ", 2)
			if len(authParts) == 2 && authParts[0] == "Bearer" {
				tokenString = authParts[1]
			}
		}

		// 如果Authorization头中没有有效的token，尝试从URL参数access_token获取
		if tokenString == "" {
			tokenString = c.Query("access_token")
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, msg.ErrResponseStr("Authorization token is required"))
			return
		}

		userID, roleStr, err := utils.ParseActor(tokenString, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, msg.ErrResponseStr("Invalid or expired token"))
			return
		}
		role, err := models.ParseActorRole(roleStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, msg.ErrResponseStr("Unknown role in token"))
			return
		}

		c.Set(ctxActorKey, models.Actor{ID: userID, Role: role})
		c.Next()
	}
}

// RequireRoles 只允许指定角色访问
func RequireRoles(roles ...models.ActorRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, msg.ErrResponseStr("Authorization token is required"))
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, msg.ErrResponseStr("Permission denied"))
	}
}

// ActorFromContext 取出认证中间件写入的操作人
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(ctxActorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// RequestLogMiddleware 请求日志中间件，为每个请求分配请求ID
func RequestLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ctxRequestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		log.Info("访问日志",
			zap.String("request_id", requestID),
			zap.String("ip", c.ClientIP()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// ErrorHandlerMiddleware 记录处理器通过 c.Error 挂上的错误
func ErrorHandlerMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, e := range c.Errors {
			log.Error("请求处理出错",
				zap.String("request_id", c.GetString(ctxRequestIDKey)),
				zap.String("path", c.Request.URL.Path),
				zap.Error(e.Err))
		}
	}
}
