package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
	"github.com/xiebiao/pharmacy/pkg/jwt"
	"github.com/xiebiao/pharmacy/pkg/response"
)

// Context中的键
const (
	ctxOperatorID  = "operator_id"
	ctxUsername    = "username"
	ctxName        = "name"
	ctxAccessToken = "access_token"
)

// TokenBlacklist Token黑名单（由Redis会话存储实现）
type TokenBlacklist interface {
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware JWT认证中间件
// 设计说明：
// 1. 从Header提取Token
// 2. 检查Token黑名单（操作员已登出）
// 3. 验证Token并把操作员信息注入Context
//
// 入库单、冲销记录上的操作员ID一律取自Token，不信任请求体
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  TokenBlacklist
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist TokenBlacklist) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		blacklist:  blacklist,
	}
}

// RequireAuth 要求登录
// 使用方式：
//
//	authorized := r.Group("/api/v1/stock-ins")
//	authorized.Use(authMiddleware.RequireAuth())
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从Header提取Token
		// 格式：Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.ErrorWithCode(c, apperrors.ErrCodeUnauthorized, "请先登录")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.ErrorWithCode(c, apperrors.ErrCodeInvalidToken, "Token格式错误")
			c.Abort()
			return
		}
		tokenString := parts[1]

		// 2. 检查黑名单
		isBlacklisted, err := m.blacklist.IsInBlacklist(c.Request.Context(), tokenString)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if isBlacklisted {
			response.ErrorWithCode(c, apperrors.ErrCodeTokenExpired, "Token已失效，请重新登录")
			c.Abort()
			return
		}

		// 3. 验证Token并解析Claims
		claims, err := m.jwtManager.ParseToken(tokenString)
		if err != nil {
			response.Error(c, err) // 自动处理ErrTokenExpired、ErrInvalidToken
			c.Abort()
			return
		}

		// 4. 注入操作员信息
		c.Set(ctxOperatorID, claims.OperatorID)
		c.Set(ctxUsername, claims.Username)
		c.Set(ctxName, claims.Name)
		c.Set(ctxAccessToken, tokenString)

		c.Next()
	}
}

// =========================================
// Context辅助函数（供Handler使用）
// =========================================

// GetOperatorID 从Context获取当前操作员ID，未登录返回0
func GetOperatorID(c *gin.Context) uint {
	if v, exists := c.Get(ctxOperatorID); exists {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// GetUsername 从Context获取当前操作员工号
func GetUsername(c *gin.Context) string {
	return c.GetString(ctxUsername)
}

// GetAccessToken 当前请求使用的Access Token（登出时加入黑名单）
func GetAccessToken(c *gin.Context) string {
	return c.GetString(ctxAccessToken)
}

// MustGetOperatorID 从Context获取操作员ID（不存在则panic）
// 说明：只用于已经通过RequireAuth中间件的Handler
func MustGetOperatorID(c *gin.Context) uint {
	id := GetOperatorID(c)
	if id == 0 {
		panic("operator_id not found in context")
	}
	return id
}
