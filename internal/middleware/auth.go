package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/user/yamdb/internal/permission"
	"github.com/user/yamdb/internal/token"
	"github.com/user/yamdb/internal/utils"
)

const callerKey = "caller"

// TokenParser 解析访问令牌
type TokenParser interface {
	Parse(tokenString string) (*token.Claims, error)
}

// CallerLoader 按用户 ID 加载当前角色
type CallerLoader interface {
	LoadCaller(ctx context.Context, userID int) (permission.Caller, bool, error)
}

// Authenticate 解析 Bearer 令牌并把调用者放入上下文
// 没有 Authorization 头时按匿名处理，令牌无效返回 401
func Authenticate(tokens TokenParser, users CallerLoader, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.Set(callerKey, permission.Anonymous)
			c.Next()
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			utils.Detail(c, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}

		caller, found, err := users.LoadCaller(c.Request.Context(), claims.UserID)
		if err != nil {
			log.Error("加载用户失败", zap.Int("user_id", claims.UserID), zap.Error(err))
			utils.InternalServerError(c)
			return
		}
		if !found {
			utils.Detail(c, http.StatusUnauthorized, "User not found")
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFrom 从上下文获取调用者（未认证返回匿名）
func CallerFrom(c *gin.Context) permission.Caller {
	if v, exists := c.Get(callerKey); exists {
		if caller, ok := v.(permission.Caller); ok {
			return caller
		}
	}
	return permission.Anonymous
}

// bearerToken 从 Authorization 头中提取令牌，其他认证方式视为未提供
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
