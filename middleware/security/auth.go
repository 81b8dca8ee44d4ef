package security

import (
	"net/http"
	"strings"

	"SProject/global"
	"SProject/tools/errs"
	toksec "SProject/tools/security"
	"github.com/gin-gonic/gin"
)

// —— context key ——
// 后续模块统一用这个 key 读取登录身份
const CtxUserIDKey = "userId"

type Options struct {
	HeaderToken               string // 默认 "authorization"
	EnableAuthorizationBearer bool   // 默认 true，兼容 Authorization: Bearer xxx
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               "authorization",
		EnableAuthorizationBearer: true,
	}
}

// Middleware 校验 JWT 并把 userId 写入 gin context
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))
		if token == "" && opts.EnableAuthorizationBearer {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, global.Fail(&errs.ErrTokenInvalid))
			return
		}
		userID, err := toksec.Verify(toksec.DefaultOptions(global.GetJwtSecret()), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, global.Fail(&errs.ErrTokenInvalid))
			return
		}
		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

// UserID 从 gin context 取登录用户
func UserID(c *gin.Context) string {
	v, _ := c.Get(CtxUserIDKey)
	s, _ := v.(string)
	return s
}
