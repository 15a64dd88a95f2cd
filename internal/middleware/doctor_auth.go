package middleware

import (
	"net/http"

	"meditalk-go/internal/model"

	"github.com/gin-gonic/gin"
)

// DoctorAuthMiddleware 检查当前用户是否为医生。
// 发起会诊、生成小结等操作仅限医生执行。
// 此中间件必须在 AuthMiddleware 之后使用。
func DoctorAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := c.Get("user")
		if !exists {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
			return
		}

		currentUser, ok := user.(*model.User)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "用户数据类型错误"})
			return
		}

		if currentUser.Role != model.RoleDoctor {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "权限不足，仅医生可执行此操作"})
			return
		}

		c.Next()
	}
}
