package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldops/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// 换班接口只有 POST 携带 JSON 请求体，查询类请求直接放行。
// 声明长度超限直接返回 413；未声明长度时由 MaxBytesReader 截断，
// handler 识别 *http.MaxBytesError 后同样返回 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !carriesBody(c.Request.Method) {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}

func carriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
