package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindURI 绑定路径参数并校验，失败时写出 400 响应
func BindURI(c *gin.Context, obj any) bool {
	if err := c.ShouldBindUri(obj); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			Error(c, http.StatusBadRequest, http.StatusBadRequest, errs.Error())
			return false
		}
		Error(c, http.StatusBadRequest, http.StatusBadRequest, "invalid path parameters: "+err.Error())
		return false
	}
	return true
}

// GetQuery 获取查询参数，带默认值
func GetQuery(c *gin.Context, key, defaultValue string) string {
	val := c.Query(key)
	if val == "" {
		return defaultValue
	}
	return val
}
