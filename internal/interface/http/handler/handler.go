package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
	"github.com/xiebiao/pharmacy/pkg/response"
)

// bindError 参数绑定失败（JSON格式错误、binding tag校验失败）
func bindError(c *gin.Context, err error) {
	response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
}

// pathID 解析路径参数中的ID
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "无效的ID")
		return 0, false
	}
	return uint(id), true
}
