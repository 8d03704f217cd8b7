package handler

import (
	"github.com/gin-gonic/gin"

	appoperator "github.com/xiebiao/pharmacy/internal/application/operator"
	"github.com/xiebiao/pharmacy/internal/interface/http/dto"
	"github.com/xiebiao/pharmacy/internal/interface/http/middleware"
	"github.com/xiebiao/pharmacy/pkg/response"
)

// OperatorHandler 操作员HTTP处理器
// 设计说明：
// 1. Handler只负责HTTP相关的事情：解析请求、调用应用层、返回响应
// 2. 不包含业务逻辑（业务逻辑在domain和application层）
type OperatorHandler struct {
	registerUseCase *appoperator.RegisterUseCase
	loginUseCase    *appoperator.LoginUseCase
	logoutUseCase   *appoperator.LogoutUseCase
}

// NewOperatorHandler 创建操作员处理器
func NewOperatorHandler(
	registerUseCase *appoperator.RegisterUseCase,
	loginUseCase *appoperator.LoginUseCase,
	logoutUseCase *appoperator.LogoutUseCase,
) *OperatorHandler {
	return &OperatorHandler{
		registerUseCase: registerUseCase,
		loginUseCase:    loginUseCase,
		logoutUseCase:   logoutUseCase,
	}
}

// Register 操作员注册
// @Summary      操作员注册
// @Description  创建药库操作员账号
// @Tags         操作员
// @Accept       json
// @Produce      json
// @Param        request body dto.RegisterOperatorRequest true "注册信息"
// @Success      200 {object} response.Response{data=appoperator.RegisterResponse} "注册成功"
// @Failure      400 {object} response.Response "40900参数错误"
// @Failure      409 {object} response.Response "40003工号已存在"
// @Router       /api/v1/operators/register [post]
func (h *OperatorHandler) Register(c *gin.Context) {
	var req dto.RegisterOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.registerUseCase.Execute(c.Request.Context(), appoperator.RegisterRequest{
		Username:   req.Username,
		Password:   req.Password,
		Name:       req.Name,
		Department: req.Department,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Login 操作员登录
// @Summary      操作员登录
// @Description  验证工号密码，返回JWT Token
// @Tags         操作员
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest true "登录信息"
// @Success      200 {object} response.Response{data=appoperator.LoginResponse} "登录成功"
// @Failure      401 {object} response.Response "40103工号或密码错误"
// @Router       /api/v1/operators/login [post]
func (h *OperatorHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.loginUseCase.Execute(c.Request.Context(), appoperator.LoginRequest{
		Username: req.Username,
		Password: req.Password,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Logout 操作员登出
// @Summary      操作员登出
// @Description  删除会话并把当前Token加入黑名单
// @Tags         操作员
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/v1/operators/logout [post]
func (h *OperatorHandler) Logout(c *gin.Context) {
	operatorID := middleware.MustGetOperatorID(c)

	if err := h.logoutUseCase.Execute(c.Request.Context(), operatorID, middleware.GetAccessToken(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}
