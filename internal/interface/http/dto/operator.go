package dto

// RegisterOperatorRequest HTTP层注册请求
// 说明：HTTP层的DTO，包含参数验证tag
type RegisterOperatorRequest struct {
	Username   string `json:"username" binding:"required,min=3,max=32"`
	Password   string `json:"password" binding:"required,min=8,max=20"`
	Name       string `json:"name" binding:"required,min=2,max=50"`
	Department string `json:"department" binding:"max=50"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
