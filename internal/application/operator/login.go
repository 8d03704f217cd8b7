package operator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/pharmacy/internal/domain/operator"
	"github.com/xiebiao/pharmacy/pkg/jwt"
)

// SessionStore 会话存储（由Redis实现）
type SessionStore interface {
	SaveSession(ctx context.Context, operatorID uint, sessionData map[string]interface{}, ttl time.Duration) error
	DeleteSession(ctx context.Context, operatorID uint) error
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
}

// LoginUseCase 操作员登录用例
// 设计说明：
// 1. 验证工号密码
// 2. 生成JWT Token对
// 3. 保存会话到Redis
type LoginUseCase struct {
	operatorService operator.Service
	jwtManager      *jwt.Manager
	sessionStore    SessionStore
	logger          *zap.Logger
}

// NewLoginUseCase 创建登录用例
func NewLoginUseCase(
	operatorService operator.Service,
	jwtManager *jwt.Manager,
	sessionStore SessionStore,
	logger *zap.Logger,
) *LoginUseCase {
	return &LoginUseCase{
		operatorService: operatorService,
		jwtManager:      jwtManager,
		sessionStore:    sessionStore,
		logger:          logger,
	}
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	// 1. 验证工号密码（调用领域服务）
	op, err := uc.operatorService.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	// 2. 生成JWT Token对
	tokenPair, err := uc.jwtManager.GenerateToken(op.ID, op.Username, op.Name)
	if err != nil {
		return nil, err
	}

	// 3. 保存会话到Redis
	sessionData := map[string]interface{}{
		"operator_id": op.ID,
		"username":    op.Username,
		"name":        op.Name,
		"login_at":    time.Now().Unix(),
		"ip":          req.ClientIP,
	}

	// 会话有效期 = Refresh Token有效期
	// 会话保存失败不影响登录（JWT本身可用），只记录日志
	if err := uc.sessionStore.SaveSession(ctx, op.ID, sessionData, uc.jwtManager.RefreshTokenExpire()); err != nil {
		uc.logger.Warn("保存登录会话失败",
			zap.Uint("operator_id", op.ID),
			zap.Error(err),
		)
	}

	uc.logger.Info("操作员登录",
		zap.Uint("operator_id", op.ID),
		zap.String("username", op.Username),
		zap.String("ip", req.ClientIP),
	)

	return &LoginResponse{
		Operator: OperatorInfo{
			ID:         op.ID,
			Username:   op.Username,
			Name:       op.Name,
			Department: op.Department,
		},
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

// LogoutUseCase 操作员登出用例
type LogoutUseCase struct {
	sessionStore SessionStore
	jwtManager   *jwt.Manager
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(sessionStore SessionStore, jwtManager *jwt.Manager) *LogoutUseCase {
	return &LogoutUseCase{sessionStore: sessionStore, jwtManager: jwtManager}
}

// Execute 执行登出
func (uc *LogoutUseCase) Execute(ctx context.Context, operatorID uint, accessToken string) error {
	// 1. 删除会话
	if err := uc.sessionStore.DeleteSession(ctx, operatorID); err != nil {
		return err
	}

	// 2. 将Access Token加入黑名单（防止Token在过期前继续使用）
	return uc.sessionStore.AddToBlacklist(ctx, accessToken, uc.jwtManager.AccessTokenExpire())
}

// =========================================
// 应用层DTO
// =========================================

// LoginRequest 登录请求
type LoginRequest struct {
	Username string
	Password string
	ClientIP string
}

// LoginResponse 登录响应
type LoginResponse struct {
	Operator     OperatorInfo `json:"operator"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"` // Access Token过期时间（秒）
}

// OperatorInfo 操作员信息
type OperatorInfo struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Department string `json:"department"`
}
