package operator

import (
	"context"
	"errors"
	"regexp"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// Service 操作员领域服务
// 设计说明：
// 1. Service包含不属于单个实体的业务逻辑（如密码加密、验证）
// 2. Service依赖Repository接口，不依赖具体实现（依赖倒置）
type Service interface {
	// Register 操作员注册
	Register(ctx context.Context, username, password, name, department string) (*Operator, error)

	// Login 操作员登录
	Login(ctx context.Context, username, password string) (*Operator, error)

	// ValidatePassword 验证密码
	ValidatePassword(hashedPassword, plainPassword string) error
}

type service struct {
	repo Repository
	cost int
}

// NewService 创建操作员服务
func NewService(repo Repository) Service {
	return &service{repo: repo, cost: 12}
}

// NewServiceWithCost 指定bcrypt cost（测试中使用bcrypt.MinCost加速）
func NewServiceWithCost(repo Repository, cost int) Service {
	return &service{repo: repo, cost: cost}
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

// Register 操作员注册
// 业务规则：
// 1. 工号3-32位字母、数字或下划线
// 2. 密码强度校验（8-20位，包含字母和数字）
// 3. 姓名2-20个字符
// 4. 工号唯一性由数据库UNIQUE索引保证
func (s *service) Register(ctx context.Context, username, password, name, department string) (*Operator, error) {
	if !usernamePattern.MatchString(username) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "工号格式不正确")
	}

	if err := validatePasswordStrength(password); err != nil {
		return nil, err
	}

	if n := utf8.RuneCountInString(name); n < 2 || n > 20 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "姓名长度应为2-20个字符")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperrors.Wrap(err, "密码加密失败")
	}

	op := NewOperator(username, string(hashedPassword), name, department)
	if err := s.repo.Create(ctx, op); err != nil {
		return nil, err // Repository已转换为业务错误
	}

	return op, nil
}

// Login 操作员登录
// 工号不存在和密码错误返回同一个错误，防止枚举工号
func (s *service) Login(ctx context.Context, username, password string) (*Operator, error) {
	op, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrOperatorNotFound) {
			return nil, apperrors.ErrInvalidPassword.WithMessage("工号或密码错误")
		}
		return nil, err
	}

	if err := s.ValidatePassword(op.Password, password); err != nil {
		return nil, err
	}

	return op, nil
}

// ValidatePassword 验证密码
func (s *service) ValidatePassword(hashedPassword, plainPassword string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return apperrors.ErrInvalidPassword.WithMessage("工号或密码错误")
		}
		return apperrors.Wrap(err, "密码验证失败")
	}
	return nil
}

// validatePasswordStrength 密码强度校验
func validatePasswordStrength(password string) error {
	if len(password) < 8 || len(password) > 20 {
		return apperrors.ErrWeakPassword
	}

	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasDigit := regexp.MustCompile(`[0-9]`).MatchString(password)

	if !hasLetter || !hasDigit {
		return apperrors.ErrWeakPassword
	}

	return nil
}
