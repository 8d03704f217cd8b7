package operator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

type memRepo struct {
	byName map[string]*Operator
}

func (r *memRepo) Create(_ context.Context, op *Operator) error {
	if _, ok := r.byName[op.Username]; ok {
		return apperrors.ErrUsernameDuplicate
	}
	op.ID = uint(len(r.byName) + 1)
	r.byName[op.Username] = op
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id uint) (*Operator, error) {
	for _, op := range r.byName {
		if op.ID == id {
			return op, nil
		}
	}
	return nil, apperrors.ErrOperatorNotFound
}

func (r *memRepo) FindByUsername(_ context.Context, username string) (*Operator, error) {
	if op, ok := r.byName[username]; ok {
		return op, nil
	}
	return nil, apperrors.ErrOperatorNotFound
}

func TestService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewServiceWithCost(&memRepo{byName: map[string]*Operator{}}, bcrypt.MinCost)

	op, err := svc.Register(ctx, "yk_001", "Passw0rd", "张药师", "药剂科")
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd", op.Password, "密码必须加密存储")

	_, err = svc.Register(ctx, "yk_001", "Passw0rd", "李药师", "药剂科")
	assert.ErrorIs(t, err, apperrors.ErrUsernameDuplicate)

	logged, err := svc.Login(ctx, "yk_001", "Passw0rd")
	require.NoError(t, err)
	assert.Equal(t, op.ID, logged.ID)

	_, err = svc.Login(ctx, "yk_001", "wrong123")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidPassword))

	_, err = svc.Login(ctx, "nobody", "Passw0rd")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidPassword), "工号不存在与密码错误返回同一错误")
}

func TestService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewServiceWithCost(&memRepo{byName: map[string]*Operator{}}, bcrypt.MinCost)

	tests := []struct {
		name     string
		username string
		password string
		realName string
		code     int
	}{
		{"工号含非法字符", "张三", "Passw0rd", "张三", apperrors.ErrCodeInvalidParams},
		{"密码太短", "yk_002", "a1", "张三", apperrors.ErrCodeWeakPassword},
		{"密码没有数字", "yk_002", "password", "张三", apperrors.ErrCodeWeakPassword},
		{"姓名太短", "yk_002", "Passw0rd", "张", apperrors.ErrCodeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.password, tt.realName, "")
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code))
		})
	}
}
