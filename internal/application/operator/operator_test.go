package operator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiebiao/pharmacy/internal/domain/operator"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
	"github.com/xiebiao/pharmacy/pkg/jwt"
)

type memOperatorRepo struct {
	ops []*operator.Operator
}

func (r *memOperatorRepo) Create(_ context.Context, op *operator.Operator) error {
	for _, o := range r.ops {
		if o.Username == op.Username {
			return apperrors.ErrUsernameDuplicate
		}
	}
	op.ID = uint(len(r.ops) + 1)
	r.ops = append(r.ops, op)
	return nil
}

func (r *memOperatorRepo) FindByID(_ context.Context, id uint) (*operator.Operator, error) {
	for _, o := range r.ops {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, apperrors.ErrOperatorNotFound
}

func (r *memOperatorRepo) FindByUsername(_ context.Context, username string) (*operator.Operator, error) {
	for _, o := range r.ops {
		if o.Username == username {
			return o, nil
		}
	}
	return nil, apperrors.ErrOperatorNotFound
}

type fakeSessionStore struct {
	sessions  map[uint]map[string]interface{}
	blacklist map[string]time.Duration
	saveErr   error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions:  map[uint]map[string]interface{}{},
		blacklist: map[string]time.Duration{},
	}
}

func (s *fakeSessionStore) SaveSession(_ context.Context, id uint, data map[string]interface{}, _ time.Duration) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.sessions[id] = data
	return nil
}

func (s *fakeSessionStore) DeleteSession(_ context.Context, id uint) error {
	delete(s.sessions, id)
	return nil
}

func (s *fakeSessionStore) AddToBlacklist(_ context.Context, token string, ttl time.Duration) error {
	s.blacklist[token] = ttl
	return nil
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	svc := operator.NewServiceWithCost(&memOperatorRepo{}, bcrypt.MinCost)
	jwtManager := jwt.NewManager("secret", 2*time.Hour, 24*time.Hour)
	sessions := newFakeSessionStore()

	registered, err := NewRegisterUseCase(svc).Execute(ctx, RegisterRequest{
		Username: "yk_001", Password: "Passw0rd", Name: "张药师", Department: "药剂科",
	})
	require.NoError(t, err)

	login := NewLoginUseCase(svc, jwtManager, sessions, zap.NewNop())
	resp, err := login.Execute(ctx, LoginRequest{Username: "yk_001", Password: "Passw0rd", ClientIP: "10.0.0.8"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, resp.Operator.ID)
	assert.Equal(t, "10.0.0.8", sessions.sessions[registered.ID]["ip"])

	claims, err := jwtManager.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.OperatorID)

	require.NoError(t, NewLogoutUseCase(sessions, jwtManager).Execute(ctx, registered.ID, resp.AccessToken))
	assert.NotContains(t, sessions.sessions, registered.ID)
	assert.Equal(t, 2*time.Hour, sessions.blacklist[resp.AccessToken])
}

func TestLogin_SessionFailureDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	svc := operator.NewServiceWithCost(&memOperatorRepo{}, bcrypt.MinCost)
	_, err := svc.Register(ctx, "yk_002", "Passw0rd", "李药师", "")
	require.NoError(t, err)

	sessions := newFakeSessionStore()
	sessions.saveErr = errors.New("redis down")

	login := NewLoginUseCase(svc, jwt.NewManager("secret", time.Hour, time.Hour), sessions, zap.NewNop())
	resp, err := login.Execute(ctx, LoginRequest{Username: "yk_002", Password: "Passw0rd"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}
