package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
	"github.com/xiebiao/pharmacy/pkg/jwt"
	"github.com/xiebiao/pharmacy/pkg/metrics"
)

type stubBlacklist struct {
	tokens map[string]bool
	err    error
}

func (b stubBlacklist) IsInBlacklist(_ context.Context, token string) (bool, error) {
	return b.tokens[token], b.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequireAuth(t *testing.T) {
	manager := jwt.NewManager("middleware-test-secret-0123456789", time.Hour, 24*time.Hour)
	pair, err := manager.GenerateToken(7, "yk_007", "李四")
	require.NoError(t, err)

	newEngine := func(bl TokenBlacklist) *gin.Engine {
		r := gin.New()
		r.GET("/me", NewAuthMiddleware(manager, bl).RequireAuth(), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"operator_id": MustGetOperatorID(c),
				"username":    GetUsername(c),
				"same_token":  GetAccessToken(c) == pair.AccessToken,
			})
		})
		return r
	}

	tests := []struct {
		name     string
		header   string
		bl       stubBlacklist
		contains string
	}{
		{"缺少Header", "", stubBlacklist{}, `"code":40100`},
		{"格式错误", "Basic abc", stubBlacklist{}, `"code":40101`},
		{"签名错误", "Bearer not-a-jwt", stubBlacklist{}, `"code":4010`},
		{"已登出", "Bearer " + pair.AccessToken, stubBlacklist{tokens: map[string]bool{pair.AccessToken: true}}, `"code":40102`},
		{"黑名单查询失败", "Bearer " + pair.AccessToken, stubBlacklist{err: apperrors.ErrRedisError}, `"code":50002`},
		{"通过", "Bearer " + pair.AccessToken, stubBlacklist{}, `"operator_id":7`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newEngine(tt.bl).ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestLoggerAndRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	r := gin.New()
	r.Use(Recovery(log), Logger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/panic", func(c *gin.Context) { panic(errors.New("boom")) })

	t.Run("生成请求ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("沿用客户端请求ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

		entries := logs.FilterField(zap.String("request_id", "req-123")).All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	})

	t.Run("panic返回500并记录错误", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	})
}

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/stock-ins/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/stock-ins/:id", "200")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/stock-ins/1", "/stock-ins/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, before+2, testutil.ToFloat64(counter), "按路由模板聚合")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.HTTPRequestsInProgress))
}
