package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"

	appdrug "github.com/xiebiao/pharmacy/internal/application/drug"
	appinventory "github.com/xiebiao/pharmacy/internal/application/inventory"
	appoperator "github.com/xiebiao/pharmacy/internal/application/operator"
	appstockin "github.com/xiebiao/pharmacy/internal/application/stockin"
	"github.com/xiebiao/pharmacy/internal/domain/drug"
	"github.com/xiebiao/pharmacy/internal/domain/inventory"
	"github.com/xiebiao/pharmacy/internal/domain/operator"
	"github.com/xiebiao/pharmacy/internal/infrastructure/events"
	"github.com/xiebiao/pharmacy/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/pharmacy/internal/interface/http/middleware"
	"github.com/xiebiao/pharmacy/pkg/jwt"
)

// ==================== 测试夹具 ====================

// fakeSessions 内存会话存储，同时充当Token黑名单
type fakeSessions struct {
	mu        sync.Mutex
	blacklist map[string]bool
}

func (s *fakeSessions) SaveSession(context.Context, uint, map[string]interface{}, time.Duration) error {
	return nil
}

func (s *fakeSessions) DeleteSession(context.Context, uint) error { return nil }

func (s *fakeSessions) AddToBlacklist(_ context.Context, token string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[token] = true
	return nil
}

func (s *fakeSessions) IsInBlacklist(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blacklist[token], nil
}

// nopCache 不缓存，读全部落库
type nopCache struct{}

func (nopCache) Get(context.Context, inventory.Key) (*inventory.Record, bool, error) {
	return nil, false, nil
}
func (nopCache) Set(context.Context, *inventory.Record) error { return nil }
func (nopCache) Invalidate(context.Context, ...inventory.Key) error { return nil }

// apiResponse 统一响应（data保持原始JSON，按需解析）
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	drugs  drug.Repository
}

// newTestServer 真实路由 + 真实用例 + SQLite
// 只有Redis和MQ换成内存实现
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := mysql.Open("sqlite", filepath.Join(t.TempDir(), "handler_test.db"), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, mysql.AutoMigrate(db))

	log := zap.NewNop()
	sessions := &fakeSessions{blacklist: map[string]bool{}}
	jwtManager := jwt.NewManager("handler-test-secret-0123456789", time.Hour, 24*time.Hour)

	operatorService := operator.NewServiceWithCost(mysql.NewOperatorRepository(db), bcrypt.MinCost)
	drugRepo := mysql.NewDrugRepository(db)
	drugService := drug.NewService(drugRepo)
	ledger := mysql.NewInventoryLedger(db)
	docs := mysql.NewStockInRepository(db)
	reports, err := mysql.NewReportRepository(db)
	require.NoError(t, err)
	tx := mysql.NewTxManager(db)
	publisher := events.NewLogPublisher(log)
	cache := nopCache{}

	post := appstockin.NewPostStockInUseCase(tx, docs, ledger, drugService, cache, publisher, log)

	h := Handlers{
		Operator: NewOperatorHandler(
			appoperator.NewRegisterUseCase(operatorService),
			appoperator.NewLoginUseCase(operatorService, jwtManager, sessions, log),
			appoperator.NewLogoutUseCase(sessions, jwtManager),
		),
		Drug: NewDrugHandler(
			appdrug.NewRegisterDrugUseCase(drugService),
			appdrug.NewListDrugsUseCase(drugService),
			appdrug.NewGetDrugUseCase(drugService),
			appdrug.NewUpdateDrugUseCase(drugService),
			appdrug.NewDeleteDrugUseCase(drugService, log),
		),
		StockIn: NewStockInHandler(
			post,
			appstockin.NewImportStockInUseCase(post, 100),
			appstockin.NewCancelStockInUseCase(tx, docs, ledger, cache, publisher, log),
			appstockin.NewGetStockInUseCase(docs),
			appstockin.NewListStockInsUseCase(docs),
			appstockin.NewExpiringBatchesUseCase(reports, 90),
		),
		Inventory: NewInventoryHandler(
			appinventory.NewGetBalanceUseCase(ledger, cache, log),
			appinventory.NewListBalancesUseCase(ledger),
			appinventory.NewListMovementsUseCase(ledger),
			appinventory.NewAdjustUseCase(ledger, drugService, cache, log),
			appinventory.NewExportBalancesUseCase(ledger),
			appinventory.NewReconcileUseCase(reports),
		),
	}

	r := gin.New()
	RegisterRoutes(r, h, middleware.NewAuthMiddleware(jwtManager, sessions))

	return &testServer{t: t, engine: r, drugs: drugRepo}
}

// do 发送请求并解析统一响应
func (s *testServer) do(method, path string, body interface{}, token string) apiResponse {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.serve(req, token)
}

func (s *testServer) serve(req *http.Request, token string) apiResponse {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	require.Equal(s.t, http.StatusOK, w.Code, "业务错误也返回HTTP 200")

	var resp apiResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// login 注册并登录一个操作员，返回access token
func (s *testServer) login(username string) string {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/v1/operators/register", map[string]string{
		"username": username,
		"password": "Passw0rd1",
		"name":     "药库管理员",
	}, "")
	require.Equal(s.t, 0, resp.Code, resp.Message)

	resp = s.do(http.MethodPost, "/api/v1/operators/login", map[string]string{
		"username": username,
		"password": "Passw0rd1",
	}, "")
	require.Equal(s.t, 0, resp.Code, resp.Message)

	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(s.t, data.AccessToken)
	return data.AccessToken
}

// seedDrug 直接在仓储中登记药品
func (s *testServer) seedDrug(code string) uint {
	s.t.Helper()
	d := drug.NewDrug(code, code, "0.25g*24", "盒", "", 1)
	require.NoError(s.t, s.drugs.Create(context.Background(), d))
	return d.ID
}

func decode[T any](t *testing.T, resp apiResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v), string(resp.Data))
	return v
}
