package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appinventory "github.com/xiebiao/pharmacy/internal/application/inventory"
	appstockin "github.com/xiebiao/pharmacy/internal/application/stockin"
	"github.com/xiebiao/pharmacy/internal/domain/drug"
	"github.com/xiebiao/pharmacy/internal/domain/inventory"
	"github.com/xiebiao/pharmacy/internal/domain/stockin"
	"github.com/xiebiao/pharmacy/internal/infrastructure/config"
	"github.com/xiebiao/pharmacy/internal/infrastructure/events"
	"github.com/xiebiao/pharmacy/internal/infrastructure/logger"
	"github.com/xiebiao/pharmacy/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/pharmacy/internal/infrastructure/persistence/redis"
	admingrpc "github.com/xiebiao/pharmacy/internal/interface/grpc"
	"github.com/xiebiao/pharmacy/internal/interface/http/handler"
	"github.com/xiebiao/pharmacy/internal/interface/http/middleware"
	"github.com/xiebiao/pharmacy/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
	"github.com/xiebiao/pharmacy/pkg/jwt"
	"github.com/xiebiao/pharmacy/pkg/mq"
	"github.com/xiebiao/pharmacy/pkg/response"
)

// App 组装完成的应用
// main只负责启动和关闭，依赖全部由InitializeApp构造
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Engine *gin.Engine
	Admin  *admingrpc.AdminServer
}

// ========================================
// Custom Providers (自定义Provider)
// ========================================

// provideLogger 创建日志器，cleanup时刷盘
func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

// provideDB 创建数据库连接，cleanup时关闭连接池
func provideDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

// provideRedis 创建Redis客户端，cleanup时关闭
func provideRedis(cfg *config.Config, log *zap.Logger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// provideJWTManager 从配置创建JWT管理器
// 教学要点：Wire无法自动从Config提取参数，需要手动编写Provider
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

// 同一个报表仓储同时服务于入库和库存两个用例包
func provideStockInReports(r mysql.ReportRepository) stockin.ReportRepository { return r }
func provideInventoryReports(r mysql.ReportRepository) inventory.ReportRepository { return r }

// drug.Service同时充当两个用例包的药品目录
func provideStockInCatalog(s drug.Service) appstockin.DrugCatalog { return s }
func provideInventoryCatalog(s drug.Service) appinventory.DrugCatalog { return s }

// provideEventPublisher 按配置选择事件发布方式
// MQ启用：RabbitMQ + 熔断器；未启用：只写日志
func provideEventPublisher(cfg *config.Config, log *zap.Logger) (stockin.EventPublisher, func(), error) {
	if !cfg.MQ.Enabled {
		return events.NewLogPublisher(log), func() {}, nil
	}

	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic", log)
	if err != nil {
		return nil, nil, err
	}
	breaker := circuitbreaker.NewCircuitBreaker("stockin-events", circuitbreaker.DefaultConfig())
	cleanup := func() {
		if err := publisher.Close(); err != nil {
			log.Warn("关闭MQ发布器失败", zap.Error(err))
		}
	}
	return events.NewMQPublisher(publisher, breaker, log), cleanup, nil
}

func provideImportStockInUseCase(post *appstockin.PostStockInUseCase, cfg *config.Config) *appstockin.ImportStockInUseCase {
	return appstockin.NewImportStockInUseCase(post, cfg.StockIn.ImportMaxRows)
}

func provideExpiringBatchesUseCase(reports stockin.ReportRepository, cfg *config.Config) *appstockin.ExpiringBatchesUseCase {
	return appstockin.NewExpiringBatchesUseCase(reports, cfg.StockIn.ExpiringDays)
}

// provideAdminServer 管理端gRPC服务，探活数据库和Redis
func provideAdminServer(db *gorm.DB, client *goredis.Client, log *zap.Logger) (*admingrpc.AdminServer, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	pingers := map[string]admingrpc.Pinger{
		"database": admingrpc.PingFunc(sqlDB.PingContext),
		"redis": admingrpc.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}),
	}
	return admingrpc.NewAdminServer(pingers, 0, log.Named("admin")), nil
}

// provideGinEngine 创建并配置Gin引擎
// 教学要点：
// 1. 不用gin.Default()，日志和恢复中间件换成zap版本
// 2. Metrics中间件放在最外层之后，统计所有业务请求
// 3. 业务路由由handler.RegisterRoutes统一注册
func provideGinEngine(
	cfg *config.Config,
	log *zap.Logger,
	handlers handler.Handlers,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	// 设置运行模式
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logger(log))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
	}

	// Excel导入文件放内存的上限
	r.MaxMultipartMemory = 8 << 20

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Swagger文档：http://localhost:8080/swagger/index.html
	// 生产环境不暴露
	if cfg.Server.Mode != "release" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, handlers, authMiddleware)

	r.NoRoute(func(c *gin.Context) {
		response.ErrorWithCode(c, apperrors.ErrCodeNotFound, "接口不存在")
	})

	return r
}
