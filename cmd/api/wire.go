//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 教学说明：
// 1. Wire在编译期生成依赖创建代码，零运行时开销
// 2. 修改Provider后运行 `wire gen ./cmd/api` 重新生成wire_gen.go
// 3. 返回cleanup函数：数据库、Redis、MQ按创建的逆序关闭

package main

import (
	"github.com/google/wire"

	appdrug "github.com/xiebiao/pharmacy/internal/application/drug"
	appinventory "github.com/xiebiao/pharmacy/internal/application/inventory"
	appoperator "github.com/xiebiao/pharmacy/internal/application/operator"
	appstockin "github.com/xiebiao/pharmacy/internal/application/stockin"
	"github.com/xiebiao/pharmacy/internal/domain/drug"
	"github.com/xiebiao/pharmacy/internal/domain/inventory"
	"github.com/xiebiao/pharmacy/internal/domain/operator"
	"github.com/xiebiao/pharmacy/internal/infrastructure/config"
	"github.com/xiebiao/pharmacy/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/pharmacy/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/pharmacy/internal/interface/http/handler"
	"github.com/xiebiao/pharmacy/internal/interface/http/middleware"
)

// ========================================
// Wire Provider Sets (依赖分组)
// ========================================

// infrastructureSet 配置、日志、数据库、Redis
var infrastructureSet = wire.NewSet(
	config.Load,
	provideLogger,
	provideDB,
	provideRedis,
)

// repositorySet 仓储、事务管理器、缓存
// 教学要点：wire.Bind把具体类型绑定到用例依赖的接口
var repositorySet = wire.NewSet(
	mysql.NewOperatorRepository,
	mysql.NewDrugRepository,
	mysql.NewStockInRepository,
	mysql.NewInventoryLedger,
	mysql.NewReportRepository,
	mysql.NewTxManager,
	wire.Bind(new(appstockin.Transactor), new(*mysql.TxManager)),
	redis.NewSessionStore,
	wire.Bind(new(appoperator.SessionStore), new(*redis.SessionStore)),
	wire.Bind(new(middleware.TokenBlacklist), new(*redis.SessionStore)),
	redis.NewInventoryCache,
	wire.Bind(new(inventory.Cache), new(*redis.InventoryCache)),
	provideStockInReports,
	provideInventoryReports,
	provideEventPublisher,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	operator.NewService,
	drug.NewService,
	provideStockInCatalog,
	provideInventoryCatalog,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	appoperator.NewRegisterUseCase,
	appoperator.NewLoginUseCase,
	appoperator.NewLogoutUseCase,

	appdrug.NewRegisterDrugUseCase,
	appdrug.NewListDrugsUseCase,
	appdrug.NewGetDrugUseCase,
	appdrug.NewUpdateDrugUseCase,
	appdrug.NewDeleteDrugUseCase,

	appstockin.NewPostStockInUseCase,
	appstockin.NewCancelStockInUseCase,
	appstockin.NewGetStockInUseCase,
	appstockin.NewListStockInsUseCase,
	provideImportStockInUseCase,
	provideExpiringBatchesUseCase,

	appinventory.NewGetBalanceUseCase,
	appinventory.NewListBalancesUseCase,
	appinventory.NewListMovementsUseCase,
	appinventory.NewAdjustUseCase,
	appinventory.NewExportBalancesUseCase,
	appinventory.NewReconcileUseCase,
)

// interfaceSet JWT、中间件、处理器、gRPC管理端
var interfaceSet = wire.NewSet(
	provideJWTManager,
	middleware.NewAuthMiddleware,
	handler.NewOperatorHandler,
	handler.NewDrugHandler,
	handler.NewStockInHandler,
	handler.NewInventoryHandler,
	wire.Struct(new(handler.Handlers), "*"),
	provideGinEngine,
	provideAdminServer,
)

// InitializeApp 初始化整个应用
// 返回：App、cleanup函数、错误
func InitializeApp() (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
