package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/pharmacy/internal/interface/http/middleware"
)

// Handlers 全部业务处理器
type Handlers struct {
	Operator  *OperatorHandler
	Drug      *DrugHandler
	StockIn   *StockInHandler
	Inventory *InventoryHandler
}

// RegisterRoutes 注册/api/v1下的业务路由
// 健康检查、指标、Swagger在cmd/api中注册
func RegisterRoutes(r gin.IRouter, h Handlers, auth *middleware.AuthMiddleware) {
	v1 := r.Group("/api/v1")

	// 操作员（注册、登录公开）
	operators := v1.Group("/operators")
	{
		operators.POST("/register", h.Operator.Register)
		operators.POST("/login", h.Operator.Login)
		operators.POST("/logout", auth.RequireAuth(), h.Operator.Logout)
	}

	// 药品目录（查询公开，维护需要登录）
	drugs := v1.Group("/drugs")
	{
		drugs.GET("", h.Drug.ListDrugs)
		drugs.GET("/:id", h.Drug.GetDrug)
		drugs.POST("", auth.RequireAuth(), h.Drug.RegisterDrug)
		drugs.PUT("/:id", auth.RequireAuth(), h.Drug.UpdateDrug)
		drugs.DELETE("/:id", auth.RequireAuth(), h.Drug.DeleteDrug)
	}

	// 入库单（全部需要登录）
	stockIns := v1.Group("/stock-ins")
	stockIns.Use(auth.RequireAuth())
	{
		stockIns.POST("", h.StockIn.PostStockIn)
		stockIns.POST("/import", h.StockIn.ImportStockIn)
		stockIns.GET("", h.StockIn.ListStockIns)
		stockIns.GET("/expiring", h.StockIn.ListExpiring)
		stockIns.GET("/:id", h.StockIn.GetStockIn)
		stockIns.POST("/:id/cancel", h.StockIn.CancelStockIn)
	}

	// 库存台账（全部需要登录）
	inventory := v1.Group("/inventory")
	inventory.Use(auth.RequireAuth())
	{
		inventory.GET("", h.Inventory.ListBalances)
		inventory.GET("/balance", h.Inventory.GetBalance)
		inventory.GET("/movements", h.Inventory.ListMovements)
		inventory.POST("/adjustments", h.Inventory.Adjust)
		inventory.GET("/export", h.Inventory.Export)
		inventory.GET("/reconciliation", h.Inventory.Reconcile)
	}
}
