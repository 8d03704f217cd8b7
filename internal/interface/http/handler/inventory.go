package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appinventory "github.com/xiebiao/pharmacy/internal/application/inventory"
	"github.com/xiebiao/pharmacy/internal/interface/http/dto"
	"github.com/xiebiao/pharmacy/internal/interface/http/middleware"
	"github.com/xiebiao/pharmacy/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InventoryHandler 库存台账HTTP处理器
type InventoryHandler struct {
	balanceUseCase   *appinventory.GetBalanceUseCase
	listUseCase      *appinventory.ListBalancesUseCase
	movementsUseCase *appinventory.ListMovementsUseCase
	adjustUseCase    *appinventory.AdjustUseCase
	exportUseCase    *appinventory.ExportBalancesUseCase
	reconcileUseCase *appinventory.ReconcileUseCase
}

// NewInventoryHandler 创建库存处理器
func NewInventoryHandler(
	balanceUseCase *appinventory.GetBalanceUseCase,
	listUseCase *appinventory.ListBalancesUseCase,
	movementsUseCase *appinventory.ListMovementsUseCase,
	adjustUseCase *appinventory.AdjustUseCase,
	exportUseCase *appinventory.ExportBalancesUseCase,
	reconcileUseCase *appinventory.ReconcileUseCase,
) *InventoryHandler {
	return &InventoryHandler{
		balanceUseCase:   balanceUseCase,
		listUseCase:      listUseCase,
		movementsUseCase: movementsUseCase,
		adjustUseCase:    adjustUseCase,
		exportUseCase:    exportUseCase,
		reconcileUseCase: reconcileUseCase,
	}
}

// GetBalance 查询结存
// @Summary      查询结存
// @Description  查询某药品在某库位的结存，从未入库过的库位返回0
// @Tags         库存
// @Produce      json
// @Security     BearerAuth
// @Param        drug_id  query int    true "药品ID"
// @Param        location query string true "库位"
// @Success      200 {object} response.Response{data=appinventory.RecordResponse}
// @Router       /api/v1/inventory/balance [get]
func (h *InventoryHandler) GetBalance(c *gin.Context) {
	var q dto.BalanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.balanceUseCase.Execute(c.Request.Context(), q.DrugID, q.Location)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListBalances 结存列表
// @Summary      结存列表
// @Tags         库存
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "页码"
// @Param        page_size query int    false "每页数量(最大100)"
// @Param        drug_id   query int    false "药品ID"
// @Param        location  query string false "库位"
// @Param        hide_zero query bool   false "隐藏结存为0的记录"
// @Success      200 {object} response.Response{data=appinventory.ListResponse}
// @Router       /api/v1/inventory [get]
func (h *InventoryHandler) ListBalances(c *gin.Context) {
	var q dto.ListBalancesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), appinventory.ListRequest{
		Page:     q.Page,
		PageSize: q.PageSize,
		DrugID:   q.DrugID,
		Location: q.Location,
		HideZero: q.HideZero,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListMovements 库存流水
// @Summary      库存流水
// @Tags         库存
// @Produce      json
// @Security     BearerAuth
// @Param        drug_id   query int    true  "药品ID"
// @Param        location  query string true  "库位"
// @Param        page      query int    false "页码"
// @Param        page_size query int    false "每页数量"
// @Success      200 {object} response.Response{data=appinventory.MovementsResponse}
// @Router       /api/v1/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var q dto.MovementsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.movementsUseCase.Execute(c.Request.Context(), q.DrugID, q.Location, q.Page, q.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Adjust 手工调整
// @Summary      手工调整
// @Description  盘盈(正数)、领用或报损(负数)。扣减后结存不能为负
// @Tags         库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.AdjustRequest true "调整信息"
// @Success      200 {object} response.Response{data=appinventory.RecordResponse}
// @Failure      400 {object} response.Response{data=[]inventory.Shortage} "40001库存不足"
// @Router       /api/v1/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req dto.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.adjustUseCase.Execute(c.Request.Context(), appinventory.AdjustRequest{
		DrugID:     req.DrugID,
		Location:   req.Location,
		Delta:      req.Delta,
		OperatorID: middleware.MustGetOperatorID(c),
		Remark:     req.Remark,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Export 导出结存
// @Summary      导出结存
// @Tags         库存
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        drug_id   query int    false "药品ID"
// @Param        location  query string false "库位"
// @Param        hide_zero query bool   false "隐藏结存为0的记录"
// @Success      200 {file} file
// @Router       /api/v1/inventory/export [get]
func (h *InventoryHandler) Export(c *gin.Context) {
	var q dto.ListBalancesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.exportUseCase.Execute(c.Request.Context(), q.DrugID, q.Location, q.HideZero)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, xlsxContentType, result.Content.Bytes())
}

// Reconcile 库存对账
// @Summary      库存对账
// @Description  逐库位核对：台账结存 = 有效入库明细合计 + 手工调整合计
// @Tags         库存
// @Produce      json
// @Security     BearerAuth
// @Param        only_mismatched query bool false "只返回不一致的库位"
// @Success      200 {object} response.Response{data=appinventory.ReconcileResponse}
// @Router       /api/v1/inventory/reconciliation [get]
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	var q dto.ReconcileQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.reconcileUseCase.Execute(c.Request.Context(), q.OnlyMismatched)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
