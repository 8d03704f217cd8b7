package handler

import (
	"github.com/gin-gonic/gin"

	appdrug "github.com/xiebiao/pharmacy/internal/application/drug"
	"github.com/xiebiao/pharmacy/internal/interface/http/dto"
	"github.com/xiebiao/pharmacy/internal/interface/http/middleware"
	"github.com/xiebiao/pharmacy/pkg/response"
)

// DrugHandler 药品目录HTTP处理器
type DrugHandler struct {
	registerUseCase *appdrug.RegisterDrugUseCase
	listUseCase     *appdrug.ListDrugsUseCase
	getUseCase      *appdrug.GetDrugUseCase
	updateUseCase   *appdrug.UpdateDrugUseCase
	deleteUseCase   *appdrug.DeleteDrugUseCase
}

// NewDrugHandler 创建药品处理器
func NewDrugHandler(
	registerUseCase *appdrug.RegisterDrugUseCase,
	listUseCase *appdrug.ListDrugsUseCase,
	getUseCase *appdrug.GetDrugUseCase,
	updateUseCase *appdrug.UpdateDrugUseCase,
	deleteUseCase *appdrug.DeleteDrugUseCase,
) *DrugHandler {
	return &DrugHandler{
		registerUseCase: registerUseCase,
		listUseCase:     listUseCase,
		getUseCase:      getUseCase,
		updateUseCase:   updateUseCase,
		deleteUseCase:   deleteUseCase,
	}
}

// RegisterDrug 药品建档
// @Summary      药品建档
// @Description  新增药品目录，编码统一转大写且不可重复
// @Tags         药品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.RegisterDrugRequest true "药品信息"
// @Success      200 {object} response.Response{data=appdrug.DrugResponse}
// @Failure      400 {object} response.Response "40900参数错误"
// @Failure      409 {object} response.Response "40004编码已存在"
// @Router       /api/v1/drugs [post]
func (h *DrugHandler) RegisterDrug(c *gin.Context) {
	var req dto.RegisterDrugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.registerUseCase.Execute(c.Request.Context(), appdrug.RegisterDrugRequest{
		Code:          req.Code,
		Name:          req.Name,
		Specification: req.Specification,
		Unit:          req.Unit,
		Manufacturer:  req.Manufacturer,
		OperatorID:    middleware.MustGetOperatorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListDrugs 药品列表
// @Summary      药品列表
// @Tags         药品
// @Produce      json
// @Param        page      query int    false "页码"
// @Param        page_size query int    false "每页数量(最大100)"
// @Param        keyword   query string false "关键词(编码、通用名、厂家)"
// @Param        sort_by   query string false "排序" Enums(code_asc, name_asc, created_at_desc)
// @Success      200 {object} response.Response{data=appdrug.ListDrugsResponse}
// @Router       /api/v1/drugs [get]
func (h *DrugHandler) ListDrugs(c *gin.Context) {
	var q dto.ListDrugsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), appdrug.ListDrugsRequest{
		Page:     q.Page,
		PageSize: q.PageSize,
		Keyword:  q.Keyword,
		SortBy:   q.SortBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetDrug 药品详情
// @Summary      药品详情
// @Tags         药品
// @Produce      json
// @Param        id path int true "药品ID"
// @Success      200 {object} response.Response{data=appdrug.DrugResponse}
// @Failure      404 {object} response.Response "40402药品不存在"
// @Router       /api/v1/drugs/{id} [get]
func (h *DrugHandler) GetDrug(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.getUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateDrug 修改药品信息
// @Summary      修改药品信息
// @Description  编码不可修改，空字段保持原值
// @Tags         药品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                   true "药品ID"
// @Param        request body dto.UpdateDrugRequest true "药品信息"
// @Success      200 {object} response.Response{data=appdrug.DrugResponse}
// @Router       /api/v1/drugs/{id} [put]
func (h *DrugHandler) UpdateDrug(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateDrugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.updateUseCase.Execute(c.Request.Context(), appdrug.UpdateDrugRequest{
		ID:            id,
		Name:          req.Name,
		Specification: req.Specification,
		Unit:          req.Unit,
		Manufacturer:  req.Manufacturer,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteDrug 停用药品
// @Summary      停用药品
// @Description  软删除，停用后不能再入库，历史入库单仍可冲销
// @Tags         药品
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "药品ID"
// @Success      200 {object} response.Response
// @Router       /api/v1/drugs/{id} [delete]
func (h *DrugHandler) DeleteDrug(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.deleteUseCase.Execute(c.Request.Context(), id, middleware.MustGetOperatorID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}
