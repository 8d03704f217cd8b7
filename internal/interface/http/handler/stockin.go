package handler

import (
	"github.com/gin-gonic/gin"

	appstockin "github.com/xiebiao/pharmacy/internal/application/stockin"
	"github.com/xiebiao/pharmacy/internal/interface/http/dto"
	"github.com/xiebiao/pharmacy/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
	"github.com/xiebiao/pharmacy/pkg/response"
)

// StockInHandler 入库单HTTP处理器
type StockInHandler struct {
	postUseCase     *appstockin.PostStockInUseCase
	importUseCase   *appstockin.ImportStockInUseCase
	cancelUseCase   *appstockin.CancelStockInUseCase
	getUseCase      *appstockin.GetStockInUseCase
	listUseCase     *appstockin.ListStockInsUseCase
	expiringUseCase *appstockin.ExpiringBatchesUseCase
}

// NewStockInHandler 创建入库单处理器
func NewStockInHandler(
	postUseCase *appstockin.PostStockInUseCase,
	importUseCase *appstockin.ImportStockInUseCase,
	cancelUseCase *appstockin.CancelStockInUseCase,
	getUseCase *appstockin.GetStockInUseCase,
	listUseCase *appstockin.ListStockInsUseCase,
	expiringUseCase *appstockin.ExpiringBatchesUseCase,
) *StockInHandler {
	return &StockInHandler{
		postUseCase:     postUseCase,
		importUseCase:   importUseCase,
		cancelUseCase:   cancelUseCase,
		getUseCase:      getUseCase,
		listUseCase:     listUseCase,
		expiringUseCase: expiringUseCase,
	}
}

// PostStockIn 采购入库
// @Summary      采购入库
// @Description  提交入库单，所有明细在同一个事务中入账。合计金额按明细重新计算
// @Tags         入库
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.PostStockInRequest true "入库单"
// @Success      200 {object} response.Response{data=appstockin.DocumentResponse}
// @Failure      400 {object} response.Response{data=[]stockin.FieldError} "40900参数校验失败(附带全部出错字段)"
// @Failure      409 {object} response.Response "40006发票号重复 / 40903药品不存在"
// @Router       /api/v1/stock-ins [post]
func (h *StockInHandler) PostStockIn(c *gin.Context) {
	var req dto.PostStockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	postReq, err := req.ToPostRequest(middleware.MustGetOperatorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.postUseCase.Execute(c.Request.Context(), postReq)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ImportStockIn Excel导入入库
// @Summary      Excel导入入库
// @Description  上传.xlsx(表头:药品ID、批号、生产日期、有效期至、数量、单价、库位)，解析后按普通入库处理
// @Tags         入库
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file           formData file   true  "Excel文件"
// @Param        invoice_no     formData string true  "发票号"
// @Param        supplier_name  formData string false "供应商"
// @Param        operation_time formData string false "入库时间(2006-01-02 15:04:05)"
// @Param        remark         formData string false "备注"
// @Success      200 {object} response.Response{data=appstockin.DocumentResponse}
// @Failure      400 {object} response.Response{data=[]stockin.FieldError} "按Excel行号返回错误"
// @Router       /api/v1/stock-ins/import [post]
func (h *StockInHandler) ImportStockIn(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "请上传Excel文件")
		return
	}
	opTime, err := dto.ParseDateTime(c.PostForm("operation_time"))
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "入库时间格式错误")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "读取上传文件失败"))
		return
	}
	defer file.Close()

	result, err := h.importUseCase.Execute(c.Request.Context(), appstockin.ImportRequest{
		File:          file,
		InvoiceNo:     c.PostForm("invoice_no"),
		SupplierName:  c.PostForm("supplier_name"),
		OperatorID:    middleware.MustGetOperatorID(c),
		OperationTime: opTime,
		Remark:        c.PostForm("remark"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelStockIn 入库冲销
// @Summary      入库冲销
// @Description  整单冲销，按明细原样扣回库存。任何库位结存不足时整单拒绝并返回全部缺口
// @Tags         入库
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                      true  "入库单ID"
// @Param        request body dto.CancelStockInRequest false "冲销原因"
// @Success      200 {object} response.Response{data=appstockin.DocumentResponse}
// @Failure      400 {object} response.Response{data=[]inventory.Shortage} "40001库存不足"
// @Failure      404 {object} response.Response "40405入库单不存在"
// @Failure      409 {object} response.Response "40007已冲销"
// @Router       /api/v1/stock-ins/{id}/cancel [post]
func (h *StockInHandler) CancelStockIn(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	// 冲销原因可以不传
	var req dto.CancelStockInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	result, err := h.cancelUseCase.Execute(c.Request.Context(), appstockin.CancelRequest{
		DocumentID: id,
		OperatorID: middleware.MustGetOperatorID(c),
		Reason:     req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetStockIn 入库单详情
// @Summary      入库单详情
// @Tags         入库
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "入库单ID"
// @Success      200 {object} response.Response{data=appstockin.DocumentResponse}
// @Failure      404 {object} response.Response "40405入库单不存在"
// @Router       /api/v1/stock-ins/{id} [get]
func (h *StockInHandler) GetStockIn(c *gin.Context) {
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

// ListStockIns 入库单列表
// @Summary      入库单列表
// @Tags         入库
// @Produce      json
// @Security     BearerAuth
// @Param        page       query int    false "页码"
// @Param        page_size  query int    false "每页数量(最大100)"
// @Param        status     query string false "状态" Enums(POSTED, CANCELLED)
// @Param        supplier   query string false "供应商(模糊)"
// @Param        invoice_no query string false "发票号"
// @Param        from       query string false "入库日期起(2006-01-02)"
// @Param        to         query string false "入库日期止(2006-01-02)"
// @Success      200 {object} response.Response{data=appstockin.ListResponse}
// @Router       /api/v1/stock-ins [get]
func (h *StockInHandler) ListStockIns(c *gin.Context) {
	var q dto.ListStockInsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	req, err := q.ToListRequest()
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "日期格式应为 2006-01-02")
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListExpiring 近效期批次
// @Summary      近效期批次
// @Description  有效入库单中N天内过期(含已过期)的批次，按有效期升序
// @Tags         入库
// @Produce      json
// @Security     BearerAuth
// @Param        days     query int    false "天数(默认90)"
// @Param        location query string false "库位"
// @Success      200 {object} response.Response{data=[]appstockin.ExpiringItem}
// @Router       /api/v1/stock-ins/expiring [get]
func (h *StockInHandler) ListExpiring(c *gin.Context) {
	var q dto.ExpiringQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.expiringUseCase.Execute(c.Request.Context(), appstockin.ExpiringRequest{
		Days:     q.Days,
		Location: q.Location,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
