package dto

import (
	"time"

	"github.com/shopspring/decimal"

	appstockin "github.com/xiebiao/pharmacy/internal/application/stockin"
	"github.com/xiebiao/pharmacy/internal/domain/stockin"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// PostStockInRequest 入库单提交请求
// 明细字段的校验在领域层完成，所有出错字段一次性返回（带行号），
// 所以这里不加binding tag
type PostStockInRequest struct {
	InvoiceNo     string                   `json:"invoice_no" example:"FP20260301001"`
	SupplierName  string                   `json:"supplier_name" example:"国药控股"`
	OperationTime string                   `json:"operation_time" example:"2026-03-01 09:30:00"` // 为空表示当前时间
	TotalAmount   *decimal.Decimal         `json:"total_amount" swaggertype:"string" example:"88.50"`
	Remark        string                   `json:"remark"`
	Lines         []PostStockInLineRequest `json:"lines"`
}

// PostStockInLineRequest 入库明细
type PostStockInLineRequest struct {
	DrugID         uint            `json:"drug_id" example:"1"`
	BatchNo        string          `json:"batch_no" example:"B20260101"`
	ProductionDate string          `json:"production_date" example:"2026-01-01"`
	ExpiryDate     string          `json:"expiry_date" example:"2028-01-01"`
	Quantity       int             `json:"quantity" example:"10"`
	UnitPrice      decimal.Decimal `json:"unit_price" swaggertype:"string" example:"2.50"`
	Location       string          `json:"location" example:"西药库"`
}

// ToPostRequest 转换为应用层请求
// 日期格式错误与其他字段错误一样按行号返回
func (r *PostStockInRequest) ToPostRequest(operatorID uint) (appstockin.PostRequest, error) {
	var errs []stockin.FieldError

	opTime, err := ParseDateTime(r.OperationTime)
	if err != nil {
		errs = append(errs, stockin.FieldError{Line: 0, Field: "operation_time", Reason: "时间格式应为 2006-01-02 15:04:05"})
	}

	lines := make([]appstockin.LineInput, len(r.Lines))
	for i, l := range r.Lines {
		production, err := ParseDate(l.ProductionDate)
		if err != nil {
			errs = append(errs, stockin.FieldError{Line: i + 1, Field: "production_date", Reason: "日期格式应为 2006-01-02"})
		}
		expiry, err := ParseDate(l.ExpiryDate)
		if err != nil {
			errs = append(errs, stockin.FieldError{Line: i + 1, Field: "expiry_date", Reason: "日期格式应为 2006-01-02"})
		}
		lines[i] = appstockin.LineInput{
			DrugID:         l.DrugID,
			BatchNo:        l.BatchNo,
			ProductionDate: production,
			ExpiryDate:     expiry,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			Location:       l.Location,
		}
	}
	if len(errs) > 0 {
		return appstockin.PostRequest{}, stockin.NewValidationError(errs)
	}

	return appstockin.PostRequest{
		InvoiceNo:     r.InvoiceNo,
		SupplierName:  r.SupplierName,
		OperatorID:    operatorID,
		OperationTime: opTime,
		DeclaredTotal: r.TotalAmount,
		Remark:        r.Remark,
		Lines:         lines,
	}, nil
}

// CancelStockInRequest 冲销请求
type CancelStockInRequest struct {
	Reason string `json:"reason" binding:"max=255" example:"供应商退货"`
}

// ListStockInsQuery 入库单列表查询参数
type ListStockInsQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status    string `form:"status" binding:"omitempty,oneof=POSTED CANCELLED posted cancelled"`
	Supplier  string `form:"supplier"`
	InvoiceNo string `form:"invoice_no"`
	From      string `form:"from"` // 2006-01-02
	To        string `form:"to"`   // 2006-01-02，包含当天
}

// ToListRequest 转换为应用层请求
func (q *ListStockInsQuery) ToListRequest() (appstockin.ListRequest, error) {
	from, err := ParseDate(q.From)
	if err != nil {
		return appstockin.ListRequest{}, err
	}
	to, err := ParseDate(q.To)
	if err != nil {
		return appstockin.ListRequest{}, err
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return appstockin.ListRequest{
		Page:      q.Page,
		PageSize:  q.PageSize,
		Status:    q.Status,
		Supplier:  q.Supplier,
		InvoiceNo: q.InvoiceNo,
		From:      from,
		To:        to,
	}, nil
}

// ExpiringQuery 近效期查询参数
type ExpiringQuery struct {
	Days     int    `form:"days" binding:"omitempty,min=0,max=3650"`
	Location string `form:"location"`
}

// ParseDate 解析日期，空字符串返回零值
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, s, time.Local)
}

// ParseDateTime 解析时间，兼容RFC3339
func ParseDateTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(dateTimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
