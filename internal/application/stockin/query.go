package stockin

import (
	"context"
	"strings"
	"time"

	"github.com/xiebiao/pharmacy/internal/domain/stockin"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// GetStockInUseCase 查询入库单详情(含明细)
type GetStockInUseCase struct {
	docs stockin.Repository
}

// NewGetStockInUseCase 创建查询用例
func NewGetStockInUseCase(docs stockin.Repository) *GetStockInUseCase {
	return &GetStockInUseCase{docs: docs}
}

// Execute 执行查询
func (uc *GetStockInUseCase) Execute(ctx context.Context, id uint) (*DocumentResponse, error) {
	doc, err := uc.docs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewDocumentResponse(doc), nil
}

// ListStockInsUseCase 入库单列表
type ListStockInsUseCase struct {
	docs stockin.Repository
}

// NewListStockInsUseCase 创建列表用例
func NewListStockInsUseCase(docs stockin.Repository) *ListStockInsUseCase {
	return &ListStockInsUseCase{docs: docs}
}

// ListRequest 列表查询请求
type ListRequest struct {
	Page      int
	PageSize  int
	Status    string // POSTED/CANCELLED,空表示全部
	Supplier  string
	InvoiceNo string
	From      time.Time
	To        time.Time
}

// ListResponse 列表响应
type ListResponse struct {
	Items    []*DocumentResponse `json:"items"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

// Execute 执行查询
func (uc *ListStockInsUseCase) Execute(ctx context.Context, req ListRequest) (*ListResponse, error) {
	status, ok := stockin.ParseStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !ok {
		return nil, apperrors.ErrInvalidParams.WithMessage("状态只能是POSTED或CANCELLED")
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	docs, total, err := uc.docs.List(ctx, stockin.ListParams{
		Page:      req.Page,
		PageSize:  req.PageSize,
		Status:    status,
		Supplier:  strings.TrimSpace(req.Supplier),
		InvoiceNo: strings.TrimSpace(req.InvoiceNo),
		From:      req.From,
		To:        req.To,
	})
	if err != nil {
		return nil, err
	}

	items := make([]*DocumentResponse, len(docs))
	for i, d := range docs {
		items[i] = NewDocumentResponse(d)
	}

	return &ListResponse{
		Items:    items,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

// ExpiringBatchesUseCase 近效期批次报表
// 只统计有效(未冲销)入库单中填写了有效期的批次
type ExpiringBatchesUseCase struct {
	reports     stockin.ReportRepository
	defaultDays int
	now         func() time.Time
}

// NewExpiringBatchesUseCase 创建近效期报表用例
// defaultDays来自配置(stockin.expiring_days)
func NewExpiringBatchesUseCase(reports stockin.ReportRepository, defaultDays int) *ExpiringBatchesUseCase {
	if defaultDays <= 0 {
		defaultDays = 90
	}
	return &ExpiringBatchesUseCase{reports: reports, defaultDays: defaultDays, now: time.Now}
}

// ExpiringRequest 近效期查询请求
type ExpiringRequest struct {
	Days     int    // 多少天内过期,0表示使用默认值
	Location string // 空表示全部库位
}

// ExpiringItem 近效期批次
type ExpiringItem struct {
	stockin.ExpiringLine
	DaysLeft int  `json:"days_left"`
	Expired  bool `json:"expired"`
}

// Execute 执行查询
func (uc *ExpiringBatchesUseCase) Execute(ctx context.Context, req ExpiringRequest) ([]ExpiringItem, error) {
	if req.Days < 0 || req.Days > 3650 {
		return nil, apperrors.ErrInvalidParams.WithMessage("天数必须在0-3650之间")
	}
	days := req.Days
	if days == 0 {
		days = uc.defaultDays
	}

	now := uc.now()
	lines, err := uc.reports.ListExpiring(ctx, now.AddDate(0, 0, days), strings.TrimSpace(req.Location))
	if err != nil {
		return nil, err
	}

	items := make([]ExpiringItem, len(lines))
	for i, l := range lines {
		left := l.DaysLeft(now)
		items[i] = ExpiringItem{
			ExpiringLine: l,
			DaysLeft:     left,
			Expired:      l.ExpiryDate.Before(now),
		}
	}
	return items, nil
}
