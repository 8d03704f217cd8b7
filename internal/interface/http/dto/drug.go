package dto

// RegisterDrugRequest 药品建档请求
type RegisterDrugRequest struct {
	Code          string `json:"code" binding:"required,min=2,max=32"`
	Name          string `json:"name" binding:"required,max=128"`
	Specification string `json:"specification" binding:"max=64"`
	Unit          string `json:"unit" binding:"max=16"`
	Manufacturer  string `json:"manufacturer" binding:"max=128"`
}

// UpdateDrugRequest 修改药品信息请求（空字段不修改）
type UpdateDrugRequest struct {
	Name          string `json:"name" binding:"max=128"`
	Specification string `json:"specification" binding:"max=64"`
	Unit          string `json:"unit" binding:"max=16"`
	Manufacturer  string `json:"manufacturer" binding:"max=128"`
}

// ListDrugsQuery 药品列表查询参数
type ListDrugsQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Keyword  string `form:"keyword"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=code_asc name_asc created_at_desc"`
}
