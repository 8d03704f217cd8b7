package dto

// BalanceQuery 结存查询参数
type BalanceQuery struct {
	DrugID   uint   `form:"drug_id" binding:"required"`
	Location string `form:"location" binding:"required"`
}

// MovementsQuery 流水查询参数
type MovementsQuery struct {
	DrugID   uint   `form:"drug_id" binding:"required"`
	Location string `form:"location" binding:"required"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListBalancesQuery 结存列表查询参数
type ListBalancesQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	DrugID   uint   `form:"drug_id"`
	Location string `form:"location"`
	HideZero bool   `form:"hide_zero"`
}

// AdjustRequest 手工调整请求
// Delta为正表示盘盈，为负表示领用或报损
type AdjustRequest struct {
	DrugID   uint   `json:"drug_id" binding:"required" example:"1"`
	Location string `json:"location" binding:"required" example:"西药库"`
	Delta    int    `json:"delta" binding:"required" example:"-2"`
	Remark   string `json:"remark" binding:"required,max=255" example:"病区领用"`
}

// ReconcileQuery 对账查询参数
type ReconcileQuery struct {
	OnlyMismatched bool `form:"only_mismatched"`
}
