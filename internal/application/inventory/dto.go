package inventory

import (
	"github.com/xiebiao/pharmacy/internal/domain/inventory"
)

const timeLayout = "2006-01-02 15:04:05"

// RecordResponse 库存结存响应DTO
type RecordResponse struct {
	DrugID        uint   `json:"drug_id"`
	Location      string `json:"location"`
	Quantity      int    `json:"quantity"`
	LastUpdatedAt string `json:"last_updated_at"`
}

// NewRecordResponse 领域对象转响应DTO
func NewRecordResponse(r *inventory.Record) *RecordResponse {
	return &RecordResponse{
		DrugID:        r.DrugID,
		Location:      r.Location,
		Quantity:      r.Quantity,
		LastUpdatedAt: r.LastUpdatedAt.Format(timeLayout),
	}
}

// MovementResponse 库存流水响应DTO
type MovementResponse struct {
	ID         uint   `json:"id"`
	ChangeType string `json:"change_type"`
	Quantity   int    `json:"quantity"`
	BeforeQty  int    `json:"before_qty"`
	AfterQty   int    `json:"after_qty"`
	DocumentID uint   `json:"document_id,omitempty"`
	OperatorID uint   `json:"operator_id"`
	Remark     string `json:"remark,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func newMovementResponse(m *inventory.Movement) MovementResponse {
	return MovementResponse{
		ID:         m.ID,
		ChangeType: string(m.ChangeType),
		Quantity:   m.Quantity,
		BeforeQty:  m.BeforeQty,
		AfterQty:   m.AfterQty,
		DocumentID: m.DocumentID,
		OperatorID: m.OperatorID,
		Remark:     m.Remark,
		CreatedAt:  m.CreatedAt.Format(timeLayout),
	}
}
