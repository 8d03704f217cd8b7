package stockin

import (
	"time"

	"github.com/xiebiao/pharmacy/internal/domain/stockin"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	dateLayout = "2006-01-02"
)

// DocumentResponse 入库单响应DTO
type DocumentResponse struct {
	ID            uint           `json:"id"`
	InvoiceNo     string         `json:"invoice_no"`
	SupplierName  string         `json:"supplier_name"`
	OperatorID    uint           `json:"operator_id"`
	OperationTime string         `json:"operation_time"`
	TotalAmount   string         `json:"total_amount"`
	Status        string         `json:"status"`
	StatusText    string         `json:"status_text"`
	Remark        string         `json:"remark,omitempty"`
	CancelledAt   string         `json:"cancelled_at,omitempty"`
	CancelledBy   uint           `json:"cancelled_by,omitempty"`
	CancelReason  string         `json:"cancel_reason,omitempty"`
	CreatedAt     string         `json:"created_at"`
	Lines         []LineResponse `json:"lines,omitempty"`
}

// LineResponse 入库明细响应DTO
type LineResponse struct {
	ID             uint   `json:"id"`
	DrugID         uint   `json:"drug_id"`
	BatchNo        string `json:"batch_no"`
	ProductionDate string `json:"production_date,omitempty"`
	ExpiryDate     string `json:"expiry_date,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPrice      string `json:"unit_price"`
	Subtotal       string `json:"subtotal"`
	Location       string `json:"location"`
}

// NewDocumentResponse 领域对象转响应DTO
func NewDocumentResponse(d *stockin.Document) *DocumentResponse {
	resp := &DocumentResponse{
		ID:            d.ID,
		InvoiceNo:     d.InvoiceNo,
		SupplierName:  d.SupplierName,
		OperatorID:    d.OperatorID,
		OperationTime: d.OperationTime.Format(timeLayout),
		TotalAmount:   d.TotalAmount.StringFixed(2),
		Status:        d.Status.Code(),
		StatusText:    d.Status.String(),
		Remark:        d.Remark,
		CancelledBy:   d.CancelledBy,
		CancelReason:  d.CancelReason,
		CreatedAt:     d.CreatedAt.Format(timeLayout),
	}
	if d.CancelledAt != nil {
		resp.CancelledAt = d.CancelledAt.Format(timeLayout)
	}

	resp.Lines = make([]LineResponse, len(d.Lines))
	for i, l := range d.Lines {
		resp.Lines[i] = LineResponse{
			ID:             l.ID,
			DrugID:         l.DrugID,
			BatchNo:        l.BatchNo,
			ProductionDate: formatDate(l.ProductionDate),
			ExpiryDate:     formatDate(l.ExpiryDate),
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice.StringFixed(4),
			Subtotal:       l.Subtotal.StringFixed(2),
			Location:       l.Location,
		}
	}
	return resp
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
