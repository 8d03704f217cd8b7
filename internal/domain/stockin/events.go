package stockin

import (
	"context"
	"time"
)

// 领域事件路由键
const (
	RoutingKeyPosted    = "stockin.posted"
	RoutingKeyCancelled = "stockin.cancelled"
)

// Event 入库单领域事件
// 事务提交后发布,供药房、财务等下游异步订阅
type Event struct {
	Type          string      `json:"type"`
	DocumentID    uint        `json:"document_id"`
	InvoiceNo     string      `json:"invoice_no"`
	SupplierName  string      `json:"supplier_name"`
	OperatorID    uint        `json:"operator_id"`
	TotalAmount   string      `json:"total_amount"`
	Lines         []EventLine `json:"lines"`
	OccurredAt    time.Time   `json:"occurred_at"`
	CancelReason  string      `json:"cancel_reason,omitempty"`
	OperationTime time.Time   `json:"operation_time"`
}

// EventLine 事件中的明细(只保留库存相关字段)
type EventLine struct {
	DrugID   uint   `json:"drug_id"`
	BatchNo  string `json:"batch_no"`
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
}

// NewPostedEvent 入库事件
func NewPostedEvent(doc *Document, now time.Time) Event {
	return newEvent(RoutingKeyPosted, doc, now)
}

// NewCancelledEvent 冲销事件(数量为负)
func NewCancelledEvent(doc *Document, now time.Time) Event {
	e := newEvent(RoutingKeyCancelled, doc, now)
	for i := range e.Lines {
		e.Lines[i].Quantity = -e.Lines[i].Quantity
	}
	e.CancelReason = doc.CancelReason
	return e
}

func newEvent(typ string, doc *Document, now time.Time) Event {
	lines := make([]EventLine, len(doc.Lines))
	for i, l := range doc.Lines {
		lines[i] = EventLine{
			DrugID:   l.DrugID,
			BatchNo:  l.BatchNo,
			Location: l.Location,
			Quantity: l.Quantity,
		}
	}
	return Event{
		Type:          typ,
		DocumentID:    doc.ID,
		InvoiceNo:     doc.InvoiceNo,
		SupplierName:  doc.SupplierName,
		OperatorID:    doc.OperatorID,
		TotalAmount:   doc.TotalAmount.StringFixed(2),
		Lines:         lines,
		OccurredAt:    now,
		OperationTime: doc.OperationTime,
	}
}

// EventPublisher 领域事件发布接口
// 发布失败只记录日志,不影响已提交的入库/冲销
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
