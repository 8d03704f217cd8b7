package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/pharmacy/internal/domain/stockin"
	"github.com/xiebiao/pharmacy/pkg/mq"
)

// Deduper 消息去重（由Redis实现）
type Deduper interface {
	FirstSeen(ctx context.Context, messageID string) (bool, error)
	Forget(ctx context.Context, messageID string) error
}

// AuditSink 审计记录的落地位置
type AuditSink interface {
	Record(ctx context.Context, event stockin.Event) error
}

// LogSink 审计事件写入独立的zap logger
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink 创建日志审计
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("audit")}
}

// Record 写一条审计日志
func (s *LogSink) Record(_ context.Context, e stockin.Event) error {
	qty := 0
	for _, l := range e.Lines {
		qty += l.Quantity
	}
	s.logger.Info("入库审计",
		zap.String("type", e.Type),
		zap.Uint("document_id", e.DocumentID),
		zap.String("invoice_no", e.InvoiceNo),
		zap.String("supplier", e.SupplierName),
		zap.Uint("operator_id", e.OperatorID),
		zap.String("total_amount", e.TotalAmount),
		zap.Int("lines", len(e.Lines)),
		zap.Int("quantity", qty),
		zap.String("cancel_reason", e.CancelReason),
		zap.Time("occurred_at", e.OccurredAt),
	)
	return nil
}

// NewAuditHandler 入库事件消费处理函数
//
// 处理规则：
//  1. 消息体不是合法事件、或routing_key与事件类型不一致：毒消息，直接丢弃
//  2. 重复投递的消息（同一MessageId）跳过
//  3. 落地失败时清除去重记录并返回错误，消息重新入队
func NewAuditHandler(sink AuditSink, dedup Deduper, logger *zap.Logger) mq.Handler {
	return func(ctx context.Context, msg mq.Message) error {
		var event stockin.Event
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("%w: %v", mq.ErrPoisonMessage, err)
		}
		if event.Type != msg.RoutingKey {
			return fmt.Errorf("%w: routing_key=%s type=%s", mq.ErrPoisonMessage, msg.RoutingKey, event.Type)
		}

		if dedup != nil && msg.ID != "" {
			first, err := dedup.FirstSeen(ctx, msg.ID)
			if err != nil {
				return err
			}
			if !first {
				logger.Info("跳过重复消息", zap.String("message_id", msg.ID))
				return nil
			}
		}

		if err := sink.Record(ctx, event); err != nil {
			if dedup != nil && msg.ID != "" {
				_ = dedup.Forget(ctx, msg.ID)
			}
			return err
		}
		return nil
	}
}
