// Package events 把入库领域事件投递到消息队列
//
// 教学要点:
// 1. 发布发生在事务提交之后,失败只记日志,不影响入库结果
// 2. RabbitMQ故障时熔断器快速失败,请求不会卡在连接超时上
// 3. 未启用MQ时使用LogPublisher,事件只写日志
package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/pharmacy/internal/domain/stockin"
	"github.com/xiebiao/pharmacy/pkg/circuitbreaker"
)

// publishTimeout 单次发布的超时时间
const publishTimeout = 3 * time.Second

// Sender 消息发送接口(*mq.Publisher实现了它)
type Sender interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// MQPublisher 基于RabbitMQ的领域事件发布者
type MQPublisher struct {
	sender  Sender
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ stockin.EventPublisher = (*MQPublisher)(nil)

// NewMQPublisher 创建事件发布者
func NewMQPublisher(sender Sender, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *MQPublisher {
	breaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		logger.Warn("事件发布熔断器状态变化",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})
	return &MQPublisher{sender: sender, breaker: breaker, logger: logger}
}

// Publish 发布事件,routing_key即事件类型
func (p *MQPublisher) Publish(ctx context.Context, event stockin.Event) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := p.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		return p.sender.Publish(ctx, event.Type, event)
	})
	if err != nil {
		p.logger.Warn("发布领域事件失败",
			zap.String("type", event.Type),
			zap.Uint("document_id", event.DocumentID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// LogPublisher 只写日志的事件发布者(MQ未启用时使用)
type LogPublisher struct {
	logger *zap.Logger
}

var _ stockin.EventPublisher = (*LogPublisher)(nil)

// NewLogPublisher 创建日志事件发布者
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish 把事件写入日志
func (p *LogPublisher) Publish(_ context.Context, event stockin.Event) error {
	p.logger.Info("领域事件",
		zap.String("type", event.Type),
		zap.Uint("document_id", event.DocumentID),
		zap.String("invoice_no", event.InvoiceNo),
		zap.Int("lines", len(event.Lines)),
	)
	return nil
}
