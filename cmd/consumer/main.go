package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/pharmacy/internal/infrastructure/config"
	"github.com/xiebiao/pharmacy/internal/infrastructure/events"
	"github.com/xiebiao/pharmacy/internal/infrastructure/logger"
	"github.com/xiebiao/pharmacy/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/pharmacy/pkg/mq"
)

// main 入库审计消费者
//
// 订阅 stockin.* 事件写审计日志
// Redis用于消息去重（至少一次投递 → 幂等处理）
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	redisClient, err := redis.NewClient(cfg, zlog)
	if err != nil {
		zlog.Fatal("初始化Redis失败", zap.Error(err))
	}
	defer redisClient.Close()

	consumer, err := mq.NewConsumer(
		cfg.MQ.URL,
		cfg.MQ.Exchange,
		"topic",
		cfg.MQ.Queue,
		[]string{"stockin.*"},
		zlog,
	)
	if err != nil {
		zlog.Fatal("创建消费者失败", zap.Error(err))
	}
	defer consumer.Close()

	handler := events.NewAuditHandler(
		events.NewLogSink(zlog),
		redis.NewMessageDeduper(redisClient, 24*time.Hour),
		zlog,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Info("审计消费者启动", zap.String("queue", cfg.MQ.Queue))
	if err := consumer.Consume(ctx, handler); err != nil {
		zlog.Error("消费中断", zap.Error(err))
	}
	zlog.Info("审计消费者已退出")
}
