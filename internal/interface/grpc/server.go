// Package grpc 管理端口：标准gRPC健康检查 + 反射
//
// 业务接口全部走HTTP，这个端口只给K8s探针和grpcurl调试用
package grpc

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName 健康检查中的服务名
const ServiceName = "pharmacy.StockIn"

// Pinger 依赖探活（数据库、Redis）
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc 函数适配为Pinger
type PingFunc func(ctx context.Context) error

// Ping 实现Pinger
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// AdminServer 管理端gRPC服务
type AdminServer struct {
	server   *grpc.Server
	health   *health.Server
	pingers  map[string]Pinger
	interval time.Duration
	logger   *zap.Logger
}

// NewAdminServer 创建管理端服务
// pingers中任何一个失败，服务状态置为NOT_SERVING
func NewAdminServer(pingers map[string]Pinger, interval time.Duration, logger *zap.Logger) *AdminServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	// 注册反射服务（用于grpcurl调试）
	reflection.Register(s)

	return &AdminServer{
		server:   s,
		health:   hs,
		pingers:  pingers,
		interval: interval,
		logger:   logger,
	}
}

// Check 探活一次并更新健康状态
func (a *AdminServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, p := range a.pingers {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := p.Ping(pingCtx)
		cancel()
		if err != nil {
			a.logger.Warn("依赖探活失败", zap.String("dependency", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	a.health.SetServingStatus("", status)
	a.health.SetServingStatus(ServiceName, status)
	return status
}

// Serve 启动服务并定期探活，ctx取消时停止探活
// Serve阻塞直到GracefulStop
func (a *AdminServer) Serve(ctx context.Context, lis net.Listener) error {
	a.Check(ctx)

	go func() {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.Check(ctx)
			}
		}
	}()

	return a.server.Serve(lis)
}

// GracefulStop 优雅关闭：先置为NOT_SERVING让探针摘流，再等待现有请求完成
func (a *AdminServer) GracefulStop() {
	a.health.Shutdown()
	a.server.GracefulStop()
}
