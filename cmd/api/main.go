package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/xiebiao/pharmacy/docs" // Swagger文档
	"github.com/xiebiao/pharmacy/pkg/metrics"
	"github.com/xiebiao/pharmacy/pkg/tracing"
)

// @title           药库入库管理 API
// @version         1.0
// @description     药品入库、冲销、库存台账与报表接口
// @BasePath        /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description 格式：Bearer {access_token}

// main 主程序入口
// 启动顺序：依赖注入 → 指标/链路追踪 → HTTP服务 → gRPC管理端
// 收到SIGINT/SIGTERM后按相反顺序优雅关闭
func main() {
	app, cleanup, err := InitializeApp()
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	defer cleanup()

	cfg, zlog := app.Config, app.Logger

	if cfg.Metrics.Enabled {
		metrics.InitMetrics()
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRate)
		if err != nil {
			// 链路追踪不可用不影响业务
			zlog.Warn("初始化链路追踪失败", zap.Error(err))
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(ctx)
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		zlog.Info("HTTP服务启动", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP服务异常退出: %w", err)
		}
	}()

	if cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
		if err != nil {
			zlog.Fatal("监听gRPC端口失败", zap.Int("port", cfg.GRPC.Port), zap.Error(err))
		}
		go func() {
			zlog.Info("gRPC管理端启动", zap.String("addr", lis.Addr().String()))
			if err := app.Admin.Serve(ctx, lis); err != nil {
				errCh <- fmt.Errorf("gRPC管理端异常退出: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		zlog.Info("收到退出信号，开始优雅关闭")
	case err := <-errCh:
		zlog.Error("服务异常", zap.Error(err))
	}

	if cfg.GRPC.Enabled {
		app.Admin.GracefulStop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("HTTP服务关闭失败", zap.Error(err))
	}
	zlog.Info("服务已退出")
}
