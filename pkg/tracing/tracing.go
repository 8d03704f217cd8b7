// Package tracing 提供基于OpenTelemetry的链路追踪
//
// # 核心概念
//
// 1. **Trace（追踪）**：一个完整的请求链路
//   - 示例：药剂师提交入库单，从HTTP请求到事务提交的全过程
//
// 2. **Span（跨度）**：一个操作单元
//   - 示例：stockin.Post、inventory.Apply、SQL查询
//
// 3. **SpanContext**：TraceID标识整条链路，SpanID标识当前操作
//
// # 追踪示例
//
//	Trace: POST /api/v1/stock-ins（TraceID=abc123）
//	├─ Span1: stockin.Post（耗时40ms）
//	│  ├─ Span2: catalog.FindMissing（耗时3ms）
//	│  ├─ Span3: 事务：写单据+逐行Apply（耗时30ms）← 行锁等待
//	│  └─ Span4: 发布事件（耗时2ms）
//
// # 使用示例
//
//	shutdown, err := tracing.InitTracer("pharmacy", "localhost:4317", 0.1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer shutdown(context.Background())
//
//	ctx, span := tracing.StartSpan(ctx, "stockin", "Post")
//	defer span.End()
//	if err != nil {
//	    tracing.RecordError(span, err)
//	}
//
// # 最佳实践
//
// 1. Span名用操作名（Post、Cancel），单据号等动态值放到属性里
// 2. 不要把药品批号、供应商联系人等敏感信息写进属性
// 3. 程序退出时调用shutdown()，否则最后一批Span会丢失
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InitTracer 初始化全局Tracer Provider
//
// 参数：
//   - serviceName: 服务名称（在Jaeger UI中显示）
//   - endpoint: OTLP gRPC端点（host:port，如localhost:4317）；为空时只在进程内生成Span，不导出
//   - sampleRate: 采样率，>=1 为全量采样，<=0 不采样
//
// 返回的shutdown在程序退出时调用，确保数据刷新
func InitTracer(serviceName, endpoint string, sampleRate float64) (func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("创建资源属性失败: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		// ParentBased：上游已经决定采样的请求沿用上游的决定
		sdktrace.WithSampler(sdktrace.ParentBased(sampler(sampleRate))),
		sdktrace.WithResource(res),
	}

	if endpoint != "" {
		// OTLP gRPC不会在New时建立连接，Collector不可用也不会阻塞启动
		exporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("创建OTLP exporter失败: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// StartSpan 创建一个新的Span（便捷函数）
//
// 必须使用返回的ctx调用下游函数，否则无法构建调用树
func StartSpan(ctx context.Context, tracerName, spanName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName)
}

// RecordError 记录错误并把Span标记为失败，err为nil时什么也不做
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// ExtractTraceID 从Context提取TraceID（用于关联日志）
func ExtractTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// ExtractSpanID 从Context提取SpanID
func ExtractSpanID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}

// LogFields 返回trace_id/span_id日志字段，ctx中没有有效Span时返回nil
//
//	logger.Info("入库成功", append(tracing.LogFields(ctx), zap.Uint("document_id", id))...)
func LogFields(ctx context.Context) []zap.Field {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
