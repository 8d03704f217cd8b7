// Package metrics 提供基于Prometheus的指标收集
//
// # 核心概念
//
// **1. Counter（计数器）**：只增不减的累计值
//   - 示例：HTTP请求总数、入库单总数、库存不足次数
//
// **2. Gauge（仪表盘）**：可增可减的瞬时值
//   - 示例：正在处理的请求数、熔断器状态
//
// **3. Histogram（直方图）**：观测值的分布
//   - 示例：HTTP请求耗时、入库事务耗时
//
// # 使用示例
//
//	// 1. 启动时注册指标
//	metrics.InitMetrics()
//
//	// 2. 暴露/metrics端点
//	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	// 3. 在业务代码中记录
//	start := time.Now()
//	doc, err := postStockIn(ctx)
//	metrics.ObserveStockIn("post", start, err)
//
// # 设计要点
//
// 指标变量在包初始化时创建，InitMetrics只负责注册到默认Registry。
// 单元测试不调用InitMetrics也可以安全记录指标，并用testutil读取。
//
// # 常见指标命名规范
//
// 1. **Counter**: 以`_total`结尾
// 2. **Histogram**: 以单位结尾（`_seconds`）
// 3. 避免高基数标签：不要用药品ID、单据ID作为标签
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

var (
	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数（Counter）
	// 标签：method（GET/POST）、path（路由模板）、status（200/500）
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration HTTP请求耗时（Histogram）
	// 桶设置：1ms、10ms、100ms、500ms、1s、5s、10s
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInProgress 正在处理的HTTP请求数（Gauge）
	HTTPRequestsInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	// 入库业务指标

	// StockInOperationsTotal 入库/冲销次数
	// 标签：operation（post/cancel/import）、result（success/failure）
	StockInOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockin_operations_total",
			Help: "入库单操作总数",
		},
		[]string{"operation", "result"},
	)

	// StockInDuration 入库/冲销事务耗时
	// 多行单据逐行加锁，桶比HTTP略宽
	StockInDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockin_duration_seconds",
			Help:    "入库单操作耗时（秒）",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	// StockInLinesTotal 已入库明细行数
	StockInLinesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stockin_lines_total",
			Help: "已入库的明细行总数",
		},
	)

	// LedgerAppliesTotal 台账变动次数
	// 标签：change_type（STOCK_IN/STOCK_IN_CANCEL/ADJUST）
	LedgerAppliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_ledger_applies_total",
			Help: "库存台账变动总数",
		},
		[]string{"change_type"},
	)

	// InsufficientStockTotal 因库存不足被拒绝的冲销/调整次数
	InsufficientStockTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_insufficient_stock_total",
			Help: "库存不足被拒绝的次数",
		},
	)

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	// CircuitBreakerRequests 熔断器请求总数
	// 标签：name、result（success/failure/rejected）
	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数
	// 标签：exchange、routing_key、result（success/failure）
	MessagesPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key", "result"},
	)

	// MessagesConsumedTotal 消息消费总数
	// 标签：queue、result（success/failure）
	MessagesConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_consumed_total",
			Help: "消息消费总数",
		},
		[]string{"queue", "result"},
	)

	// MessageProcessingDuration 消息处理耗时
	MessageProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "message_processing_duration_seconds",
			Help:    "消息处理耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
	)
)

// InitMetrics 注册所有指标到默认Registry
// 重复调用是安全的（只注册一次）
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			HTTPRequestsInProgress,
			StockInOperationsTotal,
			StockInDuration,
			StockInLinesTotal,
			LedgerAppliesTotal,
			InsufficientStockTotal,
			CircuitBreakerState,
			CircuitBreakerRequests,
			MessagesPublishedTotal,
			MessagesConsumedTotal,
			MessageProcessingDuration,
		)
	})
}

// ObserveStockIn 记录一次入库单操作的结果和耗时
func ObserveStockIn(operation string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	StockInOperationsTotal.WithLabelValues(operation, result).Inc()
	StockInDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// IncCounter 递增Counter（便捷函数）
func IncCounter(counter prometheus.Counter) {
	counter.Inc()
}

// IncCounterVec 递增CounterVec（带标签）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	gauge.Dec()
}

// SetGaugeVec 设置GaugeVec值（带标签）
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	gauge.With(labels).Set(value)
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	histogram.Observe(value)
}

// ObserveHistogramVec 记录HistogramVec观测值（带标签）
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	histogram.With(labels).Observe(value)
}
