package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xiebiao/pharmacy/internal/infrastructure/config"
)

// New 根据LogConfig创建zap日志器
// 设计说明：
// 1. console格式便于开发阅读，json格式便于日志采集（ELK、Loki）
// 2. 创建后替换zap全局日志器，pkg/response等没有注入点的地方使用zap.L()
// 3. 返回的日志器通过wire注入到用例、中间件
func New(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Log.Level, err)
	}

	var zc zap.Config
	if cfg.Server.Mode == "release" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableCaller = !cfg.Log.EnableCaller
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch cfg.Log.Format {
	case "json":
		zc.Encoding = "json"
	default:
		zc.Encoding = "console"
	}

	output := cfg.Log.Output
	if output == "" {
		output = "stdout"
	}
	zc.OutputPaths = []string{output}
	zc.ErrorOutputPaths = []string{"stderr"}

	log, err := zc.Build(zap.Fields(zap.String("service", "pharmacy")))
	if err != nil {
		return nil, fmt.Errorf("创建日志器失败: %w", err)
	}

	zap.ReplaceGlobals(log)
	return log, nil
}
