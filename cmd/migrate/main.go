package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/xiebiao/pharmacy/internal/infrastructure/config"
	"github.com/xiebiao/pharmacy/internal/infrastructure/logger"
	"github.com/xiebiao/pharmacy/migrations"

	_ "github.com/go-sql-driver/mysql"
)

// main 数据库迁移工具
//
// 用法：
//
//	go run ./cmd/migrate            # 执行全部未执行的迁移（up）
//	go run ./cmd/migrate -cmd status
//	go run ./cmd/migrate -cmd down  # 回滚最近一个版本
//
// 迁移脚本是MySQL方言；postgres/sqlite开发环境使用 database.auto_migrate
func main() {
	command := flag.String("cmd", "up", "goose命令: up | down | status | version | redo")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.Database.Driver != "mysql" {
		zlog.Fatal("迁移脚本只支持MySQL，其他驱动请开启 database.auto_migrate",
			zap.String("driver", cfg.Database.Driver))
	}

	if err := run(*command, cfg.Database.DSN()); err != nil {
		zlog.Fatal("迁移失败", zap.String("cmd", *command), zap.Error(err))
	}
	zlog.Info("迁移完成", zap.String("cmd", *command))
}

func run(command, dsn string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("mysql"); err != nil {
		return err
	}

	db, err := goose.OpenDBWithDriver("mysql", dsn)
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}
	defer db.Close()

	switch command {
	case "up":
		return goose.Up(db, ".")
	case "down":
		return goose.Down(db, ".")
	case "redo":
		return goose.Redo(db, ".")
	case "status":
		return goose.Status(db, ".")
	case "version":
		return goose.Version(db, ".")
	default:
		fmt.Fprintf(os.Stderr, "未知命令: %s\n", command)
		flag.Usage()
		os.Exit(2)
	}
	return nil
}
