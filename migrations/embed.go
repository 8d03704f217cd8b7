// Package migrations 版本化表结构脚本（goose格式，MySQL方言）
//
// 脚本通过embed编译进二进制，cmd/migrate不依赖工作目录
package migrations

import "embed"

// FS 全部迁移脚本
//
//go:embed *.sql
var FS embed.FS
