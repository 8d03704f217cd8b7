package mysql

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的SQLite文件库
// 单连接:与NewDB对sqlite的配置一致,事务之间天然串行
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open("sqlite", filepath.Join(t.TempDir(), "pharmacy_test.db"), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}
