package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_DSN(t *testing.T) {
	mysqlCfg := DatabaseConfig{
		Driver: "mysql", User: "root", Password: "pw", Host: "db", Port: 3306,
		DBName: "pharmacy", Charset: "utf8mb4", ParseTime: true, Loc: "Asia/Shanghai",
	}
	assert.Equal(t,
		"root:pw@tcp(db:3306)/pharmacy?charset=utf8mb4&parseTime=true&loc=Asia%2FShanghai",
		mysqlCfg.DSN())

	pgCfg := DatabaseConfig{
		Driver: "postgres", User: "pg", Password: "pw", Host: "db", Port: 5432,
		DBName: "pharmacy", Loc: "Asia/Shanghai",
	}
	assert.Equal(t,
		"host=db port=5432 user=pg password=pw dbname=pharmacy sslmode=disable TimeZone=Asia/Shanghai",
		pgCfg.DSN())

	sqliteCfg := DatabaseConfig{Driver: "sqlite", Path: "/tmp/p.db"}
	assert.Equal(t, "/tmp/p.db", sqliteCfg.DSN())
}

func TestLoad_EnvOverride(t *testing.T) {
	// 临时目录下没有config.yaml，只使用默认值+环境变量
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("PHARMACY_SERVER_PORT", "18080")
	t.Setenv("PHARMACY_DATABASE_DRIVER", "sqlite")
	t.Setenv("PHARMACY_DATABASE_PATH", "override.db")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 18080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "override.db", cfg.Database.DSN())
	assert.Equal(t, 90, cfg.StockIn.ExpiringDays)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Port: 8080, Mode: "release"},
		Database: DatabaseConfig{Driver: "mysql"},
		JWT:      JWTConfig{Secret: "your-secret-key-change-in-production"},
	}
	assert.Error(t, validate(cfg), "生产环境默认密钥")

	cfg.JWT.Secret = "s3cret"
	assert.NoError(t, validate(cfg))

	cfg.Database.Driver = "oracle"
	assert.Error(t, validate(cfg))

	cfg.Database.Driver = "sqlite"
	cfg.GRPC = GRPCConfig{Enabled: true, Port: 8080}
	assert.Error(t, validate(cfg))
}
