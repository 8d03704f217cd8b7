package mysql

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/pharmacy/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架，按配置选择MySQL、PostgreSQL或SQLite方言
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境通过zap打印SQL，生产环境只打印慢查询和错误
// 4. auto_migrate打开时自动迁移表结构，生产环境使用cmd/migrate
func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	db, err := Open(cfg.Database.Driver, cfg.Database.DSN(), newGormLogger(log, logLevel))
	if err != nil {
		return nil, err
	}

	// 配置连接池
	// 学习要点：合理的连接池配置对性能至关重要
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	if cfg.Database.Driver == "sqlite" {
		// SQLite只允许一个写连接，多连接并发写会返回database is locked
		sqlDB.SetMaxOpenConns(1)
	} else {
		// 最大打开连接数（建议：CPU核数 * 2 + 磁盘数量）
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		// 最大空闲连接数（建议：MaxOpenConns的1/4到1/2）
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	// 连接最大存活时间（防止数据库主动断开连接）
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Info("数据库连接成功", zap.String("driver", cfg.Database.Driver))

	if cfg.Database.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
		log.Info("数据库表结构已自动迁移")
	}

	return db, nil
}

// Open 按驱动名打开GORM连接
// 教学要点：TranslateError把各数据库的唯一索引冲突统一翻译为gorm.ErrDuplicatedKey
func Open(driver, dsn string, gormLogger logger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			// 使用本地时间（配合MySQL的TZ=Asia/Shanghai）
			return time.Now()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	return db, nil
}

// newGormLogger GORM日志输出到zap
func newGormLogger(log *zap.Logger, level logger.LogLevel) logger.Interface {
	return logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// AutoMigrate 自动迁移表结构
// 学习要点：
// 1. AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
// 2. 生产环境使用migrations目录下的版本化脚本（cmd/migrate）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&OperatorModel{},
		&DrugModel{},
		&InventoryRecordModel{},
		&InventoryMovementModel{},
		&StockInDocumentModel{},
		&StockInLineModel{},
	)
}

// OperatorModel GORM操作员模型
// 设计说明：
// 1. 这是infrastructure层的数据模型，包含GORM tag
// 2. domain/operator/entity.go是领域实体，不依赖GORM
// 3. Repository负责两者之间的转换
type OperatorModel struct {
	ID         uint           `gorm:"primaryKey"`
	Username   string         `gorm:"uniqueIndex;size:32;not null;comment:工号"`
	Password   string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Name       string         `gorm:"size:50;not null;comment:姓名"`
	Department string         `gorm:"size:50;comment:科室"`
	CreatedAt  time.Time      `gorm:"comment:创建时间"`
	UpdatedAt  time.Time      `gorm:"comment:更新时间"`
	DeletedAt  gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

// TableName 指定表名
func (OperatorModel) TableName() string {
	return "operators"
}

// DrugModel GORM药品目录模型
// 设计说明:
// 1. Code有唯一索引,防止重复建档
// 2. 软删除:停用后不能再入库,历史单据仍然引用
type DrugModel struct {
	ID            uint           `gorm:"primaryKey"`
	Code          string         `gorm:"uniqueIndex;size:32;not null;comment:药品编码"`
	Name          string         `gorm:"index:idx_drug_search;size:100;not null;comment:通用名"`
	Specification string         `gorm:"size:100;comment:规格"`
	Unit          string         `gorm:"size:20;comment:包装单位"`
	Manufacturer  string         `gorm:"index:idx_drug_search;size:100;comment:生产厂家"`
	CreatedBy     uint           `gorm:"index;comment:建档操作员ID"`
	CreatedAt     time.Time      `gorm:"index;comment:创建时间"`
	UpdatedAt     time.Time      `gorm:"comment:更新时间"`
	DeletedAt     gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (DrugModel) TableName() string {
	return "drugs"
}

// InventoryRecordModel GORM库存台账模型
// 教学要点:
// 1. (drug_id, location)复合唯一索引,并发首次入库时只会有一行
// 2. CHECK约束是非负的最后一道防线,正常路径由条件UPDATE保证
// 3. 没有软删除:结存为0的记录也保留
type InventoryRecordModel struct {
	ID            uint      `gorm:"primaryKey"`
	DrugID        uint      `gorm:"uniqueIndex:idx_drug_location;not null;comment:药品ID"`
	Location      string    `gorm:"uniqueIndex:idx_drug_location;size:64;not null;comment:库位"`
	Quantity      int       `gorm:"not null;default:0;check:quantity >= 0;comment:结存数量"`
	LastUpdatedAt time.Time `gorm:"comment:最后变动时间"`
	CreatedAt     time.Time `gorm:"comment:创建时间"`
}

// TableName 指定表名
func (InventoryRecordModel) TableName() string {
	return "inventory_records"
}

// InventoryMovementModel GORM库存流水模型(只增不改)
type InventoryMovementModel struct {
	ID         uint      `gorm:"primaryKey"`
	DrugID     uint      `gorm:"index:idx_movement_key;not null;comment:药品ID"`
	Location   string    `gorm:"index:idx_movement_key;size:64;not null;comment:库位"`
	ChangeType string    `gorm:"index;size:20;not null;comment:变动类型(STOCK_IN/STOCK_IN_CANCEL/ADJUST)"`
	Quantity   int       `gorm:"not null;comment:变动数量(负数为减少)"`
	BeforeQty  int       `gorm:"not null;comment:变动前结存"`
	AfterQty   int       `gorm:"not null;comment:变动后结存"`
	DocumentID uint      `gorm:"index;comment:关联入库单ID"`
	OperatorID uint      `gorm:"comment:操作员ID"`
	Remark     string    `gorm:"size:255;comment:备注"`
	CreatedAt  time.Time `gorm:"index;comment:创建时间"`
}

// TableName 指定表名
func (InventoryMovementModel) TableName() string {
	return "inventory_movements"
}

// StockInDocumentModel GORM入库单模型
// 教学要点:
// 1. 与StockInLineModel是一对多关系
// 2. InvoiceNo唯一索引是发票号不重复的最终保证(含已冲销单据)
// 3. 金额使用decimal(14,4),shopspring/decimal实现了Scanner/Valuer
type StockInDocumentModel struct {
	ID            uint               `gorm:"primaryKey"`
	InvoiceNo     string             `gorm:"uniqueIndex;size:64;not null;comment:发票号"`
	SupplierName  string             `gorm:"index;size:128;not null;comment:供应商"`
	OperatorID    uint               `gorm:"index;not null;comment:入库操作员ID"`
	OperationTime time.Time          `gorm:"index;not null;comment:业务发生时间"`
	TotalAmount   decimal.Decimal    `gorm:"type:decimal(14,4);not null;comment:合计金额"`
	Status        int                `gorm:"index;not null;default:1;comment:状态(1已入库2已冲销)"`
	Remark        string             `gorm:"size:500;comment:备注"`
	CancelledAt   *time.Time         `gorm:"comment:冲销时间"`
	CancelledBy   uint               `gorm:"comment:冲销操作员ID"`
	CancelReason  string             `gorm:"size:255;comment:冲销原因"`
	Lines         []StockInLineModel `gorm:"foreignKey:DocumentID"` // 一对多关联
	CreatedAt     time.Time          `gorm:"index;comment:创建时间"`
	UpdatedAt     time.Time          `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (StockInDocumentModel) TableName() string {
	return "stock_in_documents"
}

// StockInLineModel GORM入库明细模型
type StockInLineModel struct {
	ID             uint            `gorm:"primaryKey"`
	DocumentID     uint            `gorm:"index;not null;comment:入库单ID"`
	DrugID         uint            `gorm:"index;not null;comment:药品ID"`
	BatchNo        string          `gorm:"size:64;not null;comment:批号"`
	ProductionDate *time.Time      `gorm:"comment:生产日期"`
	ExpiryDate     *time.Time      `gorm:"index;comment:有效期至"`
	Quantity       int             `gorm:"not null;comment:数量"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(14,4);not null;comment:单价"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(14,4);not null;comment:小计"`
	Location       string          `gorm:"size:64;not null;comment:库位"`
}

// TableName 指定表名
func (StockInLineModel) TableName() string {
	return "stock_in_lines"
}
