package inventory

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/pharmacy/internal/domain/drug"
	"github.com/xiebiao/pharmacy/internal/domain/inventory"
	"github.com/xiebiao/pharmacy/internal/infrastructure/persistence/mysql"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// memCache 内存版库存缓存
type memCache struct {
	data   map[inventory.Key]inventory.Record
	hits   int
	getErr error
}

func newMemCache() *memCache {
	return &memCache{data: make(map[inventory.Key]inventory.Record)}
}

func (c *memCache) Get(_ context.Context, key inventory.Key) (*inventory.Record, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	r, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &r, true, nil
}

func (c *memCache) Set(_ context.Context, r *inventory.Record) error {
	c.data[r.Key()] = *r
	return nil
}

func (c *memCache) Invalidate(_ context.Context, keys ...inventory.Key) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := mysql.Open("sqlite", filepath.Join(t.TempDir(), "inventory_test.db"), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, mysql.AutoMigrate(db))
	return db
}

func seedDrug(t *testing.T, db *gorm.DB, code string) uint {
	t.Helper()
	d := drug.NewDrug(code, code, "", "盒", "", 1)
	require.NoError(t, mysql.NewDrugRepository(db).Create(context.Background(), d))
	return d.ID
}

func TestGetBalance_ReadThroughCache(t *testing.T) {
	db := newTestDB(t)
	ledger := mysql.NewInventoryLedger(db)
	cache := newMemCache()
	uc := NewGetBalanceUseCase(ledger, cache, zap.NewNop())
	ctx := context.Background()

	// 从未入库的库位返回0
	resp, err := uc.Execute(ctx, 1, "西药库")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Quantity)

	_, err = ledger.Apply(ctx, inventory.NewKey(1, "西药库"), 8, inventory.Reference{ChangeType: inventory.ChangeTypeStockIn})
	require.NoError(t, err)

	resp, err = uc.Execute(ctx, 1, " 西药库 ")
	require.NoError(t, err)
	assert.Equal(t, 8, resp.Quantity)
	assert.Equal(t, 0, cache.hits)

	resp, err = uc.Execute(ctx, 1, "西药库")
	require.NoError(t, err)
	assert.Equal(t, 8, resp.Quantity)
	assert.Equal(t, 1, cache.hits, "第二次命中缓存")

	// 缓存故障降级为查库
	cache.getErr = errors.New("redis down")
	resp, err = uc.Execute(ctx, 1, "西药库")
	require.NoError(t, err)
	assert.Equal(t, 8, resp.Quantity)

	_, err = uc.Execute(ctx, 0, "西药库")
	assert.ErrorIs(t, err, inventory.ErrInvalidKey)
}

func TestAdjust(t *testing.T) {
	db := newTestDB(t)
	ledger := mysql.NewInventoryLedger(db)
	cache := newMemCache()
	catalog := drug.NewService(mysql.NewDrugRepository(db))
	uc := NewAdjustUseCase(ledger, catalog, cache, zap.NewNop())
	ctx := context.Background()
	id := seedDrug(t, db, "AMX-0250")

	resp, err := uc.Execute(ctx, AdjustRequest{DrugID: id, Location: "A", Delta: 5, OperatorID: 2, Remark: "盘盈"})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Quantity)

	// 缓存里的旧值在调整后失效
	require.NoError(t, cache.Set(ctx, &inventory.Record{DrugID: id, Location: "A", Quantity: 5}))
	resp, err = uc.Execute(ctx, AdjustRequest{DrugID: id, Location: "A", Delta: -2, OperatorID: 2, Remark: "病区领用"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Quantity)
	assert.Empty(t, cache.data)

	_, err = uc.Execute(ctx, AdjustRequest{DrugID: id, Location: "A", Delta: -4, Remark: "报损"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInsufficientStock))
	assert.Equal(t, []inventory.Shortage{{DrugID: id, Location: "A", OnHand: 3, Required: 4, Short: 1}}, inventory.ShortagesOf(err))

	_, err = uc.Execute(ctx, AdjustRequest{DrugID: id, Location: "A", Delta: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidParams), "原因必填")

	_, err = uc.Execute(ctx, AdjustRequest{DrugID: 999, Location: "A", Delta: 1, Remark: "盘盈"})
	assert.ErrorIs(t, err, apperrors.ErrUnknownDrug)

	// 超过列宽或上限的参数在写台账前拒绝
	for name, req := range map[string]AdjustRequest{
		"库位超长": {DrugID: id, Location: strings.Repeat("库", inventory.MaxLocationLen+1), Delta: 1, Remark: "盘盈"},
		"原因超长": {DrugID: id, Location: "A", Delta: 1, Remark: strings.Repeat("盘", MaxRemarkLen+1)},
		"数量超限": {DrugID: id, Location: "A", Delta: inventory.MaxDelta + 1, Remark: "盘盈"},
	} {
		_, err = uc.Execute(ctx, req)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidParams), name)
		assert.False(t, apperrors.IsRetryable(err), name)
	}

	movements, err := NewListMovementsUseCase(ledger).Execute(ctx, id, "A", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), movements.Total)
	assert.Equal(t, "ADJUST", movements.Items[0].ChangeType)
	assert.Equal(t, "病区领用", movements.Items[0].Remark)
	assert.Equal(t, 5, movements.Items[0].BeforeQty)
}

func TestListAndExport(t *testing.T) {
	db := newTestDB(t)
	ledger := mysql.NewInventoryLedger(db)
	ctx := context.Background()

	for _, k := range []inventory.Key{inventory.NewKey(1, "A"), inventory.NewKey(1, "B"), inventory.NewKey(2, "A")} {
		_, err := ledger.Apply(ctx, k, 3, inventory.Reference{ChangeType: inventory.ChangeTypeStockIn})
		require.NoError(t, err)
	}
	_, err := ledger.Apply(ctx, inventory.NewKey(2, "A"), -3, inventory.Reference{ChangeType: inventory.ChangeTypeAdjust})
	require.NoError(t, err)

	list, err := NewListBalancesUseCase(ledger).Execute(ctx, ListRequest{HideZero: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, 1, list.Page)

	result, err := NewExportBalancesUseCase(ledger).Execute(ctx, 1, "", false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.Contains(t, result.FileName, ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(result.Content.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"药品ID", "库位", "结存", "最后变动时间"}, rows[0])
	assert.Equal(t, []string{"1", "A", "3"}, rows[1][:3])
}

func TestReconcile(t *testing.T) {
	db := newTestDB(t)
	ledger := mysql.NewInventoryLedger(db)
	reports, err := mysql.NewReportRepository(db)
	require.NoError(t, err)
	ctx := context.Background()

	// 只有ADJUST流水的库位:应有结存 = 调整合计
	_, err = ledger.Apply(ctx, inventory.NewKey(1, "A"), 4, inventory.Reference{ChangeType: inventory.ChangeTypeAdjust})
	require.NoError(t, err)
	// 没有单据的STOCK_IN流水:台账比单据多,对不上
	_, err = ledger.Apply(ctx, inventory.NewKey(2, "A"), 6, inventory.Reference{ChangeType: inventory.ChangeTypeStockIn, DocumentID: 42})
	require.NoError(t, err)

	uc := NewReconcileUseCase(reports)
	resp, err := uc.Execute(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Mismatched)

	resp, err = uc.Execute(ctx, true)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, uint(2), resp.Items[0].DrugID)
	assert.Equal(t, 0, resp.Items[0].Expected)
	assert.False(t, resp.Items[0].Balanced)
}
