package mysql

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/pharmacy/internal/domain/inventory"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

func TestInventoryLedger_ApplyCreatesRecordAndMovement(t *testing.T) {
	db := newTestDB(t)
	ledger := NewInventoryLedger(db)
	ctx := context.Background()
	key := inventory.NewKey(1, " 西药库-A01 ")

	rec, err := ledger.Apply(ctx, key, 10, inventory.Reference{ChangeType: inventory.ChangeTypeStockIn, DocumentID: 7, OperatorID: 3})
	require.NoError(t, err)
	assert.Equal(t, 10, rec.Quantity)
	assert.Equal(t, "西药库-A01", rec.Location)

	rec, err = ledger.Apply(ctx, key, 5, inventory.Reference{ChangeType: inventory.ChangeTypeStockIn, DocumentID: 8})
	require.NoError(t, err)
	assert.Equal(t, 15, rec.Quantity)

	got, err := ledger.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Quantity)

	movements, total, err := ledger.ListMovements(ctx, key, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	// 最新在前
	assert.Equal(t, uint(8), movements[0].DocumentID)
	assert.Equal(t, 10, movements[0].BeforeQty)
	assert.Equal(t, 15, movements[0].AfterQty)
	assert.Equal(t, inventory.ChangeTypeStockIn, movements[1].ChangeType)
	assert.Equal(t, uint(3), movements[1].OperatorID)
}

func TestInventoryLedger_ApplyRejectsNegative(t *testing.T) {
	db := newTestDB(t)
	ledger := NewInventoryLedger(db)
	ctx := context.Background()
	key := inventory.NewKey(2, "中药库")

	_, err := ledger.Apply(ctx, key, 4, inventory.Reference{ChangeType: inventory.ChangeTypeStockIn})
	require.NoError(t, err)

	_, err = ledger.Apply(ctx, key, -6, inventory.Reference{ChangeType: inventory.ChangeTypeAdjust})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInsufficientStock))

	shortages := inventory.ShortagesOf(err)
	require.Len(t, shortages, 1)
	assert.Equal(t, inventory.Shortage{DrugID: 2, Location: "中药库", OnHand: 4, Required: 6, Short: 2}, shortages[0])

	// 结存不变,也没有多写流水
	got, err := ledger.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)

	_, total, err := ledger.ListMovements(ctx, key, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestInventoryLedger_ApplyNegativeOnMissingRecord(t *testing.T) {
	db := newTestDB(t)
	ledger := NewInventoryLedger(db)
	ctx := context.Background()
	key := inventory.NewKey(3, "冷藏库")

	_, err := ledger.Apply(ctx, key, -1, inventory.Reference{ChangeType: inventory.ChangeTypeAdjust})
	require.Error(t, err)
	assert.Equal(t, []inventory.Shortage{{DrugID: 3, Location: "冷藏库", OnHand: 0, Required: 1, Short: 1}}, inventory.ShortagesOf(err))

	// 扣减失败不能留下空记录
	_, err = ledger.Get(ctx, key)
	assert.True(t, errors.Is(err, inventory.ErrRecordNotFound))
}

func TestInventoryLedger_ApplyValidation(t *testing.T) {
	db := newTestDB(t)
	ledger := NewInventoryLedger(db)
	ctx := context.Background()

	_, err := ledger.Apply(ctx, inventory.NewKey(1, "A"), 0, inventory.Reference{})
	assert.ErrorIs(t, err, inventory.ErrZeroDelta)

	_, err = ledger.Apply(ctx, inventory.NewKey(0, "A"), 1, inventory.Reference{})
	assert.ErrorIs(t, err, inventory.ErrInvalidKey)

	_, err = ledger.GetOrCreate(ctx, inventory.NewKey(1, "  "))
	assert.ErrorIs(t, err, inventory.ErrInvalidKey)
}

func TestInventoryLedger_RollbackWithOuterTransaction(t *testing.T) {
	db := newTestDB(t)
	ledger := NewInventoryLedger(db)
	tx := NewTxManager(db)
	ctx := context.Background()
	key := inventory.NewKey(4, "A")

	boom := errors.New("boom")
	err := tx.Transaction(ctx, func(ctx context.Context) error {
		if _, err := ledger.Apply(ctx, key, 9, inventory.Reference{ChangeType: inventory.ChangeTypeStockIn}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = ledger.Get(ctx, key)
	assert.ErrorIs(t, err, inventory.ErrRecordNotFound, "外层事务回滚后台账也回滚")
}

func TestInventoryLedger_GetOrCreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ledger := NewInventoryLedger(db)
	ctx := context.Background()
	key := inventory.NewKey(5, "A")

	first, err := ledger.GetOrCreate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Quantity)

	second, err := ledger.GetOrCreate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestInventoryLedger_LockAllAndList(t *testing.T) {
	db := newTestDB(t)
	ledger := NewInventoryLedger(db)
	ctx := context.Background()

	a := inventory.NewKey(1, "B")
	b := inventory.NewKey(1, "A")
	c := inventory.NewKey(2, "A")
	for _, k := range []inventory.Key{a, b} {
		_, err := ledger.Apply(ctx, k, 3, inventory.Reference{ChangeType: inventory.ChangeTypeStockIn})
		require.NoError(t, err)
	}
	_, err := ledger.GetOrCreate(ctx, c)
	require.NoError(t, err)

	locked, err := ledger.LockAll(ctx, []inventory.Key{c, a, inventory.NewKey(9, "Z"), b})
	require.NoError(t, err)
	assert.Len(t, locked, 3, "不存在的记录不出现在结果中")
	assert.Equal(t, 3, locked[a].Quantity)

	records, total, err := ledger.List(ctx, inventory.ListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, b, records[0].Key(), "按药品ID、库位排序")
	assert.Equal(t, a, records[1].Key())

	_, total, err = ledger.List(ctx, inventory.ListParams{Page: 1, PageSize: 10, HideZero: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	records, _, err = ledger.List(ctx, inventory.ListParams{DrugID: 2, WithoutLimit: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, c, records[0].Key())
}

func TestInventoryLedger_ApplyLimits(t *testing.T) {
	db := newTestDB(t)
	ledger := NewInventoryLedger(db)
	ctx := context.Background()
	ref := inventory.Reference{ChangeType: inventory.ChangeTypeAdjust}

	t.Run("库位超过列宽", func(t *testing.T) {
		_, err := ledger.Apply(ctx, inventory.NewKey(1, strings.Repeat("库", inventory.MaxLocationLen+1)), 1, ref)
		require.Error(t, err)
		assert.Equal(t, inventory.ErrLocationTooLong.Message, apperrors.GetAppError(err).Message)
		assert.False(t, apperrors.IsRetryable(err))
	})

	t.Run("单次变动超过上限", func(t *testing.T) {
		_, err := ledger.Apply(ctx, inventory.NewKey(1, "A"), inventory.MaxDelta+1, ref)
		require.Error(t, err)
		assert.Equal(t, inventory.ErrDeltaTooLarge.Message, apperrors.GetAppError(err).Message)

		_, err = ledger.Apply(ctx, inventory.NewKey(1, "A"), -inventory.MaxDelta-1, ref)
		assert.Equal(t, inventory.ErrDeltaTooLarge.Message, apperrors.GetAppError(err).Message)
	})

	t.Run("结存溢出是参数错误不是库存不足", func(t *testing.T) {
		key := inventory.NewKey(2, "A")
		_, err := ledger.Apply(ctx, key, 1, ref)
		require.NoError(t, err)
		require.NoError(t, db.Model(&InventoryRecordModel{}).
			Where("drug_id = ? AND location = ?", key.DrugID, key.Location).
			Update("quantity", math.MaxInt-5).Error)

		_, err = ledger.Apply(ctx, key, 10, ref)
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidParams))
		assert.Equal(t, inventory.ErrBalanceOverflow.Message, apperrors.GetAppError(err).Message)
		assert.Empty(t, inventory.ShortagesOf(err))

		got, err := ledger.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, math.MaxInt-5, got.Quantity)
	})
}

// 多连接并发Apply同一库位
// SQLite用BEGIN IMMEDIATE串行化写事务,这里验证的是多连接下没有丢失更新
func TestInventoryLedger_ConcurrentApplyMultipleConns(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "pharmacy_conc.db") + "?_busy_timeout=10000&_txlock=immediate"
	db, err := Open("sqlite", dsn, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, AutoMigrate(db))

	ledger := NewInventoryLedger(db)
	ctx := context.Background()
	key := inventory.NewKey(5, "A")

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.Apply(ctx, key, 3, inventory.Reference{ChangeType: inventory.ChangeTypeStockIn, DocumentID: uint(i + 1)})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil && strings.Contains(err.Error(), "locked") {
			t.Skipf("SQLite写锁冲突,跳过: %v", err)
		}
		require.NoError(t, err)
	}

	got, err := ledger.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, workers*3, got.Quantity)

	_, total, err := ledger.ListMovements(ctx, key, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), total)
}
