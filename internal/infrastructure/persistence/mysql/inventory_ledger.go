package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/pharmacy/internal/domain/inventory"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// inventoryLedger 库存台账仓储实现
// 教学要点:
// 1. 防丢失更新的两道保险:
//   - SELECT ... FOR UPDATE 行锁(同一库位的事务串行)
//   - UPDATE ... SET quantity = quantity + ? WHERE quantity + ? >= 0(原子条件更新)
//
// 2. 每次Apply同时写一条库存流水,两者在同一事务
// 3. SQLite没有行级锁,GORM的sqlite方言会忽略FOR UPDATE,靠单连接串行
type inventoryLedger struct {
	db  *gorm.DB
	now func() time.Time
}

// NewInventoryLedger 创建库存台账仓储
func NewInventoryLedger(db *gorm.DB) inventory.Ledger {
	return &inventoryLedger{db: db, now: time.Now}
}

// GetOrCreate 查询台账记录,不存在则插入结存为0的记录
// 教学要点:
// 1. INSERT ... ON CONFLICT DO NOTHING:并发首次入库时只有一个INSERT生效,另一个不报错
// 2. 随后SELECT FOR UPDATE读出(已存在或刚插入的)记录并加锁
func (r *inventoryLedger) GetOrCreate(ctx context.Context, key inventory.Key) (*inventory.Record, error) {
	if err := inventory.ValidateKey(key); err != nil {
		return nil, err
	}

	model, err := r.getOrCreate(ctx, key)
	if err != nil {
		return nil, err
	}
	return toRecordEntity(model), nil
}

func (r *inventoryLedger) getOrCreate(ctx context.Context, key inventory.Key) (*InventoryRecordModel, error) {
	db := getDB(ctx, r.db)
	now := r.now()

	seed := &InventoryRecordModel{
		DrugID:        key.DrugID,
		Location:      key.Location,
		Quantity:      0,
		LastUpdatedAt: now,
		CreatedAt:     now,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "drug_id"}, {Name: "location"}},
		DoNothing: true,
	}).Create(seed).Error
	if err != nil {
		return nil, apperrors.WrapDB(err, "创建库存台账失败")
	}

	model, err := r.lockOne(ctx, key)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// lockOne SELECT ... FOR UPDATE 锁定一行台账
func (r *inventoryLedger) lockOne(ctx context.Context, key inventory.Key) (*InventoryRecordModel, error) {
	var model InventoryRecordModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("drug_id = ? AND location = ?", key.DrugID, key.Location).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrRecordNotFound
		}
		return nil, apperrors.WrapDB(err, "锁定库存台账失败")
	}
	return &model, nil
}

// Apply 变动结存(台账唯一的写入口)
// 教学要点:
// 1. 入库(delta>0)惰性创建台账;扣减(delta<0)时记录不存在视为结存0
// 2. 先用领域规则Record.CanApply判断,再用条件UPDATE兜底
// 3. 条件UPDATE影响0行说明结存不足,返回带缺口明细的错误
// 4. 没有外层事务时自己开启事务,保证台账与流水一起提交
func (r *inventoryLedger) Apply(ctx context.Context, key inventory.Key, delta int, ref inventory.Reference) (*inventory.Record, error) {
	if err := inventory.ValidateKey(key); err != nil {
		return nil, err
	}
	if err := inventory.ValidateDelta(delta); err != nil {
		return nil, err
	}

	var result *inventory.Record
	err := withTx(ctx, r.db, func(ctx context.Context) error {
		model, err := r.loadForApply(ctx, key, delta)
		if err != nil {
			return err
		}

		rec := toRecordEntity(model)
		before := rec.Quantity
		now := r.now()

		// 1. 领域规则:变动后结存不能为负
		if err := rec.Apply(delta, now); err != nil {
			return err
		}

		// 2. 原子条件更新
		db := getDB(ctx, r.db)
		res := db.Model(&InventoryRecordModel{}).
			Where("id = ?", model.ID).
			Where("quantity + ? >= 0", delta).
			Updates(map[string]interface{}{
				"quantity":        gorm.Expr("quantity + ?", delta),
				"last_updated_at": now,
			})
		if res.Error != nil {
			return apperrors.WrapDB(res.Error, "更新库存台账失败")
		}
		if res.RowsAffected == 0 {
			return inventory.NewInsufficientStockError(toRecordEntity(model).Shortage(-delta))
		}

		// 3. 写库存流水
		movement := inventory.NewMovement(key, delta, before, rec.Quantity, ref, now)
		if err := db.Create(toMovementModel(movement)).Error; err != nil {
			return apperrors.WrapDB(err, "写入库存流水失败")
		}

		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadForApply 入库时get-or-create,扣减时只锁定已有记录
func (r *inventoryLedger) loadForApply(ctx context.Context, key inventory.Key, delta int) (*InventoryRecordModel, error) {
	if delta > 0 {
		return r.getOrCreate(ctx, key)
	}

	model, err := r.lockOne(ctx, key)
	if errors.Is(err, inventory.ErrRecordNotFound) {
		empty := inventory.NewRecord(key, r.now())
		return nil, inventory.NewInsufficientStockError(empty.Shortage(-delta))
	}
	return model, err
}

// LockAll 按主键顺序逐个加锁
// 教学要点:所有事务按同一顺序加锁,不会形成环形等待(死锁)
func (r *inventoryLedger) LockAll(ctx context.Context, keys []inventory.Key) (map[inventory.Key]*inventory.Record, error) {
	sorted := make([]inventory.Key, len(keys))
	copy(sorted, keys)
	inventory.SortKeys(sorted)

	result := make(map[inventory.Key]*inventory.Record, len(sorted))
	for _, key := range sorted {
		if _, done := result[key]; done {
			continue
		}
		model, err := r.lockOne(ctx, key)
		if errors.Is(err, inventory.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result[key] = toRecordEntity(model)
	}
	return result, nil
}

// Get 查询台账记录(只读,不加锁)
func (r *inventoryLedger) Get(ctx context.Context, key inventory.Key) (*inventory.Record, error) {
	var model InventoryRecordModel
	err := getDB(ctx, r.db).
		Where("drug_id = ? AND location = ?", key.DrugID, key.Location).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrRecordNotFound
		}
		return nil, apperrors.WrapDB(err, "查询库存台账失败")
	}
	return toRecordEntity(&model), nil
}

// List 分页查询台账
func (r *inventoryLedger) List(ctx context.Context, params inventory.ListParams) ([]*inventory.Record, int64, error) {
	var models []InventoryRecordModel
	var total int64

	query := getDB(ctx, r.db).Model(&InventoryRecordModel{})
	if params.DrugID != 0 {
		query = query.Where("drug_id = ?", params.DrugID)
	}
	if params.Location != "" {
		query = query.Where("location = ?", params.Location)
	}
	if params.HideZero {
		query = query.Where("quantity > 0")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapDB(err, "查询库存台账总数失败")
	}

	query = query.Order("drug_id ASC").Order("location ASC")
	if !params.WithoutLimit {
		page, pageSize := normalizePage(params.Page, params.PageSize)
		query = query.Limit(pageSize).Offset(offsetOf(page, pageSize))
	}

	if err := query.Find(&models).Error; err != nil {
		return nil, 0, apperrors.WrapDB(err, "查询库存台账失败")
	}

	records := make([]*inventory.Record, len(models))
	for i := range models {
		records[i] = toRecordEntity(&models[i])
	}
	return records, total, nil
}

// ListMovements 分页查询库存流水(最新在前)
func (r *inventoryLedger) ListMovements(ctx context.Context, key inventory.Key, page, pageSize int) ([]*inventory.Movement, int64, error) {
	var models []InventoryMovementModel
	var total int64

	query := getDB(ctx, r.db).Model(&InventoryMovementModel{}).
		Where("drug_id = ? AND location = ?", key.DrugID, key.Location)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapDB(err, "查询库存流水总数失败")
	}

	page, pageSize = normalizePage(page, pageSize)
	err := query.Order("id DESC").Limit(pageSize).Offset(offsetOf(page, pageSize)).Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.WrapDB(err, "查询库存流水失败")
	}

	movements := make([]*inventory.Movement, len(models))
	for i := range models {
		movements[i] = toMovementEntity(&models[i])
	}
	return movements, total, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toRecordEntity(model *InventoryRecordModel) *inventory.Record {
	return &inventory.Record{
		ID:            model.ID,
		DrugID:        model.DrugID,
		Location:      model.Location,
		Quantity:      model.Quantity,
		LastUpdatedAt: model.LastUpdatedAt,
		CreatedAt:     model.CreatedAt,
	}
}

func toMovementModel(m *inventory.Movement) *InventoryMovementModel {
	return &InventoryMovementModel{
		DrugID:     m.DrugID,
		Location:   m.Location,
		ChangeType: string(m.ChangeType),
		Quantity:   m.Quantity,
		BeforeQty:  m.BeforeQty,
		AfterQty:   m.AfterQty,
		DocumentID: m.DocumentID,
		OperatorID: m.OperatorID,
		Remark:     m.Remark,
		CreatedAt:  m.CreatedAt,
	}
}

func toMovementEntity(model *InventoryMovementModel) *inventory.Movement {
	return &inventory.Movement{
		ID:         model.ID,
		DrugID:     model.DrugID,
		Location:   model.Location,
		ChangeType: inventory.ChangeType(model.ChangeType),
		Quantity:   model.Quantity,
		BeforeQty:  model.BeforeQty,
		AfterQty:   model.AfterQty,
		DocumentID: model.DocumentID,
		OperatorID: model.OperatorID,
		Remark:     model.Remark,
		CreatedAt:  model.CreatedAt,
	}
}
