package drug

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo 内存仓储,只实现测试用到的行为
type memRepo struct {
	drugs  map[uint]*Drug
	nextID uint
}

func newMemRepo() *memRepo {
	return &memRepo{drugs: make(map[uint]*Drug), nextID: 1}
}

func (r *memRepo) Create(_ context.Context, d *Drug) error {
	d.ID = r.nextID
	r.nextID++
	r.drugs[d.ID] = d
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id uint) (*Drug, error) {
	if d, ok := r.drugs[id]; ok {
		return d, nil
	}
	return nil, ErrDrugNotFound
}

func (r *memRepo) FindByCode(_ context.Context, code string) (*Drug, error) {
	for _, d := range r.drugs {
		if d.Code == code {
			return d, nil
		}
	}
	return nil, ErrDrugNotFound
}

func (r *memRepo) FindExistingIDs(_ context.Context, ids []uint) ([]uint, error) {
	var out []uint
	for _, id := range ids {
		if _, ok := r.drugs[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *memRepo) Update(_ context.Context, d *Drug) error {
	r.drugs[d.ID] = d
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.drugs[id]; !ok {
		return ErrDrugNotFound
	}
	delete(r.drugs, id)
	return nil
}

func (r *memRepo) List(_ context.Context, _ ListParams) ([]*Drug, int64, error) {
	out := make([]*Drug, 0, len(r.drugs))
	for _, d := range r.drugs {
		out = append(out, d)
	}
	return out, int64(len(out)), nil
}

func TestService_RegisterDrug(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo())

	d, err := svc.RegisterDrug(ctx, "amx-0250", "阿莫西林胶囊", "0.25g*24粒", "盒", "石药集团", 1)
	require.NoError(t, err)
	assert.Equal(t, "AMX-0250", d.Code, "编码统一转大写")
	assert.NotZero(t, d.ID)

	_, err = svc.RegisterDrug(ctx, "AMX-0250", "重复", "", "", "", 1)
	assert.ErrorIs(t, err, ErrCodeDuplicate)

	_, err = svc.RegisterDrug(ctx, "坏编码", "x", "", "", "", 1)
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = svc.RegisterDrug(ctx, "OK-1", "  ", "", "", "", 1)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestService_FindMissing(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo())

	a, err := svc.RegisterDrug(ctx, "A-1", "甲", "", "", "", 1)
	require.NoError(t, err)
	b, err := svc.RegisterDrug(ctx, "B-1", "乙", "", "", "", 1)
	require.NoError(t, err)

	missing, err := svc.FindMissing(ctx, []uint{a.ID, 999, b.ID, 1000})
	require.NoError(t, err)
	assert.Equal(t, []uint{999, 1000}, missing)

	missing, err = svc.FindMissing(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, missing)

	require.NoError(t, svc.DeleteDrug(ctx, b.ID))
	missing, err = svc.FindMissing(ctx, []uint{b.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, missing, "停用的药品不能再入库")
}
