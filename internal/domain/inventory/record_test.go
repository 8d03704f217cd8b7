package inventory

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

func TestRecord_Apply(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("入库增加结存并刷新时间", func(t *testing.T) {
		r := NewRecord(NewKey(1, "A-01"), now.Add(-time.Hour))
		require.NoError(t, r.Apply(10, now))
		assert.Equal(t, 10, r.Quantity)
		assert.Equal(t, now, r.LastUpdatedAt)
	})

	t.Run("扣减到0是允许的", func(t *testing.T) {
		r := &Record{DrugID: 1, Location: "A-01", Quantity: 5}
		require.NoError(t, r.Apply(-5, now))
		assert.True(t, r.IsEmpty())
	})

	t.Run("扣减为负返回缺口", func(t *testing.T) {
		r := &Record{DrugID: 7, Location: "B-02", Quantity: 3}
		err := r.Apply(-10, now)
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInsufficientStock))
		assert.Equal(t, 3, r.Quantity, "失败时结存不能变化")

		shortages := ShortagesOf(err)
		require.Len(t, shortages, 1)
		assert.Equal(t, Shortage{DrugID: 7, Location: "B-02", OnHand: 3, Required: 10, Short: 7}, shortages[0])
	})

	t.Run("变动为0被拒绝", func(t *testing.T) {
		r := &Record{DrugID: 1, Location: "A-01", Quantity: 5}
		assert.ErrorIs(t, r.Apply(0, now), ErrZeroDelta)
	})

	t.Run("入库导致结存溢出", func(t *testing.T) {
		r := &Record{DrugID: 1, Location: "A-01", Quantity: 1}
		err := r.Apply(math.MaxInt, now)
		require.Error(t, err)
		assert.Equal(t, ErrBalanceOverflow.Message, apperrors.GetAppError(err).Message)
		assert.False(t, apperrors.HasCode(err, apperrors.ErrCodeInsufficientStock))
		assert.Empty(t, ShortagesOf(err))
		assert.Equal(t, 1, r.Quantity)

		r.Quantity = math.MaxInt - 1
		require.NoError(t, r.Apply(1, now), "恰好到上限是允许的")
		assert.Equal(t, math.MaxInt, r.Quantity)
	})
}

func TestValidateDelta(t *testing.T) {
	assert.NoError(t, ValidateDelta(MaxDelta))
	assert.NoError(t, ValidateDelta(-MaxDelta))
	assert.ErrorIs(t, ValidateDelta(0), ErrZeroDelta)
	assert.Equal(t, ErrDeltaTooLarge.Message, apperrors.GetAppError(ValidateDelta(MaxDelta+1)).Message)
	assert.Equal(t, ErrDeltaTooLarge.Message, apperrors.GetAppError(ValidateDelta(-MaxDelta-1)).Message)
}

func TestSortKeys(t *testing.T) {
	keys := []Key{
		{DrugID: 2, Location: "A"},
		{DrugID: 1, Location: "B"},
		{DrugID: 1, Location: "A"},
	}
	SortKeys(keys)
	assert.Equal(t, []Key{
		{DrugID: 1, Location: "A"},
		{DrugID: 1, Location: "B"},
		{DrugID: 2, Location: "A"},
	}, keys)
}

func TestNewKey(t *testing.T) {
	k := NewKey(3, "  冷库-01 ")
	assert.Equal(t, "冷库-01", k.Location)
	assert.Equal(t, "3@冷库-01", k.String())
	assert.NoError(t, ValidateKey(k))
	assert.ErrorIs(t, ValidateKey(NewKey(0, "A")), ErrInvalidKey)
	assert.ErrorIs(t, ValidateKey(NewKey(1, "  ")), ErrInvalidKey)

	assert.NoError(t, ValidateKey(NewKey(1, strings.Repeat("库", MaxLocationLen))))
	err := ValidateKey(NewKey(1, strings.Repeat("库", MaxLocationLen+1)))
	require.Error(t, err)
	assert.Equal(t, ErrLocationTooLong.Message, apperrors.GetAppError(err).Message)
}

func TestReconcileRow(t *testing.T) {
	row := ReconcileRow{Quantity: 8, PostedIn: 10, Adjustments: -2}
	assert.Equal(t, 8, row.Expected())
	assert.True(t, row.Balanced())

	row.Quantity = 9
	assert.False(t, row.Balanced())
}
