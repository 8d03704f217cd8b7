package stockin

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/pharmacy/internal/domain/inventory"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

var testNow = time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC)

func line(drugID uint, location string, qty int, price string) Line {
	return Line{
		DrugID:     drugID,
		BatchNo:    "B2025",
		ExpiryDate: testNow.AddDate(2, 0, 0),
		Quantity:   qty,
		UnitPrice:  decimal.RequireFromString(price),
		Location:   location,
	}
}

func TestNewDocument(t *testing.T) {
	t.Run("服务端重新计算小计与合计", func(t *testing.T) {
		doc := NewDocument("INV-001", "国药控股", 9, time.Time{}, "", []Line{
			line(1, "A-01", 10, "2.50"),
			line(2, "A-02", 3, "10.10"),
		}, testNow)

		assert.Equal(t, StatusPosted, doc.Status)
		assert.Equal(t, testNow, doc.OperationTime, "未填业务时间时取当前时间")
		assert.Equal(t, "25", doc.Lines[0].Subtotal.String())
		assert.Equal(t, "30.3", doc.Lines[1].Subtotal.String())
		assert.True(t, doc.TotalAmount.Equal(decimal.RequireFromString("55.30")))
	})

	t.Run("库位去除首尾空白", func(t *testing.T) {
		doc := NewDocument("INV-002", "S", 1, testNow, "", []Line{line(1, " A-01 ", 1, "1")}, testNow)
		assert.Equal(t, "A-01", doc.Lines[0].Location)
	})
}

func TestDocument_Cancel(t *testing.T) {
	doc := NewDocument("INV-003", "S", 1, testNow, "", []Line{line(1, "A", 1, "1")}, testNow)

	require.NoError(t, doc.Cancel(2, "供应商退货", testNow.Add(time.Hour)))
	assert.True(t, doc.IsCancelled())
	assert.Equal(t, uint(2), doc.CancelledBy)
	require.NotNil(t, doc.CancelledAt)
	assert.Equal(t, "供应商退货", doc.CancelReason)

	err := doc.Cancel(2, "再来一次", testNow.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyCancelled, "重复冲销必须报错")
	assert.Equal(t, "供应商退货", doc.CancelReason)
}

func TestDocument_QuantitiesByKey(t *testing.T) {
	doc := NewDocument("INV-004", "S", 1, testNow, "", []Line{
		line(2, "B", 5, "1"),
		line(1, "A", 3, "1"),
		line(2, "B", 7, "1"),
	}, testNow)

	qty := doc.QuantitiesByKey()
	assert.Equal(t, 12, qty[inventory.Key{DrugID: 2, Location: "B"}])
	assert.Equal(t, 3, qty[inventory.Key{DrugID: 1, Location: "A"}])

	assert.Equal(t, []inventory.Key{{DrugID: 1, Location: "A"}, {DrugID: 2, Location: "B"}}, doc.SortedKeys())
	assert.Equal(t, []int{1, 0, 2}, doc.LineOrder())
	assert.Equal(t, []uint{2, 1}, doc.DrugIDs())
}

func TestValidate(t *testing.T) {
	t.Run("发票号为空", func(t *testing.T) {
		err := Validate(Header{InvoiceNo: "  "}, []Line{line(1, "A", 1, "1")})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidParams))
	})

	t.Run("明细为空", func(t *testing.T) {
		err := Validate(Header{InvoiceNo: "INV"}, nil)
		assert.ErrorIs(t, err, ErrEmptyLines)
	})

	t.Run("逐行报告所有出错字段", func(t *testing.T) {
		bad := line(0, "", 0, "-1")
		bad.BatchNo = ""
		bad.ProductionDate = testNow
		bad.ExpiryDate = testNow.AddDate(0, 0, -1)

		err := Validate(Header{InvoiceNo: "INV"}, []Line{line(1, "A", 1, "1"), bad})
		require.Error(t, err)

		appErr := apperrors.GetAppError(err)
		details, ok := appErr.Details.([]FieldError)
		require.True(t, ok)

		fields := make([]string, 0, len(details))
		for _, d := range details {
			assert.Equal(t, 2, d.Line)
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"drug_id", "batch_no", "quantity", "unit_price", "location", "expiry_date"}, fields)
	})

	t.Run("单价为0允许(赠品)", func(t *testing.T) {
		assert.NoError(t, Validate(Header{InvoiceNo: "INV"}, []Line{line(1, "A", 1, "0")}))
	})

	t.Run("表头字段超过列宽", func(t *testing.T) {
		err := Validate(Header{
			InvoiceNo:    strings.Repeat("9", MaxInvoiceNoLen+1),
			SupplierName: strings.Repeat("药", MaxSupplierLen+1),
			Remark:       strings.Repeat("r", MaxRemarkLen+1),
		}, []Line{line(1, "A", 1, "1")})
		assert.Equal(t, []string{"invoice_no", "supplier_name", "remark"}, fieldsOf(t, err))
		assert.False(t, apperrors.IsRetryable(err))
	})

	t.Run("按字符而不是字节计算长度", func(t *testing.T) {
		l := line(1, strings.Repeat("库", inventory.MaxLocationLen), 1, "1")
		l.BatchNo = strings.Repeat("批", MaxBatchNoLen)
		assert.NoError(t, Validate(Header{InvoiceNo: "INV", SupplierName: strings.Repeat("药", MaxSupplierLen)}, []Line{l}))
	})

	t.Run("明细字段超过列宽或精度", func(t *testing.T) {
		l := line(1, strings.Repeat("A", inventory.MaxLocationLen+1), 1, "0.00001")
		l.BatchNo = strings.Repeat("B", 200)
		assert.Equal(t, []string{"batch_no", "unit_price", "location"}, fieldsOf(t, Validate(Header{InvoiceNo: "INV"}, []Line{l})))
	})

	t.Run("尾随零不算超出精度", func(t *testing.T) {
		assert.NoError(t, Validate(Header{InvoiceNo: "INV"}, []Line{line(1, "A", 1, "2.500000")}))
	})

	t.Run("数量与金额上限", func(t *testing.T) {
		assert.Equal(t, []string{"quantity"}, fieldsOf(t, Validate(Header{InvoiceNo: "INV"}, []Line{line(1, "A", math.MaxInt, "1")})))
		assert.Equal(t, []string{"unit_price"}, fieldsOf(t, Validate(Header{InvoiceNo: "INV"}, []Line{line(1, "A", 1, "10000000000")})))
		assert.Equal(t, []string{"unit_price"}, fieldsOf(t, Validate(Header{InvoiceNo: "INV"}, []Line{line(1, "A", inventory.MaxDelta, "100")})), "小计超限")

		// 单行都合法,合计超限
		lines := []Line{line(1, "A", inventory.MaxDelta, "6"), line(2, "A", inventory.MaxDelta, "6")}
		assert.Equal(t, []string{"total_amount"}, fieldsOf(t, Validate(Header{InvoiceNo: "INV"}, lines)))
	})
}

func TestValidateCancelReason(t *testing.T) {
	assert.NoError(t, ValidateCancelReason(""))
	assert.NoError(t, ValidateCancelReason(strings.Repeat("退", MaxCancelReasonLen)))
	assert.Equal(t, []string{"reason"}, fieldsOf(t, ValidateCancelReason(strings.Repeat("退", MaxCancelReasonLen+1))))
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)
	details, ok := apperrors.GetAppError(err).Details.([]FieldError)
	require.True(t, ok, "错误应附带字段明细: %v", err)
	fields := make([]string, len(details))
	for i, d := range details {
		fields[i] = d.Field
	}
	return fields
}

func TestEvents(t *testing.T) {
	doc := NewDocument("INV-005", "S", 1, testNow, "", []Line{line(1, "A", 4, "2")}, testNow)
	doc.ID = 11

	posted := NewPostedEvent(doc, testNow)
	assert.Equal(t, RoutingKeyPosted, posted.Type)
	assert.Equal(t, "8.00", posted.TotalAmount)
	assert.Equal(t, 4, posted.Lines[0].Quantity)

	require.NoError(t, doc.Cancel(1, "错录", testNow))
	cancelled := NewCancelledEvent(doc, testNow)
	assert.Equal(t, RoutingKeyCancelled, cancelled.Type)
	assert.Equal(t, -4, cancelled.Lines[0].Quantity)
	assert.Equal(t, "错录", cancelled.CancelReason)
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("CANCELLED")
	assert.True(t, ok)
	assert.Equal(t, StatusCancelled, s)

	_, ok = ParseStatus("DRAFT")
	assert.False(t, ok)
}
