package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xiebiao/pharmacy/internal/domain/stockin"
	"github.com/xiebiao/pharmacy/pkg/mq"
)

type memDeduper struct {
	seen map[string]bool
}

func (d *memDeduper) FirstSeen(_ context.Context, id string) (bool, error) {
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func (d *memDeduper) Forget(_ context.Context, id string) error {
	delete(d.seen, id)
	return nil
}

type flakySink struct {
	fail   bool
	events []stockin.Event
}

func (s *flakySink) Record(_ context.Context, e stockin.Event) error {
	if s.fail {
		return errors.New("disk full")
	}
	s.events = append(s.events, e)
	return nil
}

func message(t *testing.T, id string, e stockin.Event) mq.Message {
	t.Helper()
	body, err := json.Marshal(e)
	require.NoError(t, err)
	return mq.Message{ID: id, RoutingKey: e.Type, Body: body}
}

func TestAuditHandler(t *testing.T) {
	sink := &flakySink{}
	dedup := &memDeduper{seen: map[string]bool{}}
	handle := NewAuditHandler(sink, dedup, zap.NewNop())
	ctx := context.Background()

	e := stockin.Event{Type: stockin.RoutingKeyPosted, DocumentID: 7, InvoiceNo: "INV-7"}

	require.NoError(t, handle(ctx, message(t, "m1", e)))
	require.NoError(t, handle(ctx, message(t, "m1", e)), "重复投递")
	assert.Len(t, sink.events, 1)

	// 落地失败:返回普通错误(重新入队),去重记录被清除
	sink.fail = true
	err := handle(ctx, message(t, "m2", e))
	require.Error(t, err)
	assert.False(t, errors.Is(err, mq.ErrPoisonMessage))
	assert.False(t, dedup.seen["m2"])

	sink.fail = false
	require.NoError(t, handle(ctx, message(t, "m2", e)))
	assert.Len(t, sink.events, 2)
}

func TestAuditHandler_PoisonMessages(t *testing.T) {
	handle := NewAuditHandler(&flakySink{}, nil, zap.NewNop())
	ctx := context.Background()

	err := handle(ctx, mq.Message{ID: "x", RoutingKey: stockin.RoutingKeyPosted, Body: []byte("{not json")})
	assert.ErrorIs(t, err, mq.ErrPoisonMessage)

	msg := message(t, "y", stockin.Event{Type: stockin.RoutingKeyCancelled})
	msg.RoutingKey = stockin.RoutingKeyPosted
	assert.ErrorIs(t, handle(ctx, msg), mq.ErrPoisonMessage)
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewLogSink(zap.New(core))

	require.NoError(t, sink.Record(context.Background(), stockin.Event{
		Type:       stockin.RoutingKeyCancelled,
		DocumentID: 3,
		Lines:      []stockin.EventLine{{Quantity: -4}, {Quantity: -6}},
	}))

	entries := logs.FilterMessage("入库审计").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "audit", entries[0].LoggerName)
	assert.EqualValues(t, -10, entries[0].ContextMap()["quantity"])
}
