package worker

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type ackRecorder struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acked = true; return nil }

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

type fakeDropper struct {
	calls []string
	err   error
}

func (f *fakeDropper) DropOrphanCollection(_ context.Context, collection string) (bool, error) {
	f.calls = append(f.calls, collection)
	return f.err == nil, f.err
}

func newTestWorker(d *fakeDropper) *CollectionCleanupWorker {
	return NewCollectionCleanupWorker(nil, d, "test", zap.NewNop())
}

func TestHandleDropsCollection(t *testing.T) {
	dropper := &fakeDropper{}
	ack := &ackRecorder{}

	newTestWorker(dropper).handle(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		Body:         []byte(`{"collection_name":"doc_x","reason":"record write failed"}`),
	})

	assert.Equal(t, []string{"doc_x"}, dropper.calls)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestHandleMalformed(t *testing.T) {
	for _, body := range []string{`not json`, `{"reason":"no name"}`} {
		dropper := &fakeDropper{}
		ack := &ackRecorder{}

		newTestWorker(dropper).handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte(body)})

		assert.Empty(t, dropper.calls)
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
	}
}

func TestHandleRequeuesOnce(t *testing.T) {
	dropper := &fakeDropper{err: errors.New("qdrant down")}
	body := []byte(`{"collection_name":"doc_x"}`)

	first := &ackRecorder{}
	newTestWorker(dropper).handle(context.Background(), amqp.Delivery{Acknowledger: first, Body: body})
	assert.True(t, first.nacked)
	assert.True(t, first.requeue)

	second := &ackRecorder{}
	newTestWorker(dropper).handle(context.Background(), amqp.Delivery{Acknowledger: second, Body: body, Redelivered: true})
	assert.True(t, second.nacked)
	assert.False(t, second.requeue)
}
