package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"gopherai-docchat/internal/model"
)

// OrphanDropper drops a collection unless a document still references it.
type OrphanDropper interface {
	DropOrphanCollection(ctx context.Context, collection string) (bool, error)
}

// CollectionCleanupWorker drains cleanup events left behind by failed
// ingestions.
type CollectionCleanupWorker struct {
	conn      *amqp.Connection
	dropper   OrphanDropper
	queueName string
	log       *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCollectionCleanupWorker(conn *amqp.Connection, dropper OrphanDropper, queueName string, log *zap.Logger) *CollectionCleanupWorker {
	return &CollectionCleanupWorker{
		conn:      conn,
		dropper:   dropper,
		queueName: queueName,
		log:       log.Named("cleanup_worker"),
	}
}

func (w *CollectionCleanupWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	w.log.Info("worker started", zap.String("queue", w.queueName))
	return nil
}

// handle acks processed events. A failed drop is requeued once; a second
// failure or an undecodable body is dropped.
func (w *CollectionCleanupWorker) handle(ctx context.Context, d amqp.Delivery) {
	var event model.CollectionCleanupEvent
	if err := json.Unmarshal(d.Body, &event); err != nil || event.CollectionName == "" {
		w.log.Warn("discard malformed cleanup event", zap.ByteString("body", d.Body), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	dropped, err := w.dropper.DropOrphanCollection(ctx, event.CollectionName)
	if err != nil {
		w.log.Error("drop orphan collection failed",
			zap.String("collection", event.CollectionName),
			zap.Bool("redelivered", d.Redelivered),
			zap.Error(err),
		)
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	w.log.Info("cleanup event processed",
		zap.String("collection", event.CollectionName),
		zap.String("reason", event.Reason),
		zap.Bool("dropped", dropped),
	)
	_ = d.Ack(false)
}

func (w *CollectionCleanupWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
