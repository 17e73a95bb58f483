package events

import (
	"context"

	"github.com/sasha-s/go-deadlock"

	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

const defaultBatchSize int32 = 100

// Relay hands unpublished outbox events to the publisher and marks them
// published in the same transaction. Delivery is at least once: an event
// whose publish succeeded but whose mark did not commit goes out again.
// Events are sent in sequence order among those visible at flush time; a
// transaction that commits late is picked up by a later flush.
type Relay struct {
	store     repository.Store
	publisher Publisher
	batchSize int32

	mu   deadlock.Mutex
	last int64
}

func NewRelay(store repository.Store, publisher Publisher) *Relay {
	return &Relay{store: store, publisher: publisher, batchSize: defaultBatchSize}
}

// LastPublished is the sequence number of the last event this relay sent.
func (r *Relay) LastPublished() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Flush publishes every unpublished event and returns how many went out. It
// stops at the first publish failure, keeping what was sent before it.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	published := 0
	for {
		var (
			sent       []int64
			batchLen   int
			publishErr error
		)
		err := r.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			batch, err := tx.Events().ListUnpublished(ctx, r.batchSize)
			if err != nil {
				return err
			}
			batchLen = len(batch)
			sent = sent[:0]
			for _, e := range batch {
				if err := r.publisher.Publish(ctx, e); err != nil {
					logger.Warn("Event publish failed, will retry on next flush", "seq", e.Seq, "error", err)
					publishErr = err
					break
				}
				sent = append(sent, e.Seq)
			}
			return tx.Events().MarkPublished(ctx, sent)
		})
		if err != nil {
			return published, err
		}

		published += len(sent)
		if len(sent) > 0 {
			r.last = sent[len(sent)-1]
		}
		if publishErr != nil {
			return published, publishErr
		}
		if int32(batchLen) < r.batchSize {
			return published, nil
		}
	}
}

// Notify flushes and logs failures. Services call it after every commit.
func (r *Relay) Notify(ctx context.Context) {
	if r == nil {
		return
	}
	if _, err := r.Flush(ctx); err != nil {
		logger.Error("Failed to relay events", "error", err)
	}
}
