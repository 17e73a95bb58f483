package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/events"
	"carshare-ledger/internal/repository"
	"carshare-ledger/internal/repository/memory"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type fakeRedis struct {
	channel string
	payload []byte
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func recordN(t *testing.T, store repository.Store, n int) {
	t.Helper()
	err := store.RunInTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		for i := 0; i < n; i++ {
			e := events.SaleEvent(domain.EventUserInvested, 1, "0xinv", 100, map[string]any{"amount": int64(i + 1)})
			if err := events.Record(ctx, tx.Events(), e); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestRecord_AssignsID(t *testing.T) {
	store := memory.NewStore()
	var recorded *domain.Event
	err := store.RunInTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		recorded = events.GlobalEvent(domain.EventUnallocatedFundsSwept, "0xowner", 5, nil)
		return events.Record(ctx, tx.Events(), recorded)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, recorded.ID)
	assert.Equal(t, int64(1), recorded.Seq)
	assert.NotNil(t, recorded.Attributes)
	assert.Nil(t, recorded.SaleID)
}

func TestRelay_FlushInOrder(t *testing.T) {
	store := memory.NewStore()
	recordN(t, store, 3)

	pub := new(MockPublisher)
	var seqs []int64
	pub.On("Publish", mock.Anything, mock.AnythingOfType("domain.Event")).
		Run(func(args mock.Arguments) { seqs = append(seqs, args.Get(1).(domain.Event).Seq) }).
		Return(nil)

	relay := events.NewRelay(store, pub)
	n, err := relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int64{1, 2, 3}, seqs)
	assert.Equal(t, int64(3), relay.LastPublished())

	// Nothing new, nothing sent.
	n, err = relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	pub.AssertNumberOfCalls(t, "Publish", 3)
}

func TestRelay_RetriesAfterFailure(t *testing.T) {
	store := memory.NewStore()
	recordN(t, store, 2)

	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.Event) bool { return e.Seq == 1 })).Return(nil)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.Event) bool { return e.Seq == 2 })).
		Return(errors.New("broker down")).Once()

	relay := events.NewRelay(store, pub)
	n, err := relay.Flush(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(1), relay.LastPublished())

	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.Event) bool { return e.Seq == 2 })).Return(nil)
	n, err = relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(2), relay.LastPublished())
}

func TestRelay_SecondRelaySendsNothingTwice(t *testing.T) {
	store := memory.NewStore()
	recordN(t, store, 2)

	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	n, err := events.NewRelay(store, pub).Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// A fresh process starts with no memory of what went out.
	n, err = events.NewRelay(store, pub).Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestRelay_PublishesLowerSeqCommittedLate(t *testing.T) {
	store := memory.NewStore()
	recordN(t, store, 3)

	// Seqs 2 and 3 went out before the transaction holding seq 1 became
	// visible.
	require.NoError(t, store.RunInTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		return tx.Events().MarkPublished(ctx, []int64{2, 3})
	}))

	pub := new(MockPublisher)
	var seqs []int64
	pub.On("Publish", mock.Anything, mock.AnythingOfType("domain.Event")).
		Run(func(args mock.Arguments) { seqs = append(seqs, args.Get(1).(domain.Event).Seq) }).
		Return(nil)

	relay := events.NewRelay(store, pub)
	n, err := relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, seqs)
	assert.Equal(t, int64(1), relay.LastPublished())
}

func TestRelay_NilNotify(t *testing.T) {
	var relay *events.Relay
	assert.NotPanics(t, func() { relay.Notify(context.Background()) })
}

func TestRedisPublisher(t *testing.T) {
	saleID := int64(9)
	event := domain.Event{ID: "abc", Seq: 4, Name: domain.EventSaleFinalized, SaleID: &saleID, Attributes: map[string]any{"status": "SOLD"}}

	t.Run("Success", func(t *testing.T) {
		client := &fakeRedis{}
		pub := events.NewRedisPublisher(client, "carshare:events")

		require.NoError(t, pub.Publish(context.Background(), event))
		assert.Equal(t, "carshare:events", client.channel)

		var decoded domain.Event
		require.NoError(t, json.Unmarshal(client.payload, &decoded))
		assert.Equal(t, domain.EventSaleFinalized, decoded.Name)
		assert.Equal(t, int64(9), *decoded.SaleID)
	})

	t.Run("Error", func(t *testing.T) {
		client := &fakeRedis{err: errors.New("connection refused")}
		pub := events.NewRedisPublisher(client, "carshare:events")
		assert.Error(t, pub.Publish(context.Background(), event))
	})
}

func TestLogPublisher(t *testing.T) {
	assert.NoError(t, events.LogPublisher{}.Publish(context.Background(), domain.Event{Name: domain.EventCarWasRented}))
}
