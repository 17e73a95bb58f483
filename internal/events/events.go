package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

// Publisher delivers committed events to the outside world.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Record stamps the event with an id and appends it to the outbox of the
// current transaction.
func Record(ctx context.Context, repo repository.EventRepository, e *domain.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Attributes == nil {
		e.Attributes = map[string]any{}
	}
	if err := repo.Append(ctx, e); err != nil {
		return fmt.Errorf("failed to record %s event: %w", e.Name, err)
	}
	return nil
}

// SaleEvent builds an event about one sale.
func SaleEvent(name domain.EventName, saleID int64, account domain.Account, now int64, attrs map[string]any) *domain.Event {
	id := saleID
	return &domain.Event{Name: name, SaleID: &id, Account: account, Attributes: attrs, CreatedAt: now}
}

// GlobalEvent builds an event that is not tied to a sale.
func GlobalEvent(name domain.EventName, account domain.Account, now int64, attrs map[string]any) *domain.Event {
	return &domain.Event{Name: name, Account: account, Attributes: attrs, CreatedAt: now}
}

type redisClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher fans events out over Redis pub/sub as JSON.
type RedisPublisher struct {
	client  redisClient
	channel string
}

func NewRedisPublisher(client redisClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// NewRedisClient connects and pings a Redis server.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	logger.ExternalServiceCall("redis", "PUBLISH", "channel", p.channel, "event", event.Name, "seq", event.Seq)
	err = p.client.Publish(ctx, p.channel, payload).Err()
	logger.ExternalServiceResult("redis", "PUBLISH", err, "seq", event.Seq)
	if err != nil {
		return fmt.Errorf("failed to publish event %d: %w", event.Seq, err)
	}
	return nil
}

// LogPublisher writes events to the application log.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, event domain.Event) error {
	args := []any{"seq", event.Seq, "event", event.Name, "id", event.ID}
	if event.SaleID != nil {
		args = append(args, "saleID", *event.SaleID)
	}
	if event.Account != "" {
		args = append(args, "account", event.Account)
	}
	for k, v := range event.Attributes {
		args = append(args, k, v)
	}
	logger.Info("Ledger event", args...)
	return nil
}
