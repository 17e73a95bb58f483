package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

type eventRepository struct {
	db DBTX
}

func NewEventRepository(db DBTX) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, e *domain.Event) error {
	logger.EnterMethod("eventRepository.Append", "name", e.Name, "eventID", e.ID)

	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		logger.ExitMethodWithError("eventRepository.Append", err, "reason", "failed to marshal attributes")
		return err
	}

	query := `INSERT INTO ledger_events (id, name, sale_id, account, attributes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING seq`
	logger.DatabaseCall("INSERT", "ledger_events", "name", e.Name)
	err = r.db.QueryRowContext(ctx, query, e.ID, string(e.Name), nullSaleID(e.SaleID), string(e.Account), attrs, e.CreatedAt).Scan(&e.Seq)
	logger.DatabaseResult("INSERT", 1, err, "seq", e.Seq)

	if err != nil {
		logger.ExitMethodWithError("eventRepository.Append", err, "name", e.Name)
		return err
	}
	logger.ExitMethod("eventRepository.Append", "seq", e.Seq)
	return nil
}

const eventColumns = `seq, id, name, sale_id, account, attributes, created_at`

func (r *eventRepository) ListAfter(ctx context.Context, afterSeq int64, limit int32) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM ledger_events WHERE seq > $1 ORDER BY seq`
	args := []any{afterSeq}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return r.query(ctx, query, args...)
}

// ListUnpublished skips rows another relay has locked, so concurrent
// relays split the backlog instead of sending it twice.
func (r *eventRepository) ListUnpublished(ctx context.Context, limit int32) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM ledger_events WHERE NOT published
	          ORDER BY seq LIMIT $1 FOR UPDATE SKIP LOCKED`
	return r.query(ctx, query, limit)
}

func (r *eventRepository) MarkPublished(ctx context.Context, seqs []int64) error {
	if len(seqs) == 0 {
		return nil
	}
	logger.DatabaseCall("UPDATE", "ledger_events", "count", len(seqs))
	res, err := r.db.ExecContext(ctx, `UPDATE ledger_events SET published = TRUE WHERE seq = ANY($1)`, pq.Array(seqs))
	var affected int64
	if err == nil {
		affected, _ = res.RowsAffected()
	}
	logger.DatabaseResult("UPDATE", affected, err)
	return err
}

func (r *eventRepository) query(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var name, account string
		var saleID sql.NullInt64
		var attrs []byte
		if err := rows.Scan(&e.Seq, &e.ID, &name, &saleID, &account, &attrs, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Name = domain.EventName(name)
		e.Account = domain.Account(account)
		if saleID.Valid {
			id := saleID.Int64
			e.SaleID = &id
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
				return nil, err
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
