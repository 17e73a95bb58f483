package memory

import (
	"context"

	"carshare-ledger/internal/domain"
)

type ledgerRepository struct {
	st *state
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *domain.LedgerTransaction) error {
	tx.ID = int64(len(r.st.transactions)) + 1
	r.st.transactions = append(r.st.transactions, *tx)
	return nil
}

func (r *ledgerRepository) GetBalance(ctx context.Context, account domain.Account) (int64, error) {
	var balance int64
	for _, tx := range r.st.transactions {
		if tx.Account == account {
			balance += tx.Amount
		}
	}
	return balance, nil
}

// ListTransactions returns newest first.
func (r *ledgerRepository) ListTransactions(ctx context.Context, account domain.Account, page, pageSize int32) ([]domain.LedgerTransaction, int32, error) {
	var matched []domain.LedgerTransaction
	for i := len(r.st.transactions) - 1; i >= 0; i-- {
		if r.st.transactions[i].Account == account {
			matched = append(matched, r.st.transactions[i])
		}
	}
	count := int32(len(matched))

	offset := int((page - 1) * pageSize)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, count, nil
	}
	end := offset + int(pageSize)
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], count, nil
}

func (r *ledgerRepository) GetSummary(ctx context.Context, account domain.Account) (*domain.LedgerSummary, error) {
	summary := &domain.LedgerSummary{
		Account: account,
		ByType:  make(map[domain.TransactionType]int64),
	}
	for _, tx := range r.st.transactions {
		if tx.Account != account {
			continue
		}
		summary.Balance += tx.Amount
		if tx.Amount < 0 {
			summary.Paid -= tx.Amount
		} else {
			summary.Received += tx.Amount
		}
		summary.ByType[tx.Type] += tx.Amount
	}
	return summary, nil
}
