package domain

type TransactionType string

const (
	TransactionTypeInvestment       TransactionType = "INVESTMENT"
	TransactionTypeOwnerWithdrawal  TransactionType = "OWNER_WITHDRAWAL"
	TransactionTypeRefund           TransactionType = "REFUND"
	TransactionTypeSaleSweep        TransactionType = "SALE_SWEEP"
	TransactionTypeRentPayment      TransactionType = "RENT_PAYMENT"
	TransactionTypeRewardWithdrawal TransactionType = "REWARD_WITHDRAWAL"
	TransactionTypePoolSweep        TransactionType = "POOL_SWEEP"
)

// LedgerTransaction is one entry of the funds journal. Amount is negative when
// the account paid into custody and positive when custody paid the account.
type LedgerTransaction struct {
	ID        int64           `json:"id"`
	Account   Account         `json:"account"`
	SaleID    *int64          `json:"sale_id,omitempty"`
	Amount    int64           `json:"amount"`
	Type      TransactionType `json:"type"`
	CreatedAt int64           `json:"created_at"`
}

// LedgerSummary aggregates an account's journal.
type LedgerSummary struct {
	Account  Account                   `json:"account"`
	Balance  int64                     `json:"balance"`
	Paid     int64                     `json:"paid"`
	Received int64                     `json:"received"`
	ByType   map[TransactionType]int64 `json:"by_type"`
}
