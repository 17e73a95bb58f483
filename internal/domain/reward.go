package domain

// RewardAccount is one investor's position in one car's reward pool.
type RewardAccount struct {
	SaleID          int64   `json:"sale_id"`
	Account         Account `json:"account"`
	LockedBalance   int64   `json:"locked_balance"`
	RewardDebtIndex int64   `json:"reward_debt_index"`
	Claimable       int64   `json:"claimable"`
}

// RewardPool accumulates rental revenue per locked share for one sale.
// TotalLocked always equals the sum of LockedBalance over the sale's accounts.
type RewardPool struct {
	SaleID      int64 `json:"sale_id"`
	RewardIndex int64 `json:"reward_index"`
	TotalLocked int64 `json:"total_locked"`
	// Dust is the floor-division remainder retained from accruals. It is
	// tracked for audit and is not paid out by any operation.
	Dust int64 `json:"dust"`
}

// LockedTotals compares a pool's running total with the per-account locked
// balances and the shares actually held in custody. All three must agree.
type LockedTotals struct {
	SaleID         int64 `json:"sale_id"`
	TotalLocked    int64 `json:"total_locked"`
	SumLocked      int64 `json:"sum_locked"`
	CustodyBalance int64 `json:"custody_balance"`
}

func (l LockedTotals) Consistent() bool {
	return l.TotalLocked == l.SumLocked && l.TotalLocked == l.CustodyBalance
}
