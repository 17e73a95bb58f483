package jobs

import (
	"context"

	"carshare-ledger/internal/logger"
)

// ReportUnallocatedPool logs rental revenue that arrived while nothing was locked
func (jr *JobRunner) ReportUnallocatedPool() {
	jr.runWithRecovery("ReportUnallocatedPool", func(ctx context.Context) {
		amount, err := jr.services.Rewards.GetUnallocatedPool(ctx)
		if err != nil {
			logger.Error("Failed to read unallocated pool", "error", err)
			return
		}
		if amount == 0 {
			logger.Debug("Unallocated pool is empty")
			return
		}
		logger.Info("Unallocated pool awaiting sweep", "amount", amount)
	})
}

// CheckLockedTotals logs every car whose locked share totals disagree
func (jr *JobRunner) CheckLockedTotals() {
	jr.runWithRecovery("CheckLockedTotals", func(ctx context.Context) {
		bad, err := jr.services.Rewards.CheckLockedTotals(ctx)
		if err != nil {
			logger.Error("Failed to check locked totals", "error", err)
			return
		}
		for _, b := range bad {
			logger.Error("Locked totals disagree",
				"saleID", b.SaleID,
				"totalLocked", b.TotalLocked,
				"sumLocked", b.SumLocked,
				"custodyBalance", b.CustodyBalance,
			)
		}
		if len(bad) == 0 {
			logger.Debug("Locked totals consistent")
		}
	})
}

// FlushEvents publishes outbox events the request path could not deliver
func (jr *JobRunner) FlushEvents() {
	jr.runWithRecovery("FlushEvents", func(ctx context.Context) {
		if jr.relay == nil {
			return
		}
		n, err := jr.relay.Flush(ctx)
		if err != nil {
			logger.Error("Failed to flush events", "published", n, "error", err)
			return
		}
		logger.Debug("Flushed events", "published", n)
	})
}
