package jobs

import (
	"context"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/logger"
)

// FinalizeExpiredSales finalizes Active sales whose deadline has passed
func (jr *JobRunner) FinalizeExpiredSales() {
	jr.runWithRecovery("FinalizeExpiredSales", func(ctx context.Context) {
		finalized, err := jr.finalizeExpiredSales(ctx)
		if err != nil {
			logger.Error("Failed to finalize expired sales", "error", err)
			return
		}
		logger.Info("Finalized expired sales", "count", finalized)
	})
}

func (jr *JobRunner) finalizeExpiredSales(ctx context.Context) (int, error) {
	sales, err := jr.services.Sale.ListSales(ctx, domain.SaleStatusActive)
	if err != nil {
		return 0, err
	}

	now := jr.clock.Now()
	count := 0
	for _, sale := range sales {
		if now <= sale.Deadline {
			continue
		}
		status, err := jr.services.Sale.FinalizeSale(ctx, jr.owner, sale.ID)
		if err != nil {
			// Someone else may have finalized it between the list and now.
			logger.Warn("Failed to finalize sale", "sale_id", sale.ID, "error", err)
			continue
		}
		logger.Debug("Finalized sale", "sale_id", sale.ID, "status", status.String())
		count++
	}
	return count, nil
}

// RefundWindowReport is a Refund sale whose window has closed with funds still
// in custody.
type RefundWindowReport struct {
	SaleID    int64
	WindowEnd int64
	Residual  int64
}

// ReportRefundWindows logs Refund sales that are ready for the owner sweep
func (jr *JobRunner) ReportRefundWindows() {
	jr.runWithRecovery("ReportRefundWindows", func(ctx context.Context) {
		reports, err := jr.refundWindowsClosed(ctx)
		if err != nil {
			logger.Error("Failed to list refund sales", "error", err)
			return
		}
		for _, r := range reports {
			logger.Info("Refund window closed with residual funds",
				"sale_id", r.SaleID,
				"window_end", r.WindowEnd,
				"residual", r.Residual)
		}
		logger.Info("Checked refund windows", "ready_to_sweep", len(reports))
	})
}

func (jr *JobRunner) refundWindowsClosed(ctx context.Context) ([]RefundWindowReport, error) {
	sales, err := jr.services.Sale.ListSales(ctx, domain.SaleStatusRefund)
	if err != nil {
		return nil, err
	}

	now := jr.clock.Now()
	var reports []RefundWindowReport
	for i := range sales {
		sale := &sales[i]
		end := jr.services.Sale.RefundWindowEnd(sale)
		if now <= end || sale.Collected == 0 {
			continue
		}
		reports = append(reports, RefundWindowReport{SaleID: sale.ID, WindowEnd: end, Residual: sale.Collected})
	}
	return reports, nil
}
