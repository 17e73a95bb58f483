package service

import (
	"context"
	"math"

	"carshare-ledger/internal/assetledger"
	"carshare-ledger/internal/clock"
	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/events"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

const DefaultRefundWindow int64 = 14 * domain.SecondsPerDay

type SaleConfig struct {
	// Owner administers sales and receives proceeds.
	Owner domain.Account
	// Escrow is the sale manager's own account. Minted shares sit here until
	// bought, and it is the account the asset ledger authorizes to mint.
	Escrow domain.Account
	// RefundWindow is in seconds, counted from the sale deadline.
	RefundWindow int64
}

type saleService struct {
	store        repository.Store
	ledger       *assetledger.Ledger
	clock        clock.Clock
	relay        *events.Relay
	owner        domain.Account
	escrow       domain.Account
	refundWindow int64
}

func NewSaleService(
	store repository.Store,
	ledger *assetledger.Ledger,
	clk clock.Clock,
	relay *events.Relay,
	cfg SaleConfig,
) SaleService {
	window := cfg.RefundWindow
	if window <= 0 {
		window = DefaultRefundWindow
	}
	return &saleService{
		store:        store,
		ledger:       ledger,
		clock:        clk,
		relay:        relay,
		owner:        cfg.Owner,
		escrow:       cfg.Escrow,
		refundWindow: window,
	}
}

func (s *saleService) Account() domain.Account {
	return s.escrow
}

// RefundWindowEnd is the last second at which a refund is accepted.
func (s *saleService) RefundWindowEnd(sale *domain.Sale) int64 {
	if sale.Deadline > math.MaxInt64-s.refundWindow {
		return math.MaxInt64
	}
	return sale.Deadline + s.refundWindow
}

// mutate runs fn in one transaction and relays the events it recorded.
func (s *saleService) mutate(ctx context.Context, method string, fn func(ctx context.Context, tx repository.Tx, now int64) error, args ...any) error {
	logger.EnterMethod(method, args...)
	now := s.clock.Now()
	if err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return fn(ctx, tx, now)
	}); err != nil {
		logExit(method, err, args...)
		return err
	}
	s.relay.Notify(ctx)
	logger.ExitMethod(method, args...)
	return nil
}

func (s *saleService) LinkAssetLedger(ctx context.Context, caller domain.Account) error {
	return s.mutate(ctx, "saleService.LinkAssetLedger", func(ctx context.Context, tx repository.Tx, now int64) error {
		if err := requireOwner(caller, s.owner); err != nil {
			return err
		}
		return s.ledger.InitializeAuthorizedSeller(ctx, tx, s.escrow)
	}, "escrow", s.escrow)
}

func (s *saleService) StartNewSale(ctx context.Context, caller domain.Account, p domain.SaleParams) error {
	return s.mutate(ctx, "saleService.StartNewSale", func(ctx context.Context, tx repository.Tx, now int64) error {
		if err := s.checkCanStart(ctx, tx, caller); err != nil {
			return err
		}
		if err := s.startSale(ctx, tx, p, now); err != nil {
			return err
		}
		return events.Record(ctx, tx.Events(), events.SaleEvent(domain.EventSaleStarted, p.ID, caller, now, map[string]any{
			"tokens_total":    p.TokensTotal,
			"deadline":        p.Deadline,
			"price_per_token": p.PricePerToken,
		}))
	}, "saleID", p.ID, "tokensTotal", p.TokensTotal, "deadline", p.Deadline)
}

// StartNewSales applies the single-sale checks item by item and aborts the
// whole batch on the first failure.
func (s *saleService) StartNewSales(ctx context.Context, caller domain.Account, params []domain.SaleParams) error {
	return s.mutate(ctx, "saleService.StartNewSales", func(ctx context.Context, tx repository.Tx, now int64) error {
		if err := s.checkCanStart(ctx, tx, caller); err != nil {
			return err
		}
		if len(params) == 0 {
			return domain.ErrEmptyBatch
		}

		ids := make([]int64, len(params))
		totals := make([]int64, len(params))
		deadlines := make([]int64, len(params))
		prices := make([]int64, len(params))
		for i, p := range params {
			if err := s.startSale(ctx, tx, p, now); err != nil {
				return err
			}
			ids[i], totals[i], deadlines[i], prices[i] = p.ID, p.TokensTotal, p.Deadline, p.PricePerToken
		}

		return events.Record(ctx, tx.Events(), events.GlobalEvent(domain.EventBatchSaleStarted, caller, now, map[string]any{
			"ids":             ids,
			"tokens_total":    totals,
			"deadlines":       deadlines,
			"price_per_token": prices,
		}))
	}, "count", len(params))
}

func (s *saleService) checkCanStart(ctx context.Context, tx repository.Tx, caller domain.Account) error {
	if err := requireOwner(caller, s.owner); err != nil {
		return err
	}
	seller, err := s.ledger.AuthorizedSeller(ctx, tx)
	if err != nil {
		return err
	}
	if seller.IsZero() {
		return domain.ErrLedgerNotLinked
	}
	return nil
}

func (s *saleService) startSale(ctx context.Context, tx repository.Tx, p domain.SaleParams, now int64) error {
	existing, err := loadSale(ctx, tx, p.ID)
	if err != nil {
		return err
	}
	if existing.Status != domain.SaleStatusInactive {
		return &domain.SaleAlreadyStartedError{SaleID: p.ID}
	}
	if p.Deadline <= now {
		return &domain.DeadlineInPastError{SaleID: p.ID, Deadline: p.Deadline, Now: now}
	}
	if p.TokensTotal <= 0 {
		return domain.ErrZeroTokensTotal
	}
	if p.PricePerToken <= 0 {
		return domain.ErrPriceTooLow
	}
	if _, err := domain.MulAmount(p.TokensTotal, p.PricePerToken); err != nil {
		return err
	}

	// The ledger decides whether this manager may still mint.
	if err := s.ledger.Mint(ctx, tx, s.escrow, s.escrow, p.ID, p.TokensTotal); err != nil {
		return err
	}
	if p.URI != "" {
		if err := s.ledger.SetURI(ctx, tx, s.escrow, p.ID, p.URI); err != nil {
			return err
		}
	}

	return tx.Sales().Create(ctx, &domain.Sale{
		ID:            p.ID,
		Status:        domain.SaleStatusActive,
		TokensTotal:   p.TokensTotal,
		Deadline:      p.Deadline,
		PricePerToken: p.PricePerToken,
		MetadataURI:   p.URI,
	})
}

func (s *saleService) Invest(ctx context.Context, caller domain.Account, saleID, amount, payment int64) error {
	return s.mutate(ctx, "saleService.Invest", func(ctx context.Context, tx repository.Tx, now int64) error {
		sale, err := loadSale(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != domain.SaleStatusActive {
			return domain.ErrSaleNotActive
		}
		if now > sale.Deadline {
			return domain.ErrSaleIsOver
		}
		if amount <= 0 {
			return domain.ErrZeroAmount
		}
		if amount > sale.TokensAvailable() {
			return &domain.TooManyTokensError{Requested: amount, Available: sale.TokensAvailable()}
		}
		expected, err := domain.MulAmount(amount, sale.PricePerToken)
		if err != nil {
			return err
		}
		if payment != expected {
			return &domain.WrongPaymentError{Sent: payment, Expected: expected}
		}

		contribution, err := tx.Sales().GetContribution(ctx, saleID, caller)
		if err != nil {
			return err
		}
		sale.TokensOwnedByUsers += amount
		sale.Collected += payment
		if err := tx.Sales().Update(ctx, sale); err != nil {
			return err
		}
		if err := tx.Sales().SetContribution(ctx, saleID, caller, contribution+amount); err != nil {
			return err
		}
		if err := pay(ctx, tx, caller, saleRef(saleID), -payment, domain.TransactionTypeInvestment, now); err != nil {
			return err
		}
		if err := s.ledger.Transfer(ctx, tx, s.escrow, s.escrow, caller, saleID, amount); err != nil {
			return err
		}

		return events.Record(ctx, tx.Events(), events.SaleEvent(domain.EventUserInvested, saleID, caller, now, map[string]any{
			"amount": amount,
		}))
	}, "saleID", saleID, "caller", caller, "amount", amount, "payment", payment)
}

// FinalizeSale may be called by anyone once the deadline has passed.
func (s *saleService) FinalizeSale(ctx context.Context, caller domain.Account, saleID int64) (domain.SaleStatus, error) {
	var outcome domain.SaleStatus
	err := s.mutate(ctx, "saleService.FinalizeSale", func(ctx context.Context, tx repository.Tx, now int64) error {
		sale, err := loadSale(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != domain.SaleStatusActive {
			return domain.ErrSaleNotActive
		}
		if now <= sale.Deadline {
			return domain.ErrSaleNotOver
		}

		if sale.TokensOwnedByUsers == sale.TokensTotal {
			sale.Status = domain.SaleStatusSold
		} else {
			sale.Status = domain.SaleStatusRefund
		}
		if err := tx.Sales().Update(ctx, sale); err != nil {
			return err
		}
		outcome = sale.Status

		return events.Record(ctx, tx.Events(), events.SaleEvent(domain.EventSaleFinalized, saleID, caller, now, map[string]any{
			"status": sale.Status.String(),
		}))
	}, "saleID", saleID, "caller", caller)
	return outcome, err
}

func (s *saleService) WithdrawInvestedFunds(ctx context.Context, caller domain.Account, saleID int64) (int64, error) {
	var amount int64
	err := s.mutate(ctx, "saleService.WithdrawInvestedFunds", func(ctx context.Context, tx repository.Tx, now int64) error {
		if err := requireOwner(caller, s.owner); err != nil {
			return err
		}
		sale, err := loadSale(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != domain.SaleStatusSold {
			return domain.ErrSaleNotSold
		}

		amount = sale.Collected
		sale.Collected = 0
		sale.Status = domain.SaleStatusWithdrawnByOwner
		if err := tx.Sales().Update(ctx, sale); err != nil {
			return err
		}
		if err := events.Record(ctx, tx.Events(), events.SaleEvent(domain.EventInvestedFundsWithdrawn, saleID, caller, now, map[string]any{
			"amount": amount,
		})); err != nil {
			return err
		}
		return pay(ctx, tx, s.owner, saleRef(saleID), amount, domain.TransactionTypeOwnerWithdrawal, now)
	}, "saleID", saleID)
	return amount, err
}

func (s *saleService) GetRefund(ctx context.Context, caller domain.Account, saleID int64) (int64, error) {
	var refund int64
	err := s.mutate(ctx, "saleService.GetRefund", func(ctx context.Context, tx repository.Tx, now int64) error {
		sale, err := loadSale(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != domain.SaleStatusRefund {
			return domain.ErrNotRefundPeriod
		}
		if now > s.RefundWindowEnd(sale) {
			return domain.ErrRefundPeriodEnded
		}
		contribution, err := tx.Sales().GetContribution(ctx, saleID, caller)
		if err != nil {
			return err
		}
		if contribution == 0 {
			return domain.ErrRefundZeroBalance
		}
		refund, err = domain.MulAmount(contribution, sale.PricePerToken)
		if err != nil {
			return err
		}

		if err := tx.Sales().SetContribution(ctx, saleID, caller, 0); err != nil {
			return err
		}
		sale.Collected -= refund
		if err := tx.Sales().Update(ctx, sale); err != nil {
			return err
		}
		if err := events.Record(ctx, tx.Events(), events.SaleEvent(domain.EventRefundSent, saleID, caller, now, map[string]any{
			"amount": refund,
		})); err != nil {
			return err
		}
		return pay(ctx, tx, caller, saleRef(saleID), refund, domain.TransactionTypeRefund, now)
	}, "saleID", saleID, "caller", caller)
	return refund, err
}

func (s *saleService) SweepFunds(ctx context.Context, caller domain.Account, saleID int64) (int64, error) {
	var residual int64
	err := s.mutate(ctx, "saleService.SweepFunds", func(ctx context.Context, tx repository.Tx, now int64) error {
		if err := requireOwner(caller, s.owner); err != nil {
			return err
		}
		sale, err := loadSale(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != domain.SaleStatusRefund || now <= s.RefundWindowEnd(sale) {
			return domain.ErrCantSweepYet
		}
		if sale.Collected == 0 {
			return domain.ErrNoFundsLeft
		}

		residual = sale.Collected
		sale.Collected = 0
		if err := tx.Sales().Update(ctx, sale); err != nil {
			return err
		}
		if err := events.Record(ctx, tx.Events(), events.SaleEvent(domain.EventResidualFundsSwept, saleID, caller, now, map[string]any{
			"amount": residual,
		})); err != nil {
			return err
		}
		return pay(ctx, tx, s.owner, saleRef(saleID), residual, domain.TransactionTypeSaleSweep, now)
	}, "saleID", saleID)
	return residual, err
}

func (s *saleService) UpdateURI(ctx context.Context, caller domain.Account, saleID int64, uri string) error {
	return s.mutate(ctx, "saleService.UpdateURI", func(ctx context.Context, tx repository.Tx, now int64) error {
		if err := requireOwner(caller, s.owner); err != nil {
			return err
		}
		sale, err := loadSale(ctx, tx, saleID)
		if err != nil {
			return err
		}

		// Metadata may be published ahead of the sale; only existing rows
		// carry a copy of it.
		if sale.Status != domain.SaleStatusInactive {
			sale.MetadataURI = uri
			if err := tx.Sales().Update(ctx, sale); err != nil {
				return err
			}
		}
		if err := s.ledger.SetURI(ctx, tx, s.escrow, saleID, uri); err != nil {
			return err
		}
		return events.Record(ctx, tx.Events(), events.SaleEvent(domain.EventURIUpdated, saleID, caller, now, map[string]any{
			"uri": uri,
		}))
	}, "saleID", saleID, "uri", uri)
}

// UpgradeAuthorizedSeller hands minting rights to another sale manager. From
// then on this manager can no longer start sales.
func (s *saleService) UpgradeAuthorizedSeller(ctx context.Context, caller, next domain.Account) error {
	return s.mutate(ctx, "saleService.UpgradeAuthorizedSeller", func(ctx context.Context, tx repository.Tx, now int64) error {
		if err := requireOwner(caller, s.owner); err != nil {
			return err
		}
		if next.IsZero() {
			return domain.ErrSellerAddrIsZero
		}
		return s.ledger.SetAuthorizedSeller(ctx, tx, s.escrow, next)
	}, "next", next)
}

func (s *saleService) GetSaleInfo(ctx context.Context, saleID int64) (*domain.Sale, error) {
	var sale *domain.Sale
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		sale, err = loadSale(ctx, tx, saleID)
		return err
	})
	return sale, err
}

func (s *saleService) GetContribution(ctx context.Context, saleID int64, account domain.Account) (int64, error) {
	var tokens int64
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		tokens, err = tx.Sales().GetContribution(ctx, saleID, account)
		return err
	})
	return tokens, err
}

func (s *saleService) ListSales(ctx context.Context, statuses ...domain.SaleStatus) ([]domain.Sale, error) {
	if len(statuses) == 0 {
		statuses = []domain.SaleStatus{
			domain.SaleStatusActive,
			domain.SaleStatusSold,
			domain.SaleStatusRefund,
			domain.SaleStatusWithdrawnByOwner,
		}
	}
	var sales []domain.Sale
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		sales, err = tx.Sales().ListByStatus(ctx, statuses...)
		return err
	})
	return sales, err
}
