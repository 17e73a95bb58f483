package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"carshare-ledger/internal/assetledger"
	"carshare-ledger/internal/clock"
	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/events"
	"carshare-ledger/internal/repository"
	"carshare-ledger/internal/repository/memory"
	"carshare-ledger/internal/service"
)

const (
	owner   domain.Account = "0xowner"
	escrow  domain.Account = "0xsalemanager"
	custody domain.Account = "0xrewards"
	alice   domain.Account = "0xalice"
	bob     domain.Account = "0xbob"
	renter  domain.Account = "0xrenter"

	startTime int64 = 1_700_000_000
	saleSpan  int64 = 3600
)

type fixture struct {
	ctx     context.Context
	store   *memory.Store
	clock   *clock.Manual
	ledger  *assetledger.Ledger
	sales   service.SaleService
	rewards service.RewardsService
	shares  service.ShareService
	journal service.LedgerService
}

func newUnlinkedFixture(t *testing.T, relay *events.Relay, store *memory.Store) *fixture {
	t.Helper()
	if store == nil {
		store = memory.NewStore()
	}
	clk := clock.NewManual(startTime)
	ledger := assetledger.New(clk)
	return &fixture{
		ctx:     context.Background(),
		store:   store,
		clock:   clk,
		ledger:  ledger,
		sales:   service.NewSaleService(store, ledger, clk, relay, service.SaleConfig{Owner: owner, Escrow: escrow}),
		rewards: service.NewRewardsService(store, ledger, clk, relay, service.RewardsConfig{Owner: owner, Custody: custody}),
		shares:  service.NewShareService(store, ledger),
		journal: service.NewLedgerService(store),
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := newUnlinkedFixture(t, nil, nil)
	require.NoError(t, f.sales.LinkAssetLedger(f.ctx, owner))
	return f
}

func (f *fixture) deadline() int64 {
	return startTime + saleSpan
}

func (f *fixture) startSale(t *testing.T, id, total, price int64) {
	t.Helper()
	require.NoError(t, f.sales.StartNewSale(f.ctx, owner, domain.SaleParams{
		ID: id, TokensTotal: total, Deadline: f.deadline(), PricePerToken: price,
	}))
}

func (f *fixture) invest(t *testing.T, who domain.Account, id, amount, price int64) {
	t.Helper()
	require.NoError(t, f.sales.Invest(f.ctx, who, id, amount, amount*price))
}

// soldSale runs a sale to Sold with alice holding aliceShares and bob the rest.
func (f *fixture) soldSale(t *testing.T, id, total, price, aliceShares int64) {
	t.Helper()
	f.startSale(t, id, total, price)
	f.invest(t, alice, id, aliceShares, price)
	f.invest(t, bob, id, total-aliceShares, price)
	f.clock.Set(f.deadline() + 1)
	status, err := f.sales.FinalizeSale(f.ctx, alice, id)
	require.NoError(t, err)
	require.Equal(t, domain.SaleStatusSold, status)
}

func (f *fixture) events(t *testing.T) []domain.Event {
	t.Helper()
	evs, err := f.journal.ListEvents(f.ctx, 0, 100)
	require.NoError(t, err)
	return evs
}

func (f *fixture) lastEvent(t *testing.T) domain.Event {
	t.Helper()
	evs := f.events(t)
	require.NotEmpty(t, evs)
	return evs[len(evs)-1]
}

func (f *fixture) balance(t *testing.T, who domain.Account, id int64) int64 {
	t.Helper()
	b, err := f.shares.BalanceOf(f.ctx, who, id)
	require.NoError(t, err)
	return b
}

func (f *fixture) funds(t *testing.T, who domain.Account) int64 {
	t.Helper()
	b, err := f.journal.GetBalance(f.ctx, who)
	require.NoError(t, err)
	return b
}

func (f *fixture) sale(t *testing.T, id int64) *domain.Sale {
	t.Helper()
	s, err := f.sales.GetSaleInfo(f.ctx, id)
	require.NoError(t, err)
	return s
}

func (f *fixture) lockedSum(t *testing.T, id int64) (sum, total int64) {
	t.Helper()
	require.NoError(t, f.store.RunInTx(f.ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if sum, err = tx.Rewards().SumLocked(ctx, id); err != nil {
			return err
		}
		pool, err := tx.Rewards().GetPool(ctx, id)
		if err != nil {
			return err
		}
		total = pool.TotalLocked
		return nil
	}))
	return sum, total
}
