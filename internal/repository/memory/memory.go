package memory

import (
	"context"
	"maps"

	"github.com/sasha-s/go-deadlock"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

type saleAccountKey struct {
	saleID  int64
	account domain.Account
}

type approvalKey struct {
	owner    domain.Account
	operator domain.Account
}

type state struct {
	sales         map[int64]domain.Sale
	contributions map[saleAccountKey]int64

	cars   map[int64]domain.Car
	carSeq int64

	rewardAccounts map[saleAccountKey]domain.RewardAccount
	pools          map[int64]domain.RewardPool
	unallocated    int64

	balances         map[saleAccountKey]int64
	approvals        map[approvalKey]bool
	authorizedSeller domain.Account
	uris             map[int64]string
	minters          map[int64]domain.Account

	// Append-only. A transaction's copy shares the backing arrays with the
	// live state; that is safe because transactions never run concurrently
	// and a rolled-back append is overwritten by the next one.
	transactions []domain.LedgerTransaction
	events       []domain.Event
	unpublished  map[int64]struct{}
}

func newState() *state {
	return &state{
		sales:          make(map[int64]domain.Sale),
		contributions:  make(map[saleAccountKey]int64),
		cars:           make(map[int64]domain.Car),
		rewardAccounts: make(map[saleAccountKey]domain.RewardAccount),
		pools:          make(map[int64]domain.RewardPool),
		balances:       make(map[saleAccountKey]int64),
		approvals:      make(map[approvalKey]bool),
		uris:           make(map[int64]string),
		minters:        make(map[int64]domain.Account),
		unpublished:    make(map[int64]struct{}),
	}
}

func (s *state) clone() *state {
	return &state{
		sales:            maps.Clone(s.sales),
		contributions:    maps.Clone(s.contributions),
		cars:             maps.Clone(s.cars),
		carSeq:           s.carSeq,
		rewardAccounts:   maps.Clone(s.rewardAccounts),
		pools:            maps.Clone(s.pools),
		unallocated:      s.unallocated,
		balances:         maps.Clone(s.balances),
		approvals:        maps.Clone(s.approvals),
		authorizedSeller: s.authorizedSeller,
		uris:             maps.Clone(s.uris),
		minters:          maps.Clone(s.minters),
		transactions:     s.transactions,
		events:           s.events,
		unpublished:      maps.Clone(s.unpublished),
	}
}

// Store keeps the whole ledger in process memory. Every transaction works on
// a copy of the state which replaces the live state only if fn succeeds.
type Store struct {
	mu    deadlock.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.state.clone()
	if err := fn(ctx, &txRepos{st: working}); err != nil {
		logger.Debug("Memory transaction rolled back", "error", err)
		return err
	}
	s.state = working
	return nil
}

func (s *Store) Close() error {
	return nil
}

type txRepos struct {
	st *state
}

func (t *txRepos) Sales() repository.SaleRepository     { return &saleRepository{st: t.st} }
func (t *txRepos) Cars() repository.CarRepository       { return &carRepository{st: t.st} }
func (t *txRepos) Rewards() repository.RewardRepository { return &rewardRepository{st: t.st} }
func (t *txRepos) Shares() repository.ShareRepository   { return &shareRepository{st: t.st} }
func (t *txRepos) Ledger() repository.LedgerRepository  { return &ledgerRepository{st: t.st} }
func (t *txRepos) Events() repository.EventRepository   { return &eventRepository{st: t.st} }
