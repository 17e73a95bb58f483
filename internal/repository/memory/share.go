package memory

import (
	"context"

	"carshare-ledger/internal/domain"
)

type shareRepository struct {
	st *state
}

func (r *shareRepository) BalanceOf(ctx context.Context, account domain.Account, saleID int64) (int64, error) {
	return r.st.balances[saleAccountKey{saleID, account}], nil
}

func (r *shareRepository) SetBalance(ctx context.Context, account domain.Account, saleID int64, amount int64) error {
	key := saleAccountKey{saleID, account}
	if amount == 0 {
		delete(r.st.balances, key)
		return nil
	}
	r.st.balances[key] = amount
	return nil
}

func (r *shareRepository) TotalSupply(ctx context.Context, saleID int64) (int64, error) {
	var total int64
	for key, amount := range r.st.balances {
		if key.saleID == saleID {
			total += amount
		}
	}
	return total, nil
}

func (r *shareRepository) IsApprovedForAll(ctx context.Context, owner, operator domain.Account) (bool, error) {
	return r.st.approvals[approvalKey{owner, operator}], nil
}

func (r *shareRepository) SetApprovalForAll(ctx context.Context, owner, operator domain.Account, approved bool) error {
	key := approvalKey{owner, operator}
	if !approved {
		delete(r.st.approvals, key)
		return nil
	}
	r.st.approvals[key] = true
	return nil
}

func (r *shareRepository) GetAuthorizedSeller(ctx context.Context) (domain.Account, error) {
	return r.st.authorizedSeller, nil
}

func (r *shareRepository) SetAuthorizedSeller(ctx context.Context, seller domain.Account) error {
	r.st.authorizedSeller = seller
	return nil
}

func (r *shareRepository) GetURI(ctx context.Context, saleID int64) (string, error) {
	return r.st.uris[saleID], nil
}

func (r *shareRepository) SetURI(ctx context.Context, saleID int64, uri string) error {
	r.st.uris[saleID] = uri
	return nil
}

func (r *shareRepository) GetMinter(ctx context.Context, saleID int64) (domain.Account, error) {
	return r.st.minters[saleID], nil
}

func (r *shareRepository) SetMinter(ctx context.Context, saleID int64, minter domain.Account) error {
	r.st.minters[saleID] = minter
	return nil
}
