package http

import (
	"context"
	"net/http"

	"carshare-ledger/internal/domain"
)

type addCarRequest struct {
	SaleID          int64 `json:"sale_id"`
	RentPricePerDay int64 `json:"rent_price_per_day"`
}

type rentRequest struct {
	Days    int64 `json:"days"`
	Payment int64 `json:"payment"`
}

type carResponse struct {
	*domain.Car
	Pool *domain.RewardPool `json:"pool"`
}

type rewardResponse struct {
	Withdrawable  int64 `json:"withdrawable"`
	LockedBalance int64 `json:"locked_balance"`
}

func (h *Handler) AddCar(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req addCarRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.rewards.AddCar(r.Context(), caller, req.SaleID, req.RentPricePerDay); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) GetAllCars(w http.ResponseWriter, r *http.Request) {
	ids, err := h.rewards.GetAllCars(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"cars": ids})
}

func (h *Handler) GetCar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	car, err := h.rewards.GetCar(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pool, err := h.rewards.GetRewardPool(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, carResponse{Car: car, Pool: pool})
}

func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	h.lockOp(w, r, h.rewards.Lock)
}

func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	h.lockOp(w, r, h.rewards.Unlock)
}

func (h *Handler) lockOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, caller domain.Account, saleID, amount int64) error) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := op(r.Context(), caller, id, req.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	acc, err := h.rewards.GetRewardAccount(r.Context(), id, caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rewardResponse{Withdrawable: acc.Claimable, LockedBalance: acc.LockedBalance})
}

func (h *Handler) RentCar(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	var req rentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.rewards.RentCar(r.Context(), caller, id, req.Days, req.Payment); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) ClaimReward(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	claimable, err := h.rewards.ClaimReward(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"claimable": claimable})
}

func (h *Handler) WithdrawReward(w http.ResponseWriter, r *http.Request) {
	h.payout(w, r, h.rewards.WithdrawReward)
}

func (h *Handler) GetWithdrawableReward(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	account := pathAccount(r)
	withdrawable, err := h.rewards.GetWithdrawableReward(r.Context(), id, account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	acc, err := h.rewards.GetRewardAccount(r.Context(), id, account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rewardResponse{Withdrawable: withdrawable, LockedBalance: acc.LockedBalance})
}

func (h *Handler) GetUnallocatedPool(w http.ResponseWriter, r *http.Request) {
	amount, err := h.rewards.GetUnallocatedPool(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: amount})
}

func (h *Handler) SweepAvailableFunds(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := h.rewards.SweepAvailableFunds(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: amount})
}
