package http

import (
	"net/http"

	"carshare-ledger/internal/domain"
)

type approvalRequest struct {
	Operator domain.Account `json:"operator"`
	Approved bool           `json:"approved"`
}

type transactionsResponse struct {
	Transactions []domain.LedgerTransaction `json:"transactions"`
	TotalCount   int32                      `json:"total_count"`
}

func (h *Handler) SetApprovalForAll(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req approvalRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.shares.SetApprovalForAll(r.Context(), caller, req.Operator, req.Approved); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) GetShare(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	supply, err := h.shares.TotalSupply(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	uri, err := h.shares.URI(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale_id": id, "total_supply": supply, "uri": uri})
}

func (h *Handler) BalanceOf(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	balance, err := h.shares.BalanceOf(r.Context(), pathAccount(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

// ownAccount returns the path account if it is the caller's.
func ownAccount(w http.ResponseWriter, r *http.Request) (domain.Account, bool) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, r, err)
		return "", false
	}
	if account := pathAccount(r); account != caller {
		writeError(w, r, errForbidden)
		return "", false
	}
	return caller, true
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account, ok := ownAccount(w, r)
	if !ok {
		return
	}
	balance, err := h.ledger.GetBalance(r.Context(), account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	account, ok := ownAccount(w, r)
	if !ok {
		return
	}
	page, err := queryInt(r, "page", 1, 32)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "page_size", 20, 32)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, count, err := h.ledger.GetTransactions(r.Context(), account, int32(page), int32(pageSize))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: txs, TotalCount: count})
}

func (h *Handler) GetLedgerSummary(w http.ResponseWriter, r *http.Request) {
	account, ok := ownAccount(w, r)
	if !ok {
		return
	}
	summary, err := h.ledger.GetLedgerSummary(r.Context(), account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ListEvents pages through the outbox with ?after=<seq>&limit=<n>.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	after, err := queryInt(r, "after", 0, 64)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 100, 32)
	if err != nil {
		writeError(w, r, err)
		return
	}
	evs, err := h.ledger.ListEvents(r.Context(), after, int32(limit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": evs})
}
