package http

import (
	"context"
	"net/http"
	"strings"

	"carshare-ledger/internal/domain"
)

type saleResponse struct {
	*domain.Sale
	TokensAvailable int64 `json:"tokens_available"`
	RefundWindowEnd int64 `json:"refund_window_end,omitempty"`
}

// batchRequest accepts either a list of records or the parallel-array form.
type batchRequest struct {
	Sales []domain.SaleParams `json:"sales"`

	IDs         []int64  `json:"ids"`
	TokensTotal []int64  `json:"tokens_total"`
	Deadlines   []int64  `json:"deadlines"`
	Prices      []int64  `json:"prices"`
	URIs        []string `json:"uris"`
}

func (b *batchRequest) params() ([]domain.SaleParams, error) {
	if len(b.Sales) > 0 {
		return b.Sales, nil
	}
	if b.IDs == nil && b.TokensTotal == nil && b.Deadlines == nil && b.Prices == nil && b.URIs == nil {
		return nil, nil
	}
	return domain.SaleParamsFromColumns(b.IDs, b.TokensTotal, b.Deadlines, b.Prices, b.URIs)
}

type investRequest struct {
	Amount  int64 `json:"amount"`
	Payment int64 `json:"payment"`
}

type accountRequest struct {
	Account domain.Account `json:"account"`
}

type uriRequest struct {
	URI string `json:"uri"`
}

func (h *Handler) LinkAssetLedger(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sales.LinkAssetLedger(r.Context(), caller); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountRequest{Account: h.sales.Account()})
}

func (h *Handler) GetAuthorizedSeller(w http.ResponseWriter, r *http.Request) {
	seller, err := h.shares.AuthorizedSeller(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountRequest{Account: seller})
}

func (h *Handler) UpgradeAuthorizedSeller(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req accountRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sales.UpgradeAuthorizedSeller(r.Context(), caller, req.Account); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ListSales accepts ?status=ACTIVE,SOLD; without it every started sale is listed.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	var statuses []domain.SaleStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			status, err := domain.ParseSaleStatus(strings.ToUpper(strings.TrimSpace(name)))
			if err != nil {
				writeError(w, r, errBadRequest)
				return
			}
			statuses = append(statuses, status)
		}
	}

	sales, err := h.sales.ListSales(r.Context(), statuses...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]saleResponse, len(sales))
	for i := range sales {
		resp[i] = h.saleView(&sales[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": resp})
}

func (h *Handler) StartNewSale(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var params domain.SaleParams
	if err := decode(r, &params); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sales.StartNewSale(r.Context(), caller, params); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, params)
}

func (h *Handler) StartNewSales(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req batchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	params, err := req.params()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sales.StartNewSales(r.Context(), caller, params); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"sales": params})
}

func (h *Handler) GetSaleInfo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sale, err := h.sales.GetSaleInfo(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.saleView(sale))
}

func (h *Handler) saleView(sale *domain.Sale) saleResponse {
	resp := saleResponse{Sale: sale, TokensAvailable: sale.TokensAvailable()}
	if sale.Status == domain.SaleStatusRefund {
		resp.RefundWindowEnd = h.sales.RefundWindowEnd(sale)
	}
	return resp
}

func (h *Handler) Invest(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	var req investRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sales.Invest(r.Context(), caller, id, req.Amount, req.Payment); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) FinalizeSale(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	status, err := h.sales.FinalizeSale(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.SaleStatus{"status": status})
}

func (h *Handler) WithdrawInvestedFunds(w http.ResponseWriter, r *http.Request) {
	h.payout(w, r, h.sales.WithdrawInvestedFunds)
}

func (h *Handler) GetRefund(w http.ResponseWriter, r *http.Request) {
	h.payout(w, r, h.sales.GetRefund)
}

func (h *Handler) SweepFunds(w http.ResponseWriter, r *http.Request) {
	h.payout(w, r, h.sales.SweepFunds)
}

func (h *Handler) UpdateURI(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	var req uriRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sales.UpdateURI(r.Context(), caller, id, req.URI); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) GetContribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := h.sales.GetContribution(r.Context(), id, pathAccount(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: amount})
}

func (h *Handler) callerAndID(w http.ResponseWriter, r *http.Request) (domain.Account, int64, bool) {
	caller, err := callerFrom(r.Context())
	if err != nil {
		writeError(w, r, err)
		return "", 0, false
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return "", 0, false
	}
	return caller, id, true
}

// payout runs a caller-initiated operation on the path sale that returns the
// amount paid out.
func (h *Handler) payout(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, caller domain.Account, saleID int64) (int64, error)) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}
	amount, err := op(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: amount})
}
