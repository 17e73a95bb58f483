package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/security"
	"carshare-ledger/internal/service"
)

// Handler serves the ledger JSON API.
type Handler struct {
	sales   service.SaleService
	rewards service.RewardsService
	shares  service.ShareService
	ledger  service.LedgerService
}

func NewHandler(sales service.SaleService, rewards service.RewardsService, shares service.ShareService, ledger service.LedgerService) *Handler {
	return &Handler{sales: sales, rewards: rewards, shares: shares, ledger: ledger}
}

// NewRouter registers every API route on a fresh router.
func NewRouter(h *Handler, tm security.TokenManager) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware, loggingMiddleware, NewAuthMiddleware(tm).Handler)

	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/ledger/link", h.LinkAssetLedger).Methods(http.MethodPost)
	api.HandleFunc("/ledger/authorized-seller", h.GetAuthorizedSeller).Methods(http.MethodGet)
	api.HandleFunc("/ledger/authorized-seller", h.UpgradeAuthorizedSeller).Methods(http.MethodPut)

	api.HandleFunc("/sales", h.ListSales).Methods(http.MethodGet)
	api.HandleFunc("/sales", h.StartNewSale).Methods(http.MethodPost)
	api.HandleFunc("/sales/batch", h.StartNewSales).Methods(http.MethodPost)
	api.HandleFunc("/sales/{id}", h.GetSaleInfo).Methods(http.MethodGet)
	api.HandleFunc("/sales/{id}/investments", h.Invest).Methods(http.MethodPost)
	api.HandleFunc("/sales/{id}/finalize", h.FinalizeSale).Methods(http.MethodPost)
	api.HandleFunc("/sales/{id}/withdraw", h.WithdrawInvestedFunds).Methods(http.MethodPost)
	api.HandleFunc("/sales/{id}/refund", h.GetRefund).Methods(http.MethodPost)
	api.HandleFunc("/sales/{id}/sweep", h.SweepFunds).Methods(http.MethodPost)
	api.HandleFunc("/sales/{id}/uri", h.UpdateURI).Methods(http.MethodPut)
	api.HandleFunc("/sales/{id}/contributions/{account}", h.GetContribution).Methods(http.MethodGet)

	api.HandleFunc("/shares/approvals", h.SetApprovalForAll).Methods(http.MethodPost)
	api.HandleFunc("/shares/{id}", h.GetShare).Methods(http.MethodGet)
	api.HandleFunc("/shares/{id}/balances/{account}", h.BalanceOf).Methods(http.MethodGet)

	api.HandleFunc("/cars", h.GetAllCars).Methods(http.MethodGet)
	api.HandleFunc("/cars", h.AddCar).Methods(http.MethodPost)
	api.HandleFunc("/cars/{id}", h.GetCar).Methods(http.MethodGet)
	api.HandleFunc("/cars/{id}/lock", h.Lock).Methods(http.MethodPost)
	api.HandleFunc("/cars/{id}/unlock", h.Unlock).Methods(http.MethodPost)
	api.HandleFunc("/cars/{id}/rent", h.RentCar).Methods(http.MethodPost)
	api.HandleFunc("/cars/{id}/claim", h.ClaimReward).Methods(http.MethodPost)
	api.HandleFunc("/cars/{id}/withdraw", h.WithdrawReward).Methods(http.MethodPost)
	api.HandleFunc("/cars/{id}/rewards/{account}", h.GetWithdrawableReward).Methods(http.MethodGet)
	api.HandleFunc("/rewards/unallocated", h.GetUnallocatedPool).Methods(http.MethodGet)
	api.HandleFunc("/rewards/sweep", h.SweepAvailableFunds).Methods(http.MethodPost)

	api.HandleFunc("/accounts/{account}/balance", h.GetBalance).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{account}/transactions", h.GetTransactions).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{account}/summary", h.GetLedgerSummary).Methods(http.MethodGet)
	api.HandleFunc("/events", h.ListEvents).Methods(http.MethodGet)

	return router
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errInvalidID
	}
	return id, nil
}

func pathAccount(r *http.Request) domain.Account {
	return domain.Account(mux.Vars(r)["account"])
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errBadRequest
	}
	return nil
}

// queryInt reads an optional integer query parameter of the given bit size.
func queryInt(r *http.Request, name string, def int64, bitSize int) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, bitSize)
	if err != nil {
		return 0, errBadRequest
	}
	return v, nil
}

type amountResponse struct {
	Amount int64 `json:"amount"`
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}
