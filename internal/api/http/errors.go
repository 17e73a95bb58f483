package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"carshare-ledger/internal/domain"
	"carshare-ledger/internal/logger"
	"carshare-ledger/internal/repository"
)

var (
	errBadRequest = &domain.Error{Kind: domain.KindValidation, Code: "BAD_REQUEST", Message: "request body is not valid"}
	errInvalidID  = &domain.Error{Kind: domain.KindValidation, Code: "INVALID_ID", Message: "path id is not an integer"}
	errForbidden  = &domain.Error{Kind: domain.KindAuthorization, Code: "FORBIDDEN", Message: "account belongs to another caller"}
)

type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// statusFor maps a ledger error kind to the HTTP status returned for it.
func statusFor(err error) int {
	if errors.Is(err, domain.ErrUnauthenticated) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, repository.ErrConflict) {
		return http.StatusConflict
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindState, domain.KindTemporal:
		return http.StatusConflict
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindArithmetic:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Details: domain.DetailsOf(err)}

	switch {
	case domain.KindOf(err) != "":
		e, _ := domain.AsError(err)
		resp.Code = e.Code
		resp.Message = e.Message
	case errors.Is(err, repository.ErrConflict):
		resp.Code = "CONFLICT"
		resp.Message = "concurrent update, retry the request"
	default:
		resp.Code = "INTERNAL"
		resp.Message = "internal error"
		logger.FromContext(r.Context()).Error("Request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, resp)
}
