package domain

import (
	"encoding/json"
	"fmt"
)

type SaleStatus int

// Numeric values are part of the wire format and must not be reordered.
const (
	SaleStatusInactive SaleStatus = iota
	SaleStatusActive
	SaleStatusSold
	SaleStatusRefund
	SaleStatusWithdrawnByOwner
)

var saleStatusNames = map[SaleStatus]string{
	SaleStatusInactive:         "INACTIVE",
	SaleStatusActive:           "ACTIVE",
	SaleStatusSold:             "SOLD",
	SaleStatusRefund:           "REFUND",
	SaleStatusWithdrawnByOwner: "WITHDRAWN_BY_OWNER",
}

func (s SaleStatus) String() string {
	if name, ok := saleStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SaleStatus(%d)", int(s))
}

func (s SaleStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SaleStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		var n int
		if err2 := json.Unmarshal(data, &n); err2 != nil {
			return err
		}
		*s = SaleStatus(n)
		return nil
	}
	parsed, err := ParseSaleStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSaleStatus accepts the names produced by SaleStatus.String.
func ParseSaleStatus(name string) (SaleStatus, error) {
	for status, n := range saleStatusNames {
		if n == name {
			return status, nil
		}
	}
	return SaleStatusInactive, fmt.Errorf("unknown sale status %q", name)
}

// IsBought reports whether the sale completed successfully, whether or not the
// owner has already withdrawn the proceeds.
func (s SaleStatus) IsBought() bool {
	return s == SaleStatusSold || s == SaleStatusWithdrawnByOwner
}

type Sale struct {
	ID                 int64      `json:"id"`
	Status             SaleStatus `json:"status"`
	TokensTotal        int64      `json:"tokens_total"`
	TokensOwnedByUsers int64      `json:"tokens_owned_by_users"`
	Deadline           int64      `json:"deadline"`
	PricePerToken      int64      `json:"price_per_token"`
	MetadataURI        string     `json:"metadata_uri"`
	// Collected is the payment balance held in custody for this sale.
	Collected int64 `json:"collected"`
}

// TokensAvailable is the number of escrowed shares still for sale.
func (s *Sale) TokensAvailable() int64 {
	return s.TokensTotal - s.TokensOwnedByUsers
}

// SaleParams carries everything needed to start one sale.
type SaleParams struct {
	ID            int64  `json:"id" yaml:"id"`
	TokensTotal   int64  `json:"tokens_total" yaml:"tokens_total"`
	Deadline      int64  `json:"deadline" yaml:"deadline"`
	PricePerToken int64  `json:"price_per_token" yaml:"price_per_token"`
	URI           string `json:"uri" yaml:"uri"`
}

// SaleParamsFromColumns converts the parallel-array batch form into records.
// Each auxiliary column is checked against the id column separately so the
// caller learns which one is misaligned.
func SaleParamsFromColumns(ids, totals, deadlines, prices []int64, uris []string) ([]SaleParams, error) {
	if len(totals) != len(ids) {
		return nil, ErrTotalIDSizeMismatch
	}
	if len(deadlines) != len(ids) {
		return nil, ErrDeadlineIDSizeMismatch
	}
	if len(prices) != len(ids) {
		return nil, ErrPriceIDSizeMismatch
	}
	if len(uris) != len(ids) {
		return nil, ErrURIIDSizeMismatch
	}

	params := make([]SaleParams, len(ids))
	for i, id := range ids {
		params[i] = SaleParams{
			ID:            id,
			TokensTotal:   totals[i],
			Deadline:      deadlines[i],
			PricePerToken: prices[i],
			URI:           uris[i],
		}
	}
	return params, nil
}
