package domain

type EventName string

const (
	EventSaleStarted                    EventName = "SaleStarted"
	EventBatchSaleStarted               EventName = "BatchSaleStarted"
	EventUserInvested                   EventName = "UserInvested"
	EventSaleFinalized                  EventName = "SaleFinalized"
	EventInvestedFundsWithdrawn         EventName = "InvestedFundsWithdrawn"
	EventRefundSent                     EventName = "RefundSent"
	EventResidualFundsSwept             EventName = "ResidualFundsSwept"
	EventURIUpdated                     EventName = "URIUpdated"
	EventAuthorizedSellerChanged        EventName = "AuthorizedSellerChanged"
	EventNewCarAdded                    EventName = "NewCarAdded"
	EventInvestorLockedTokens           EventName = "InvestorLockedTokens"
	EventInvestorUnlockedTokens         EventName = "InvestorUnlockedTokens"
	EventCarWasRented                   EventName = "CarWasRented"
	EventUpdatedInvestorClaimableReward EventName = "UpdatedInvestorClaimableReward"
	EventInvestorWithdrawedReward       EventName = "InvestorWithdrawedReward"
	EventUnallocatedFundsSwept          EventName = "UnallocatedFundsSwept"
)

// Event is a notification emitted by a successful operation. It is stored in
// the same transaction as the state change and published after commit.
type Event struct {
	ID         string         `json:"id"`
	Seq        int64          `json:"seq"`
	Name       EventName      `json:"name"`
	SaleID     *int64         `json:"sale_id,omitempty"`
	Account    Account        `json:"account,omitempty"`
	Attributes map[string]any `json:"attributes"`
	CreatedAt  int64          `json:"created_at"`
}
