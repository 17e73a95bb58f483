package domain

import (
	"errors"
	"fmt"
)

// ErrorKind groups ledger errors by the class of precondition they violate.
type ErrorKind string

const (
	KindValidation    ErrorKind = "VALIDATION"
	KindState         ErrorKind = "STATE"
	KindAuthorization ErrorKind = "AUTHORIZATION"
	KindArithmetic    ErrorKind = "ARITHMETIC"
	KindTemporal      ErrorKind = "TEMPORAL"
)

// Error is a failed precondition. Code is stable and meant for clients; every
// condition has its own code.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation
var (
	ErrTotalIDSizeMismatch    = newError(KindValidation, "TOTAL_ID_SIZE_MISMATCH", "tokens total and id arrays differ in length")
	ErrDeadlineIDSizeMismatch = newError(KindValidation, "DEADLINE_ID_SIZE_MISMATCH", "deadline and id arrays differ in length")
	ErrPriceIDSizeMismatch    = newError(KindValidation, "PRICE_ID_SIZE_MISMATCH", "price and id arrays differ in length")
	ErrURIIDSizeMismatch      = newError(KindValidation, "URI_ID_SIZE_MISMATCH", "uri and id arrays differ in length")
	ErrEmptyBatch             = newError(KindValidation, "EMPTY_BATCH", "batch contains no sales")
	ErrSellerAddrIsZero       = newError(KindValidation, "INVEST_ADDR_IS_ZERO", "new authorized seller is the zero account")
	ErrLedgerAddrIsZero       = newError(KindValidation, "NFT_ADDR_IS_ZERO", "authorized seller is the zero account")
	ErrZeroTokensTotal        = newError(KindValidation, "ZERO_TOKENS_TOTAL", "a sale needs at least one token")
	ErrPriceTooLow            = newError(KindValidation, "PRICE_TOO_LOW", "price per token must be positive")
	ErrZeroAmount             = newError(KindValidation, "ZERO_AMOUNT", "amount must be positive")
	ErrNegativeAmount         = newError(KindValidation, "NEGATIVE_AMOUNT", "amount must not be negative")
	ErrZeroDaysRental         = newError(KindValidation, "ZERO_DAYS_RENTAL", "rental must last at least one day")
	ErrRentPriceTooLow        = newError(KindValidation, "RENT_PRICE_TOO_LOW", "rent price per day must be positive")
	ErrTransferToZero         = newError(KindValidation, "TRANSFER_TO_ZERO", "transfer to the zero account")
	ErrSelfApproval           = newError(KindValidation, "SELF_APPROVAL", "setting approval status for self")
)

// Lifecycle and state
var (
	ErrLedgerNotLinked     = newError(KindState, "NFT_CONTRACT_NOT_SET", "asset ledger has no authorized seller")
	ErrLedgerAlreadyLinked = newError(KindState, "NFT_CONTRACT_ALREADY_SET", "asset ledger already has an authorized seller")
	ErrSaleAlreadyStarted  = newError(KindState, "SaleAlreadyStarted", "sale has already started")
	ErrSaleNotActive       = newError(KindState, "SALE_NOT_ACTIVE", "sale is not active")
	ErrSaleNotSold         = newError(KindState, "SALE_NOT_SOLD", "sale is not sold")
	ErrNotRefundPeriod     = newError(KindState, "NOT_REFUND_PERIOD", "sale is not in refund")
	ErrRefundZeroBalance   = newError(KindState, "REFUND_ZERO_BALANCE", "nothing to refund")
	ErrNoFundsLeft         = newError(KindState, "NO_ETH_LEFT", "no funds left to sweep")
	ErrNotBoughtYet        = newError(KindState, "NOT_BOUGHT_YET", "sale has not been bought")
	ErrCarAlreadyAdded     = newError(KindState, "CAR_ALREADY_ADDED", "car already registered for this sale")
	ErrWrongCarID          = newError(KindState, "WRONG_CAR_ID", "no car registered for this sale")
	ErrCarIsRented         = newError(KindState, "CAR_IS_RENTED", "car is currently rented")
	ErrNoLockedTokens      = newError(KindState, "NO_LOCKED_TOKENS", "no locked tokens")
	ErrNoClaimableReward   = newError(KindState, "NO_CLAIMABLE_REWARD", "no claimable reward")
	ErrNoWithdrawable      = newError(KindState, "NO_WITHDRAWABLE_REWARD", "no withdrawable reward")
	ErrNothingToSweep      = newError(KindState, "NOTHING_TO_SWEEP", "unallocated pool is empty")
)

// Authorization
var (
	ErrNotOwner            = newError(KindAuthorization, "NOT_OWNER", "caller is not the owner")
	ErrNotInvestor         = newError(KindAuthorization, "NOT_INVESTOR", "caller holds no shares of this sale")
	ErrNotAuthorizedSeller = newError(KindAuthorization, "NOT_INVEST_CONTRACT", "caller is not the authorized seller")
	ErrNotApproved         = newError(KindAuthorization, "NOT_APPROVED", "caller is not owner nor approved")
	ErrUnauthenticated     = newError(KindAuthorization, "UNAUTHENTICATED", "caller is not authenticated")
)

// Arithmetic and exactness
var (
	ErrTooManyTokens       = newError(KindArithmetic, "TooManyTokens", "requested more tokens than available")
	ErrWrongAmountOfEther  = newError(KindArithmetic, "WrongAmountOfEther", "payment does not match the required amount")
	ErrTooManyLockedTokens = newError(KindArithmetic, "TOO_MANY_TOKENS", "amount exceeds locked balance")
	ErrInsufficientBalance = newError(KindArithmetic, "INSUFFICIENT_BALANCE", "insufficient balance for transfer")
	ErrArithmeticOverflow  = newError(KindArithmetic, "ARITHMETIC_OVERFLOW", "amount overflows")
)

// Temporal
var (
	ErrDeadlineIsInPast  = newError(KindTemporal, "DeadlineIsInPast", "deadline is not in the future")
	ErrSaleIsOver        = newError(KindTemporal, "SALE_IS_OVER", "sale deadline has passed")
	ErrSaleNotOver       = newError(KindTemporal, "SALE_NOT_OVER", "sale deadline has not passed")
	ErrRefundPeriodEnded = newError(KindTemporal, "REFUND_PERIOD_ENDED", "refund window has closed")
	ErrCantSweepYet      = newError(KindTemporal, "CANT_SWEEP_YET", "refund window is still open")
)

// TooManyTokensError reports an investment larger than the remaining supply.
type TooManyTokensError struct {
	Requested int64
	Available int64
}

func (e *TooManyTokensError) Error() string {
	return fmt.Sprintf("%s(%d, %d)", ErrTooManyTokens.Code, e.Requested, e.Available)
}

func (e *TooManyTokensError) Unwrap() error { return ErrTooManyTokens }

func (e *TooManyTokensError) Details() map[string]any {
	return map[string]any{"requested": e.Requested, "available": e.Available}
}

// WrongPaymentError reports a payment that is not exactly the required amount.
type WrongPaymentError struct {
	Sent     int64
	Expected int64
}

func (e *WrongPaymentError) Error() string {
	return fmt.Sprintf("%s(%d, %d)", ErrWrongAmountOfEther.Code, e.Sent, e.Expected)
}

func (e *WrongPaymentError) Unwrap() error { return ErrWrongAmountOfEther }

func (e *WrongPaymentError) Details() map[string]any {
	return map[string]any{"sent": e.Sent, "expected": e.Expected}
}

// SaleAlreadyStartedError names the sale that blocked a start.
type SaleAlreadyStartedError struct {
	SaleID int64
}

func (e *SaleAlreadyStartedError) Error() string {
	return fmt.Sprintf("%s(%d)", ErrSaleAlreadyStarted.Code, e.SaleID)
}

func (e *SaleAlreadyStartedError) Unwrap() error { return ErrSaleAlreadyStarted }

func (e *SaleAlreadyStartedError) Details() map[string]any {
	return map[string]any{"sale_id": e.SaleID}
}

// DeadlineInPastError names the sale whose deadline is not in the future.
type DeadlineInPastError struct {
	SaleID   int64
	Deadline int64
	Now      int64
}

func (e *DeadlineInPastError) Error() string {
	return fmt.Sprintf("%s(%d)", ErrDeadlineIsInPast.Code, e.SaleID)
}

func (e *DeadlineInPastError) Unwrap() error { return ErrDeadlineIsInPast }

func (e *DeadlineInPastError) Details() map[string]any {
	return map[string]any{"sale_id": e.SaleID, "deadline": e.Deadline, "now": e.Now}
}

// AsError returns the ledger error carried by err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of the ledger error carried by err, or "" for
// infrastructure errors.
func KindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return ""
}

// DetailsOf returns the structured arguments of a parameterized error.
func DetailsOf(err error) map[string]any {
	var d interface{ Details() map[string]any }
	if errors.As(err, &d) {
		return d.Details()
	}
	return nil
}

// MulAmount multiplies two non-negative amounts, failing on int64 overflow.
func MulAmount(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	c := a * b
	if c/b != a || c < 0 {
		return 0, ErrArithmeticOverflow
	}
	return c, nil
}

// AddAmount adds two non-negative amounts, failing on int64 overflow.
func AddAmount(a, b int64) (int64, error) {
	c := a + b
	if c < a {
		return 0, ErrArithmeticOverflow
	}
	return c, nil
}
