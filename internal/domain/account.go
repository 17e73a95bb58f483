package domain

import "strings"

// Account identifies a participant: investor, renter, owner, or one of the
// service's own custody accounts (sale escrow, rewards custody).
type Account string

const zeroHexAccount = "0x0000000000000000000000000000000000000000"

// ZeroAccount is the unset account.
const ZeroAccount Account = ""

// IsZero reports whether a is empty or the all-zero hex address.
func (a Account) IsZero() bool {
	s := strings.TrimSpace(string(a))
	return s == "" || strings.EqualFold(s, zeroHexAccount)
}

func (a Account) String() string {
	return string(a)
}
