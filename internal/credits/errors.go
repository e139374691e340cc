package credits

import "errors"

// ErrInsufficient indicates the balance cannot cover the requested amount.
var ErrInsufficient = errors.New("insufficient credits")

// ErrInvalidAmount is returned for non-positive consume or grant amounts.
var ErrInvalidAmount = errors.New("amount must be positive")
