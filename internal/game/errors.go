package game

import "errors"

var (
	ErrPhaseMismatch    = errors.New("not allowed in the current phase")
	ErrTransportLost    = errors.New("connection unavailable")
	ErrClaimRejected    = errors.New("claim rejected")
	ErrClaimPending     = errors.New("claim already submitted")
	ErrNoWinningPattern = errors.New("no winning pattern on the card")
	ErrNoCard           = errors.New("no card selected")
	ErrNotOnCard        = errors.New("number is not on the card")
)
