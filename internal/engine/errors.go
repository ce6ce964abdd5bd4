package engine

import "errors"

// Engine errors. Every operation is all-or-nothing: a returned error means
// no observable state changed, and nothing is retried in the background.
var (
	// ErrUnauthorized is returned when the caller lacks the required
	// role or relationship to the auction.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned for an unknown auction or bid.
	ErrNotFound = errors.New("auction not found")

	// ErrNotReady is returned when completion is attempted before the
	// deadline.
	ErrNotReady = errors.New("deadline not reached")

	// ErrAuctionExpired is returned when a bid arrives at or after the
	// deadline.
	ErrAuctionExpired = errors.New("auction deadline passed")

	// ErrAlreadySettled is returned when the auction is no longer open.
	ErrAlreadySettled = errors.New("auction already settled")

	// ErrBidTooLow is returned when a bid fails the reserve-price or
	// strict-increase check.
	ErrBidTooLow = errors.New("bid too low")

	// ErrTransferRejected is returned when a collaborator transfer
	// failed: insufficient balance, allowance, ownership or approval.
	ErrTransferRejected = errors.New("transfer rejected")

	// ErrAlreadyRefunded is returned when claiming a bid that was
	// already refunded.
	ErrAlreadyRefunded = errors.New("bid already refunded")

	// ErrNotEligible is returned when claiming the winning bid, or
	// claiming against an auction whose policy has no claim path.
	ErrNotEligible = errors.New("bid not eligible for refund")

	// ErrNoBids is returned when completing an auction that never
	// received an eligible bid; the asset stays in custody.
	ErrNoBids = errors.New("no bids placed")

	// ErrBadDeadline is returned when creating an auction whose deadline
	// is not strictly in the future.
	ErrBadDeadline = errors.New("deadline must be in the future")

	// ErrTokenNotAllowed is returned when creating a token-denominated
	// auction for a mint that is not allow-listed.
	ErrTokenNotAllowed = errors.New("token not allow-listed")

	// ErrValueMismatch is returned when a native-currency bid's attached
	// value does not equal the bid amount exactly.
	ErrValueMismatch = errors.New("attached value does not match bid amount")
)
