package service

import "errors"

var (
	// not found: logged, never surfaced
	ErrSessionNotFound = errors.New("session not found")
	ErrCardNotFound    = errors.New("card not found")
	ErrNotAPlayer      = errors.New("user is not a player of this session")

	// ownership: a no-op for stale clients
	ErrCardUnavailable = errors.New("card is reserved by another player")
	ErrNotCardOwner    = errors.New("card is not reserved by this player")

	// surfaced to the requesting client
	ErrInvalidClaim = errors.New("invalid claim")
	ErrInvalidState = errors.New("session is not in a state that allows this")
	ErrInvalidStake = errors.New("stake is not offered")
)

// IsSilent reports whether err is a not-found or ownership failure. Those are
// logged and otherwise dropped.
func IsSilent(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrCardNotFound) ||
		errors.Is(err, ErrNotAPlayer) ||
		errors.Is(err, ErrCardUnavailable) ||
		errors.Is(err, ErrNotCardOwner)
}

// IsRejected reports whether err is a client error whose message is sent
// back to the requester.
func IsRejected(err error) bool {
	return errors.Is(err, ErrInvalidClaim) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrInvalidStake)
}
