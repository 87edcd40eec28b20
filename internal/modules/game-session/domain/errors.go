package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTimeControl   = errors.New("invalid time control")
	ErrQueueLockTimeout     = errors.New("timed out waiting for queue")
	ErrInvalidInviteCode    = errors.New("invalid invite code")
	ErrSelfRedeem           = errors.New("cannot join your own invite")
	ErrAlreadyInSession     = errors.New("participant already in an active game")
	ErrNotInSession         = errors.New("participant has no active game")
	ErrNotParticipant       = errors.New("not a participant of this game")
	ErrGameNotActive        = errors.New("game is not active")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrDrawAlreadyPending   = errors.New("draw already offered")
	ErrNoDrawPending        = errors.New("no draw offer pending")
	ErrCannotAcceptOwnOffer = errors.New("cannot answer your own draw offer")
	ErrEmptyMessage         = errors.New("message cannot be empty")
	ErrMessageTooLong       = errors.New("message too long")
	ErrMalformedPayload     = errors.New("malformed payload")
	ErrOracleFailure        = errors.New("move validation failed unexpectedly")
	ErrSessionFault         = errors.New("game session fault")
	ErrAlreadyConnected     = errors.New("participant already connected")
)

// MoveRejectedError carries the oracle's reason for refusing a move.
type MoveRejectedError struct {
	Reason string
}

func (e MoveRejectedError) Error() string {
	return fmt.Sprintf("invalid move: %s", e.Reason)
}

// IsSilent reports whether err is dropped without telling the client.
// Out-of-turn moves and redeeming one's own invite are ignored the way
// a stale UI click would be.
func IsSilent(err error) bool {
	return errors.Is(err, ErrNotYourTurn) || errors.Is(err, ErrSelfRedeem)
}
