package domain

import "encoding/json"

// Outcome is a terminal classification reported by the oracle after an
// accepted move.
type Outcome string

const (
	OutcomeNone                 Outcome = ""
	OutcomeCheckmate            Outcome = "checkmate"
	OutcomeStalemate            Outcome = "stalemate"
	OutcomeInsufficientMaterial Outcome = "insufficient_material"
	OutcomeThreefoldRepetition  Outcome = "threefold_repetition"
	OutcomeFiftyMoves           Outcome = "fifty_moves"
	OutcomeDraw                 Outcome = "draw"
)

type MoveResult struct {
	Accepted bool
	Reason   string
	Outcome  Outcome
	// Move is the move as relayed to the opponent. When empty the
	// submitted payload is relayed unchanged.
	Move json.RawMessage
}

func Accepted(outcome Outcome) MoveResult {
	return MoveResult{Accepted: true, Outcome: outcome}
}

func Rejected(reason string) MoveResult {
	return MoveResult{Reason: reason}
}

// MoveOracle decides legality and terminal outcomes for one game. An
// error means the oracle itself failed, not that the move was illegal.
type MoveOracle interface {
	Attempt(move json.RawMessage) (MoveResult, error)
}

// OracleFactory builds a fresh oracle for every new session.
type OracleFactory func() MoveOracle
