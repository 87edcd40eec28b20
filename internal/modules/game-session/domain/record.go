package domain

import (
	"context"
	"time"
)

type EndReason string

const (
	ReasonCheckmate            EndReason = "checkmate"
	ReasonStalemate            EndReason = "stalemate"
	ReasonInsufficientMaterial EndReason = "insufficient_material"
	ReasonThreefoldRepetition  EndReason = "threefold_repetition"
	ReasonFiftyMoves           EndReason = "fifty_moves"
	ReasonDraw                 EndReason = "draw"
	ReasonResign               EndReason = "resign"
	ReasonTimeout              EndReason = "timeout"
	ReasonAbort                EndReason = "abort"
	ReasonDrawByAgreement      EndReason = "draw_by_agreement"
)

func reasonFor(outcome Outcome) EndReason {
	switch outcome {
	case OutcomeCheckmate:
		return ReasonCheckmate
	case OutcomeStalemate:
		return ReasonStalemate
	case OutcomeInsufficientMaterial:
		return ReasonInsufficientMaterial
	case OutcomeThreefoldRepetition:
		return ReasonThreefoldRepetition
	case OutcomeFiftyMoves:
		return ReasonFiftyMoves
	default:
		return ReasonDraw
	}
}

// GameRecord summarizes a finished game for storage.
type GameRecord struct {
	SessionID   string        `json:"sessionId"`
	WhiteID     ParticipantID `json:"whiteId"`
	WhiteName   string        `json:"whiteName"`
	BlackID     ParticipantID `json:"blackId"`
	BlackName   string        `json:"blackName"`
	TimeControl TimeControl   `json:"timeControl"`
	Reason      EndReason     `json:"reason"`
	Loser       *Color        `json:"loser"`
	Moves       int           `json:"moves"`
	WhiteTimeMs int64         `json:"whiteTimeMs"`
	BlackTimeMs int64         `json:"blackTimeMs"`
	StartedAt   time.Time     `json:"startedAt"`
	EndedAt     time.Time     `json:"endedAt"`
}

// Recorder persists finished games. Failures never affect the session.
type Recorder interface {
	Record(ctx context.Context, record GameRecord) error
}
