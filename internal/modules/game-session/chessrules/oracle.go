// Package chessrules adapts github.com/corentings/chess to the session's
// move oracle.
package chessrules

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"

	"github.com/corentings/chess/v2"
)

// MovePayload is the client's move. Either from/to (with an optional
// promotion piece), a UCI string or a SAN string is accepted.
type MovePayload struct {
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Promotion string `json:"promotion,omitempty"`
	UCI       string `json:"uci,omitempty"`
	SAN       string `json:"san,omitempty"`
}

// RelayedMove is what the opponent receives for an accepted move.
type RelayedMove struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
	SAN       string `json:"san"`
	UCI       string `json:"uci"`
}

type Oracle struct {
	game *chess.Game
}

func NewOracle() *Oracle {
	return &Oracle{game: chess.NewGame()}
}

func Factory() domain.OracleFactory {
	return func() domain.MoveOracle {
		return NewOracle()
	}
}

func (o *Oracle) Attempt(raw json.RawMessage) (domain.MoveResult, error) {
	var payload MovePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Rejected("malformed move"), nil
	}

	text, notation, ok := payload.notation()
	if !ok {
		return domain.Rejected("malformed move"), nil
	}

	if o.game.Outcome() != chess.NoOutcome {
		return domain.MoveResult{}, fmt.Errorf("game already decided by %s", o.game.Method())
	}

	before := o.game.Position()
	if err := o.game.PushNotationMove(text, notation, nil); err != nil {
		return domain.Rejected(fmt.Sprintf("illegal move %s", text)), nil
	}

	moves := o.game.Moves()
	if len(moves) == 0 {
		return domain.MoveResult{}, fmt.Errorf("move %s accepted but not recorded", text)
	}
	played := moves[len(moves)-1]

	outcome, err := o.outcome()
	if err != nil {
		return domain.MoveResult{}, err
	}

	relayed, err := json.Marshal(relay(played.String(), chess.AlgebraicNotation{}.Encode(before, played)))
	if err != nil {
		return domain.MoveResult{}, err
	}

	result := domain.Accepted(outcome)
	result.Move = relayed
	return result, nil
}

// FEN returns the current position.
func (o *Oracle) FEN() string {
	return o.game.FEN()
}

// outcome classifies the position after a move. Threefold repetition
// and the fifty-move rule are claimed automatically.
func (o *Oracle) outcome() (domain.Outcome, error) {
	if o.game.Outcome() == chess.NoOutcome {
		claim := chess.NoMethod
		for _, method := range o.game.EligibleDraws() {
			switch method {
			case chess.FiftyMoveRule:
				claim = method
			case chess.ThreefoldRepetition:
				if claim == chess.NoMethod {
					claim = method
				}
			}
		}
		if claim == chess.NoMethod {
			return domain.OutcomeNone, nil
		}
		if err := o.game.Draw(claim); err != nil {
			return domain.OutcomeNone, fmt.Errorf("claim %s: %w", claim, err)
		}
	}

	switch o.game.Method() {
	case chess.Checkmate:
		return domain.OutcomeCheckmate, nil
	case chess.FiftyMoveRule, chess.SeventyFiveMoveRule:
		return domain.OutcomeFiftyMoves, nil
	case chess.InsufficientMaterial:
		return domain.OutcomeInsufficientMaterial, nil
	case chess.Stalemate:
		return domain.OutcomeStalemate, nil
	case chess.ThreefoldRepetition, chess.FivefoldRepetition:
		return domain.OutcomeThreefoldRepetition, nil
	default:
		return domain.OutcomeDraw, nil
	}
}

func (p MovePayload) notation() (string, chess.Notation, bool) {
	switch {
	case p.From != "" && p.To != "":
		uci := strings.ToLower(strings.TrimSpace(p.From + p.To + p.Promotion))
		return uci, chess.UCINotation{}, len(uci) == 4 || len(uci) == 5
	case p.UCI != "":
		return strings.ToLower(strings.TrimSpace(p.UCI)), chess.UCINotation{}, true
	case p.SAN != "":
		return strings.TrimSpace(p.SAN), chess.AlgebraicNotation{}, true
	default:
		return "", nil, false
	}
}

func relay(uci, san string) RelayedMove {
	m := RelayedMove{SAN: san, UCI: uci}
	if len(uci) >= 4 {
		m.From, m.To = uci[:2], uci[2:4]
	}
	if len(uci) > 4 {
		m.Promotion = uci[4:]
	}
	return m
}
