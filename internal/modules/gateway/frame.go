package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eskrenkovic/matchroom/internal/modules/game-session/commands"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
)

type FrameType string

const (
	FrameJoinQueue     FrameType = "join_queue"
	FrameCreateInvite  FrameType = "create_invite"
	FrameJoinViaInvite FrameType = "join_via_invite"
	FrameLeaveQueue    FrameType = "leave_queue"
	FrameMove          FrameType = "move"
	FrameResign        FrameType = "resign"
	FrameOfferDraw     FrameType = "offer_draw"
	FrameAcceptDraw    FrameType = "accept_draw"
	FrameRejectDraw    FrameType = "reject_draw"
	FrameChat          FrameType = "chat"
)

var errUnknownFrameType = errors.New("unknown frame type")

// Frame is an inbound client message.
type Frame struct {
	Type    FrameType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type timeControlPayload struct {
	TimeControl domain.TimeControl `json:"timeControl"`
}

type invitePayload struct {
	Code string `json:"code"`
}

type chatPayload struct {
	Text string `json:"text"`
}

// decodeAction turns a frame sent by p into the matching action.
func decodeAction(frame Frame, p domain.Participant) (commands.Action, error) {
	switch frame.Type {
	case FrameJoinQueue:
		var payload timeControlPayload
		if err := decodePayload(frame, &payload); err != nil {
			return nil, err
		}
		return commands.JoinQueueCommand{Participant: p, TimeControl: payload.TimeControl}, nil
	case FrameCreateInvite:
		var payload timeControlPayload
		if err := decodePayload(frame, &payload); err != nil {
			return nil, err
		}
		return commands.CreateInviteCommand{Participant: p, TimeControl: payload.TimeControl}, nil
	case FrameJoinViaInvite:
		var payload invitePayload
		if err := decodePayload(frame, &payload); err != nil {
			return nil, err
		}
		return commands.JoinViaInviteCommand{Participant: p, Code: payload.Code}, nil
	case FrameLeaveQueue:
		return commands.LeaveQueueCommand{ParticipantID: p.ID}, nil
	case FrameMove:
		return commands.MoveCommand{ParticipantID: p.ID, Move: frame.Payload}, nil
	case FrameResign:
		return commands.ResignCommand{ParticipantID: p.ID}, nil
	case FrameOfferDraw:
		return commands.OfferDrawCommand{ParticipantID: p.ID}, nil
	case FrameAcceptDraw:
		return commands.AcceptDrawCommand{ParticipantID: p.ID}, nil
	case FrameRejectDraw:
		return commands.RejectDrawCommand{ParticipantID: p.ID}, nil
	case FrameChat:
		var payload chatPayload
		if err := decodePayload(frame, &payload); err != nil {
			return nil, err
		}
		return commands.ChatCommand{ParticipantID: p.ID, Text: payload.Text}, nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownFrameType, frame.Type)
	}
}

func decodePayload(frame Frame, target any) error {
	if len(frame.Payload) == 0 {
		return fmt.Errorf("%s: missing payload: %w", frame.Type, domain.ErrMalformedPayload)
	}
	if err := json.Unmarshal(frame.Payload, target); err != nil {
		return fmt.Errorf("%s: %s: %w", frame.Type, err.Error(), domain.ErrMalformedPayload)
	}
	return nil
}
