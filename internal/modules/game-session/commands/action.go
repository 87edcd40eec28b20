package commands

import (
	"context"
	"fmt"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"

	"github.com/eskrenkovic/mediator-go"
	"go.uber.org/zap"
)

// Action is the closed set of participant actions. Only types in this
// package implement it.
type Action interface {
	Actor() domain.ParticipantID
	action()
}

func (c JoinQueueCommand) action()     {}
func (c CreateInviteCommand) action()  {}
func (c JoinViaInviteCommand) action() {}
func (c LeaveQueueCommand) action()    {}
func (c MoveCommand) action()          {}
func (c ResignCommand) action()        {}
func (c OfferDrawCommand) action()     {}
func (c AcceptDrawCommand) action()    {}
func (c RejectDrawCommand) action()    {}
func (c ChatCommand) action()          {}
func (c DisconnectCommand) action()    {}
func (c ReconnectCommand) action()     {}

// Dispatch sends action through the mediator to its handler.
func Dispatch(ctx context.Context, action Action) (interface{}, error) {
	switch a := action.(type) {
	case JoinQueueCommand:
		return mediator.Send[JoinQueueCommand, JoinQueueResponse](ctx, a)
	case CreateInviteCommand:
		return mediator.Send[CreateInviteCommand, CreateInviteResponse](ctx, a)
	case JoinViaInviteCommand:
		return mediator.Send[JoinViaInviteCommand, JoinViaInviteResponse](ctx, a)
	case LeaveQueueCommand:
		return mediator.Send[LeaveQueueCommand, core.Unit](ctx, a)
	case MoveCommand:
		return mediator.Send[MoveCommand, core.Unit](ctx, a)
	case ResignCommand:
		return mediator.Send[ResignCommand, core.Unit](ctx, a)
	case OfferDrawCommand:
		return mediator.Send[OfferDrawCommand, core.Unit](ctx, a)
	case AcceptDrawCommand:
		return mediator.Send[AcceptDrawCommand, core.Unit](ctx, a)
	case RejectDrawCommand:
		return mediator.Send[RejectDrawCommand, core.Unit](ctx, a)
	case ChatCommand:
		return mediator.Send[ChatCommand, core.Unit](ctx, a)
	case DisconnectCommand:
		return mediator.Send[DisconnectCommand, core.Unit](ctx, a)
	case ReconnectCommand:
		return mediator.Send[ReconnectCommand, core.Unit](ctx, a)
	default:
		return nil, fmt.Errorf("unsupported action %T", action)
	}
}

func validateParticipantID(id domain.ParticipantID) error {
	if id == "" {
		return fmt.Errorf("invalid ParticipantID - '%s'", id)
	}
	return nil
}

func validateParticipant(p domain.Participant) error {
	if err := validateParticipantID(p.ID); err != nil {
		return err
	}
	if p.Conn == nil {
		return fmt.Errorf("participant '%s' has no connection", p.ID)
	}
	return nil
}

func validateTimeControl(tc domain.TimeControl) error {
	if tc.BaseMinutes <= 0 || tc.IncrementSeconds < 0 {
		return fmt.Errorf("invalid TimeControl - '%s': %w", tc, domain.ErrInvalidTimeControl)
	}
	return nil
}

func notify(ctx context.Context, p domain.Participant, n domain.Notification) {
	if !p.Live() {
		return
	}
	if err := p.Conn.Send(n); err != nil {
		core.Logger(ctx).Warn("notification dropped",
			zap.String("participant_id", string(p.ID)),
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
	}
}

// SessionFinder resolves the session a participant is seated in.
type SessionFinder interface {
	Lookup(id domain.ParticipantID) (*domain.GameSession, bool)
}

func sessionOf(finder SessionFinder, id domain.ParticipantID) (*domain.GameSession, error) {
	session, ok := finder.Lookup(id)
	if !ok {
		return nil, domain.ErrNotInSession
	}
	return session, nil
}
