package commands

import (
	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/matchmaking"

	"github.com/eskrenkovic/mediator-go"
)

// RegisterHandlers wires every action handler into the mediator.
func RegisterHandlers(matchmaker *matchmaking.Matchmaker) error {
	sessions := matchmaker.Registry()

	err := mediator.RegisterRequestHandler[JoinQueueCommand, JoinQueueResponse](
		NewJoinQueueCommandHandler(matchmaker),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[CreateInviteCommand, CreateInviteResponse](
		NewCreateInviteCommandHandler(matchmaker),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[JoinViaInviteCommand, JoinViaInviteResponse](
		NewJoinViaInviteCommandHandler(matchmaker),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[LeaveQueueCommand, core.Unit](
		NewLeaveQueueCommandHandler(matchmaker),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[MoveCommand, core.Unit](
		NewMoveCommandHandler(sessions),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[ResignCommand, core.Unit](
		NewResignCommandHandler(sessions),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[OfferDrawCommand, core.Unit](
		NewOfferDrawCommandHandler(sessions),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[AcceptDrawCommand, core.Unit](
		NewAcceptDrawCommandHandler(sessions),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[RejectDrawCommand, core.Unit](
		NewRejectDrawCommandHandler(sessions),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[ChatCommand, core.Unit](
		NewChatCommandHandler(sessions),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[DisconnectCommand, core.Unit](
		NewDisconnectCommandHandler(matchmaker),
	)
	if err != nil {
		return err
	}

	return mediator.RegisterRequestHandler[ReconnectCommand, core.Unit](
		NewReconnectCommandHandler(sessions),
	)
}
