package commands

import (
	"context"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/matchmaking"
)

// DisconnectCommand is raised by the transport when a participant's
// connection goes away. Conn is the connection that went away; state
// already moved to a newer connection is left alone.
type DisconnectCommand struct {
	ParticipantID domain.ParticipantID `json:"-"`
	Conn          domain.Connection    `json:"-"`
}

func (c DisconnectCommand) Actor() domain.ParticipantID { return c.ParticipantID }

func (c DisconnectCommand) Validate() error {
	return validateParticipantID(c.ParticipantID)
}

type DisconnectCommandHandler struct {
	matchmaker *matchmaking.Matchmaker
}

func NewDisconnectCommandHandler(matchmaker *matchmaking.Matchmaker) *DisconnectCommandHandler {
	return &DisconnectCommandHandler{matchmaker}
}

func (h *DisconnectCommandHandler) Handle(
	ctx context.Context,
	request DisconnectCommand,
) (core.Unit, error) {
	h.matchmaker.Disconnect(ctx, request.ParticipantID, request.Conn)

	session, ok := h.matchmaker.Registry().Lookup(request.ParticipantID)
	if !ok {
		return core.Unit{}, nil
	}

	return core.Unit{}, ToCommandError(session.Disconnect(request.ParticipantID, request.Conn))
}
