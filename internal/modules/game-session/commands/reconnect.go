package commands

import (
	"context"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
)

// ReconnectCommand attaches a new connection to a participant who is
// still seated in a running session.
type ReconnectCommand struct {
	Participant domain.Participant `json:"-"`
}

func (c ReconnectCommand) Actor() domain.ParticipantID { return c.Participant.ID }

func (c ReconnectCommand) Validate() error {
	return validateParticipant(c.Participant)
}

type ReconnectCommandHandler struct {
	sessions SessionFinder
}

func NewReconnectCommandHandler(sessions SessionFinder) *ReconnectCommandHandler {
	return &ReconnectCommandHandler{sessions}
}

func (h *ReconnectCommandHandler) Handle(
	ctx context.Context,
	request ReconnectCommand,
) (core.Unit, error) {
	session, err := sessionOf(h.sessions, request.Participant.ID)
	if err != nil {
		return core.Unit{}, ToCommandError(err)
	}

	return core.Unit{}, ToCommandError(session.Reconnect(request.Participant.ID, request.Participant.Conn))
}
