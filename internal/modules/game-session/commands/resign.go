package commands

import (
	"context"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
)

type ResignCommand struct {
	ParticipantID domain.ParticipantID `json:"-"`
}

func (c ResignCommand) Actor() domain.ParticipantID { return c.ParticipantID }

func (c ResignCommand) Validate() error {
	return validateParticipantID(c.ParticipantID)
}

type ResignCommandHandler struct {
	sessions SessionFinder
}

func NewResignCommandHandler(sessions SessionFinder) *ResignCommandHandler {
	return &ResignCommandHandler{sessions}
}

func (h *ResignCommandHandler) Handle(
	ctx context.Context,
	request ResignCommand,
) (core.Unit, error) {
	session, err := sessionOf(h.sessions, request.ParticipantID)
	if err != nil {
		return core.Unit{}, ToCommandError(err)
	}

	return core.Unit{}, ToCommandError(session.Resign(request.ParticipantID))
}
