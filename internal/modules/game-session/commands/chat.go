package commands

import (
	"context"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
)

type ChatCommand struct {
	ParticipantID domain.ParticipantID `json:"-"`
	Text          string               `json:"text"`
}

func (c ChatCommand) Actor() domain.ParticipantID { return c.ParticipantID }

// Validate only checks the actor; text limits belong to the session.
func (c ChatCommand) Validate() error {
	return validateParticipantID(c.ParticipantID)
}

type ChatCommandHandler struct {
	sessions SessionFinder
}

func NewChatCommandHandler(sessions SessionFinder) *ChatCommandHandler {
	return &ChatCommandHandler{sessions}
}

func (h *ChatCommandHandler) Handle(
	ctx context.Context,
	request ChatCommand,
) (core.Unit, error) {
	session, err := sessionOf(h.sessions, request.ParticipantID)
	if err != nil {
		return core.Unit{}, ToCommandError(err)
	}

	return core.Unit{}, ToCommandError(session.Chat(request.ParticipantID, request.Text))
}
