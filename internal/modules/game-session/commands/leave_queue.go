package commands

import (
	"context"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/matchmaking"
)

type LeaveQueueCommand struct {
	ParticipantID domain.ParticipantID `json:"-"`
}

func (c LeaveQueueCommand) Actor() domain.ParticipantID { return c.ParticipantID }

func (c LeaveQueueCommand) Validate() error {
	return validateParticipantID(c.ParticipantID)
}

type LeaveQueueCommandHandler struct {
	matchmaker *matchmaking.Matchmaker
}

func NewLeaveQueueCommandHandler(matchmaker *matchmaking.Matchmaker) *LeaveQueueCommandHandler {
	return &LeaveQueueCommandHandler{matchmaker}
}

func (h *LeaveQueueCommandHandler) Handle(
	ctx context.Context,
	request LeaveQueueCommand,
) (core.Unit, error) {
	h.matchmaker.Leave(ctx, request.ParticipantID)
	return core.Unit{}, nil
}
