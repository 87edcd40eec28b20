package commands

import (
	"context"

	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/matchmaking"
)

type JoinQueueCommand struct {
	Participant domain.Participant `json:"-"`
	TimeControl domain.TimeControl `json:"timeControl"`
}

func (c JoinQueueCommand) Actor() domain.ParticipantID { return c.Participant.ID }

func (c JoinQueueCommand) Validate() error {
	if err := validateParticipant(c.Participant); err != nil {
		return err
	}

	return validateTimeControl(c.TimeControl)
}

type JoinQueueResponse struct {
	Outcome   matchmaking.JoinOutcome `json:"outcome"`
	SessionID string                  `json:"sessionId,omitempty"`
}

type JoinQueueCommandHandler struct {
	matchmaker *matchmaking.Matchmaker
}

func NewJoinQueueCommandHandler(matchmaker *matchmaking.Matchmaker) *JoinQueueCommandHandler {
	return &JoinQueueCommandHandler{matchmaker}
}

func (h *JoinQueueCommandHandler) Handle(
	ctx context.Context,
	request JoinQueueCommand,
) (JoinQueueResponse, error) {
	result, err := h.matchmaker.JoinQueue(ctx, request.Participant, request.TimeControl)
	if err != nil {
		return JoinQueueResponse{}, ToCommandError(err)
	}

	response := JoinQueueResponse{Outcome: result.Outcome}

	switch result.Outcome {
	case matchmaking.JoinPaired:
		response.SessionID = result.Session.ID()
	default:
		notify(ctx, request.Participant, domain.Notification{
			Type: domain.NotifyWaiting,
			Payload: domain.WaitingPayload{
				TimeControl:    request.TimeControl,
				AlreadyWaiting: result.Outcome == matchmaking.JoinAlreadyWaiting,
			},
		})
	}

	return response, nil
}
