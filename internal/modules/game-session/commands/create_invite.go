package commands

import (
	"context"

	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/matchmaking"
)

type CreateInviteCommand struct {
	Participant domain.Participant `json:"-"`
	TimeControl domain.TimeControl `json:"timeControl"`
}

func (c CreateInviteCommand) Actor() domain.ParticipantID { return c.Participant.ID }

func (c CreateInviteCommand) Validate() error {
	if err := validateParticipant(c.Participant); err != nil {
		return err
	}

	return validateTimeControl(c.TimeControl)
}

type CreateInviteResponse struct {
	Invite matchmaking.Invite `json:"invite"`
}

type CreateInviteCommandHandler struct {
	matchmaker *matchmaking.Matchmaker
}

func NewCreateInviteCommandHandler(matchmaker *matchmaking.Matchmaker) *CreateInviteCommandHandler {
	return &CreateInviteCommandHandler{matchmaker}
}

func (h *CreateInviteCommandHandler) Handle(
	ctx context.Context,
	request CreateInviteCommand,
) (CreateInviteResponse, error) {
	invite, err := h.matchmaker.CreateInvite(request.Participant, request.TimeControl)
	if err != nil {
		return CreateInviteResponse{}, ToCommandError(err)
	}

	notify(ctx, request.Participant, domain.Notification{
		Type: domain.NotifyInviteCode,
		Payload: domain.InviteCodePayload{
			Code:        invite.Code,
			TimeControl: invite.TimeControl,
			ExpiresAt:   invite.ExpiresAt,
		},
	})

	return CreateInviteResponse{Invite: invite}, nil
}
