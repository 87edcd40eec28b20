package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/matchmaking"
)

type JoinViaInviteCommand struct {
	Participant domain.Participant `json:"-"`
	Code        string             `json:"code"`
}

func (c JoinViaInviteCommand) Actor() domain.ParticipantID { return c.Participant.ID }

func (c JoinViaInviteCommand) Validate() error {
	if err := validateParticipant(c.Participant); err != nil {
		return err
	}

	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("invalid Code - '%s': %w", c.Code, domain.ErrInvalidInviteCode)
	}

	return nil
}

type JoinViaInviteResponse struct {
	SessionID string `json:"sessionId"`
}

type JoinViaInviteCommandHandler struct {
	matchmaker *matchmaking.Matchmaker
}

func NewJoinViaInviteCommandHandler(matchmaker *matchmaking.Matchmaker) *JoinViaInviteCommandHandler {
	return &JoinViaInviteCommandHandler{matchmaker}
}

func (h *JoinViaInviteCommandHandler) Handle(
	ctx context.Context,
	request JoinViaInviteCommand,
) (JoinViaInviteResponse, error) {
	code := strings.TrimSpace(request.Code)

	session, err := h.matchmaker.RedeemInvite(ctx, request.Participant, code)
	if err != nil {
		return JoinViaInviteResponse{}, ToCommandError(err)
	}

	return JoinViaInviteResponse{SessionID: session.ID()}, nil
}
