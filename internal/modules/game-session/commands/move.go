package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
)

type MoveCommand struct {
	ParticipantID domain.ParticipantID `json:"-"`
	Move          json.RawMessage      `json:"move"`
}

func (c MoveCommand) Actor() domain.ParticipantID { return c.ParticipantID }

func (c MoveCommand) Validate() error {
	if err := validateParticipantID(c.ParticipantID); err != nil {
		return err
	}

	if len(c.Move) == 0 || string(c.Move) == "null" {
		return fmt.Errorf("invalid Move - empty: %w", domain.ErrMalformedPayload)
	}

	if !json.Valid(c.Move) {
		return fmt.Errorf("invalid Move - not JSON: %w", domain.ErrMalformedPayload)
	}

	return nil
}

type MoveCommandHandler struct {
	sessions SessionFinder
}

func NewMoveCommandHandler(sessions SessionFinder) *MoveCommandHandler {
	return &MoveCommandHandler{sessions}
}

func (h *MoveCommandHandler) Handle(
	ctx context.Context,
	request MoveCommand,
) (core.Unit, error) {
	session, err := sessionOf(h.sessions, request.ParticipantID)
	if err != nil {
		return core.Unit{}, ToCommandError(err)
	}

	return core.Unit{}, ToCommandError(session.SubmitMove(request.ParticipantID, request.Move))
}
