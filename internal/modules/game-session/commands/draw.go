package commands

import (
	"context"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
)

type OfferDrawCommand struct {
	ParticipantID domain.ParticipantID `json:"-"`
}

func (c OfferDrawCommand) Actor() domain.ParticipantID { return c.ParticipantID }

func (c OfferDrawCommand) Validate() error {
	return validateParticipantID(c.ParticipantID)
}

type AcceptDrawCommand struct {
	ParticipantID domain.ParticipantID `json:"-"`
}

func (c AcceptDrawCommand) Actor() domain.ParticipantID { return c.ParticipantID }

func (c AcceptDrawCommand) Validate() error {
	return validateParticipantID(c.ParticipantID)
}

type RejectDrawCommand struct {
	ParticipantID domain.ParticipantID `json:"-"`
}

func (c RejectDrawCommand) Actor() domain.ParticipantID { return c.ParticipantID }

func (c RejectDrawCommand) Validate() error {
	return validateParticipantID(c.ParticipantID)
}

type OfferDrawCommandHandler struct {
	sessions SessionFinder
}

func NewOfferDrawCommandHandler(sessions SessionFinder) *OfferDrawCommandHandler {
	return &OfferDrawCommandHandler{sessions}
}

func (h *OfferDrawCommandHandler) Handle(
	ctx context.Context,
	request OfferDrawCommand,
) (core.Unit, error) {
	session, err := sessionOf(h.sessions, request.ParticipantID)
	if err != nil {
		return core.Unit{}, ToCommandError(err)
	}

	return core.Unit{}, ToCommandError(session.OfferDraw(request.ParticipantID))
}

type AcceptDrawCommandHandler struct {
	sessions SessionFinder
}

func NewAcceptDrawCommandHandler(sessions SessionFinder) *AcceptDrawCommandHandler {
	return &AcceptDrawCommandHandler{sessions}
}

func (h *AcceptDrawCommandHandler) Handle(
	ctx context.Context,
	request AcceptDrawCommand,
) (core.Unit, error) {
	session, err := sessionOf(h.sessions, request.ParticipantID)
	if err != nil {
		return core.Unit{}, ToCommandError(err)
	}

	return core.Unit{}, ToCommandError(session.AcceptDraw(request.ParticipantID))
}

type RejectDrawCommandHandler struct {
	sessions SessionFinder
}

func NewRejectDrawCommandHandler(sessions SessionFinder) *RejectDrawCommandHandler {
	return &RejectDrawCommandHandler{sessions}
}

func (h *RejectDrawCommandHandler) Handle(
	ctx context.Context,
	request RejectDrawCommand,
) (core.Unit, error) {
	session, err := sessionOf(h.sessions, request.ParticipantID)
	if err != nil {
		return core.Unit{}, ToCommandError(err)
	}

	return core.Unit{}, ToCommandError(session.RejectDraw(request.ParticipantID))
}
