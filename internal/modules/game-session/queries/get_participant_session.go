package queries

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/commands"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
)

type GetParticipantSessionQuery struct {
	ParticipantID domain.ParticipantID
}

func (q GetParticipantSessionQuery) Validate() error {
	if q.ParticipantID == "" {
		return fmt.Errorf("invalid ParticipantID - '%s'", q.ParticipantID)
	}

	return nil
}

func HandleGetParticipantSession(w http.ResponseWriter, r *http.Request) {
	query := GetParticipantSessionQuery{
		ParticipantID: domain.ParticipantID(chi.URLParam(r, "participantID")),
	}

	response, err := mediator.Send[GetParticipantSessionQuery, domain.Snapshot](r.Context(), query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetParticipantSessionQueryHandler struct {
	sessions commands.SessionFinder
}

func NewGetParticipantSessionQueryHandler(sessions commands.SessionFinder) *GetParticipantSessionQueryHandler {
	return &GetParticipantSessionQueryHandler{sessions}
}

func (h *GetParticipantSessionQueryHandler) Handle(
	ctx context.Context,
	request GetParticipantSessionQuery,
) (domain.Snapshot, error) {
	session, ok := h.sessions.Lookup(request.ParticipantID)
	if !ok {
		return domain.Snapshot{}, commands.ToCommandError(domain.ErrNotInSession)
	}

	return session.Snapshot(), nil
}
