package queries

import (
	"context"
	"net/http"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/commands"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/matchmaking"

	"github.com/eskrenkovic/mediator-go"
)

type GetQueueStatusQuery struct{}

func HandleGetQueueStatus(w http.ResponseWriter, r *http.Request) {
	response, err := mediator.Send[GetQueueStatusQuery, matchmaking.Status](r.Context(), GetQueueStatusQuery{})
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetQueueStatusQueryHandler struct {
	matchmaker *matchmaking.Matchmaker
}

func NewGetQueueStatusQueryHandler(matchmaker *matchmaking.Matchmaker) *GetQueueStatusQueryHandler {
	return &GetQueueStatusQueryHandler{matchmaker}
}

func (h *GetQueueStatusQueryHandler) Handle(
	ctx context.Context,
	request GetQueueStatusQuery,
) (matchmaking.Status, error) {
	status, err := h.matchmaker.Status(ctx)
	if err != nil {
		return matchmaking.Status{}, commands.ToCommandError(err)
	}

	return status, nil
}
