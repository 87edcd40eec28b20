package queries

import (
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/matchmaking"

	"github.com/eskrenkovic/mediator-go"
)

func RegisterHandlers(matchmaker *matchmaking.Matchmaker, games FinishedGamesReader) error {
	err := mediator.RegisterRequestHandler[GetParticipantSessionQuery, domain.Snapshot](
		NewGetParticipantSessionQueryHandler(matchmaker.Registry()),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[GetQueueStatusQuery, matchmaking.Status](
		NewGetQueueStatusQueryHandler(matchmaker),
	)
	if err != nil {
		return err
	}

	return mediator.RegisterRequestHandler[GetFinishedGamesQuery, []FinishedGame](
		NewGetFinishedGamesQueryHandler(games),
	)
}
