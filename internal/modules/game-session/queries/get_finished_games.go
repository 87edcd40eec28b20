package queries

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
)

const (
	defaultGamesLimit = 20
	maxGamesLimit     = 100
)

// FinishedGamesReader reads archived games, newest first.
type FinishedGamesReader interface {
	FinishedGames(ctx context.Context, id domain.ParticipantID, limit int) ([]domain.GameRecord, error)
}

type GetFinishedGamesQuery struct {
	ParticipantID domain.ParticipantID
	Limit         int
}

func (q GetFinishedGamesQuery) Validate() error {
	if q.ParticipantID == "" {
		return fmt.Errorf("invalid ParticipantID - '%s'", q.ParticipantID)
	}

	if q.Limit <= 0 || q.Limit > maxGamesLimit {
		return fmt.Errorf("invalid Limit - '%d'", q.Limit)
	}

	return nil
}

// FinishedGame is a finished game from one participant's point of view.
type FinishedGame struct {
	SessionID   string             `json:"sessionId"`
	Color       domain.Color       `json:"color"`
	Opponent    domain.Opponent    `json:"opponent"`
	TimeControl domain.TimeControl `json:"timeControl"`
	Reason      domain.EndReason   `json:"reason"`
	Result      string             `json:"result"`
	Moves       int                `json:"moves"`
	EndedAt     time.Time          `json:"endedAt"`
}

func HandleGetFinishedGames(w http.ResponseWriter, r *http.Request) {
	query := GetFinishedGamesQuery{
		ParticipantID: domain.ParticipantID(chi.URLParam(r, "participantID")),
		Limit:         defaultGamesLimit,
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			core.WriteBadRequest(w, r, fmt.Errorf("invalid format for query param 'limit'"))
			return
		}
		query.Limit = limit
	}

	response, err := mediator.Send[GetFinishedGamesQuery, []FinishedGame](r.Context(), query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetFinishedGamesQueryHandler struct {
	games FinishedGamesReader
}

func NewGetFinishedGamesQueryHandler(games FinishedGamesReader) *GetFinishedGamesQueryHandler {
	return &GetFinishedGamesQueryHandler{games}
}

func (h *GetFinishedGamesQueryHandler) Handle(
	ctx context.Context,
	request GetFinishedGamesQuery,
) ([]FinishedGame, error) {
	records, err := h.games.FinishedGames(ctx, request.ParticipantID, request.Limit)
	if err != nil {
		return nil, err
	}

	return core.Map(records, func(record domain.GameRecord) FinishedGame {
		return finishedGameFor(request.ParticipantID, record)
	}), nil
}

func finishedGameFor(id domain.ParticipantID, record domain.GameRecord) FinishedGame {
	game := FinishedGame{
		SessionID:   record.SessionID,
		Color:       domain.White,
		Opponent:    domain.Opponent{ID: record.BlackID, Name: record.BlackName},
		TimeControl: record.TimeControl,
		Reason:      record.Reason,
		Moves:       record.Moves,
		EndedAt:     record.EndedAt,
	}
	if record.BlackID == id {
		game.Color = domain.Black
		game.Opponent = domain.Opponent{ID: record.WhiteID, Name: record.WhiteName}
	}

	switch {
	case record.Loser == nil:
		game.Result = "draw"
	case *record.Loser == game.Color:
		game.Result = "loss"
	default:
		game.Result = "win"
	}

	return game
}
