package commands

import (
	"errors"
	"net/http"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
)

type errorMapping struct {
	target     error
	statusCode int
	code       string
}

var errorMappings = []errorMapping{
	{domain.ErrInvalidTimeControl, http.StatusBadRequest, "invalid_time_control"},
	{domain.ErrQueueLockTimeout, http.StatusServiceUnavailable, "queue_lock_timeout"},
	{domain.ErrInvalidInviteCode, http.StatusNotFound, "invalid_invite_code"},
	{domain.ErrSelfRedeem, http.StatusConflict, "self_redeem"},
	{domain.ErrAlreadyInSession, http.StatusConflict, "already_in_session"},
	{domain.ErrNotInSession, http.StatusNotFound, "not_in_session"},
	{domain.ErrNotParticipant, http.StatusForbidden, "not_participant"},
	{domain.ErrGameNotActive, http.StatusConflict, "game_not_active"},
	{domain.ErrNotYourTurn, http.StatusConflict, "not_your_turn"},
	{domain.ErrDrawAlreadyPending, http.StatusConflict, "draw_already_pending"},
	{domain.ErrNoDrawPending, http.StatusConflict, "no_draw_pending"},
	{domain.ErrCannotAcceptOwnOffer, http.StatusConflict, "cannot_answer_own_offer"},
	{domain.ErrEmptyMessage, http.StatusBadRequest, "empty_message"},
	{domain.ErrMessageTooLong, http.StatusBadRequest, "message_too_long"},
	{domain.ErrMalformedPayload, http.StatusBadRequest, "malformed_payload"},
	{domain.ErrOracleFailure, http.StatusInternalServerError, "oracle_failure"},
	{domain.ErrSessionFault, http.StatusInternalServerError, "session_fault"},
	{domain.ErrAlreadyConnected, http.StatusConflict, "already_connected"},
}

// ErrorCode returns the stable client facing code for err, or "" when
// err is not a known domain error.
func ErrorCode(err error) string {
	var rejected domain.MoveRejectedError
	if errors.As(err, &rejected) {
		return "invalid_move"
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.code
		}
	}

	return ""
}

// ToCommandError maps domain errors to a CommandError. Errors that
// already are command errors pass through.
func ToCommandError(err error) error {
	if err == nil {
		return nil
	}

	var commandErr core.CommandError
	if errors.As(err, &commandErr) {
		return commandErr
	}

	var rejected domain.MoveRejectedError
	if errors.As(err, &rejected) {
		return core.NewCommandError(
			http.StatusUnprocessableEntity,
			err,
			core.WithCode("invalid_move"),
		)
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return core.NewCommandError(m.statusCode, err, core.WithCode(m.code))
		}
	}

	return core.NewCommandError(http.StatusInternalServerError, err, core.WithCode("internal_error"))
}
