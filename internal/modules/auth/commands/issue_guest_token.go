package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/eskrenkovic/matchroom/internal/modules/auth/domain"
	"github.com/eskrenkovic/matchroom/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"go.uber.org/zap"
)

type IssueGuestTokenCommand struct {
	Name string `json:"name"`
}

func (c IssueGuestTokenCommand) Validate() error {
	if utf8.RuneCountInString(c.Name) > domain.MaxNameLength {
		return core.Validate(fmt.Errorf("invalid Name - longer than %d characters", domain.MaxNameLength))
	}
	return nil
}

type IssueGuestTokenResponse struct {
	ParticipantID string    `json:"participantId"`
	Name          string    `json:"name"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

type IssueGuestTokenCommandHandler struct {
	tokens *domain.Tokens
}

func NewIssueGuestTokenCommandHandler(tokens *domain.Tokens) *IssueGuestTokenCommandHandler {
	return &IssueGuestTokenCommandHandler{tokens}
}

func (h *IssueGuestTokenCommandHandler) Handle(
	ctx context.Context,
	request IssueGuestTokenCommand,
) (IssueGuestTokenResponse, error) {
	identity, err := domain.NewGuest(request.Name)
	if err != nil {
		return IssueGuestTokenResponse{}, core.NewCommandError(http.StatusBadRequest, err)
	}

	token, expiresAt, err := h.tokens.Issue(identity)
	if err != nil {
		return IssueGuestTokenResponse{}, core.NewCommandError(http.StatusInternalServerError, err)
	}

	core.Logger(ctx).Info("guest token issued", zap.String("participant_id", identity.ParticipantID))

	return IssueGuestTokenResponse{
		ParticipantID: identity.ParticipantID,
		Name:          identity.Name,
		Token:         token,
		ExpiresAt:     expiresAt,
	}, nil
}

func HandleIssueGuestToken(w http.ResponseWriter, r *http.Request) {
	command := IssueGuestTokenCommand{}
	if r.ContentLength != 0 {
		var err error
		if command, err = core.RequestBody[IssueGuestTokenCommand](r); err != nil {
			core.WriteBadRequest(w, r, err)
			return
		}
	}

	response, err := mediator.Send[IssueGuestTokenCommand, IssueGuestTokenResponse](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteCreated(w, r, response)
}
