package auth

import (
	"github.com/eskrenkovic/matchroom/internal/modules/auth/commands"
	"github.com/eskrenkovic/matchroom/internal/modules/auth/domain"

	"github.com/eskrenkovic/mediator-go"
)

func RegisterHandlers(tokens *domain.Tokens) error {
	return mediator.RegisterRequestHandler[commands.IssueGuestTokenCommand, commands.IssueGuestTokenResponse](
		commands.NewIssueGuestTokenCommandHandler(tokens),
	)
}
