package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/matchmaking"

	"github.com/eskrenkovic/mediator-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var dispatchMatchmaker *matchmaking.Matchmaker

func TestMain(m *testing.M) {
	dispatchMatchmaker = newTestMatchmaker()

	validation := core.RequestValidationBehavior{Classify: ErrorCode}
	mediator.RegisterPipelineBehavior(&core.HandlerErrorLoggingBehavior{Logger: zap.NewNop()})
	mediator.RegisterPipelineBehavior(&validation)

	if err := RegisterHandlers(dispatchMatchmaker); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

func Test_Dispatch_Routes_Actions_To_Handlers(t *testing.T) {
	// Arrange
	ctx := context.Background()
	dave, daveConn := newParticipant("dispatch-dave")
	erin, _ := newParticipant("dispatch-erin")

	// Act
	waiting, err := Dispatch(ctx, JoinQueueCommand{Participant: dave, TimeControl: rapid})
	require.NoError(t, err)
	paired, err := Dispatch(ctx, JoinQueueCommand{Participant: erin, TimeControl: rapid})
	require.NoError(t, err)
	_, err = Dispatch(ctx, ChatCommand{ParticipantID: "dispatch-erin", Text: "hello"})
	require.NoError(t, err)
	_, err = Dispatch(ctx, ResignCommand{ParticipantID: "dispatch-erin"})
	require.NoError(t, err)

	// Assert
	require.Equal(t, matchmaking.JoinWaiting, waiting.(JoinQueueResponse).Outcome)
	require.Equal(t, matchmaking.JoinPaired, paired.(JoinQueueResponse).Outcome)
	require.Equal(t, 1, daveConn.Count(domain.NotifyChatMessage))
	require.Equal(t, 1, daveConn.Count(domain.NotifyGameOver))
}

func Test_Dispatch_Rejects_Invalid_Action_Before_Handler(t *testing.T) {
	// Arrange
	frank, _ := newParticipant("dispatch-frank")

	// Act
	_, err := Dispatch(context.Background(), JoinQueueCommand{
		Participant: frank,
		TimeControl: domain.TimeControl{BaseMinutes: 0},
	})

	// Assert
	var commandErr core.CommandError
	require.True(t, errors.As(err, &commandErr))
	require.Equal(t, http.StatusBadRequest, commandErr.StatusCode)
	require.Equal(t, "invalid_time_control", commandErr.Code)

	status, err := dispatchMatchmaker.Status(context.Background())
	require.NoError(t, err)
	for _, q := range status.Queues {
		require.Zero(t, q.Waiting)
	}
}
