package gateway

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/eskrenkovic/matchroom/internal/modules/auth/domain"
	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/chessrules"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/commands"
	session "github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/matchmaking"

	"github.com/eskrenkovic/mediator-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

var (
	tokens     *domain.Tokens
	matchmaker *matchmaking.Matchmaker
	server     *httptest.Server
)

func TestMain(m *testing.M) {
	var err error
	tokens, err = domain.NewTokens("gateway-test-secret", time.Hour, nil)
	if err != nil {
		panic(err)
	}

	matchmaker = matchmaking.NewMatchmaker(matchmaking.Options{
		Oracles: chessrules.Factory(),
		Logger:  zap.NewNop(),
	})

	mediator.RegisterPipelineBehavior(&core.HandlerErrorLoggingBehavior{Logger: zap.NewNop()})
	mediator.RegisterPipelineBehavior(&core.RequestValidationBehavior{Classify: commands.ErrorCode})
	if err := commands.RegisterHandlers(matchmaker); err != nil {
		panic(err)
	}

	server = httptest.NewServer(NewHandler(Options{
		Authenticator: tokens,
		Sessions:      matchmaker.Registry(),
		Logger:        zap.NewNop(),
	}))

	code := m.Run()

	server.Close()
	os.Exit(code)
}

type testFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newToken(t *testing.T, name string) string {
	t.Helper()
	token, _, err := tokens.Issue(core.Identity{ParticipantID: uuid.NewString(), Name: name})
	require.NoError(t, err)
	return token
}

func dialErr(token string) (*websocket.Conn, error) {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?token=" + token
	return websocket.Dial(url, "", server.URL)
}

func dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	ws, err := dialErr(token)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = ws.Close()
	})
	return ws
}

func send(t *testing.T, ws *websocket.Conn, frameType string, payload any) {
	t.Helper()
	frame := map[string]any{"type": frameType}
	if payload != nil {
		frame["payload"] = payload
	}
	require.NoError(t, websocket.JSON.Send(ws, frame))
}

func read(t *testing.T, ws *websocket.Conn) testFrame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame testFrame
	require.NoError(t, websocket.JSON.Receive(ws, &frame))
	return frame
}

// readType skips frames until one of frameType arrives.
func readType(t *testing.T, ws *websocket.Conn, frameType string) testFrame {
	t.Helper()
	for {
		frame := read(t, ws)
		if frame.Type == frameType {
			return frame
		}
	}
}

func joinQueue(t *testing.T, ws *websocket.Conn, baseMinutes, incrementSeconds int) {
	t.Helper()
	send(t, ws, "join_queue", map[string]any{
		"timeControl": map[string]int{"baseMinutes": baseMinutes, "incrementSeconds": incrementSeconds},
	})
}

func color(t *testing.T, frame testFrame) string {
	t.Helper()
	var payload struct {
		Color string `json:"color"`
	}
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	return payload.Color
}

// pair connects two participants under the given control and returns
// them as white and black.
func pair(t *testing.T, baseMinutes, incrementSeconds int) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	first := dial(t, newToken(t, "First"))
	second := dial(t, newToken(t, "Second"))

	joinQueue(t, first, baseMinutes, incrementSeconds)
	require.Equal(t, "waiting", read(t, first).Type)
	joinQueue(t, second, baseMinutes, incrementSeconds)

	require.Equal(t, string(session.White), color(t, readType(t, first, "game_begin")))
	require.Equal(t, string(session.Black), color(t, readType(t, second, "game_begin")))

	return first, second
}

func Test_Gateway_Rejects_Missing_And_Invalid_Tokens(t *testing.T) {
	// Act
	_, missing := dialErr("")
	_, invalid := dialErr("not-a-token")

	// Assert
	require.Error(t, missing)
	require.Error(t, invalid)
}

func Test_Gateway_Refuses_Second_Connection_For_Same_Identity(t *testing.T) {
	// Arrange
	token := newToken(t, "Twice")
	first := dial(t, token)

	// a reply proves the first socket is registered and reading
	send(t, first, "castle", nil)
	require.Equal(t, "error", read(t, first).Type)

	// Act
	_, err := dialErr(token)

	// Assert
	require.Error(t, err)

	send(t, first, "castle", nil)
	require.Equal(t, "error", read(t, first).Type)
}

func Test_Gateway_Pairs_And_Relays_Moves(t *testing.T) {
	// Arrange
	white, black := pair(t, 3, 0)

	// Act
	send(t, white, "move", map[string]string{"from": "e2", "to": "e4"})

	// Assert
	relayed := readType(t, black, "opponent_move")

	var payload struct {
		Move struct {
			From string `json:"from"`
			To   string `json:"to"`
			SAN  string `json:"san"`
		} `json:"move"`
		TimeLeft map[string]int64 `json:"timeLeft"`
	}
	require.NoError(t, json.Unmarshal(relayed.Payload, &payload))
	require.Equal(t, "e2", payload.Move.From)
	require.Equal(t, "e4", payload.Move.To)
	require.Equal(t, "e4", payload.Move.SAN)
	require.Contains(t, payload.TimeLeft, "w")
	require.Contains(t, payload.TimeLeft, "b")
}

func Test_Gateway_Reports_Errors_As_Error_Frames(t *testing.T) {
	// Arrange
	ws := dial(t, newToken(t, "Errors"))

	// Act
	send(t, ws, "castle", nil)
	unknown := read(t, ws)

	joinQueue(t, ws, 7, 0)
	invalid := read(t, ws)

	// Assert
	var payload session.ErrorPayload
	require.Equal(t, "error", unknown.Type)
	require.NoError(t, json.Unmarshal(unknown.Payload, &payload))
	require.Equal(t, "unknown_frame_type", payload.Code)

	require.Equal(t, "error", invalid.Type)
	require.NoError(t, json.Unmarshal(invalid.Payload, &payload))
	require.Equal(t, "invalid_time_control", payload.Code)
}

func Test_Gateway_Does_Not_Report_Out_Of_Turn_Moves(t *testing.T) {
	// Arrange
	_, black := pair(t, 10, 5)

	// Act
	send(t, black, "move", map[string]string{"from": "e7", "to": "e5"})
	send(t, black, "castle", nil)

	// Assert
	var payload session.ErrorPayload
	frame := read(t, black)
	require.Equal(t, "error", frame.Type)
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	require.Equal(t, "unknown_frame_type", payload.Code)
}

func Test_Gateway_Rejects_Illegal_Move(t *testing.T) {
	// Arrange
	white, _ := pair(t, 30, 0)

	// Act
	send(t, white, "move", map[string]string{"from": "e2", "to": "e5"})

	// Assert
	var payload session.ErrorPayload
	frame := readType(t, white, "error")
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	require.Equal(t, "invalid_move", payload.Code)
}

func Test_Gateway_Reports_Disconnect_And_Reconnect(t *testing.T) {
	// Arrange
	whiteToken := newToken(t, "Returning")
	white := dial(t, whiteToken)
	black := dial(t, newToken(t, "Staying"))

	joinQueue(t, white, 10, 0)
	require.Equal(t, "waiting", read(t, white).Type)
	joinQueue(t, black, 10, 0)
	readType(t, white, "game_begin")
	readType(t, black, "game_begin")

	// Act
	require.NoError(t, white.Close())
	readType(t, black, "opponent_disconnected")

	var returned *websocket.Conn
	require.Eventually(t, func() bool {
		ws, err := dialErr(whiteToken)
		if err != nil {
			return false
		}
		returned = ws
		return true
	}, 2*time.Second, 20*time.Millisecond)
	t.Cleanup(func() {
		_ = returned.Close()
	})

	// Assert
	reconnect := readType(t, returned, "game_reconnect")
	require.Equal(t, string(session.White), color(t, reconnect))
	readType(t, black, "opponent_reconnected")
}

func Test_Gateway_Closes_Both_Sockets_When_Game_Ends(t *testing.T) {
	// Arrange
	white, black := pair(t, 1, 0)

	// Act
	send(t, white, "resign", nil)

	// Assert
	for _, ws := range []*websocket.Conn{white, black} {
		over := readType(t, ws, "game_over")

		var payload session.GameOverPayload
		require.NoError(t, json.Unmarshal(over.Payload, &payload))
		require.Equal(t, session.ReasonResign, payload.Reason)
		require.Equal(t, session.White, *payload.Loser)

		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		var frame testFrame
		require.Error(t, websocket.JSON.Receive(ws, &frame))
	}
}
