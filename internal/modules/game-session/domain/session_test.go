package domain_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eskrenkovic/matchroom/internal/clock"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
	"github.com/eskrenkovic/matchroom/internal/test"

	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	session *domain.GameSession
	clock   *clock.FakeClock
	oracle  *test.ScriptedOracle
	white   *test.RecordingConn
	black   *test.RecordingConn

	mu    sync.Mutex
	ended []domain.GameRecord
}

func (f *sessionFixture) records() []domain.GameRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.GameRecord(nil), f.ended...)
}

func newSessionFixture(t *testing.T, tc domain.TimeControl) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		clock:  clock.Fake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
		oracle: test.NewScriptedOracle(),
		white:  test.NewRecordingConn(),
		black:  test.NewRecordingConn(),
	}

	f.session = domain.NewGameSession(domain.SessionOptions{
		ID:          "session-1",
		White:       domain.Participant{ID: "alice", Name: "Alice", Conn: f.white},
		Black:       domain.Participant{ID: "bob", Name: "Bob", Conn: f.black},
		TimeControl: tc,
		Oracle:      f.oracle,
		Clock:       f.clock,
		OnEnded: func(_ *domain.GameSession, record domain.GameRecord) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.ended = append(f.ended, record)
		},
	})

	require.NoError(t, f.session.Start())
	return f
}

func gameOver(t *testing.T, conn *test.RecordingConn) domain.GameOverPayload {
	t.Helper()

	n, ok := conn.Last(domain.NotifyGameOver)
	require.True(t, ok, "expected game_over notification")

	payload, ok := n.Payload.(domain.GameOverPayload)
	require.True(t, ok)
	return payload
}

func Test_GameSession_Start_Sends_Game_Begin_To_Both_Sides(t *testing.T) {
	// Arrange & Act
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 3, IncrementSeconds: 2})

	// Assert
	whiteBegin, ok := f.white.Last(domain.NotifyGameBegin)
	require.True(t, ok)
	blackBegin, ok := f.black.Last(domain.NotifyGameBegin)
	require.True(t, ok)

	wp := whiteBegin.Payload.(domain.GameBeginPayload)
	bp := blackBegin.Payload.(domain.GameBeginPayload)

	require.Equal(t, domain.White, wp.Color)
	require.Equal(t, domain.Black, bp.Color)
	require.Equal(t, domain.ParticipantID("bob"), wp.Opponent.ID)
	require.Equal(t, domain.ParticipantID("alice"), bp.Opponent.ID)
	require.Equal(t, int64(180000), wp.TimeLeft[domain.White])
	require.Equal(t, int64(180000), wp.TimeLeft[domain.Black])
	require.Equal(t, 1, f.clock.Pending())
}

func Test_GameSession_SubmitMove_Relays_Move_And_Flips_Turn(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 3, IncrementSeconds: 2})
	f.clock.Advance(10 * time.Second)

	// Act
	err := f.session.SubmitMove("alice", test.Move("e2", "e4"))

	// Assert
	require.NoError(t, err)

	n, ok := f.black.Last(domain.NotifyOpponentMove)
	require.True(t, ok)

	payload := n.Payload.(domain.OpponentMovePayload)
	require.JSONEq(t, `{"from":"e2","to":"e4"}`, string(payload.Move))
	require.Equal(t, int64(172000), payload.TimeLeft[domain.White])
	require.Equal(t, int64(180000), payload.TimeLeft[domain.Black])

	_, ok = f.white.Last(domain.NotifyOpponentMove)
	require.False(t, ok)

	snapshot := f.session.Snapshot()
	require.Equal(t, domain.Black, snapshot.Turn)
	require.Equal(t, 1, snapshot.Moves)
}

func Test_GameSession_SubmitMove_Out_Of_Turn_Leaves_State_Unchanged(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})

	// Act
	err := f.session.SubmitMove("bob", test.Move("e7", "e5"))

	// Assert
	require.ErrorIs(t, err, domain.ErrNotYourTurn)
	require.True(t, domain.IsSilent(err))
	require.Empty(t, f.oracle.Received)
	require.Equal(t, domain.White, f.session.Snapshot().Turn)
}

func Test_GameSession_SubmitMove_Rejected_Move_Keeps_Turn(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})
	f.oracle.Push(test.Reject("illegal move e2e5"))

	// Act
	err := f.session.SubmitMove("alice", test.Move("e2", "e5"))

	// Assert
	var rejected domain.MoveRejectedError
	require.True(t, errors.As(err, &rejected))
	require.Equal(t, "illegal move e2e5", rejected.Reason)

	snapshot := f.session.Snapshot()
	require.Equal(t, domain.White, snapshot.Turn)
	require.Equal(t, 0, snapshot.Moves)
	require.Zero(t, f.black.Count(domain.NotifyOpponentMove))
}

func Test_GameSession_SubmitMove_Rejects_Empty_Payload(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})

	// Act
	err := f.session.SubmitMove("alice", nil)

	// Assert
	require.ErrorIs(t, err, domain.ErrMalformedPayload)
	require.Empty(t, f.oracle.Received)
}

func Test_GameSession_Oracle_Failure_Leaves_State_Unchanged(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})
	f.oracle.Push(test.Fail(errors.New("engine crashed")), test.Explode("boom"))

	// Act
	errFailed := f.session.SubmitMove("alice", test.Move("e2", "e4"))
	errPanicked := f.session.SubmitMove("alice", test.Move("e2", "e4"))

	// Assert
	require.ErrorIs(t, errFailed, domain.ErrOracleFailure)
	require.ErrorIs(t, errPanicked, domain.ErrOracleFailure)

	snapshot := f.session.Snapshot()
	require.Equal(t, domain.StatusActive, snapshot.Status)
	require.Equal(t, domain.White, snapshot.Turn)
	require.Equal(t, 0, snapshot.Moves)
}

func Test_GameSession_Turn_Deadline_Ends_Game_On_Timeout(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})

	// Act
	f.clock.Advance(59 * time.Second)
	require.Equal(t, domain.StatusActive, f.session.Status())
	f.clock.Advance(time.Second)

	// Assert
	require.Equal(t, domain.StatusEnded, f.session.Status())

	for _, conn := range []*test.RecordingConn{f.white, f.black} {
		payload := gameOver(t, conn)
		require.Equal(t, domain.ReasonTimeout, payload.Reason)
		require.NotNil(t, payload.Loser)
		require.Equal(t, domain.White, *payload.Loser)
		require.True(t, conn.Closed())
	}

	records := f.records()
	require.Len(t, records, 1)
	require.Equal(t, int64(0), records[0].WhiteTimeMs)
	require.Equal(t, int64(60000), records[0].BlackTimeMs)
}

func Test_GameSession_Stale_Deadline_Does_Not_Fire_After_Move(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})
	f.clock.Advance(59 * time.Second)
	require.NoError(t, f.session.SubmitMove("alice", test.Move("e2", "e4")))

	// Act
	f.clock.Advance(2 * time.Second)

	// Assert
	snapshot := f.session.Snapshot()
	require.Equal(t, domain.StatusActive, snapshot.Status)
	require.Equal(t, int64(1000), snapshot.TimeLeft[domain.White])
	require.Equal(t, int64(58000), snapshot.TimeLeft[domain.Black])
	require.Equal(t, 1, f.clock.Pending())
}

func Test_GameSession_Timeout_With_Opponent_Disconnected_Is_Abort(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})
	require.NoError(t, f.session.Disconnect("bob", f.black))

	// Act
	f.clock.Advance(time.Minute)

	// Assert
	payload := gameOver(t, f.white)
	require.Equal(t, domain.ReasonAbort, payload.Reason)
	require.Nil(t, payload.Loser)
	require.Zero(t, f.black.Count(domain.NotifyGameOver))
}

func Test_GameSession_Checkmate_Names_Mated_Side_As_Loser(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})
	f.oracle.Push(test.Accept(), test.Accept(), test.Accept(), test.AcceptWith(domain.OutcomeCheckmate))

	// Act
	require.NoError(t, f.session.SubmitMove("alice", test.Move("f2", "f3")))
	require.NoError(t, f.session.SubmitMove("bob", test.Move("e7", "e5")))
	require.NoError(t, f.session.SubmitMove("alice", test.Move("g2", "g4")))
	require.NoError(t, f.session.SubmitMove("bob", test.Move("d8", "h4")))

	// Assert
	payload := gameOver(t, f.white)
	require.Equal(t, domain.ReasonCheckmate, payload.Reason)
	require.Equal(t, domain.White, *payload.Loser)

	types := f.white.Types()
	require.Equal(t, domain.NotifyOpponentMove, types[len(types)-2])
	require.Equal(t, domain.NotifyGameOver, types[len(types)-1])
	require.Zero(t, f.clock.Pending())
}

func Test_GameSession_Automatic_Draw_Has_No_Loser(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})
	f.oracle.Push(test.AcceptWith(domain.OutcomeStalemate))

	// Act
	err := f.session.SubmitMove("alice", test.Move("a1", "a2"))

	// Assert
	require.NoError(t, err)
	payload := gameOver(t, f.black)
	require.Equal(t, domain.ReasonStalemate, payload.Reason)
	require.Nil(t, payload.Loser)
}

func Test_GameSession_Resign_Ends_Game_Exactly_Once(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})

	// Act
	err := f.session.Resign("bob")
	f.clock.Advance(2 * time.Minute)
	errAgain := f.session.Resign("alice")
	errMove := f.session.SubmitMove("alice", test.Move("e2", "e4"))

	// Assert
	require.NoError(t, err)
	require.ErrorIs(t, errAgain, domain.ErrGameNotActive)
	require.ErrorIs(t, errMove, domain.ErrGameNotActive)

	require.Len(t, f.records(), 1)
	require.Equal(t, 1, f.white.Count(domain.NotifyGameOver))
	require.Equal(t, 1, f.black.Count(domain.NotifyGameOver))
	require.Equal(t, domain.Black, *gameOver(t, f.white).Loser)
}

func Test_GameSession_Concurrent_Terminations_Fire_Once(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})

	var wg sync.WaitGroup
	start := make(chan struct{})

	// Act
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			switch i % 3 {
			case 0:
				_ = f.session.Resign("alice")
			case 1:
				_ = f.session.Abort()
			default:
				f.clock.Advance(time.Minute)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	// Assert
	require.Len(t, f.records(), 1)
	require.Equal(t, 1, f.white.Count(domain.NotifyGameOver))
}

func Test_GameSession_Draw_Offer_And_Accept(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})

	// Act
	require.NoError(t, f.session.OfferDraw("alice"))
	errTwice := f.session.OfferDraw("bob")
	errOwn := f.session.AcceptDraw("alice")
	err := f.session.AcceptDraw("bob")

	// Assert
	require.ErrorIs(t, errTwice, domain.ErrDrawAlreadyPending)
	require.ErrorIs(t, errOwn, domain.ErrCannotAcceptOwnOffer)
	require.NoError(t, err)

	require.Equal(t, 1, f.black.Count(domain.NotifyDrawOffered))

	types := f.white.Types()
	require.Equal(t, domain.NotifyDrawAccepted, types[len(types)-2])
	require.Equal(t, domain.NotifyGameOver, types[len(types)-1])

	payload := gameOver(t, f.black)
	require.Equal(t, domain.ReasonDrawByAgreement, payload.Reason)
	require.Nil(t, payload.Loser)
}

func Test_GameSession_Draw_Reject_Clears_Offer(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})
	require.NoError(t, f.session.OfferDraw("alice"))

	// Act
	err := f.session.RejectDraw("bob")
	errNone := f.session.AcceptDraw("bob")
	errOffer := f.session.OfferDraw("bob")

	// Assert
	require.NoError(t, err)
	require.ErrorIs(t, errNone, domain.ErrNoDrawPending)
	require.NoError(t, errOffer)
	require.Equal(t, 1, f.white.Count(domain.NotifyDrawRejected))
	require.Equal(t, domain.ParticipantID("bob"), f.session.Snapshot().DrawOffer)
}

func Test_GameSession_Chat_Trims_And_Validates(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})

	// Act
	err := f.session.Chat("alice", "  good luck  ")
	errEmpty := f.session.Chat("alice", "   ")
	errLong := f.session.Chat("alice", strings.Repeat("x", domain.DefaultMaxChatLength+1))
	errStranger := f.session.Chat("mallory", "hi")

	// Assert
	require.NoError(t, err)
	require.ErrorIs(t, errEmpty, domain.ErrEmptyMessage)
	require.ErrorIs(t, errLong, domain.ErrMessageTooLong)
	require.ErrorIs(t, errStranger, domain.ErrNotParticipant)

	require.Equal(t, 1, f.black.Count(domain.NotifyChatMessage))
	n, _ := f.black.Last(domain.NotifyChatMessage)
	require.Equal(t, domain.ChatMessagePayload{From: "Alice", Text: "good luck"}, n.Payload)
}

func Test_GameSession_Single_Disconnect_Keeps_Game_Running(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})

	// Act
	err := f.session.Disconnect("alice", f.white)
	errAgain := f.session.Disconnect("alice", f.white)

	// Assert
	require.NoError(t, err)
	require.NoError(t, errAgain)
	require.Equal(t, 1, f.black.Count(domain.NotifyOpponentDisconnected))

	snapshot := f.session.Snapshot()
	require.Equal(t, domain.StatusActive, snapshot.Status)
	require.Equal(t, domain.Disconnected, snapshot.Slots[0].Connection)
	require.Equal(t, domain.Connected, snapshot.Slots[1].Connection)
}

func Test_GameSession_Both_Disconnected_Aborts(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})
	require.NoError(t, f.session.Disconnect("alice", f.white))

	// Act
	err := f.session.Disconnect("bob", f.black)

	// Assert
	require.NoError(t, err)
	require.Equal(t, domain.StatusEnded, f.session.Status())

	records := f.records()
	require.Len(t, records, 1)
	require.Equal(t, domain.ReasonAbort, records[0].Reason)
	require.Nil(t, records[0].Loser)
	require.Zero(t, f.clock.Pending())
}

func Test_GameSession_Reconnect_Replays_State(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})
	require.NoError(t, f.session.SubmitMove("alice", test.Move("e2", "e4")))
	require.NoError(t, f.session.OfferDraw("alice"))
	require.NoError(t, f.session.Disconnect("bob", f.black))

	fresh := test.NewRecordingConn()

	// Act
	err := f.session.Reconnect("bob", fresh)

	// Assert
	require.NoError(t, err)

	n, ok := fresh.Last(domain.NotifyGameReconnect)
	require.True(t, ok)

	payload := n.Payload.(domain.GameReconnectPayload)
	require.Equal(t, domain.Black, payload.Color)
	require.Equal(t, domain.Black, payload.Turn)
	require.Len(t, payload.Moves, 1)
	require.True(t, payload.DrawOffered)
	require.Equal(t, 1, f.white.Count(domain.NotifyOpponentReconnected))
	require.Equal(t, domain.Connected, f.session.Snapshot().Slots[1].Connection)
}

func Test_GameSession_Disconnect_Of_Replaced_Connection_Is_Ignored(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})
	require.NoError(t, f.session.Disconnect("alice", f.white))

	fresh := test.NewRecordingConn()
	require.NoError(t, f.session.Reconnect("alice", fresh))

	// Act
	errStale := f.session.Disconnect("alice", f.white)
	errOpponent := f.session.Disconnect("bob", f.black)

	// Assert
	require.NoError(t, errStale)
	require.NoError(t, errOpponent)
	require.Equal(t, domain.StatusActive, f.session.Status())
	require.Empty(t, f.records())

	snapshot := f.session.Snapshot()
	require.Equal(t, domain.Connected, snapshot.Slots[0].Connection)
	require.Equal(t, domain.Disconnected, snapshot.Slots[1].Connection)
	require.Equal(t, 1, fresh.Count(domain.NotifyOpponentDisconnected))
}

func Test_GameSession_Rejects_Non_Participants(t *testing.T) {
	// Arrange
	f := newSessionFixture(t, domain.TimeControl{BaseMinutes: 1})

	// Act
	errMove := f.session.SubmitMove("mallory", test.Move("e2", "e4"))
	errResign := f.session.Resign("mallory")
	errDraw := f.session.OfferDraw("mallory")

	// Assert
	require.ErrorIs(t, errMove, domain.ErrNotParticipant)
	require.ErrorIs(t, errResign, domain.ErrNotParticipant)
	require.ErrorIs(t, errDraw, domain.ErrNotParticipant)
	require.Equal(t, domain.StatusActive, f.session.Status())
}

func Test_GameSession_Panicking_Hook_Is_Recovered(t *testing.T) {
	// Arrange
	session := domain.NewGameSession(domain.SessionOptions{
		ID:          "session-2",
		White:       domain.Participant{ID: "alice", Conn: test.NewRecordingConn()},
		Black:       domain.Participant{ID: "bob", Conn: test.NewRecordingConn()},
		TimeControl: domain.TimeControl{BaseMinutes: 1},
		Oracle:      test.NewScriptedOracle(),
		Clock:       clock.Fake(time.Now()),
		OnEnded: func(*domain.GameSession, domain.GameRecord) {
			panic("hook exploded")
		},
	})
	require.NoError(t, session.Start())

	// Act
	err := session.Resign("alice")

	// Assert
	require.ErrorIs(t, err, domain.ErrSessionFault)
	require.Equal(t, domain.StatusEnded, session.Status())
}
