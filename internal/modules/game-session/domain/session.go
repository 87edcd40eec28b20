package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/eskrenkovic/matchroom/internal/clock"

	"go.uber.org/zap"
)

const DefaultMaxChatLength = 200

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

type SessionOptions struct {
	ID            string
	White         Participant
	Black         Participant
	TimeControl   TimeControl
	Oracle        MoveOracle
	Clock         clock.Clock
	Logger        *zap.Logger
	MaxChatLength int

	// OnEnded runs exactly once, inside the termination critical
	// section, after the final notifications went out.
	OnEnded func(*GameSession, GameRecord)
}

type slot struct {
	participant Participant
	status      ConnectionStatus
}

// GameSession is the state machine for one pairing. Every exported
// method takes the session lock for its whole duration, including the
// turn deadline callback, so operations on one session never interleave.
type GameSession struct {
	id          string
	ids         [2]ParticipantID
	timeControl TimeControl
	oracle      MoveOracle
	clock       clock.Clock
	logger      *zap.Logger
	maxChat     int
	onEnded     func(*GameSession, GameRecord)

	mu         sync.Mutex
	slots      [2]slot
	clocks     ClockState
	turn       Color
	generation uint64
	deadline   clock.Timer
	drawOffer  ParticipantID
	status     Status
	started    bool
	moves      []json.RawMessage
	startedAt  time.Time
	endedAt    time.Time
	result     *GameOverPayload
}

func NewGameSession(opts SessionOptions) *GameSession {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxChatLength <= 0 {
		opts.MaxChatLength = DefaultMaxChatLength
	}

	return &GameSession{
		id:          opts.ID,
		ids:         [2]ParticipantID{opts.White.ID, opts.Black.ID},
		timeControl: opts.TimeControl,
		oracle:      opts.Oracle,
		clock:       opts.Clock,
		logger:      opts.Logger.With(zap.String("session_id", opts.ID)),
		maxChat:     opts.MaxChatLength,
		onEnded:     opts.OnEnded,
		slots: [2]slot{
			{participant: opts.White, status: Connected},
			{participant: opts.Black, status: Connected},
		},
		clocks: NewClockState(opts.TimeControl.Base()),
		turn:   White,
		status: StatusActive,
	}
}

func (s *GameSession) ID() string { return s.id }

// Participants returns white's and black's ids. They never change.
func (s *GameSession) Participants() [2]ParticipantID { return s.ids }

func (s *GameSession) TimeControl() TimeControl { return s.timeControl }

func (s *GameSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start announces the game to both sides and starts white's clock.
func (s *GameSession) Start() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverFault(&err)

	if s.started || s.status != StatusActive {
		return nil
	}
	s.started = true

	now := s.clock.Now()
	s.startedAt = now
	s.clocks.Start(now)

	for i := range s.slots {
		opponent := s.slots[1-i].participant
		s.send(i, Notification{
			Type: NotifyGameBegin,
			Payload: GameBeginPayload{
				SessionID:   s.id,
				Color:       colorOf(i),
				TimeControl: s.timeControl,
				Opponent:    Opponent{ID: opponent.ID, Name: opponent.Name},
				TimeLeft:    s.clocks.TimeLeft(s.turn, now),
			},
		})
	}

	s.logger.Info("game started",
		zap.String("white", string(s.ids[0])),
		zap.String("black", string(s.ids[1])),
		zap.Stringer("time_control", s.timeControl),
	)

	s.armDeadline(now)
	return nil
}

func (s *GameSession) SubmitMove(actor ParticipantID, move json.RawMessage) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverFault(&err)

	idx, err := s.activeSlot(actor)
	if err != nil {
		return err
	}
	if colorOf(idx) != s.turn {
		return ErrNotYourTurn
	}
	if len(move) == 0 || string(move) == "null" {
		return fmt.Errorf("move: %w", ErrMalformedPayload)
	}

	now := s.clock.Now()
	if s.clocks.Remaining(s.turn, s.turn, now) <= 0 {
		// The flag fell before the deadline callback got the lock.
		s.expire(now)
		return ErrGameNotActive
	}

	result, err := s.attempt(move)
	if err != nil {
		s.logger.Error("move oracle failed", zap.Error(err))
		return fmt.Errorf("%s: %w", err.Error(), ErrOracleFailure)
	}
	if !result.Accepted {
		return MoveRejectedError{Reason: result.Reason}
	}

	mover := s.turn
	s.stopDeadline()
	s.clocks.Stop(mover, now)
	s.clocks.AddIncrement(mover, s.timeControl.Increment())

	relayed := result.Move
	if len(relayed) == 0 {
		relayed = append(json.RawMessage(nil), move...)
	}
	s.moves = append(s.moves, relayed)
	s.turn = mover.Opponent()

	s.send(s.turn.index(), Notification{
		Type: NotifyOpponentMove,
		Payload: OpponentMovePayload{
			Move:     relayed,
			TimeLeft: s.clocks.TimeLeft(s.turn, now),
		},
	})

	if result.Outcome != OutcomeNone {
		var loser *Color
		if result.Outcome == OutcomeCheckmate {
			mated := mover.Opponent()
			loser = &mated
		}
		s.end(reasonFor(result.Outcome), loser, now)
		return nil
	}

	s.clocks.Start(now)
	s.armDeadline(now)
	return nil
}

func (s *GameSession) Resign(actor ParticipantID) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverFault(&err)

	idx, err := s.activeSlot(actor)
	if err != nil {
		return err
	}

	loser := colorOf(idx)
	s.end(ReasonResign, &loser, s.clock.Now())
	return nil
}

func (s *GameSession) OfferDraw(actor ParticipantID) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverFault(&err)

	idx, err := s.activeSlot(actor)
	if err != nil {
		return err
	}
	if s.drawOffer != "" {
		return ErrDrawAlreadyPending
	}

	s.drawOffer = actor
	s.send(1-idx, Notification{Type: NotifyDrawOffered})
	return nil
}

func (s *GameSession) AcceptDraw(actor ParticipantID) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverFault(&err)

	idx, err := s.answerableDraw(actor)
	if err != nil {
		return err
	}

	s.send(1-idx, Notification{Type: NotifyDrawAccepted})
	s.end(ReasonDrawByAgreement, nil, s.clock.Now())
	return nil
}

func (s *GameSession) RejectDraw(actor ParticipantID) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverFault(&err)

	idx, err := s.answerableDraw(actor)
	if err != nil {
		return err
	}

	s.drawOffer = ""
	s.send(1-idx, Notification{Type: NotifyDrawRejected})
	return nil
}

func (s *GameSession) Chat(actor ParticipantID, text string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverFault(&err)

	idx, err := s.activeSlot(actor)
	if err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > s.maxChat {
		return fmt.Errorf("max %d characters: %w", s.maxChat, ErrMessageTooLong)
	}

	s.send(1-idx, Notification{
		Type: NotifyChatMessage,
		Payload: ChatMessagePayload{
			From: s.slots[idx].participant.Name,
			Text: text,
		},
	})
	return nil
}

// Disconnect marks the actor's slot as gone. The game goes on unless
// both sides are gone, in which case it is aborted. A conn that is no
// longer attached to the slot is ignored; a nil conn matches any.
func (s *GameSession) Disconnect(actor ParticipantID, conn Connection) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverFault(&err)

	idx, err := s.activeSlot(actor)
	if err != nil {
		return err
	}
	if conn != nil && s.slots[idx].participant.Conn != conn {
		s.logger.Debug("ignoring disconnect of replaced connection", zap.String("participant_id", string(actor)))
		return nil
	}
	if s.slots[idx].status == Disconnected {
		return nil
	}

	s.slots[idx].status = Disconnected
	s.send(1-idx, Notification{Type: NotifyOpponentDisconnected})

	s.logger.Info("participant disconnected", zap.String("participant_id", string(actor)))

	if s.slots[1-idx].status == Disconnected {
		s.end(ReasonAbort, nil, s.clock.Now())
	}
	return nil
}

// Reconnect attaches a fresh connection to the actor's slot and replays
// the game state to it.
func (s *GameSession) Reconnect(actor ParticipantID, conn Connection) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverFault(&err)

	idx, err := s.activeSlot(actor)
	if err != nil {
		return err
	}

	previous := s.slots[idx].participant.Conn
	if previous != nil && previous != conn && previous.Alive() {
		_ = previous.Close()
	}

	s.slots[idx].participant.Conn = conn
	s.slots[idx].status = Connected

	now := s.clock.Now()
	opponent := s.slots[1-idx].participant
	s.send(idx, Notification{
		Type: NotifyGameReconnect,
		Payload: GameReconnectPayload{
			SessionID:   s.id,
			Color:       colorOf(idx),
			TimeControl: s.timeControl,
			Opponent:    Opponent{ID: opponent.ID, Name: opponent.Name},
			Moves:       append([]json.RawMessage(nil), s.moves...),
			Turn:        s.turn,
			TimeLeft:    s.clocks.TimeLeft(s.turn, now),
			DrawOffered: s.drawOffer != "" && s.drawOffer != actor,
		},
	})
	s.send(1-idx, Notification{Type: NotifyOpponentReconnected})

	s.logger.Info("participant reconnected", zap.String("participant_id", string(actor)))
	return nil
}

// Abort ends an active game with no loser. Used on shutdown.
func (s *GameSession) Abort() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.recoverFault(&err)

	if s.status != StatusActive {
		return ErrGameNotActive
	}
	s.end(ReasonAbort, nil, s.clock.Now())
	return nil
}

type SlotSnapshot struct {
	Participant Opponent         `json:"participant"`
	Color       Color            `json:"color"`
	Connection  ConnectionStatus `json:"connection"`
}

type Snapshot struct {
	ID          string           `json:"id"`
	Status      Status           `json:"status"`
	TimeControl TimeControl      `json:"timeControl"`
	Slots       [2]SlotSnapshot  `json:"slots"`
	Turn        Color            `json:"turn"`
	TimeLeft    TimeLeft         `json:"timeLeft"`
	DrawOffer   ParticipantID    `json:"drawOffer,omitempty"`
	Moves       int              `json:"moves"`
	Result      *GameOverPayload `json:"result,omitempty"`
}

func (s *GameSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if s.status == StatusEnded {
		now = s.endedAt
	}

	snapshot := Snapshot{
		ID:          s.id,
		Status:      s.status,
		TimeControl: s.timeControl,
		Turn:        s.turn,
		TimeLeft:    s.clocks.TimeLeft(s.turn, now),
		DrawOffer:   s.drawOffer,
		Moves:       len(s.moves),
		Result:      s.result,
	}
	for i, sl := range s.slots {
		snapshot.Slots[i] = SlotSnapshot{
			Participant: Opponent{ID: sl.participant.ID, Name: sl.participant.Name},
			Color:       colorOf(i),
			Connection:  sl.status,
		}
	}

	return snapshot
}

func (s *GameSession) activeSlot(actor ParticipantID) (int, error) {
	if s.status != StatusActive {
		return 0, ErrGameNotActive
	}
	for i, id := range s.ids {
		if id == actor {
			return i, nil
		}
	}
	return 0, ErrNotParticipant
}

func (s *GameSession) answerableDraw(actor ParticipantID) (int, error) {
	idx, err := s.activeSlot(actor)
	if err != nil {
		return 0, err
	}
	if s.drawOffer == "" {
		return 0, ErrNoDrawPending
	}
	if s.drawOffer == actor {
		return 0, ErrCannotAcceptOwnOffer
	}
	return idx, nil
}

func (s *GameSession) attempt(move json.RawMessage) (result MoveResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("oracle panic: %v", r)
		}
	}()
	if s.oracle == nil {
		return MoveResult{}, fmt.Errorf("no move oracle configured")
	}
	return s.oracle.Attempt(move)
}

// armDeadline schedules the one-shot flag fall for the side to move.
// Must be called with s.mu held.
func (s *GameSession) armDeadline(now time.Time) {
	s.generation++
	generation := s.generation

	left := s.clocks.Remaining(s.turn, s.turn, now)
	s.deadline = s.clock.AfterFunc(left, func() {
		s.onDeadline(generation)
	})
}

func (s *GameSession) stopDeadline() {
	s.generation++
	if s.deadline != nil {
		s.deadline.Stop()
		s.deadline = nil
	}
}

func (s *GameSession) onDeadline(generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	defer func() {
		if err != nil {
			s.logger.Error("turn deadline failed", zap.Error(err))
		}
	}()
	defer s.recoverFault(&err)

	if s.status != StatusActive || generation != s.generation {
		return
	}

	now := s.clock.Now()
	if s.clocks.Remaining(s.turn, s.turn, now) > 0 {
		s.armDeadline(now)
		return
	}
	s.expire(now)
}

// expire ends the game on the side to move running out of time. With
// the opponent gone as well there is nobody to award the game to.
func (s *GameSession) expire(now time.Time) {
	s.clocks.Stop(s.turn, now)

	if s.slots[s.turn.Opponent().index()].status == Disconnected {
		s.end(ReasonAbort, nil, now)
		return
	}

	loser := s.turn
	s.end(ReasonTimeout, &loser, now)
}

// end is the single termination path. Must be called with s.mu held.
func (s *GameSession) end(reason EndReason, loser *Color, now time.Time) {
	if s.status == StatusEnded {
		return
	}

	s.status = StatusEnded
	s.stopDeadline()
	s.clocks.Stop(s.turn, now)
	s.endedAt = now
	s.drawOffer = ""
	s.result = &GameOverPayload{Reason: reason, Loser: loser}

	gameOver := Notification{Type: NotifyGameOver, Payload: *s.result}
	for i := range s.slots {
		if s.slots[i].status == Connected {
			s.send(i, gameOver)
		}
	}
	for i := range s.slots {
		if conn := s.slots[i].participant.Conn; conn != nil {
			if err := conn.Close(); err != nil {
				s.logger.Debug("closing connection", zap.Error(err))
			}
		}
	}

	fields := []zap.Field{
		zap.String("reason", string(reason)),
		zap.Int("moves", len(s.moves)),
	}
	if loser != nil {
		fields = append(fields, zap.String("loser", string(*loser)))
	}
	s.logger.Info("game over", fields...)

	if s.onEnded != nil {
		s.onEnded(s, s.record())
	}
}

func (s *GameSession) record() GameRecord {
	white, black := s.slots[0].participant, s.slots[1].participant

	r := GameRecord{
		SessionID:   s.id,
		WhiteID:     white.ID,
		WhiteName:   white.Name,
		BlackID:     black.ID,
		BlackName:   black.Name,
		TimeControl: s.timeControl,
		Moves:       len(s.moves),
		WhiteTimeMs: s.clocks.Remaining(White, s.turn, s.endedAt).Milliseconds(),
		BlackTimeMs: s.clocks.Remaining(Black, s.turn, s.endedAt).Milliseconds(),
		StartedAt:   s.startedAt,
		EndedAt:     s.endedAt,
	}
	if s.result != nil {
		r.Reason = s.result.Reason
		r.Loser = s.result.Loser
	}
	return r
}

func (s *GameSession) send(idx int, n Notification) {
	p := s.slots[idx].participant
	if !p.Live() {
		return
	}
	if err := p.Conn.Send(n); err != nil {
		s.logger.Warn("notification dropped",
			zap.String("participant_id", string(p.ID)),
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
	}
}

func (s *GameSession) recoverFault(err *error) {
	if r := recover(); r != nil {
		s.logger.Error("game session panicked", zap.Any("panic", r), zap.Stack("stack"))
		*err = fmt.Errorf("%v: %w", r, ErrSessionFault)
	}
}
