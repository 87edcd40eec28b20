package matchmaking

import (
	"context"
	"sync"
	"time"

	"github.com/eskrenkovic/matchroom/internal/clock"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultInviteExpiry     = 15 * time.Minute
	DefaultQueueLockTimeout = 2 * time.Second

	recordTimeout = 5 * time.Second
)

type JoinOutcome string

const (
	JoinWaiting        JoinOutcome = "waiting"
	JoinAlreadyWaiting JoinOutcome = "already_waiting"
	JoinPaired         JoinOutcome = "paired"
)

type JoinResult struct {
	Outcome JoinOutcome
	Session *domain.GameSession
}

type QueueCount struct {
	TimeControl domain.TimeControl `json:"timeControl"`
	Waiting     int                `json:"waiting"`
}

type Status struct {
	Queues         []QueueCount `json:"queues"`
	PendingInvites int          `json:"pendingInvites"`
	ActiveSessions int          `json:"activeSessions"`
}

type Options struct {
	TimeControls     domain.TimeControlSet
	Oracles          domain.OracleFactory
	Clock            clock.Clock
	Logger           *zap.Logger
	Recorder         domain.Recorder
	InviteExpiry     time.Duration
	QueueLockTimeout time.Duration
	MaxChatLength    int
}

// Matchmaker pairs participants through per time control queues or
// invite codes and owns the sessions it creates until they end.
type Matchmaker struct {
	timeControls     domain.TimeControlSet
	oracles          domain.OracleFactory
	clock            clock.Clock
	logger           *zap.Logger
	recorder         domain.Recorder
	inviteExpiry     time.Duration
	queueLockTimeout time.Duration
	maxChatLength    int

	registry *Registry
	queues   map[domain.TimeControl]*waitingQueue
	invites  *inviteTable
	records  sync.WaitGroup
}

func NewMatchmaker(opts Options) *Matchmaker {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.InviteExpiry <= 0 {
		opts.InviteExpiry = DefaultInviteExpiry
	}
	if opts.QueueLockTimeout <= 0 {
		opts.QueueLockTimeout = DefaultQueueLockTimeout
	}
	if len(opts.TimeControls.All()) == 0 {
		opts.TimeControls = domain.NewTimeControlSet()
	}

	m := &Matchmaker{
		timeControls:     opts.TimeControls,
		oracles:          opts.Oracles,
		clock:            opts.Clock,
		logger:           opts.Logger,
		recorder:         opts.Recorder,
		inviteExpiry:     opts.InviteExpiry,
		queueLockTimeout: opts.QueueLockTimeout,
		maxChatLength:    opts.MaxChatLength,
		registry:         NewRegistry(),
		queues:           make(map[domain.TimeControl]*waitingQueue),
		invites:          newInviteTable(),
	}

	for _, tc := range m.timeControls.All() {
		m.queues[tc] = newWaitingQueue(tc)
	}

	return m
}

func (m *Matchmaker) Registry() *Registry {
	return m.registry
}

func (m *Matchmaker) TimeControls() domain.TimeControlSet {
	return m.timeControls
}

// JoinQueue parks p under tc, or pairs p with the longest waiting live
// participant there. The waiting participant plays white.
func (m *Matchmaker) JoinQueue(ctx context.Context, p domain.Participant, tc domain.TimeControl) (JoinResult, error) {
	if err := m.timeControls.Validate(tc); err != nil {
		return JoinResult{}, err
	}
	if m.registry.Seated(p.ID) {
		return JoinResult{}, domain.ErrAlreadyInSession
	}

	q := m.queues[tc]
	unlock, err := q.lock(ctx, m.queueLockTimeout)
	if err != nil {
		return JoinResult{}, err
	}

	result, err := m.joinLocked(q, p)
	unlock()
	if err != nil {
		return JoinResult{}, err
	}

	switch result.Outcome {
	case JoinPaired:
		ids := result.Session.Participants()
		m.detach(ctx, nil, ids[0], ids[1])
	case JoinWaiting:
		m.detach(ctx, q, p.ID)
		m.logger.Info("participant waiting",
			zap.String("participant_id", string(p.ID)),
			zap.Stringer("time_control", tc),
		)
	}

	return result, nil
}

// joinLocked must run with q locked. A joiner seated since JoinQueue
// checked is rejected without disturbing the queue.
func (m *Matchmaker) joinLocked(q *waitingQueue, p domain.Participant) (JoinResult, error) {
	if m.registry.Seated(p.ID) {
		return JoinResult{}, domain.ErrAlreadyInSession
	}

	if i := q.indexOf(p.ID); i >= 0 {
		if q.entries[i].participant.Live() {
			return JoinResult{Outcome: JoinAlreadyWaiting}, nil
		}
		q.entries[i].participant = p
		return JoinResult{Outcome: JoinWaiting}, nil
	}

	q.prune(m.registry.Seated)

	for len(q.entries) > 0 {
		head := q.entries[0]

		session := m.newSession(head.participant, p, q.timeControl)
		if err := m.registry.Register(session); err != nil {
			switch {
			case m.registry.Seated(p.ID):
				return JoinResult{}, domain.ErrAlreadyInSession
			case m.registry.Seated(head.participant.ID):
				m.logger.Debug("skipping seated queue entry",
					zap.String("participant_id", string(head.participant.ID)),
					zap.Error(err),
				)
				q.removeAt(0)
			}
			continue
		}

		q.removeAt(0)
		m.start(session)
		return JoinResult{Outcome: JoinPaired, Session: session}, nil
	}

	q.entries = append(q.entries, queueEntry{participant: p, enqueuedAt: m.clock.Now()})
	return JoinResult{Outcome: JoinWaiting}, nil
}

// CreateInvite issues a fresh code for p. Any invite p still had is
// revoked, so each creator has at most one live code.
func (m *Matchmaker) CreateInvite(p domain.Participant, tc domain.TimeControl) (Invite, error) {
	if err := m.timeControls.Validate(tc); err != nil {
		return Invite{}, err
	}
	if m.registry.Seated(p.ID) {
		return Invite{}, domain.ErrAlreadyInSession
	}

	m.invites.mu.Lock()
	defer m.invites.mu.Unlock()

	if previous, ok := m.invites.byCreator[p.ID]; ok {
		m.invites.drop(previous)
	}

	now := m.clock.Now()
	inv := &pendingInvite{
		Invite: Invite{
			Code:        m.invites.newCode(),
			TimeControl: tc,
			IssuedAt:    now,
			ExpiresAt:   now.Add(m.inviteExpiry),
		},
		creator: p,
	}
	inv.timer = m.clock.AfterFunc(m.inviteExpiry, func() {
		m.expireInvite(inv)
	})

	m.invites.byCode[inv.Code] = inv
	m.invites.byCreator[p.ID] = inv

	m.logger.Info("invite created",
		zap.String("participant_id", string(p.ID)),
		zap.String("code", inv.Code),
		zap.Stringer("time_control", tc),
	)

	return inv.Invite, nil
}

// RedeemInvite pairs p with the creator of code. The code is consumed
// only when the session got created.
func (m *Matchmaker) RedeemInvite(ctx context.Context, p domain.Participant, code string) (*domain.GameSession, error) {
	m.invites.mu.Lock()

	inv, ok := m.invites.byCode[code]
	if !ok {
		m.invites.mu.Unlock()
		return nil, domain.ErrInvalidInviteCode
	}
	if !m.clock.Now().Before(inv.ExpiresAt) || !inv.creator.Live() {
		m.invites.drop(inv)
		m.invites.mu.Unlock()
		return nil, domain.ErrInvalidInviteCode
	}
	if inv.creator.ID == p.ID {
		m.invites.mu.Unlock()
		return nil, domain.ErrSelfRedeem
	}

	session := m.newSession(inv.creator, p, inv.TimeControl)
	if err := m.registry.Register(session); err != nil {
		m.invites.mu.Unlock()
		return nil, err
	}
	m.invites.drop(inv)
	m.start(session)

	m.invites.mu.Unlock()

	ids := session.Participants()
	m.detach(ctx, nil, ids[0], ids[1])

	return session, nil
}

// Leave removes every queue entry and the invite owned by id.
func (m *Matchmaker) Leave(ctx context.Context, id domain.ParticipantID) {
	m.detach(ctx, nil, id)
}

// Disconnect removes the queue entries and the invite id still holds
// through conn. Entries made through a newer connection stay.
func (m *Matchmaker) Disconnect(ctx context.Context, id domain.ParticipantID, conn domain.Connection) {
	if conn == nil {
		m.Leave(ctx, id)
		return
	}

	for _, q := range m.queues {
		unlock, err := q.lock(ctx, m.queueLockTimeout)
		if err != nil {
			m.logger.Warn("detaching connection from queue",
				zap.Stringer("time_control", q.timeControl),
				zap.Error(err),
			)
			continue
		}
		q.removeConn(id, conn)
		unlock()
	}

	m.invites.dropCreatorConn(id, conn)
}

// Status reports live waiting entries per time control.
func (m *Matchmaker) Status(ctx context.Context) (Status, error) {
	status := Status{
		PendingInvites: m.invites.count(),
		ActiveSessions: m.registry.Count(),
	}

	for _, tc := range m.timeControls.All() {
		q := m.queues[tc]
		unlock, err := q.lock(ctx, m.queueLockTimeout)
		if err != nil {
			return Status{}, err
		}

		waiting := 0
		for _, e := range q.entries {
			if e.participant.Live() {
				waiting++
			}
		}
		unlock()

		status.Queues = append(status.Queues, QueueCount{TimeControl: tc, Waiting: waiting})
	}

	return status, nil
}

// Close drops every queue entry and invite, aborts running sessions and
// waits until their records are handed to the recorder or ctx is done.
func (m *Matchmaker) Close(ctx context.Context) {
	m.invites.mu.Lock()
	for _, inv := range m.invites.byCode {
		m.invites.drop(inv)
	}
	m.invites.mu.Unlock()

	for _, q := range m.queues {
		unlock, err := q.lock(ctx, m.queueLockTimeout)
		if err != nil {
			m.logger.Warn("clearing queue", zap.Stringer("time_control", q.timeControl), zap.Error(err))
			continue
		}
		q.entries = nil
		unlock()
	}

	for _, session := range m.registry.Active() {
		if err := session.Abort(); err != nil {
			m.logger.Debug("aborting session", zap.String("session_id", session.ID()), zap.Error(err))
		}
	}

	recorded := make(chan struct{})
	go func() {
		m.records.Wait()
		close(recorded)
	}()

	select {
	case <-recorded:
	case <-ctx.Done():
		m.logger.Warn("waiting for game records", zap.Error(ctx.Err()))
	}
}

func (m *Matchmaker) newSession(white, black domain.Participant, tc domain.TimeControl) *domain.GameSession {
	var oracle domain.MoveOracle
	if m.oracles != nil {
		oracle = m.oracles()
	}

	return domain.NewGameSession(domain.SessionOptions{
		ID:            uuid.NewString(),
		White:         white,
		Black:         black,
		TimeControl:   tc,
		Oracle:        oracle,
		Clock:         m.clock,
		Logger:        m.logger,
		MaxChatLength: m.maxChatLength,
		OnEnded:       m.sessionEnded,
	})
}

func (m *Matchmaker) start(session *domain.GameSession) {
	if err := session.Start(); err != nil {
		m.logger.Error("starting session", zap.String("session_id", session.ID()), zap.Error(err))
	}
}

// sessionEnded runs under the ended session's lock.
func (m *Matchmaker) sessionEnded(session *domain.GameSession, record domain.GameRecord) {
	m.registry.Remove(session)

	if m.recorder == nil {
		return
	}

	m.records.Add(1)
	go func() {
		defer m.records.Done()

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := m.recorder.Record(ctx, record); err != nil {
			m.logger.Error("recording finished game",
				zap.String("session_id", record.SessionID),
				zap.Error(err),
			)
		}
	}()
}

func (m *Matchmaker) expireInvite(inv *pendingInvite) {
	m.invites.mu.Lock()
	defer m.invites.mu.Unlock()

	if m.invites.byCode[inv.Code] != inv {
		return
	}
	m.invites.drop(inv)

	m.logger.Info("invite expired", zap.String("code", inv.Code))
}

// detach removes ids from every queue except skip, and drops their
// invites. It must run without any queue lock held.
func (m *Matchmaker) detach(ctx context.Context, skip *waitingQueue, ids ...domain.ParticipantID) {
	for _, q := range m.queues {
		if q == skip {
			continue
		}

		unlock, err := q.lock(ctx, m.queueLockTimeout)
		if err != nil {
			m.logger.Warn("detaching participant from queue",
				zap.Stringer("time_control", q.timeControl),
				zap.Error(err),
			)
			continue
		}
		q.remove(ids...)
		unlock()
	}

	if skip == nil {
		m.invites.dropCreators(ids...)
	}
}
