package matchmaking

import (
	"sync"
	"time"

	"github.com/eskrenkovic/matchroom/internal/clock"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"

	"github.com/google/uuid"
)

const inviteCodeLength = 6

// Invite is the creator-facing view of a pending invite code.
type Invite struct {
	Code        string             `json:"code"`
	TimeControl domain.TimeControl `json:"timeControl"`
	IssuedAt    time.Time          `json:"issuedAt"`
	ExpiresAt   time.Time          `json:"expiresAt"`
}

type pendingInvite struct {
	Invite
	creator domain.Participant
	timer   clock.Timer
}

type inviteTable struct {
	mu        sync.Mutex
	byCode    map[string]*pendingInvite
	byCreator map[domain.ParticipantID]*pendingInvite
}

func newInviteTable() *inviteTable {
	return &inviteTable{
		byCode:    make(map[string]*pendingInvite),
		byCreator: make(map[domain.ParticipantID]*pendingInvite),
	}
}

// newCode returns an unused short code. Must be called with t.mu held.
func (t *inviteTable) newCode() string {
	for {
		code := uuid.NewString()[:inviteCodeLength]
		if _, taken := t.byCode[code]; !taken {
			return code
		}
	}
}

// drop deletes inv and cancels its expiry. Must be called with t.mu held.
func (t *inviteTable) drop(inv *pendingInvite) {
	if inv.timer != nil {
		inv.timer.Stop()
	}
	if t.byCode[inv.Code] == inv {
		delete(t.byCode, inv.Code)
	}
	if t.byCreator[inv.creator.ID] == inv {
		delete(t.byCreator, inv.creator.ID)
	}
}

func (t *inviteTable) dropCreators(ids ...domain.ParticipantID) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	dropped := 0
	for _, id := range ids {
		if inv, ok := t.byCreator[id]; ok {
			t.drop(inv)
			dropped++
		}
	}
	return dropped
}

func (t *inviteTable) dropCreatorConn(id domain.ParticipantID, conn domain.Connection) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	inv, ok := t.byCreator[id]
	if !ok || inv.creator.Conn != conn {
		return false
	}
	t.drop(inv)
	return true
}

func (t *inviteTable) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byCode)
}
