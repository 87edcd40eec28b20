package matchmaking

import (
	"context"
	"errors"
	"time"

	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"

	"golang.org/x/sync/semaphore"
)

type queueEntry struct {
	participant domain.Participant
	enqueuedAt  time.Time
}

// waitingQueue holds the participants parked under one time control.
// entries is only touched while sem is held.
type waitingQueue struct {
	timeControl domain.TimeControl
	sem         *semaphore.Weighted
	entries     []queueEntry
}

func newWaitingQueue(tc domain.TimeControl) *waitingQueue {
	return &waitingQueue{
		timeControl: tc,
		sem:         semaphore.NewWeighted(1),
	}
}

// lock waits at most timeout for exclusive access to the queue.
func (q *waitingQueue) lock(ctx context.Context, timeout time.Duration) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := q.sem.Acquire(ctx, 1); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrQueueLockTimeout
		}
		return nil, err
	}

	return func() { q.sem.Release(1) }, nil
}

func (q *waitingQueue) indexOf(id domain.ParticipantID) int {
	for i, e := range q.entries {
		if e.participant.ID == id {
			return i
		}
	}
	return -1
}

func (q *waitingQueue) removeAt(i int) queueEntry {
	e := q.entries[i]
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	return e
}

// prune drops entries whose connection went away or who got seated
// elsewhere since they parked.
func (q *waitingQueue) prune(seated func(domain.ParticipantID) bool) {
	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.participant.Live() && !seated(e.participant.ID) {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(q.entries); i++ {
		q.entries[i] = queueEntry{}
	}
	q.entries = kept
}

func (q *waitingQueue) remove(ids ...domain.ParticipantID) int {
	removed := 0
	for _, id := range ids {
		if i := q.indexOf(id); i >= 0 {
			q.removeAt(i)
			removed++
		}
	}
	return removed
}

// removeConn drops id's entry only while it is still parked on conn.
func (q *waitingQueue) removeConn(id domain.ParticipantID, conn domain.Connection) bool {
	i := q.indexOf(id)
	if i < 0 || q.entries[i].participant.Conn != conn {
		return false
	}
	q.removeAt(i)
	return true
}
