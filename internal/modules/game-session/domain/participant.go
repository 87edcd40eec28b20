package domain

type ParticipantID string

type Color string

const (
	White Color = "w"
	Black Color = "b"
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) index() int {
	if c == White {
		return 0
	}
	return 1
}

func colorOf(index int) Color {
	if index == 0 {
		return White
	}
	return Black
}

type ConnectionStatus string

const (
	Connected    ConnectionStatus = "connected"
	Disconnected ConnectionStatus = "disconnected"
)

// Connection is the outbound half of a participant's transport. Send
// must not block on the network.
type Connection interface {
	Send(Notification) error
	Close() error
	Alive() bool
}

// Participant is an authenticated identity plus its current connection.
// The connection may go stale while the identity stays valid.
type Participant struct {
	ID   ParticipantID `json:"id"`
	Name string        `json:"name"`
	Conn Connection    `json:"-"`
}

func (p Participant) Live() bool {
	return p.Conn != nil && p.Conn.Alive()
}

type Opponent struct {
	ID   ParticipantID `json:"id"`
	Name string        `json:"name"`
}
