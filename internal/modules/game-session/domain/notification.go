package domain

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotifyWaiting              NotificationType = "waiting"
	NotifyInviteCode           NotificationType = "invite_code"
	NotifyGameBegin            NotificationType = "game_begin"
	NotifyGameReconnect        NotificationType = "game_reconnect"
	NotifyOpponentMove         NotificationType = "opponent_move"
	NotifyOpponentDisconnected NotificationType = "opponent_disconnected"
	NotifyOpponentReconnected  NotificationType = "opponent_reconnected"
	NotifyDrawOffered          NotificationType = "draw_offered"
	NotifyDrawAccepted         NotificationType = "draw_accepted"
	NotifyDrawRejected         NotificationType = "draw_rejected"
	NotifyChatMessage          NotificationType = "chat_message"
	NotifyGameOver             NotificationType = "game_over"
	NotifyError                NotificationType = "error"
)

type Notification struct {
	Type    NotificationType `json:"type"`
	Payload any              `json:"payload,omitempty"`
}

// TimeLeft is both clocks in milliseconds, keyed by color.
type TimeLeft map[Color]int64

type WaitingPayload struct {
	TimeControl    TimeControl `json:"timeControl"`
	AlreadyWaiting bool        `json:"alreadyWaiting,omitempty"`
}

type InviteCodePayload struct {
	Code        string      `json:"code"`
	TimeControl TimeControl `json:"timeControl"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

type GameBeginPayload struct {
	SessionID   string      `json:"sessionId"`
	Color       Color       `json:"color"`
	TimeControl TimeControl `json:"timeControl"`
	Opponent    Opponent    `json:"opponent"`
	TimeLeft    TimeLeft    `json:"timeLeft"`
}

type GameReconnectPayload struct {
	SessionID   string            `json:"sessionId"`
	Color       Color             `json:"color"`
	TimeControl TimeControl       `json:"timeControl"`
	Opponent    Opponent          `json:"opponent"`
	Moves       []json.RawMessage `json:"moves"`
	Turn        Color             `json:"turn"`
	TimeLeft    TimeLeft          `json:"timeLeft"`
	DrawOffered bool              `json:"drawOffered"`
}

type OpponentMovePayload struct {
	Move     json.RawMessage `json:"move"`
	TimeLeft TimeLeft        `json:"timeLeft"`
}

type ChatMessagePayload struct {
	From string `json:"from"`
	Text string `json:"text"`
}

type GameOverPayload struct {
	Reason EndReason `json:"reason"`
	Loser  *Color    `json:"loser"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func ErrorNotification(code, message string) Notification {
	return Notification{Type: NotifyError, Payload: ErrorPayload{Code: code, Message: message}}
}
