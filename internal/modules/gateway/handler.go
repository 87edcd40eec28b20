// Package gateway serves the websocket endpoint participants play
// through.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/eskrenkovic/matchroom/internal/modules/auth"
	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/commands"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"
)

const (
	DefaultOutboundBuffer  = 64
	DefaultWriteTimeout    = 5 * time.Second
	DefaultMaxFrameBytes   = 16 << 10
	DefaultFramesPerSecond = 10
	DefaultFrameBurst      = 20
	DefaultDecodeErrors    = 5
)

type Options struct {
	Authenticator   auth.Authenticator
	Sessions        commands.SessionFinder
	Logger          *zap.Logger
	OutboundBuffer  int
	WriteTimeout    time.Duration
	MaxFrameBytes   int
	FramesPerSecond float64
	FrameBurst      int
	MaxDecodeErrors int
}

// Handler upgrades authenticated requests to websockets and turns
// inbound frames into actions.
type Handler struct {
	authenticator auth.Authenticator
	sessions      commands.SessionFinder
	logger        *zap.Logger
	hub           *hub

	outboundBuffer  int
	writeTimeout    time.Duration
	maxFrameBytes   int
	framesPerSecond rate.Limit
	frameBurst      int
	maxDecodeErrors int
}

func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.OutboundBuffer <= 0 {
		opts.OutboundBuffer = DefaultOutboundBuffer
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.MaxFrameBytes <= 0 {
		opts.MaxFrameBytes = DefaultMaxFrameBytes
	}
	if opts.FramesPerSecond <= 0 {
		opts.FramesPerSecond = DefaultFramesPerSecond
	}
	if opts.FrameBurst <= 0 {
		opts.FrameBurst = DefaultFrameBurst
	}
	if opts.MaxDecodeErrors <= 0 {
		opts.MaxDecodeErrors = DefaultDecodeErrors
	}

	return &Handler{
		authenticator:   opts.Authenticator,
		sessions:        opts.Sessions,
		logger:          opts.Logger,
		hub:             newHub(),
		outboundBuffer:  opts.OutboundBuffer,
		writeTimeout:    opts.WriteTimeout,
		maxFrameBytes:   opts.MaxFrameBytes,
		framesPerSecond: rate.Limit(opts.FramesPerSecond),
		frameBurst:      opts.FrameBurst,
		maxDecodeErrors: opts.MaxDecodeErrors,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		core.WriteUnauthorized(w, r, errors.New("missing token"))
		return
	}

	identity, err := h.authenticator.Authenticate(token)
	if err != nil {
		core.WriteUnauthorized(w, r, err)
		return
	}

	if h.hub.connected(domain.ParticipantID(identity.ParticipantID)) {
		core.WriteResponse(w, r, http.StatusConflict, core.ErrorBody{
			Code:    "already_connected",
			Message: domain.ErrAlreadyConnected.Error(),
		})
		return
	}

	ctx := core.WithIdentity(r.Context(), identity)
	server := websocket.Server{
		Handler: func(ws *websocket.Conn) {
			h.serve(ctx, ws, identity)
		},
	}
	server.ServeHTTP(w, r.WithContext(ctx))
}

// Connected reports how many participants hold a live socket.
func (h *Handler) Connected() int {
	return h.hub.count()
}

// Close closes every open socket. Read loops then exit and report the
// disconnects.
func (h *Handler) Close() {
	h.hub.closeAll()
}

func (h *Handler) serve(ctx context.Context, ws *websocket.Conn, identity core.Identity) {
	id := domain.ParticipantID(identity.ParticipantID)
	logger := h.logger.With(
		zap.String("participant_id", string(id)),
		zap.String("correlation_id", core.CorrelationID(ctx)),
	)
	ctx = core.WithLogger(ctx, logger)

	ws.MaxPayloadBytes = h.maxFrameBytes
	conn := newWSConn(ws, logger, h.outboundBuffer, h.writeTimeout)
	go conn.writeLoop()
	defer conn.wait()
	defer conn.Close()

	if !h.hub.claim(id, conn) {
		_ = conn.Send(domain.ErrorNotification("already_connected", domain.ErrAlreadyConnected.Error()))
		return
	}
	defer h.hub.release(id, conn)

	logger.Info("participant connected")

	participant := domain.Participant{ID: id, Name: identity.Name, Conn: conn}

	if _, seated := h.sessions.Lookup(id); seated {
		h.dispatch(ctx, conn, commands.ReconnectCommand{Participant: participant})
	}

	h.readLoop(ctx, ws, conn, participant)

	h.dispatch(context.WithoutCancel(ctx), conn, commands.DisconnectCommand{ParticipantID: id, Conn: conn})
	logger.Info("participant disconnected")
}

func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, conn *wsConn, p domain.Participant) {
	limiter := rate.NewLimiter(h.framesPerSecond, h.frameBurst)
	decodeErrors := 0

	for conn.Alive() {
		var frame Frame
		err := websocket.JSON.Receive(ws, &frame)
		switch {
		case err == nil:
		case isDecodeError(err):
			decodeErrors++
			_ = conn.Send(domain.ErrorNotification("malformed_payload", "invalid frame"))
			if decodeErrors >= h.maxDecodeErrors {
				core.Logger(ctx).Warn("closing connection after repeated malformed frames")
				return
			}
			continue
		default:
			if !errors.Is(err, io.EOF) {
				core.Logger(ctx).Debug("websocket read ended", zap.Error(err))
			}
			return
		}

		if !limiter.Allow() {
			_ = conn.Send(domain.ErrorNotification("rate_limited", "too many frames"))
			continue
		}

		action, err := decodeAction(frame, p)
		if err != nil {
			decodeErrors++
			h.reportError(ctx, conn, err)
			if decodeErrors >= h.maxDecodeErrors {
				core.Logger(ctx).Warn("closing connection after repeated malformed frames")
				return
			}
			continue
		}
		decodeErrors = 0

		h.dispatch(ctx, conn, action)
	}
}

func (h *Handler) dispatch(ctx context.Context, conn *wsConn, action commands.Action) {
	if _, err := commands.Dispatch(ctx, action); err != nil {
		h.reportError(ctx, conn, err)
	}
}

// reportError sends err to the client unless it is one the client
// should never see.
func (h *Handler) reportError(ctx context.Context, conn *wsConn, err error) {
	if domain.IsSilent(err) {
		core.Logger(ctx).Debug("silent action error", zap.Error(err))
		return
	}

	code, message := describe(err)
	if sendErr := conn.Send(domain.ErrorNotification(code, message)); sendErr != nil {
		core.Logger(ctx).Debug("error notification dropped", zap.Error(sendErr))
	}
}

func describe(err error) (string, string) {
	switch {
	case errors.Is(err, errUnknownFrameType):
		return "unknown_frame_type", err.Error()
	}

	code := commands.ErrorCode(err)
	if code == "" {
		code = "internal_error"
	}

	var commandErr core.CommandError
	if errors.As(err, &commandErr) {
		if commandErr.StatusCode >= http.StatusInternalServerError && code == "internal_error" {
			return code, http.StatusText(http.StatusInternalServerError)
		}
		return code, commandErr.Message()
	}

	if code == "internal_error" {
		return code, http.StatusText(http.StatusInternalServerError)
	}
	return code, err.Error()
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, websocket.ErrFrameTooLarge)
}
