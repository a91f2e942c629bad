package signal

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/ports"
	"queuecast/internal/infrastructure/monitoring"
	apperrors "queuecast/pkg/errors"
	"queuecast/pkg/config"
	"queuecast/pkg/tracing"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WebSocketServer accepts viewer connections and translates joinQueue and
// leaveQueue frames into hub membership changes.
type WebSocketServer struct {
	hub      *Hub
	queues   ports.QueueService
	locker   ports.QueueLocker
	upgrader websocket.Upgrader

	pingInterval   time.Duration
	pongTimeout    time.Duration
	writeTimeout   time.Duration
	sendBuffer     int
	maxMessageSize int64

	messageRate  rate.Limit
	messageBurst int

	metrics *monitoring.PrometheusCollector
	logger  *zap.SugaredLogger
}

var _ ports.WebSocketHandler = (*WebSocketServer)(nil)

func NewWebSocketServer(
	cfg *config.Config,
	hub *Hub,
	queues ports.QueueService,
	locker ports.QueueLocker,
	metrics *monitoring.PrometheusCollector,
	logger *zap.SugaredLogger,
) *WebSocketServer {
	s := &WebSocketServer{
		hub:            hub,
		queues:         queues,
		locker:         locker,
		pingInterval:   cfg.Signal.PingInterval,
		pongTimeout:    cfg.Signal.PongTimeout,
		writeTimeout:   cfg.Signal.WriteTimeout,
		sendBuffer:     cfg.Signal.SendBuffer,
		maxMessageSize: cfg.RateLimiting.WebSocket.MaxMessageSizeBytes,
		metrics:        metrics,
		logger:         logger,
	}
	if cfg.RateLimiting.Enabled {
		s.messageRate = rate.Limit(cfg.RateLimiting.WebSocket.MessagesPerSecond)
		s.messageBurst = cfg.RateLimiting.WebSocket.Burst
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.Auth.AllowedOrigins),
	}
	return s
}

// originChecker allows requests without an Origin header, any origin when
// the list contains "*", and otherwise exact scheme://host matches.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	var limiter *rate.Limiter
	if s.messageRate > 0 {
		limiter = rate.NewLimiter(s.messageRate, s.messageBurst)
	}
	session := newSession(conn, s.sendBuffer, limiter)
	s.hub.Register(session)
	go session.writePump(s.pingInterval, s.writeTimeout)

	s.logger.Infow("viewer connected", "session_id", session.id, "remote_addr", r.RemoteAddr)

	defer func() {
		s.hub.Unregister(session)
		session.close()
		s.logger.Infow("viewer disconnected", "session_id", session.id)
	}()

	if s.maxMessageSize > 0 {
		conn.SetReadLimit(s.maxMessageSize)
	}
	conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
		return nil
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Infow("error reading message from viewer", "session_id", session.id, "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.pongTimeout))

		if messageType != websocket.TextMessage {
			s.sendError(session, apperrors.NewProtocolError("text frames only"))
			continue
		}
		if !session.allow() {
			s.sendError(session, apperrors.NewRateLimitError())
			continue
		}
		if err := s.handleMessage(r.Context(), session, data); err != nil {
			s.logger.Debugw("rejected viewer message", "session_id", session.id, "error", err)
			s.sendError(session, err)
		}
	}
}

func (s *WebSocketServer) handleMessage(ctx context.Context, session *Session, data []byte) error {
	cmd, err := DecodeCommand(data)
	if err != nil {
		s.metrics.RecordWSMessage("invalid")
		return err
	}
	s.metrics.RecordWSMessage(cmd.command())

	ctx, span := tracing.TraceWebSocketMessage(ctx, cmd.command(), session.id)
	defer span.End()

	switch c := cmd.(type) {
	case JoinQueue:
		span.SetAttributes(tracing.QueueIDKey.Int64(int64(c.QueueID)))
		return s.handleJoin(ctx, session, c.QueueID)
	case LeaveQueue:
		span.SetAttributes(tracing.QueueIDKey.Int64(int64(c.QueueID)))
		s.hub.Leave(session, c.QueueID)
		return nil
	default:
		return apperrors.NewProtocolError("unsupported message")
	}
}

// handleJoin reads the current list, then adds the session to the room and
// sends it the list. All of it happens under the queue lock so no broadcast
// can slip between the snapshot read and its delivery. A failed read leaves
// membership untouched.
func (s *WebSocketServer) handleJoin(ctx context.Context, session *Session, queueID domain.QueueID) error {
	release, err := s.locker.Lock(ctx, queueID)
	if err != nil {
		tracing.RecordError(ctx, err)
		return apperrors.NewInternalError(err)
	}
	defer release()

	items, err := s.queues.ListItems(ctx, queueID)
	if err != nil {
		tracing.RecordError(ctx, err)
		return err
	}

	frame, err := EncodeEvent(NewQueueItemsEvent(queueID, items))
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	s.hub.Join(session, queueID)
	if !session.deliver(frame, s.writeTimeout) {
		s.logger.Warnw("failed to deliver join snapshot", "session_id", session.id, "queue_id", queueID)
	}
	return nil
}

func (s *WebSocketServer) sendError(session *Session, err error) {
	message := "Internal server error"
	if appErr := apperrors.GetAppError(err); appErr != nil {
		message = appErr.Message
	}
	frame, encErr := EncodeEvent(NewErrorEvent(message))
	if encErr != nil {
		return
	}
	session.deliver(frame, s.writeTimeout)
}

// Shutdown closes every open viewer session.
func (s *WebSocketServer) Shutdown() {
	s.hub.CloseAll()
}

// HealthCheck reports the live-channel state for the health endpoint.
func (s *WebSocketServer) HealthCheck() map[string]interface{} {
	return map[string]interface{}{
		"status":   "healthy",
		"sessions": s.hub.SessionCount(),
		"rooms":    s.hub.RoomCount(),
	}
}
