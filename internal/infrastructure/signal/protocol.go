package signal

import (
	"bytes"
	"encoding/json"
	"fmt"

	"queuecast/internal/core/domain"
	apperrors "queuecast/pkg/errors"
	"queuecast/pkg/validation"
)

// Inbound frame types.
const (
	TypeJoinQueue  = "joinQueue"
	TypeLeaveQueue = "leaveQueue"
)

// Outbound frame types.
const (
	TypeQueueItems = "queueItems"
	TypeError      = "error"
)

// Command is a decoded inbound frame. The set of implementations is closed.
type Command interface {
	command() string
}

type JoinQueue struct {
	QueueID domain.QueueID
}

type LeaveQueue struct {
	QueueID domain.QueueID
}

func (JoinQueue) command() string  { return TypeJoinQueue }
func (LeaveQueue) command() string { return TypeLeaveQueue }

type inboundFrame struct {
	Type    string          `json:"type"`
	QueueID json.RawMessage `json:"queueId"`
}

// DecodeCommand parses one inbound text frame. Failures are protocol errors
// meant for the sender only.
func DecodeCommand(data []byte) (Command, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, apperrors.NewProtocolError("malformed message")
	}

	switch frame.Type {
	case TypeJoinQueue, TypeLeaveQueue:
	case "":
		return nil, apperrors.NewProtocolError("message type is required")
	default:
		return nil, apperrors.NewProtocolError(fmt.Sprintf("unknown message type: %s", frame.Type))
	}

	id, err := decodeQueueID(frame.QueueID)
	if err != nil {
		return nil, apperrors.NewProtocolError("invalid queueId").WithContext("type", frame.Type)
	}

	if frame.Type == TypeJoinQueue {
		return JoinQueue{QueueID: id}, nil
	}
	return LeaveQueue{QueueID: id}, nil
}

// decodeQueueID accepts the id as a JSON string ("12") or a bare number.
func decodeQueueID(raw json.RawMessage) (domain.QueueID, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, fmt.Errorf("queueId is required")
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
	}
	id, err := validation.ParseID(text)
	if err != nil {
		return 0, err
	}
	return domain.QueueID(id), nil
}

// Event is an outbound frame. The set of implementations is closed.
type Event interface {
	event() string
}

type QueueItemsEvent struct {
	Type    string              `json:"type"`
	QueueID domain.QueueID      `json:"queueId"`
	Items   []*domain.QueueItem `json:"items"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (QueueItemsEvent) event() string { return TypeQueueItems }
func (ErrorEvent) event() string      { return TypeError }

// NewQueueItemsEvent never encodes items as null.
func NewQueueItemsEvent(queueID domain.QueueID, items []*domain.QueueItem) QueueItemsEvent {
	if items == nil {
		items = []*domain.QueueItem{}
	}
	return QueueItemsEvent{Type: TypeQueueItems, QueueID: queueID, Items: items}
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Message: message}
}

func EncodeEvent(e Event) ([]byte, error) {
	return json.Marshal(e)
}
