package session

import "github.com/emolog/emolog-client/pkg/protocol"

// AppHandler handles message types the session controller does not own
// itself (spec.md §4.6 step 2, "Unknown → delegate to an app-specific
// handler"). payload excludes the header.
type AppHandler interface {
	HandleMessage(msgType protocol.MessageType, payload []byte) protocol.ErrorCode
}

type defaultAppHandler struct{}

func (defaultAppHandler) HandleMessage(protocol.MessageType, []byte) protocol.ErrorCode {
	return protocol.ErrorUnexpectedMessage
}

// DefaultAppHandler rejects every message type it sees with
// ErrorUnexpectedMessage, matching handle_app_specific_message's fallback in
// the original embedded core when no application extends the protocol.
var DefaultAppHandler AppHandler = defaultAppHandler{}

// AppHandlerFunc adapts a plain function to AppHandler.
type AppHandlerFunc func(msgType protocol.MessageType, payload []byte) protocol.ErrorCode

func (f AppHandlerFunc) HandleMessage(msgType protocol.MessageType, payload []byte) protocol.ErrorCode {
	return f(msgType, payload)
}
