// Package notify delivers transient user-visible notices ("toasts") to the
// recording page. Every failure or success in the session lifecycle produces
// exactly one notice.
package notify

import "go.uber.org/zap"

// Kind is the notice flavor shown by the page.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notice is the payload pushed over the websocket.
type Notice struct {
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
}

// Notifier is the notification sink handed to session controllers.
type Notifier interface {
	Notify(clientID, message string, kind Kind)
}

// ClientSender pushes an event to a single connected page. Satisfied by the
// realtime hub.
type ClientSender interface {
	SendToClient(clientID, event string, payload interface{})
}

// HubNotifier sends notices over the stage hub.
type HubNotifier struct {
	hub    ClientSender
	logger *zap.Logger
}

// NewHubNotifier creates a hub-backed notifier.
func NewHubNotifier(hub ClientSender, logger *zap.Logger) *HubNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HubNotifier{hub: hub, logger: logger}
}

// Notify pushes a "notice" event to the client's page. Sessions without a
// connected page only get the log line.
func (n *HubNotifier) Notify(clientID, message string, kind Kind) {
	n.logger.Debug("notice",
		zap.String("client_id", clientID),
		zap.String("kind", string(kind)),
		zap.String("message", message),
	)
	if clientID == "" {
		return
	}
	n.hub.SendToClient(clientID, "notice", Notice{Message: message, Kind: kind})
}
