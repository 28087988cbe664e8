package domain

// EventNotification is the only event name pushed to live connections.
const EventNotification = "notification"

// Envelope is the message written to a live connection.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// NewNotificationEnvelope wraps a notification for delivery.
func NewNotificationEnvelope(n *Notification) Envelope {
	return Envelope{Event: EventNotification, Data: n}
}
