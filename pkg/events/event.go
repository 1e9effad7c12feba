package events

import "time"

// Event is the contract for everything crossing the audit bus or NATS.
type Event interface {
	// EventType returns the unique code for this event (e.g., "USER_LOGIN").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event type codes emitted by the auth and widget domains.
const (
	TypeUserRegistered      = "USER_REGISTERED"
	TypeUserLogin           = "USER_LOGIN"
	TypeTokenRenewed        = "TOKEN_RENEWED"
	TypeRenewalReplayed     = "RENEWAL_REPLAYED"
	TypeLogoutAll           = "LOGOUT_ALL"
	TypeWidgetTokenIssued   = "WIDGET_TOKEN_ISSUED"
	TypeWidgetTokenRevoked  = "WIDGET_TOKEN_REVOKED"
	TypeWidgetSessionOpened = "WIDGET_SESSION_OPENED"
	TypeBotDeactivated      = "BOT_DEACTIVATED"
	TypeBotDeleted          = "BOT_DELETED"
)

// New builds a BaseEvent stamped with the current time.
func New(eventType string, data map[string]interface{}) Event {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
