package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionRejected      EventType = "session_rejected"
	EventRedirectLoopDetected EventType = "redirect_loop_detected"
	EventDegradedAccess       EventType = "degraded_access"
	EventAccessDenied         EventType = "access_denied"
	EventInvalidUserData      EventType = "invalid_user_data"
	EventSessionIssued        EventType = "session_issued"
	EventSessionRevoked       EventType = "session_revoked"
)

// Event represents an auth decision worth auditing.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Path      string      `json:"path,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Role      string      `json:"role,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// RedirectLoopPayload describes a tripped redirect-loop guard.
type RedirectLoopPayload struct {
	Count    int    `json:"count"`
	Fallback string `json:"fallback"`
}

// DegradedAccessPayload describes access granted without backend confirmation.
type DegradedAccessPayload struct {
	Reason string `json:"reason"`
}

// AccessDeniedPayload describes a role denied a dashboard.
type AccessDeniedPayload struct {
	RedirectTo string `json:"redirect_to,omitempty"`
}
