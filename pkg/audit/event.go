package audit

import (
	"time"

	"github.com/google/uuid"
)

// SystemActor is recorded when no authenticated caller is known, such as
// changes made from the command line.
const SystemActor = "system"

// NewEvent creates a new audit event.
func NewEvent(action Action) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Actor:     SystemActor,
		Action:    action,
	}
}

// WithActor sets who made the change. Empty names keep SystemActor.
func (e *Event) WithActor(actor string) *Event {
	if actor != "" {
		e.Actor = actor
	}
	return e
}

// WithTarget records the user, and optionally the session, that was changed.
func (e *Event) WithTarget(appName, userID, sessionID string) *Event {
	e.AppName = appName
	e.UserID = userID
	e.SessionID = sessionID
	return e
}

// WithParameters adds sanitized parameters to the event.
func (e *Event) WithParameters(params map[string]any) *Event {
	e.Parameters = SanitizeParameters(params)
	return e
}

// WithResult records the outcome of the change.
func (e *Event) WithResult(err error) *Event {
	e.Success = err == nil
	if err != nil {
		e.ErrorMessage = err.Error()
	}
	return e
}

// SanitizeParameters removes sensitive parameters from the event.
func SanitizeParameters(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}

	sensitiveKeys := map[string]bool{
		"password":      true,
		"secret":        true,
		"token":         true,
		"api_key":       true,
		"authorization": true,
		"credentials":   true,
	}

	sanitized := make(map[string]any)
	for k, v := range params {
		if sensitiveKeys[k] {
			sanitized[k] = "[REDACTED]"
		} else {
			sanitized[k] = v
		}
	}
	return sanitized
}
