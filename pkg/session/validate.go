package session

import (
	"errors"
	"strings"
)

// ErrInvalidKey is matched by every ValidationError.
var ErrInvalidKey = errors.New("invalid session key")

// ValidationError reports an empty identity field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "invalid session key: " + e.Field + " is required"
}

// Is reports whether target is ErrInvalidKey.
func (*ValidationError) Is(target error) bool {
	return target == ErrInvalidKey
}

// Validate checks that every component of the key is present.
func (k Key) Validate() error {
	if err := k.User().Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(k.SessionID) == "" {
		return &ValidationError{Field: "session_id"}
	}
	return nil
}

// Validate checks that the app and user are present.
func (u UserKey) Validate() error {
	if strings.TrimSpace(u.AppName) == "" {
		return &ValidationError{Field: "app_name"}
	}
	if strings.TrimSpace(u.UserID) == "" {
		return &ValidationError{Field: "user_id"}
	}
	return nil
}
