package admin

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Key roles. An empty role is treated as RoleAdmin.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

type contextKey string

const adminUserKey contextKey = "admin_user"

// User identifies the API key a request was authenticated with.
type User struct {
	Name string
	Role string
}

// CanModify reports whether the user may change sessions or user contexts.
func (u *User) CanModify() bool {
	return u.Role == "" || u.Role == RoleAdmin
}

// GetUser returns the User from context, or nil if not set.
func GetUser(ctx context.Context) *User {
	u, _ := ctx.Value(adminUserKey).(*User)
	return u
}

// Authenticator validates admin credentials.
type Authenticator interface {
	Authenticate(r *http.Request) (*User, error)
}

// APIKey is a named admin key stored as a bcrypt hash.
type APIKey struct {
	Name    string `yaml:"name"`
	KeyHash string `yaml:"key_hash"`
	Role    string `yaml:"role"`
}

// ValidRole reports whether role is empty, RoleAdmin or RoleViewer.
func ValidRole(role string) bool {
	switch role {
	case "", RoleAdmin, RoleViewer:
		return true
	}
	return false
}

// APIKeyAuthenticator matches presented keys against bcrypt hashes.
type APIKeyAuthenticator struct {
	Keys []APIKey
}

// presentedKey reads the key from X-API-Key, falling back to a bearer token.
func presentedKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	return ""
}

// Authenticate returns the user owning the presented key. A nil user with a
// nil error means the request carried no valid key.
func (a *APIKeyAuthenticator) Authenticate(r *http.Request) (*User, error) {
	key := presentedKey(r)
	if key == "" {
		return nil, nil //nolint:nilnil // no credentials
	}
	for _, k := range a.Keys {
		if bcrypt.CompareHashAndPassword([]byte(k.KeyHash), []byte(key)) == nil {
			return &User{Name: k.Name, Role: k.Role}, nil
		}
	}
	return nil, nil //nolint:nilnil // unknown key
}

// isReadOnly reports whether method leaves stored data untouched.
func isReadOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// RequireAdmin rejects unauthenticated requests, and mutations from keys
// without the admin role.
func RequireAdmin(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.Authenticate(r)
			switch {
			case err != nil:
				writeError(w, http.StatusInternalServerError, "authentication error")
				return
			case user == nil:
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			case !isReadOnly(r.Method) && !user.CanModify():
				writeError(w, http.StatusForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminUserKey, user)))
		})
	}
}

// AuthMiddleware returns the middleware guarding the admin API, or nil when
// no keys are configured.
func AuthMiddleware(keys []APIKey) func(http.Handler) http.Handler {
	if len(keys) == 0 {
		return nil
	}
	return RequireAdmin(&APIKeyAuthenticator{Keys: keys})
}
