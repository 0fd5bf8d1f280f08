package goAuthBridge

import (
	"io"
	"time"

	internalaudit "github.com/MrEthical07/goAuthBridge/internal/audit"
)

// Role is the application-level role stored on a profile row.
type Role string

const (
	// RoleAdmin grants administrative access in the host application.
	RoleAdmin Role = "ADMIN"
	// RoleMember is the default role for every new or unlabelled profile.
	RoleMember Role = "MEMBER"
)

// ParseRole maps a stored role string to a [Role]. Anything other than the
// two known values reports ok=false.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleMember:
		return RoleMember, true
	default:
		return "", false
	}
}

// LocalUser is the canonical user shape handed to the host application.
// It merges identity-provider claims with the stored profile row.
//
// Zero timestamps mean "absent".
type LocalUser struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name,omitempty"`
	PhotoURL        string    `json:"photoURL,omitempty"`
	Role            Role      `json:"role"`
	IsActive        bool      `json:"isActive"`
	SubscriptionEnd time.Time `json:"subscriptionEnd,omitzero"`
	CreatedAt       time.Time `json:"createdAt,omitzero"`
	LastLogin       time.Time `json:"lastLogin,omitzero"`
}

// IsAdmin reports whether the user carries [RoleAdmin].
func (u *LocalUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Identity holds the claims an identity provider asserts about a user.
// Metadata is the provider's free-form user metadata (full_name, avatar_url, ...).
type Identity struct {
	ID           string
	Email        string
	Metadata     map[string]any
	CreatedAt    time.Time
	LastSignInAt time.Time
}

// Session is an authenticated, time-bounded provider session with the
// identity it was issued for.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	User         Identity
}

// Expired reports whether the session is past its expiry at now, allowing
// for margin. Sessions without an expiry never expire.
func (s *Session) Expired(now time.Time, margin time.Duration) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(margin).Before(s.ExpiresAt)
}

// SessionEventKind enumerates the state transitions an identity provider pushes.
type SessionEventKind string

const (
	EventInitialSession   SessionEventKind = "INITIAL_SESSION"
	EventSignedIn         SessionEventKind = "SIGNED_IN"
	EventSignedOut        SessionEventKind = "SIGNED_OUT"
	EventTokenRefreshed   SessionEventKind = "TOKEN_REFRESHED"
	EventUserUpdated      SessionEventKind = "USER_UPDATED"
	EventPasswordRecovery SessionEventKind = "PASSWORD_RECOVERY"
)

// SessionEvent is one provider-pushed state transition. Session is nil for
// sign-out.
type SessionEvent struct {
	Kind    SessionEventKind
	Session *Session
}

// AuditEvent is a structured audit record emitted by the facade.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the facade's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
