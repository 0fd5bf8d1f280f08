package gotrue

import (
	"time"

	goAuthBridge "github.com/MrEthical07/goAuthBridge"
)

type wireUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastSignInAt *time.Time     `json:"last_sign_in_at,omitempty"`
}

// wireSession is both the token endpoint response and the persisted form.
type wireSession struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	ExpiresAt    int64     `json:"expires_at,omitempty"`
	RefreshToken string    `json:"refresh_token"`
	User         *wireUser `json:"user"`
}

type wireError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (w *wireError) message() string {
	for _, m := range []string{w.ErrorDescription, w.Msg, w.Message, w.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}

func (w *wireError) code() string {
	if w.ErrorCode != "" {
		return w.ErrorCode
	}
	return w.Error
}

func (u *wireUser) identity() goAuthBridge.Identity {
	if u == nil {
		return goAuthBridge.Identity{}
	}
	id := goAuthBridge.Identity{
		ID:        u.ID,
		Email:     u.Email,
		Metadata:  u.UserMetadata,
		CreatedAt: u.CreatedAt,
	}
	if u.LastSignInAt != nil {
		id.LastSignInAt = *u.LastSignInAt
	}
	return id
}

// normalize fills ExpiresAt so the persisted session carries an absolute
// expiry.
func (s *wireSession) normalize(now time.Time) {
	if s.ExpiresAt != 0 {
		return
	}
	if s.ExpiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
		return
	}
	if exp := tokenExpiry(s.AccessToken); !exp.IsZero() {
		s.ExpiresAt = exp.Unix()
	}
}

func (s *wireSession) session() *goAuthBridge.Session {
	out := &goAuthBridge.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		User:         s.User.identity(),
	}
	if s.ExpiresAt != 0 {
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0).UTC()
	}
	return out
}
