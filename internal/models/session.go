package models

import "time"

// Session stores a refresh token issued at login. The token is opaque and
// rotated every time it is redeemed.
type Session struct {
	BaseModel

	UserID       string `gorm:"type:uuid;not null;index" json:"user_id"`
	RefreshToken string `gorm:"uniqueIndex;not null" json:"-"`

	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`

	ExpiresAt  time.Time  `gorm:"index" json:"expires_at"`
	LastUsedAt time.Time  `json:"last_used_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the session can still be refreshed at the given time.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
