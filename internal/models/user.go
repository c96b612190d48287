package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account holder. Partner linkage is stored as an id reference
// only; the paired record is resolved via explicit lookup, never preloaded
// into a cyclic object graph.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Password string `gorm:"not null" json:"-"`

	// InvitationCode is generated once at registration and never changes.
	InvitationCode string `gorm:"uniqueIndex;not null;size:8" json:"invitation_code"`

	// PartnerID and BoundAt transition together exactly once, from
	// (null, null) to (partner id, bind time).
	PartnerID *string    `gorm:"type:uuid;uniqueIndex" json:"partner_id"`
	BoundAt   *time.Time `json:"bound_at"`

	Score int `gorm:"not null;default:0" json:"score"`

	Sessions []Session `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Paired reports whether the user is bound to a partner.
func (u *User) Paired() bool {
	return u.PartnerID != nil
}
