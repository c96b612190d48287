package models

import "gorm.io/datatypes"

// CheckIn records one completion of a task by a user, optionally with a note
// and up to three photos.
type CheckIn struct {
	BaseModel

	TaskID string `gorm:"type:uuid;not null;index" json:"task_id"`
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`

	Text      string                      `json:"text"`
	PhotoURLs datatypes.JSONSlice[string] `json:"photo_urls"`

	Comments []Comment `gorm:"foreignKey:CheckInID;constraint:OnDelete:CASCADE" json:"-"`
	Likes    []Like    `gorm:"foreignKey:CheckInID;constraint:OnDelete:CASCADE" json:"-"`
}
