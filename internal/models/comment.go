package models

// Comment is a partner's note on a check-in. Each user may comment on a given
// check-in at most once.
type Comment struct {
	BaseModel

	CheckInID string `gorm:"type:uuid;not null;index:idx_comment_author,unique" json:"check_in_id"`
	UserID    string `gorm:"type:uuid;not null;index:idx_comment_author,unique" json:"user_id"`
	Content   string `gorm:"not null" json:"content"`
}
