package models

// Like marks a check-in as appreciated. A user may like a check-in once.
type Like struct {
	BaseModel

	CheckInID string `gorm:"type:uuid;not null;index:idx_like_author,unique" json:"check_in_id"`
	UserID    string `gorm:"type:uuid;not null;index:idx_like_author,unique" json:"user_id"`
}
