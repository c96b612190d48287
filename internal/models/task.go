package models

// Task is a shared goal the couple checks in against.
type Task struct {
	BaseModel

	Title       string `gorm:"not null;index" json:"title"`
	Description string `json:"description"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`

	CreatorID string `gorm:"type:uuid;not null" json:"creator_id"`
}
