package models

// ScoreRequest lifecycle states. Pending is the sole initial state; approved
// and rejected are terminal.
const (
	ScoreRequestPending  = "pending"
	ScoreRequestApproved = "approved"
	ScoreRequestRejected = "rejected"
)

// ScoreRequest is a proposed point transfer awaiting the partner's decision.
// Requester and target are fixed at creation.
type ScoreRequest struct {
	BaseModel

	RequesterID string `gorm:"type:uuid;not null;index" json:"requester_id"`
	TargetID    string `gorm:"type:uuid;not null;index" json:"target_id"`

	Points int    `gorm:"not null" json:"points"`
	Reason string `gorm:"not null" json:"reason"`

	Status string `gorm:"not null;default:pending;index" json:"status"`
}

// Resolved reports whether the request has reached a terminal state.
func (r *ScoreRequest) Resolved() bool {
	return r.Status != ScoreRequestPending
}
