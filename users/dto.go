package users

import "time"

// ProfileResponse is the authenticated caller's own account record.
// @Description Profile of the authenticated user
type ProfileResponse struct {
	UserID    int64     `json:"userId" example:"1"`
	Username  string    `json:"username" example:"alice"`
	CreatedAt time.Time `json:"createdAt" example:"2024-05-01T10:00:00Z"`
	IsActive  bool      `json:"isActive" example:"true"`
}
