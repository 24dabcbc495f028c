package user

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is a local profile record. It is the root of all per-user state and
// carries no credentials.
type UserProfile struct {
	ID          uuid.UUID `gorm:"primaryKey;column:id" json:"id"`
	DisplayName string    `gorm:"not null;column:display_name" json:"display_name"`
	AvatarColor string    `gorm:"column:avatar_color" json:"avatar_color"`
	// Avatar is a PNG rendered from the display name initials.
	Avatar    []byte    `gorm:"column:avatar" json:"-"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

func (UserProfile) TableName() string { return "user_profile" }
