package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultProfileImageURL is assigned to accounts created without an avatar.
const DefaultProfileImageURL = "https://www.gravatar.com/avatar/?d=mp"

// User represents an account holder.
type User struct {
	BaseModel
	FullName        string `json:"fullName"`
	Username        string `gorm:"not null" json:"username"`
	Email           string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash    string `gorm:"not null" json:"-"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// UserPatch is a partial update of mutable user fields. Nil fields are left untouched.
type UserPatch struct {
	FullName        *string
	Username        *string
	Email           *string
	PasswordHash    *string
	ProfileImageURL *string
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.FullName == nil && p.Username == nil && p.Email == nil &&
		p.PasswordHash == nil && p.ProfileImageURL == nil
}

// Columns returns the patch as a gorm column map.
func (p UserPatch) Columns() map[string]any {
	updates := map[string]any{}
	if p.FullName != nil {
		updates["full_name"] = *p.FullName
	}
	if p.Username != nil {
		updates["username"] = *p.Username
	}
	if p.Email != nil {
		updates["email"] = *p.Email
	}
	if p.PasswordHash != nil {
		updates["password_hash"] = *p.PasswordHash
	}
	if p.ProfileImageURL != nil {
		updates["profile_image_url"] = *p.ProfileImageURL
	}
	return updates
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u *User) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.ProfileImageURL != nil {
		u.ProfileImageURL = *p.ProfileImageURL
	}
}

// ConsumedResetToken records a reset token that has already been redeemed.
// Rows only need to outlive the token's own expiry.
type ConsumedResetToken struct {
	TokenID   string    `gorm:"primaryKey" json:"tokenId"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"userId"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`
	UsedAt    time.Time `json:"usedAt"`
}
