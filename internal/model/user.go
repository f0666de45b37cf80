package model

import (
	"time"
)

type User struct {
	Model
	Name                 string     `gorm:"column:name;not null" json:"name"`
	Email                string     `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Photo                string     `gorm:"column:photo;default:default.jpg" json:"photo"`
	Role                 Role       `gorm:"column:role;type:varchar(20);not null;default:user" json:"role"`
	Password             string     `gorm:"column:password;not null" json:"-"`
	PasswordChangedAt    *time.Time `gorm:"column:password_changed_at" json:"-"`
	PasswordResetToken   *string    `gorm:"column:password_reset_token;size:64;index:idx_users_reset_token" json:"-"`
	PasswordResetExpires *time.Time `gorm:"column:password_reset_expires;index:idx_users_reset_cleanup" json:"-"`
	Active               bool       `gorm:"column:active;not null;default:true" json:"-"`
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at issuedAt. Comparison is at second precision, matching JWT iat.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}

// ClearResetToken drops any pending password reset.
func (u *User) ClearResetToken() {
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
}
