package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered voter. Passwords are stored as bcrypt hashes only.
// SharePoints is mutated exclusively by the share-award flow and the recompute
// repair tool; it always equals the number of ShareLog rows for the user.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	SharePoints  int        `gorm:"default:0;not null" json:"share_points"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Votes        []Vote     `json:"-"`
	ShareLogs    []ShareLog `json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
