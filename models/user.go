package models

import (
	"time"

	"gorm.io/gorm"
)

// Message senders. Origin is tagged explicitly instead of being inferred
// from marker substrings in the content.
const (
	MessageSenderUser  = "user"
	MessageSenderAdmin = "admin"
)

// AdminWarningMarker prefixes administrator warning messages such as the
// streak reset notice. Kept inside the content as well so clients that
// match on the marker keep working.
const AdminWarningMarker = "⚠️ تنبيه من الإدارة"

// AttendanceRecord is one successful Fajr check-in with its context.
type AttendanceRecord struct {
	Date   time.Time `json:"date"`
	Mosque string    `json:"mosque"`
	Imam   string    `json:"imam"`
}

// Message is a single entry in the user/administration conversation.
// User-authored messages are appended in chronological order; messages
// from the administration are prepended so the newest shows first.
type Message struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	Sender  string    `json:"sender"`
	Content string    `json:"content"`
}

// User is the single durable entity of the attendance tracker. The
// array-valued fields live as JSON columns on the row, so a user stays one
// document and every ledger mutation is a single atomic row update.
//
// Invariants maintained by the controllers:
//   - Streak is 0 whenever LastCheckIn is nil.
//   - History and AttendanceLog grow together, one entry per check-in,
//     in chronological order.
//   - At most one check-in per Cairo calendar day.
type User struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	FullName      string             `gorm:"size:128;not null" json:"full_name"`
	PhoneNumber   string             `gorm:"size:32;uniqueIndex;not null" json:"phone_number"`
	PasswordHash  string             `gorm:"size:255" json:"-"`
	Streak        int                `gorm:"default:0" json:"streak"`
	LastCheckIn   *time.Time         `json:"last_check_in"`
	History       []time.Time        `gorm:"serializer:json" json:"history"`
	AttendanceLog []AttendanceRecord `gorm:"serializer:json" json:"attendance_log"`
	ClaimedReward bool               `gorm:"default:false" json:"claimed_reward"`
	Messages      []Message          `gorm:"serializer:json" json:"messages"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	DeletedAt     gorm.DeletedAt     `gorm:"index" json:"-"`
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
