package models

// User is the persisted identity record. Uniqueness of username and email is
// enforced by the database indexes, not just the pre-insert checks.
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"      json:"userId"`
	Username     string `gorm:"uniqueIndex;size:50;not null"  json:"username"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"not null"                      json:"-"`
}
