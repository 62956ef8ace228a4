package model

import "time"

// User 用户
type User struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Username  string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Email     string `gorm:"type:varchar(128);uniqueIndex;not null"`
	Password  string `gorm:"type:varchar(128);not null" json:"-"`
	Age       int
	Status    int8 `gorm:"not null;default:1;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }

const (
	UserStatusNormal   int8 = 1
	UserStatusDisabled int8 = 2
)
