package model

import "time"

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// User 平台用户，可选绑定一个Telegram会话
// swagger:model User
type User struct {
	BaseModel
	Name             string    `gorm:"size:100;not null" json:"name"`
	Email            string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password         string    `gorm:"size:255;not null" json:"-"`
	Role             UserRole  `gorm:"size:20;default:student" json:"role"`
	TelegramChatID   *int64    `gorm:"uniqueIndex" json:"-"`
	TelegramLinkCode string    `gorm:"size:36;index" json:"-"`
	LastLogin        time.Time `json:"lastLogin"`
	Disabled         bool      `gorm:"default:false" json:"disabled"`
}

func (User) TableName() string {
	return "users"
}
