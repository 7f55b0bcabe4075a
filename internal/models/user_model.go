package models

import (
	"time"

	"github.com/studiohub/studiohub/internal/policy"
)

// User is the minimal profile the chat core needs. Account management
// lives in the platform's user service; this table is read-mostly here.
type User struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Name      string      `gorm:"not null" json:"name"`
	Email     string      `gorm:"uniqueIndex;not null" json:"email"`
	Role      policy.Role `gorm:"type:varchar(16);not null;index" json:"role"`
	Avatar    string      `json:"avatar"`
	Active    bool        `gorm:"default:true;index" json:"active"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// Profile is the sender subset joined onto messages for immediate display.
type Profile struct {
	ID     uint        `json:"id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Role   policy.Role `json:"role"`
	Avatar string      `json:"avatar"`
}

// Profile projects the user onto its display subset.
func (u *User) Profile() Profile {
	return Profile{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Avatar: u.Avatar,
	}
}
