package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/studiohub/studiohub/internal/policy"
)

// Priority is an informational tag on a message.
type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityUrgent Priority = "URGENT"
)

// Attachment is a file reference carried by a message. Immutable after
// creation.
type Attachment struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Mention is a team member referenced by @Name in the body, resolved at
// creation time.
type Mention struct {
	UserID uint        `json:"userId"`
	Name   string      `json:"name"`
	Role   policy.Role `json:"role"`
}

// Message is a persisted project chat message. IDs are snowflakes, so id
// order and creation order agree. VisibleToRoles is denormalized as a JSON
// array; the query layer cannot filter on it, visibility is applied in
// policy.FilterVisible after the fetch. Deletion is hard: no tombstone row
// survives.
type Message struct {
	ID             int64                            `gorm:"primaryKey" json:"id"`
	ProjectID      uint                             `gorm:"not null;index" json:"projectId"`
	SenderID       uint                             `gorm:"not null;index" json:"senderId"`
	Body           string                           `gorm:"not null" json:"body"`
	Attachments    datatypes.JSONSlice[Attachment]  `json:"attachments"`
	VisibleToRoles datatypes.JSONSlice[policy.Role] `gorm:"not null" json:"visibleToRoles"`
	Mentions       datatypes.JSONSlice[Mention]     `json:"mentions"`
	Priority       Priority                         `gorm:"type:varchar(16);default:NORMAL" json:"priority"`
	CreatedAt      time.Time                        `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time                        `json:"updatedAt"`
	Sender         *User                            `gorm:"foreignKey:SenderID" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}

// VisibleRoles satisfies policy.Visible.
func (m Message) VisibleRoles() policy.RoleSet {
	return policy.RoleSetFrom(m.VisibleToRoles)
}
