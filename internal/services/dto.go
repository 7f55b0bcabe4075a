package services

import (
	"time"

	"github.com/studiohub/studiohub/internal/models"
	"github.com/studiohub/studiohub/internal/policy"
)

// MessageDTO is the wire form of a message, joined with the sender profile
// for immediate display. Field names are part of the client contract.
type MessageDTO struct {
	ID             int64              `json:"id"`
	ProjectID      uint               `json:"projectId"`
	SenderID       uint               `json:"senderId"`
	Body           string             `json:"body"`
	Attachments    []models.Attachment `json:"attachments"`
	VisibleToRoles policy.RoleSet     `json:"visibleToRoles"`
	Mentions       []models.Mention   `json:"mentions"`
	Priority       models.Priority    `json:"priority"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
	Sender         *models.Profile    `json:"sender,omitempty"`
	ProjectName    string             `json:"projectName,omitempty"`
}

func toDTO(m *models.Message) MessageDTO {
	dto := MessageDTO{
		ID:             m.ID,
		ProjectID:      m.ProjectID,
		SenderID:       m.SenderID,
		Body:           m.Body,
		Attachments:    m.Attachments,
		VisibleToRoles: m.VisibleRoles(),
		Mentions:       m.Mentions,
		Priority:       m.Priority,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.Sender != nil {
		profile := m.Sender.Profile()
		dto.Sender = &profile
	}
	return dto
}

// MessagePage is one page of a project's chat, oldest first.
type MessagePage struct {
	Items      []MessageDTO `json:"items"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
}

// RecentMessages is a cross-project feed for one user.
type RecentMessages struct {
	Items []MessageDTO `json:"items"`
	Total int          `json:"total"`
}

// UnreadPreview is a truncated unread message. The field names and the
// five-item cap are consumed by the reminder bot and must not change.
type UnreadPreview struct {
	ID             int64     `json:"id"`
	MessageExcerpt string    `json:"messageExcerpt"`
	SenderName     string    `json:"senderName"`
	ProjectName    string    `json:"projectName"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UnreadSummary is the unread-since result for one user.
type UnreadSummary struct {
	Count    int             `json:"count"`
	Messages []UnreadPreview `json:"messages"`
}

// UnreadUser pairs a user with their unread summary, for the reminder bot.
type UnreadUser struct {
	UserID uint            `json:"userId"`
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	Count  int             `json:"count"`
	Latest []UnreadPreview `json:"latest"`
}
