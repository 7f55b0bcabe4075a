package models

import "time"

// Task exists here only as the source of developer staffing: a developer
// belongs to a project's chat iff they hold at least one task in it.
type Task struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProjectID  uint      `gorm:"not null;index" json:"projectId"`
	AssigneeID *uint     `gorm:"index" json:"assigneeId"`
	Title      string    `json:"title"`
	Status     string    `gorm:"type:varchar(24);default:OPEN" json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Task) TableName() string {
	return "tasks"
}
