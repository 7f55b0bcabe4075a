package models

import "time"

// Project carries the staffing slots the chat policy evaluates. The wider
// project record (briefs, assets, revisions) belongs to the platform's CRUD
// services and is out of scope here.
type Project struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	ManagerID  *uint     `gorm:"index" json:"managerId"`
	TeamLeadID *uint     `gorm:"index" json:"teamLeadId"`
	DesignerID *uint     `gorm:"index" json:"designerId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Project) TableName() string {
	return "projects"
}
