package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/studiohub/studiohub/internal/models"
	"github.com/studiohub/studiohub/internal/policy"
)

// ProjectRepository resolves projects and their staffing. The wider project
// CRUD lives elsewhere in the platform; chat only reads.
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// GetByID loads a project.
func (r *ProjectRepository) GetByID(id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

// StaffingSnapshot loads the project's named slots plus the distinct
// developer IDs from its task assignments.
func (r *ProjectRepository) StaffingSnapshot(projectID uint) (policy.StaffingSnapshot, error) {
	project, err := r.GetByID(projectID)
	if err != nil {
		return policy.StaffingSnapshot{}, err
	}

	var developerIDs []uint
	err = r.db.Model(&models.Task{}).
		Where("project_id = ? AND assignee_id IS NOT NULL", projectID).
		Distinct("assignee_id").
		Order("assignee_id").
		Pluck("assignee_id", &developerIDs).Error
	if err != nil {
		return policy.StaffingSnapshot{}, err
	}

	return policy.StaffingSnapshot{
		ProjectID:    project.ID,
		ProjectName:  project.Name,
		ManagerID:    project.ManagerID,
		TeamLeadID:   project.TeamLeadID,
		DesignerID:   project.DesignerID,
		DeveloperIDs: developerIDs,
	}, nil
}

// ProjectIDsForUser resolves the projects a user is staffed on, by role.
// Admins see every project; manager, team lead and designer see the
// projects where they hold that slot; developers see the distinct projects
// of their task assignments.
func (r *ProjectRepository) ProjectIDsForUser(userID uint, role policy.Role) ([]uint, error) {
	var ids []uint
	var err error

	switch role {
	case policy.RoleAdmin:
		err = r.db.Model(&models.Project{}).Order("id").Pluck("id", &ids).Error
	case policy.RoleManager:
		err = r.db.Model(&models.Project{}).Where("manager_id = ?", userID).Order("id").Pluck("id", &ids).Error
	case policy.RoleTeamLead:
		err = r.db.Model(&models.Project{}).Where("team_lead_id = ?", userID).Order("id").Pluck("id", &ids).Error
	case policy.RoleDesigner:
		err = r.db.Model(&models.Project{}).Where("designer_id = ?", userID).Order("id").Pluck("id", &ids).Error
	case policy.RoleDeveloper:
		err = r.db.Model(&models.Task{}).
			Where("assignee_id = ?", userID).
			Distinct("project_id").
			Order("project_id").
			Pluck("project_id", &ids).Error
	default:
		return nil, nil
	}
	return ids, err
}

// NamesByIDs returns a projectID -> display name map for annotating
// cross-project message lists.
func (r *ProjectRepository) NamesByIDs(ids []uint) (map[uint]string, error) {
	if len(ids) == 0 {
		return map[uint]string{}, nil
	}
	var projects []models.Project
	if err := r.db.Select("id", "name").Where("id IN ?", ids).Find(&projects).Error; err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names, nil
}
