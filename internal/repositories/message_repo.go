package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/studiohub/studiohub/internal/models"
)

// ErrNotFound is returned when a row does not resolve.
var ErrNotFound = errors.New("record not found")

// MessageRepository is the persistence boundary for chat messages.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create persists a new message row.
func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

// GetByID loads a message with its sender profile.
func (r *MessageRepository) GetByID(id int64) (*models.Message, error) {
	var message models.Message
	if err := r.db.Preload("Sender").First(&message, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &message, nil
}

// ListByProject returns every message of the project, newest first, with
// sender profiles. Visibility filtering and pagination happen in the
// service layer because the visibility column is a JSON tag set the query
// layer cannot predicate on.
func (r *MessageRepository) ListByProject(projectID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("project_id = ?", projectID).
		Preload("Sender").
		Order("created_at DESC").
		Find(&messages).Error
	return messages, err
}

// RecentAcrossProjects returns up to limit newest messages across the given
// projects, excluding those authored by excludeSender.
func (r *MessageRepository) RecentAcrossProjects(projectIDs []uint, excludeSender uint, limit int) ([]models.Message, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	var messages []models.Message
	err := r.db.Where("project_id IN ? AND sender_id <> ?", projectIDs, excludeSender).
		Preload("Sender").
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// CreatedAfter returns messages in the given projects created after the
// cutoff, excluding those authored by excludeSender, newest first.
func (r *MessageRepository) CreatedAfter(projectIDs []uint, cutoff time.Time, excludeSender uint) ([]models.Message, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	var messages []models.Message
	err := r.db.Where("project_id IN ? AND sender_id <> ? AND created_at > ?", projectIDs, excludeSender, cutoff).
		Preload("Sender").
		Order("created_at DESC").
		Find(&messages).Error
	return messages, err
}

// UpdateBody rewrites the body and bumps updated_at. Last write wins; the
// store's per-row update atomicity is the only serialization.
func (r *MessageRepository) UpdateBody(id int64, body string) error {
	res := r.db.Model(&models.Message{}).
		Where("id = ?", id).
		Updates(map[string]any{"body": body, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the row permanently. The model carries no DeletedAt, so
// this is a hard delete.
func (r *MessageRepository) Delete(id int64) error {
	return r.db.Delete(&models.Message{}, id).Error
}
